package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/01moynul/zemmon-store/internal/models"
)

const orderColumns = `id, user_id, delivery_info, payment_method, subtotal, delivery_fee, total, status, created_at, updated_at`

func scanOrder(row scanner) (*models.Order, error) {
	var (
		o        models.Order
		delivery []byte
	)
	if err := row.Scan(&o.ID, &o.UserID, &delivery, &o.PaymentMethod, &o.Subtotal,
		&o.DeliveryFee, &o.Total, &o.Status, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(delivery, &o.DeliveryInfo); err != nil {
		return nil, fmt.Errorf("decode delivery info of order %s: %w", o.ID, err)
	}
	return &o, nil
}

// CreateOrder stores the order with its items and empties the owner's cart
// in the same transaction. Either all of it happens or none of it does.
func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	delivery, err := json.Marshal(o.DeliveryInfo)
	if err != nil {
		return fmt.Errorf("encode delivery info: %w", err)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin order create: %w", err)
	}
	defer tx.Rollback()

	// 1. --- Order header ---
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.UserID, delivery, o.PaymentMethod, o.Subtotal, o.DeliveryFee, o.Total, o.Status, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}

	// 2. --- Items ---
	for i, it := range o.Items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, product_id, name, size, quantity, unit_price, image, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			o.ID, i, it.ProductID, it.Name, it.Size, it.Quantity, it.UnitPrice, it.Image, it.Status)
		if err != nil {
			return fmt.Errorf("insert order item %s: %w", it.Key(), err)
		}
	}

	// 3. --- Clear the cart ---
	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ?", o.UserID); err != nil {
		return fmt.Errorf("clear cart of %s: %w", o.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order create: %w", err)
	}
	return nil
}

// GetOrder returns the order with its items, or nil when it does not exist.
func (s *Store) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	row := s.DB.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find order %s: %w", id, err)
	}

	items, err := s.orderItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

// ListOrdersByUser returns the user's orders, newest first.
func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	return s.queryOrders(ctx, "SELECT "+orderColumns+" FROM orders WHERE user_id = ? ORDER BY created_at DESC", userID)
}

// ListOrders returns every order, newest first.
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.queryOrders(ctx, "SELECT "+orderColumns+" FROM orders ORDER BY created_at DESC")
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	rows.Close()

	// Items are loaded after the header cursor is released.
	for i := range orders {
		items, err := s.orderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (s *Store) orderItems(ctx context.Context, orderID string) ([]models.OrderItem, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT product_id, name, size, quantity, unit_price, image, status
		FROM order_items
		WHERE order_id = ?
		ORDER BY position`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query items of order %s: %w", orderID, err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Size, &it.Quantity, &it.UnitPrice, &it.Image, &it.Status); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

// UpdateOrderStatus sets the order status. It reports false when no order
// has the id.
func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, at time.Time) (bool, error) {
	res, err := s.DB.ExecContext(ctx, "UPDATE orders SET status = ?, updated_at = ? WHERE id = ?", status, at, id)
	if err != nil {
		return false, fmt.Errorf("update status of order %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateItemStatus sets the status of the line identified by key. It
// reports false when the order has no such line.
func (s *Store) UpdateItemStatus(ctx context.Context, id string, key models.LineKey, status models.ItemStatus, at time.Time) (bool, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin item status update: %w", err)
	}
	defer tx.Rollback()

	var current models.ItemStatus
	err = tx.QueryRowContext(ctx, `
		SELECT status FROM order_items
		WHERE order_id = ? AND product_id = ? AND size = ?
		FOR UPDATE`, id, key.ProductID, key.Size).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lock order item %s: %w", key, err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE order_items SET status = ?
		WHERE order_id = ? AND product_id = ? AND size = ?`,
		status, id, key.ProductID, key.Size); err != nil {
		return false, fmt.Errorf("update order item %s: %w", key, err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE orders SET updated_at = ? WHERE id = ?", at, id); err != nil {
		return false, fmt.Errorf("touch order %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit item status update: %w", err)
	}
	return true, nil
}

// TransitionOrderStatus sets the status only while the order is in one of
// from. It reports false when the order is missing or in another status.
func (s *Store) TransitionOrderStatus(ctx context.Context, id string, from []models.OrderStatus, to models.OrderStatus, at time.Time) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	args := []any{to, at, id}
	for _, st := range from {
		args = append(args, st)
	}

	res, err := s.DB.ExecContext(ctx,
		"UPDATE orders SET status = ?, updated_at = ? WHERE id = ? AND status IN ("+placeholders(len(from))+")",
		args...)
	if err != nil {
		return false, fmt.Errorf("transition order %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
