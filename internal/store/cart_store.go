package store

import (
	"context"
	"fmt"

	"github.com/01moynul/zemmon-store/internal/models"
)

// GetCart loads the user's cart. A user without lines has an empty cart,
// never an error.
func (s *Store) GetCart(ctx context.Context, userID string) (*models.Cart, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT product_id, size, quantity, unit_price, name, image, added_at, updated_at
		FROM cart_items
		WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query cart of %s: %w", userID, err)
	}
	defer rows.Close()

	cart := models.NewCart(userID)
	for rows.Next() {
		var l models.CartLine
		if err := rows.Scan(&l.ProductID, &l.Size, &l.Quantity, &l.UnitPrice, &l.Name, &l.Image, &l.AddedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		cart.Put(&l)
		if l.UpdatedAt.After(cart.UpdatedAt) {
			cart.UpdatedAt = l.UpdatedAt
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}
	return cart, nil
}

// SaveCart replaces the stored cart with c in one transaction. Concurrent
// saves for the same user are last-write-wins.
func (s *Store) SaveCart(ctx context.Context, c *models.Cart) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin cart save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = ?", c.UserID); err != nil {
		return fmt.Errorf("clear cart of %s: %w", c.UserID, err)
	}

	for _, l := range c.SortedLines() {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cart_items (user_id, product_id, size, quantity, unit_price, name, image, added_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.UserID, l.ProductID, l.Size, l.Quantity, l.UnitPrice, l.Name, l.Image, l.AddedAt, l.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert cart line %s: %w", l.Key(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit cart save: %w", err)
	}
	return nil
}
