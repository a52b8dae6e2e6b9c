package orders

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/01moynul/zemmon-store/internal/apperr"
	"github.com/01moynul/zemmon-store/internal/auth"
	"github.com/01moynul/zemmon-store/internal/models"
)

// UpdateOrderStatus sets the status of an order. Admin only.
// Moves are unrestricted unless strict transitions are configured.
func (s *Service) UpdateOrderStatus(ctx context.Context, actor auth.Principal, orderID string, status models.OrderStatus) (*models.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	status = models.OrderStatus(strings.TrimSpace(string(status)))
	if !status.Valid() {
		return nil, apperr.ErrInvalidStatus.With("Invalid order status %q", status)
	}

	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, apperr.Dependency("Failed to load order", err)
	}
	if o == nil {
		return nil, apperr.ErrOrderNotFound
	}

	if s.cfg.StrictTransitions && !models.CanTransition(o.Status, status) {
		return nil, apperr.Conflict("invalid_transition", "Cannot move order from %s to %s", o.Status, status)
	}

	now := s.now()
	ok, err := s.store.UpdateOrderStatus(ctx, orderID, status, now)
	if err != nil {
		return nil, apperr.Dependency("Failed to update order status", err)
	}
	if !ok {
		return nil, apperr.ErrOrderNotFound
	}

	s.log.Info("order status updated",
		zap.String("order_id", orderID),
		zap.String("admin_id", actor.ID),
		zap.String("from", string(o.Status)),
		zap.String("to", string(status)))

	o.Status = status
	o.UpdatedAt = now
	return o, nil
}

// UpdateItemStatus sets the status of one order line, found by product id
// and size. Admin only. Other lines and the order status are left alone.
func (s *Service) UpdateItemStatus(ctx context.Context, actor auth.Principal, orderID, productID, size string, status models.ItemStatus) (*models.Order, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	status = models.ItemStatus(strings.TrimSpace(string(status)))
	if !status.Valid() {
		return nil, apperr.ErrInvalidStatus.With("Invalid item status %q", status)
	}
	key := models.NewLineKey(productID, size)
	if key.ProductID == "" || key.Size == "" {
		return nil, apperr.Validation("invalid_item", "Product ID and size are required")
	}

	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, apperr.Dependency("Failed to load order", err)
	}
	if o == nil {
		return nil, apperr.ErrOrderNotFound
	}
	idx := o.FindItem(key)
	if idx < 0 {
		return nil, apperr.ErrItemNotFound
	}

	now := s.now()
	ok, err := s.store.UpdateItemStatus(ctx, orderID, key, status, now)
	if err != nil {
		return nil, apperr.Dependency("Failed to update item status", err)
	}
	if !ok {
		return nil, apperr.ErrItemNotFound
	}

	s.log.Info("order item status updated",
		zap.String("order_id", orderID),
		zap.String("admin_id", actor.ID),
		zap.String("line", key.String()),
		zap.String("to", string(status)))

	o.Items[idx].Status = status
	o.UpdatedAt = now
	return o, nil
}
