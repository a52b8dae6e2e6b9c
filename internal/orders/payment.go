package orders

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/01moynul/zemmon-store/internal/apperr"
	"github.com/01moynul/zemmon-store/internal/auth"
	"github.com/01moynul/zemmon-store/internal/models"
)

// awaitingPayment are the statuses a payment outcome may be applied to.
var awaitingPayment = []models.OrderStatus{models.OrderStatusPaymentPending, models.OrderStatusPaymentFailed}

func (s *Service) initiate(ctx context.Context, o *models.Order) (string, error) {
	req := models.PaymentRequest{
		Amount:      o.Total,
		Currency:    s.cfg.Currency,
		Reference:   o.ID,
		Email:       o.DeliveryInfo.Email,
		FirstName:   o.DeliveryInfo.FirstName,
		LastName:    o.DeliveryInfo.LastName,
		CallbackURL: s.cfg.CallbackURL,
		ReturnURL:   s.cfg.ReturnURL,
	}

	url, err := s.gateway.Initiate(ctx, req)
	if err != nil {
		s.log.Error("payment initiation failed",
			zap.String("order_id", o.ID), zap.Error(err))
		return "", apperr.Dependency("Payment initialization failed", err)
	}

	s.log.Info("payment initiated", zap.String("order_id", o.ID), zap.String("reference", req.Reference))
	return url, nil
}

// InitiatePayment opens a new hosted checkout for an online payment order
// that has not been paid yet. Only the owner may do this.
func (s *Service) InitiatePayment(ctx context.Context, p auth.Principal, orderID string) (*PlacedOrder, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	if s.gateway == nil {
		return nil, apperr.Dependency("Online payment is not available", errors.New("no payment gateway configured"))
	}

	o, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, apperr.Dependency("Failed to load order", err)
	}
	if o == nil || o.UserID != p.ID {
		return nil, apperr.ErrOrderNotFound
	}
	if o.PaymentMethod != models.PaymentOnline {
		return nil, apperr.Validation("not_online_payment", "Order is not paid online")
	}

	switch o.Status {
	case models.OrderStatusPaymentPending:
	case models.OrderStatusPaymentFailed:
		now := s.now()
		ok, err := s.store.TransitionOrderStatus(ctx, o.ID, awaitingPayment, models.OrderStatusPaymentPending, now)
		if err != nil {
			return nil, apperr.Dependency("Failed to update order status", err)
		}
		if !ok {
			return nil, apperr.Conflict("order_not_payable", "Order is no longer awaiting payment")
		}
		o.Status = models.OrderStatusPaymentPending
		o.UpdatedAt = now
	default:
		return nil, apperr.Conflict("order_not_payable", "Order is no longer awaiting payment")
	}

	url, err := s.initiate(ctx, o)
	if err != nil {
		return nil, err
	}
	return &PlacedOrder{Order: o, PaymentURL: url}, nil
}

// HandlePaymentCallback applies the outcome of a gateway transaction to the
// order it references. The reported status is only logged; the outcome
// always comes from a server-side verify. A paid order is never changed.
func (s *Service) HandlePaymentCallback(ctx context.Context, reference, reported string) (*models.Order, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, apperr.Validation("missing_reference", "Transaction reference is required")
	}
	if s.gateway == nil {
		return nil, apperr.Dependency("Online payment is not available", errors.New("no payment gateway configured"))
	}

	o, err := s.store.GetOrder(ctx, reference)
	if err != nil {
		return nil, apperr.Dependency("Failed to load order", err)
	}
	if o == nil {
		return nil, apperr.ErrOrderNotFound
	}
	if o.PaymentMethod != models.PaymentOnline {
		return nil, apperr.Validation("not_online_payment", "Order is not paid online")
	}

	verified, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		s.log.Error("payment verification failed",
			zap.String("reference", reference), zap.Error(err))
		return nil, apperr.Dependency("Payment verification failed", err)
	}

	log := s.log.With(
		zap.String("reference", reference),
		zap.String("reported", reported),
		zap.String("verified", string(verified)))

	if strings.EqualFold(strings.TrimSpace(reported), string(models.PaymentStatusSuccess)) && verified != models.PaymentStatusSuccess {
		log.Warn("callback reported success that the gateway did not confirm")
	}

	var next models.OrderStatus
	switch verified {
	case models.PaymentStatusSuccess:
		next = models.OrderStatusPaid
	case models.PaymentStatusFailed:
		next = models.OrderStatusPaymentFailed
	default:
		log.Info("payment still pending")
		return o, nil
	}

	if o.Status == next {
		return o, nil
	}
	if o.Status != models.OrderStatusPaymentPending && o.Status != models.OrderStatusPaymentFailed {
		log.Info("payment outcome ignored", zap.String("status", string(o.Status)))
		return o, nil
	}

	now := s.now()
	ok, err := s.store.TransitionOrderStatus(ctx, o.ID, awaitingPayment, next, now)
	if err != nil {
		return nil, apperr.Dependency("Failed to update order status", err)
	}
	if !ok {
		// Another request moved the order first.
		current, err := s.store.GetOrder(ctx, o.ID)
		if err != nil {
			return nil, apperr.Dependency("Failed to load order", err)
		}
		if current == nil {
			return nil, apperr.ErrOrderNotFound
		}
		return current, nil
	}

	log.Info("payment outcome applied", zap.String("from", string(o.Status)), zap.String("to", string(next)))
	o.Status = next
	o.UpdatedAt = now
	return o, nil
}
