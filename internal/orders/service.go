// Package orders turns carts into orders and moves orders and their items
// through the status workflow, including payment confirmation.
package orders

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/zemmon-store/internal/apperr"
	"github.com/01moynul/zemmon-store/internal/auth"
	"github.com/01moynul/zemmon-store/internal/models"
)

//go:generate mockgen -destination=mocks/gateway_mock.go -package=mocks github.com/01moynul/zemmon-store/internal/orders Gateway

// Store persists orders. CreateOrder also clears the owner's cart.
// Lookups return (nil, nil) for a missing order; updates report whether a
// row was changed.
type Store interface {
	CreateOrder(ctx context.Context, o *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, at time.Time) (bool, error)
	TransitionOrderStatus(ctx context.Context, id string, from []models.OrderStatus, to models.OrderStatus, at time.Time) (bool, error)
	UpdateItemStatus(ctx context.Context, id string, key models.LineKey, status models.ItemStatus, at time.Time) (bool, error)
}

// Catalog resolves the products referenced by order lines.
type Catalog interface {
	FindMany(ctx context.Context, ids []string) ([]models.Product, error)
}

// Gateway is the hosted payment provider. Initiate returns the checkout URL
// the customer is redirected to.
type Gateway interface {
	Initiate(ctx context.Context, req models.PaymentRequest) (string, error)
	Verify(ctx context.Context, reference string) (models.PaymentStatus, error)
}

// Config holds the checkout settings. DeliveryFee is added once per order;
// CallbackURL and ReturnURL are handed to the gateway on every initiation.
// StrictTransitions enforces models.CanTransition on admin status updates.
type Config struct {
	DeliveryFee       decimal.Decimal
	Currency          string
	CallbackURL       string
	ReturnURL         string
	StrictTransitions bool
}

// Service places orders, serves order reads, applies admin status changes
// and settles online payments.
type Service struct {
	store    Store
	catalog  Catalog
	gateway  Gateway
	cfg      Config
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
	newID    func() string
}

// NewService wires the order service. gateway may be nil, in which case
// online payment orders are refused.
func NewService(store Store, catalog Catalog, gateway Gateway, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Service{
		store:    store,
		catalog:  catalog,
		gateway:  gateway,
		cfg:      cfg,
		log:      log,
		validate: validate,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithIDs replaces the order id generator. Used by tests.
func (s *Service) WithIDs(newID func() string) *Service {
	s.newID = newID
	return s
}

func requireUser(p auth.Principal) error {
	if !p.Authenticated() {
		return apperr.ErrUnauthenticated
	}
	return nil
}

func requireAdmin(p auth.Principal) error {
	if !p.Authenticated() {
		return apperr.ErrUnauthenticated
	}
	if !p.IsAdmin() {
		return apperr.ErrForbidden
	}
	return nil
}

// fetch loads an order. Callers that are neither the owner nor an admin
// get the same not-found error as for a missing order.
func (s *Service) fetch(ctx context.Context, p auth.Principal, id string) (*models.Order, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, apperr.Dependency("Failed to load order", err)
	}
	if o == nil || (o.UserID != p.ID && !p.IsAdmin()) {
		return nil, apperr.ErrOrderNotFound
	}
	return o, nil
}

// GetOrder returns an order to its owner or an admin.
func (s *Service) GetOrder(ctx context.Context, p auth.Principal, id string) (*models.Order, error) {
	return s.fetch(ctx, p, id)
}

// GetOrderStatus returns only the order status.
func (s *Service) GetOrderStatus(ctx context.Context, p auth.Principal, id string) (models.OrderStatus, error) {
	o, err := s.fetch(ctx, p, id)
	if err != nil {
		return "", err
	}
	return o.Status, nil
}

// ListUserOrders returns the caller's orders, newest first.
func (s *Service) ListUserOrders(ctx context.Context, p auth.Principal) ([]models.Order, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}
	list, err := s.store.ListOrdersByUser(ctx, p.ID)
	if err != nil {
		return nil, apperr.Dependency("Failed to list orders", err)
	}
	if list == nil {
		list = []models.Order{}
	}
	return list, nil
}

// ListAllOrders returns every order, newest first. Admin only.
func (s *Service) ListAllOrders(ctx context.Context, p auth.Principal) ([]models.Order, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	list, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, apperr.Dependency("Failed to list orders", err)
	}
	if list == nil {
		list = []models.Order{}
	}
	return list, nil
}
