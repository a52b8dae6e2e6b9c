package orders

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/01moynul/zemmon-store/internal/apperr"
	"github.com/01moynul/zemmon-store/internal/auth"
	"github.com/01moynul/zemmon-store/internal/models"
)

// OrderLineInput is one cart line as the client submits it at checkout.
type OrderLineInput struct {
	ProductID string          `json:"productId"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
}

// PlaceOrderInput is the checkout request body.
type PlaceOrderInput struct {
	DeliveryInfo  models.DeliveryInfo  `json:"deliveryInfo"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
	Items         []OrderLineInput     `json:"items"`
}

// PlacedOrder is the created order plus, for online payment, the hosted
// checkout URL. PaymentError is set when the order was stored but the
// checkout could not be opened; the owner retries through InitiatePayment.
type PlacedOrder struct {
	Order        *models.Order `json:"order"`
	PaymentURL   string        `json:"paymentUrl,omitempty"`
	PaymentError string        `json:"paymentError,omitempty"`
}

// PlaceOrder creates an order from the submitted cart lines and clears the
// caller's cart. The submitted unit prices are charged as given.
func (s *Service) PlaceOrder(ctx context.Context, p auth.Principal, in PlaceOrderInput) (*PlacedOrder, error) {
	if err := requireUser(p); err != nil {
		return nil, err
	}

	// 1. --- Validate input ---
	in.DeliveryInfo = in.DeliveryInfo.Trimmed()
	if len(in.Items) == 0 {
		return nil, apperr.ErrIncompleteOrder.With("Cart is empty")
	}
	if err := s.validate.Struct(in.DeliveryInfo); err != nil {
		return nil, apperr.ErrIncompleteOrder.With("Missing or invalid delivery information: %s", fieldList(err))
	}
	if in.PaymentMethod == "" {
		return nil, apperr.ErrIncompleteOrder.With("Payment method is required")
	}
	if !in.PaymentMethod.Valid() {
		return nil, apperr.ErrInvalidPayment
	}
	if in.PaymentMethod == models.PaymentOnline && s.gateway == nil {
		return nil, apperr.Dependency("Online payment is not available", errors.New("no payment gateway configured"))
	}

	items, err := buildItems(in.Items)
	if err != nil {
		return nil, err
	}

	// 2. --- Compare against the live catalog ---
	s.reconcileWithCatalog(ctx, p.ID, items)

	// 3. --- Assemble the order ---
	now := s.now()
	order := &models.Order{
		ID:            s.newID(),
		UserID:        p.ID,
		DeliveryInfo:  in.DeliveryInfo,
		PaymentMethod: in.PaymentMethod,
		Items:         items,
		DeliveryFee:   s.cfg.DeliveryFee,
		Status:        in.PaymentMethod.InitialStatus(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.Subtotal = order.ItemSubtotal()
	order.Total = order.Subtotal.Add(order.DeliveryFee)

	// 4. --- Persist order and clear cart ---
	if err := s.store.CreateOrder(ctx, order); err != nil {
		return nil, apperr.Dependency("Failed to place order", err)
	}

	s.log.Info("order placed",
		zap.String("order_id", order.ID),
		zap.String("user_id", p.ID),
		zap.String("payment_method", string(order.PaymentMethod)),
		zap.String("total", order.Total.StringFixed(2)))

	placed := &PlacedOrder{Order: order}
	if order.PaymentMethod != models.PaymentOnline {
		return placed, nil
	}

	// 5. --- Open the hosted checkout ---
	// The order is already committed, so a gateway failure is reported
	// alongside it instead of failing the request.
	url, err := s.initiate(ctx, order)
	if err != nil {
		placed.PaymentError = apperr.PublicMessage(err)
		return placed, nil
	}
	placed.PaymentURL = url
	return placed, nil
}

// buildItems validates the submitted lines and turns them into pending
// order items. Sizes are normalized and each (product, size) may appear once.
func buildItems(lines []OrderLineInput) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(lines))
	seen := make(map[models.LineKey]bool, len(lines))

	for i, l := range lines {
		key := models.NewLineKey(l.ProductID, l.Size)
		if key.ProductID == "" || key.Size == "" {
			return nil, apperr.ErrIncompleteOrder.With("Item %d is missing a product or size", i+1)
		}
		if l.Quantity < 1 {
			return nil, apperr.ErrInvalidQuantity.With("Item %d has an invalid quantity", i+1)
		}
		if !models.IsMoney(l.Price) {
			return nil, apperr.Validation("invalid_price", "Item %d has an invalid price", i+1)
		}
		if seen[key] {
			return nil, apperr.Validation("duplicate_item", "Item %s appears more than once", key)
		}
		seen[key] = true

		items = append(items, models.OrderItem{
			ProductID: key.ProductID,
			Name:      l.Name,
			Size:      key.Size,
			Quantity:  l.Quantity,
			UnitPrice: l.Price,
			Image:     l.Image,
			Status:    models.ItemStatusPending,
		})
	}
	return items, nil
}

// reconcileWithCatalog fills missing names and images and logs every line
// whose submitted price differs from the catalog. Prices are not changed.
func (s *Service) reconcileWithCatalog(ctx context.Context, userID string, items []models.OrderItem) {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}

	products, err := s.catalog.FindMany(ctx, ids)
	if err != nil {
		s.log.Warn("catalog unavailable, order prices not cross-checked",
			zap.String("user_id", userID), zap.Error(err))
		return
	}
	byID := make(map[string]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for i := range items {
		it := &items[i]
		prod, ok := byID[it.ProductID]
		if !ok {
			if it.Name == "" {
				it.Name = models.UnknownProductName
			}
			s.log.Warn("ordered product not in catalog",
				zap.String("user_id", userID), zap.String("product_id", it.ProductID))
			continue
		}
		if it.Name == "" {
			it.Name = prod.Name
		}
		if it.Image == "" {
			it.Image = prod.PrimaryImage()
		}
		if !it.UnitPrice.Equal(prod.Price) {
			s.log.Warn("submitted price differs from catalog",
				zap.String("user_id", userID),
				zap.String("product_id", it.ProductID),
				zap.String("submitted", it.UnitPrice.String()),
				zap.String("catalog", prod.Price.String()))
		}
	}
}

func fieldList(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	out := ""
	for i, fe := range verrs {
		if i > 0 {
			out += ", "
		}
		out += fe.Field()
	}
	return out
}
