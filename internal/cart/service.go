// Package cart reconciles a user's cart lines against the product catalog.
package cart

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/01moynul/zemmon-store/internal/apperr"
	"github.com/01moynul/zemmon-store/internal/models"
)

// Catalog is the read side of the product catalog.
// FindByID returns (nil, nil) when the product does not exist.
type Catalog interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindMany(ctx context.Context, ids []string) ([]models.Product, error)
}

// Store persists carts. GetCart never returns a nil cart without an error.
type Store interface {
	GetCart(ctx context.Context, userID string) (*models.Cart, error)
	SaveCart(ctx context.Context, c *models.Cart) error
}

// Service manages each user's cart. Lines snapshot the product name, image
// and price when they are created.
type Service struct {
	store   Store
	catalog Catalog
	log     *zap.Logger
	now     func() time.Time
}

// NewService wires the cart service. A nil log discards output.
func NewService(store Store, catalog Catalog, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, catalog: catalog, log: log, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) load(ctx context.Context, userID string) (*models.Cart, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, apperr.ErrUnauthenticated
	}
	c, err := s.store.GetCart(ctx, userID)
	if err != nil {
		return nil, apperr.Dependency("Failed to load cart", err)
	}
	return c, nil
}

func (s *Service) save(ctx context.Context, c *models.Cart) error {
	c.UpdatedAt = s.now()
	if err := s.store.SaveCart(ctx, c); err != nil {
		return apperr.Dependency("Failed to save cart", err)
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, productID string) (*models.Product, error) {
	p, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		return nil, apperr.Dependency("Failed to look up product", err)
	}
	if p == nil {
		return nil, apperr.ErrProductNotFound
	}
	return p, nil
}

func (s *Service) snapshot(p *models.Product, key models.LineKey, qty int) *models.CartLine {
	now := s.now()
	return &models.CartLine{
		ProductID: key.ProductID,
		Size:      key.Size,
		Quantity:  qty,
		UnitPrice: p.Price,
		Name:      p.Name,
		Image:     p.PrimaryImage(),
		AddedAt:   now,
		UpdatedAt: now,
	}
}

// AddItem puts one unit of (productID, size) in the cart. A line that is
// already present is rejected, not merged.
func (s *Service) AddItem(ctx context.Context, userID, productID, size string) (*models.CartView, error) {
	key := models.NewLineKey(productID, size)
	if key.ProductID == "" || key.Size == "" {
		return nil, apperr.Validation("invalid_item", "Product ID and size are required")
	}

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, exists := c.Line(key); exists {
		return nil, apperr.ErrDuplicateItem
	}

	p, err := s.lookup(ctx, key.ProductID)
	if err != nil {
		return nil, err
	}
	if !p.HasSize(key.Size) {
		return nil, apperr.Validation("invalid_size", "Size %s is not available for this product", key.Size)
	}

	c.Put(s.snapshot(p, key, 1))
	if err := s.save(ctx, c); err != nil {
		return nil, err
	}

	s.log.Debug("cart item added", zap.String("user_id", userID), zap.String("line", key.String()))
	return s.view(ctx, c), nil
}

// SetQuantity sets the quantity of a line. Zero or less removes it; a
// missing line is created from the current catalog entry.
func (s *Service) SetQuantity(ctx context.Context, userID, productID, size string, quantity float64) (*models.CartView, error) {
	if math.IsNaN(quantity) || math.IsInf(quantity, 0) || quantity != math.Trunc(quantity) {
		return nil, apperr.ErrInvalidQuantity
	}
	if quantity > math.MaxInt32 {
		return nil, apperr.ErrInvalidQuantity.With("Quantity is too large")
	}

	key := models.NewLineKey(productID, size)
	if key.ProductID == "" || key.Size == "" {
		return nil, apperr.Validation("invalid_item", "Product ID and size are required")
	}

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	qty := int(quantity)
	if qty <= 0 {
		// Removing a line that is not there is not an error.
		if c.Remove(key) {
			if err := s.save(ctx, c); err != nil {
				return nil, err
			}
		}
		return s.view(ctx, c), nil
	}

	if line, ok := c.Line(key); ok {
		line.Quantity = qty
		line.UpdatedAt = s.now()
	} else {
		p, err := s.lookup(ctx, key.ProductID)
		if err != nil {
			return nil, err
		}
		if !p.HasSize(key.Size) {
			return nil, apperr.Validation("invalid_size", "Size %s is not available for this product", key.Size)
		}
		c.Put(s.snapshot(p, key, qty))
	}

	if err := s.save(ctx, c); err != nil {
		return nil, err
	}
	return s.view(ctx, c), nil
}

// GetCart returns the cart re-joined against the catalog.
func (s *Service) GetCart(ctx context.Context, userID string) (*models.CartView, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, c), nil
}

// view builds the client view of c. Missing names and images are filled
// from the catalog; a stored price is never replaced. A catalog failure
// leaves the stored snapshot as is.
func (s *Service) view(ctx context.Context, c *models.Cart) *models.CartView {
	lines := c.SortedLines()

	products := map[string]*models.Product{}
	if len(lines) > 0 {
		ids := make([]string, 0, len(lines))
		seen := map[string]bool{}
		for _, l := range lines {
			if !seen[l.ProductID] {
				seen[l.ProductID] = true
				ids = append(ids, l.ProductID)
			}
		}

		found, err := s.catalog.FindMany(ctx, ids)
		if err != nil {
			s.log.Warn("catalog unavailable, serving cart snapshot",
				zap.String("user_id", c.UserID), zap.Error(err))
		}
		for i := range found {
			products[found[i].ID] = &found[i]
		}
	}

	view := &models.CartView{UserID: c.UserID, Items: make([]models.CartLine, 0, len(lines))}
	for _, l := range lines {
		p := products[l.ProductID]
		if l.Name == "" {
			l.Name = models.UnknownProductName
			if p != nil && p.Name != "" {
				l.Name = p.Name
			}
		}
		if l.Image == "" && p != nil {
			l.Image = p.PrimaryImage()
		}
		view.Items = append(view.Items, l)
		view.Subtotal = view.Subtotal.Add(l.LineTotal())
		view.TotalItems += l.Quantity
	}
	return view
}
