// Package memstore is an in-process store used by the memory driver and by
// tests. It keeps the same contracts as the MySQL store.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/01moynul/zemmon-store/internal/models"
)

// Store holds products, carts and orders in maps guarded by one RWMutex.
// Every read returns a copy, so callers never share state with the store.
type Store struct {
	mu       sync.RWMutex
	products map[string]models.Product
	carts    map[string]*models.Cart
	orders   map[string]*models.Order
	seq      map[string]int64
	next     int64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		products: make(map[string]models.Product),
		carts:    make(map[string]*models.Cart),
		orders:   make(map[string]*models.Order),
		seq:      make(map[string]int64),
	}
}

func cloneProduct(p models.Product) models.Product {
	p.Images = append([]string(nil), p.Images...)
	p.Sizes = append([]string(nil), p.Sizes...)
	return p
}

// UpsertProduct inserts p or replaces the product with the same ID.
func (s *Store) UpsertProduct(_ context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = cloneProduct(*p)
	return nil
}

// DeleteProduct removes a product. Carts that reference it keep their lines.
func (s *Store) DeleteProduct(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

// FindByID returns (nil, nil) when the product does not exist.
func (s *Store) FindByID(_ context.Context, id string) (*models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	cp := cloneProduct(p)
	return &cp, nil
}

// FindMany returns the products that exist among ids. Unknown ids are skipped.
func (s *Store) FindMany(_ context.Context, ids []string) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Product
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if p, ok := s.products[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

// ListProducts returns the products matching filter, newest first.
func (s *Store) ListProducts(_ context.Context, filter models.ProductFilter) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Product
	for _, p := range s.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.BestSeller != nil && p.BestSeller != *filter.BestSeller {
			continue
		}
		out = append(out, cloneProduct(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetCart returns an empty cart for a user who has none.
func (s *Store) GetCart(_ context.Context, userID string) (*models.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.carts[userID]; ok {
		return c.Clone(), nil
	}
	return models.NewCart(userID), nil
}

// SaveCart replaces the user's cart. An empty cart is removed.
func (s *Store) SaveCart(_ context.Context, c *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.IsEmpty() {
		delete(s.carts, c.UserID)
		return nil
	}
	s.carts[c.UserID] = c.Clone()
	return nil
}

// CreateOrder stores the order and drops the owner's cart under one lock.
func (s *Store) CreateOrder(_ context.Context, o *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.orders[o.ID] = o.Clone()
	s.seq[o.ID] = s.next
	delete(s.carts, o.UserID)
	return nil
}

// GetOrder returns (nil, nil) when the order does not exist.
func (s *Store) GetOrder(_ context.Context, id string) (*models.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	return o.Clone(), nil
}

// ListOrdersByUser returns the user's orders, newest first.
func (s *Store) ListOrdersByUser(_ context.Context, userID string) ([]models.Order, error) {
	return s.list(func(o *models.Order) bool { return o.UserID == userID }), nil
}

// ListOrders returns every order, newest first.
func (s *Store) ListOrders(_ context.Context) ([]models.Order, error) {
	return s.list(func(*models.Order) bool { return true }), nil
}

func (s *Store) list(keep func(*models.Order) bool) []models.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Order
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, *o.Clone())
		}
	}
	// Newest first; insertion order breaks timestamp ties.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return s.seq[out[i].ID] > s.seq[out[j].ID]
	})
	return out
}

// UpdateOrderStatus sets the order status unconditionally.
func (s *Store) UpdateOrderStatus(_ context.Context, id string, status models.OrderStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return false, nil
	}
	o.Status = status
	o.UpdatedAt = at
	return true, nil
}

// TransitionOrderStatus moves the order to `to` only while its status is one
// of from.
func (s *Store) TransitionOrderStatus(_ context.Context, id string, from []models.OrderStatus, to models.OrderStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return false, nil
	}
	for _, st := range from {
		if o.Status == st {
			o.Status = to
			o.UpdatedAt = at
			return true, nil
		}
	}
	return false, nil
}

// UpdateItemStatus sets the status of the item identified by key.
func (s *Store) UpdateItemStatus(_ context.Context, id string, key models.LineKey, status models.ItemStatus, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return false, nil
	}
	i := o.FindItem(key)
	if i < 0 {
		return false, nil
	}
	o.Items[i].Status = status
	o.UpdatedAt = at
	return true, nil
}
