package handlers

import (
	"context"

	"go.uber.org/zap"

	"github.com/01moynul/zemmon-store/internal/cart"
	"github.com/01moynul/zemmon-store/internal/models"
	"github.com/01moynul/zemmon-store/internal/orders"
)

// ProductCatalog is the public read side of the catalog.
type ProductCatalog interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Cart    *cart.Service
	Orders  *orders.Service
	Catalog ProductCatalog
	Log     *zap.Logger
}
