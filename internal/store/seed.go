package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/01moynul/zemmon-store/internal/models"
)

// ProductWriter is anything products can be seeded into.
type ProductWriter interface {
	UpsertProduct(ctx context.Context, p *models.Product) error
}

// LoadProducts reads a JSON array of products from path. Products without
// an id get a fresh one; missing timestamps default to now.
func LoadProducts(path string, now time.Time) ([]models.Product, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}

	for i := range products {
		p := &products[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Name == "" {
			return nil, fmt.Errorf("seed product %d has no name", i)
		}
		if !models.IsMoney(p.Price) {
			return nil, fmt.Errorf("seed product %q has an invalid price %s", p.Name, p.Price)
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = p.CreatedAt
		}
	}
	return products, nil
}

// Seed upserts every product and returns how many were written.
func Seed(ctx context.Context, w ProductWriter, products []models.Product) (int, error) {
	for i := range products {
		if err := w.UpsertProduct(ctx, &products[i]); err != nil {
			return i, err
		}
	}
	return len(products), nil
}
