package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/01moynul/zemmon-store/internal/models"
)

const productColumns = `id, name, description, category, price, images, sizes, best_seller, created_at, updated_at`

func scanProduct(row scanner) (*models.Product, error) {
	var (
		p      models.Product
		images []byte
		sizes  []byte
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price,
		&images, &sizes, &p.BestSeller, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, fmt.Errorf("decode images of product %s: %w", p.ID, err)
		}
	}
	if len(sizes) > 0 {
		if err := json.Unmarshal(sizes, &p.Sizes); err != nil {
			return nil, fmt.Errorf("decode sizes of product %s: %w", p.ID, err)
		}
	}
	return &p, nil
}

// FindByID returns the product, or nil when it does not exist.
func (s *Store) FindByID(ctx context.Context, id string) (*models.Product, error) {
	row := s.DB.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = ?", id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}
	return p, nil
}

// FindMany returns the products that exist among ids, in no particular order.
func (s *Store) FindMany(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := "SELECT " + productColumns + " FROM products WHERE id IN (" + placeholders(len(ids)) + ")"

	return s.queryProducts(ctx, query, args...)
}

// ListProducts returns the catalog, newest first.
func (s *Store) ListProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	var (
		where []string
		args  []any
	)
	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.BestSeller != nil {
		where = append(where, "best_seller = ?")
		args = append(args, *filter.BestSeller)
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	return s.queryProducts(ctx, query, args...)
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// UpsertProduct inserts p or replaces the product with the same id.
func (s *Store) UpsertProduct(ctx context.Context, p *models.Product) error {
	images, err := json.Marshal(nonNil(p.Images))
	if err != nil {
		return err
	}
	sizes, err := json.Marshal(nonNil(p.Sizes))
	if err != nil {
		return err
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name),
			description = VALUES(description),
			category = VALUES(category),
			price = VALUES(price),
			images = VALUES(images),
			sizes = VALUES(sizes),
			best_seller = VALUES(best_seller),
			updated_at = VALUES(updated_at)`,
		p.ID, p.Name, p.Description, p.Category, p.Price, images, sizes, p.BestSeller, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
