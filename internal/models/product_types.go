package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the model for the 'products' table. Images and Sizes are stored
// as JSON columns.
type Product struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Category    string          `json:"category" db:"category"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Images      []string        `json:"images" db:"images"`
	Sizes       []string        `json:"sizes" db:"sizes"`
	BestSeller  bool            `json:"bestSeller" db:"best_seller"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// PrimaryImage is the first image, or "" when the product has none.
func (p *Product) PrimaryImage() string {
	if p == nil || len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// HasSize reports whether size (already normalized) is offered. A product
// that declares no sizes accepts any.
func (p *Product) HasSize(size string) bool {
	if len(p.Sizes) == 0 {
		return true
	}
	for _, s := range p.Sizes {
		if NormalizeSize(s) == size {
			return true
		}
	}
	return false
}

// MoneyPlaces is the number of decimal places every stored amount keeps.
const MoneyPlaces = 2

// IsMoney reports whether d is a non-negative amount with at most
// MoneyPlaces decimals, so it is stored without rounding.
func IsMoney(d decimal.Decimal) bool {
	return !d.IsNegative() && d.Equal(d.Round(MoneyPlaces))
}

// ProductFilter narrows a catalog listing.
type ProductFilter struct {
	Category   string
	BestSeller *bool
}
