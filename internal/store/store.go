// Package store persists products, carts and orders in MySQL.
package store

import (
	"database/sql"
)

// Store is the MySQL implementation of the catalog, cart and order
// persistence ports.
type Store struct {
	DB *sql.DB
}

// New wraps an open connection pool.
func New(db *sql.DB) *Store {
	return &Store{DB: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, 0, 2*n-1)
	for i := 0; i < n; i++ {
		if i > 0 {
			b = append(b, ',')
		}
		b = append(b, '?')
	}
	return string(b)
}
