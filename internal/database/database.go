package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// OpenDB creates and configures a MySQL connection pool for dsn and pings it.
// The DSN must carry parseTime=true.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// schema is applied statement by statement so the DSN does not need
// multiStatements=true.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		category VARCHAR(100) NOT NULL,
		price DECIMAL(12,2) NOT NULL,
		images JSON NOT NULL,
		sizes JSON NOT NULL,
		best_seller BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_products_category (category)
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		user_id VARCHAR(64) NOT NULL,
		product_id VARCHAR(36) NOT NULL,
		size VARCHAR(32) NOT NULL,
		quantity INT NOT NULL,
		unit_price DECIMAL(12,2) NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		image VARCHAR(1024) NOT NULL DEFAULT '',
		added_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		PRIMARY KEY (user_id, product_id, size)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(36) NOT NULL PRIMARY KEY,
		user_id VARCHAR(64) NOT NULL,
		delivery_info JSON NOT NULL,
		payment_method VARCHAR(32) NOT NULL,
		subtotal DECIMAL(12,2) NOT NULL,
		delivery_fee DECIMAL(12,2) NOT NULL,
		total DECIMAL(12,2) NOT NULL,
		status VARCHAR(32) NOT NULL,
		created_at DATETIME(6) NOT NULL,
		updated_at DATETIME(6) NOT NULL,
		INDEX idx_orders_user (user_id, created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id VARCHAR(36) NOT NULL,
		position INT NOT NULL,
		product_id VARCHAR(36) NOT NULL,
		name VARCHAR(255) NOT NULL,
		size VARCHAR(32) NOT NULL,
		quantity INT NOT NULL,
		unit_price DECIMAL(12,2) NOT NULL,
		image VARCHAR(1024) NOT NULL DEFAULT '',
		status VARCHAR(32) NOT NULL,
		PRIMARY KEY (order_id, position),
		UNIQUE KEY uq_order_items_line (order_id, product_id, size),
		CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders (id)
	)`,
}

// Migrate creates the tables the store needs if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
