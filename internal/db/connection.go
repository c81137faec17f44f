package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/ehdc-llpg/addrparse/internal/config"
)

// Connection holds the database connection
type Connection struct {
	DB *sqlx.DB
}

// NewConnection creates a new database connection
func NewConnection(ctx context.Context, cfg *config.Config) (*Connection, error) {
	db, err := sqlx.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	maxOpen := cfg.PGMaxConnections
	if maxOpen <= 0 {
		maxOpen = 20
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen / 2)
	db.SetConnMaxLifetime(time.Hour)

	return &Connection{DB: db}, nil
}

// Version reports the server version string
func (c *Connection) Version(ctx context.Context) (string, error) {
	var version string
	if err := c.DB.GetContext(ctx, &version, "SELECT version()"); err != nil {
		return "", fmt.Errorf("database connection test failed: %w", err)
	}
	return version, nil
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.DB.Close()
}
