// Package systemdb is the durable relational store backing the platform: tenants,
// contracts, multisig key-locators, the payout ledger, mint projects, NFT
// inventory, reward accrual, claim history, whitelists and discounts.
package systemdb

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// Client wraps a pooled *sql.DB, following
// certenIO-certen-validator/pkg/database.Client's functional-options shape.
type Client struct {
	db     *sql.DB
	logger *log.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger overrides the default logger.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient opens a connection pool against dbURL (PLATFORM_DB_URL).
func NewClient(dbURL string, opts ...ClientOption) (*Client, error) {
	if dbURL == "" {
		return nil, fmt.Errorf("systemdb: database URL cannot be empty")
	}

	c := &Client{
		logger: log.New(log.Writer(), "[systemdb] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(c)
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("systemdb: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("systemdb: failed to ping database: %w", err)
	}

	c.db = db
	c.logger.Printf("connected to system db")
	return c, nil
}

// DB returns the underlying *sql.DB for repositories and transactions.
func (c *Client) DB() *sql.DB { return c.db }

// Close closes the pool.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error { return c.db.PingContext(ctx) }

// WithTx runs fn inside a transaction, committing on success and rolling
// back otherwise. Used for the payout state-transition path.
func (c *Client) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("systemdb: begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("systemdb: tx failed (%v) and rollback failed: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("systemdb: commit tx: %w", err)
	}
	return nil
}
