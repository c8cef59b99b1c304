// Package postgres opens the pooled lib/pq connection behind the gateway's
// statistics archive.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/googol/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/googol/pkg/resilience"
	_ "github.com/lib/pq"
)

const (
	defaultMaxOpenConns    = 5
	defaultConnMaxLifetime = 5 * time.Minute
	connectAttempts        = 3
	pingTimeout            = 5 * time.Second
)

// Client wraps the archive's connection pool.
type Client struct {
	DB  *sql.DB
	cfg config.PostgresConfig
}

// New opens the pool and waits for the server to answer, retrying the ping
// so a gateway started alongside its database does not give up at once.
func New(cfg config.PostgresConfig) (*Client, error) {
	cfg = withPoolDefaults(cfg)
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	c := &Client{DB: db, cfg: cfg}
	err = resilience.Retry(context.Background(), "postgres connect", resilience.RetryConfig{
		MaxAttempts:  connectAttempts,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     2 * time.Second,
	}, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()
		return c.Ping(ctx)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return c, nil
}

// withPoolDefaults fills pool settings left at zero. Idle connections never
// exceed the open limit.
func withPoolDefaults(cfg config.PostgresConfig) config.PostgresConfig {
	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = defaultMaxOpenConns
	}
	if cfg.MaxIdleConns <= 0 || cfg.MaxIdleConns > cfg.MaxOpenConns {
		cfg.MaxIdleConns = max(cfg.MaxOpenConns/2, 1)
	}
	if cfg.ConnMaxLifetime <= 0 {
		cfg.ConnMaxLifetime = defaultConnMaxLifetime
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	return cfg
}

// Ping reports whether the archive database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Database names the archive database, for logs.
func (c *Client) Database() string {
	return c.cfg.Database
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// InTx runs fn in a transaction, committing when it returns nil.
func (c *Client) InTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rolling back transaction after error %v: %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}
