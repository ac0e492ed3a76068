package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/khabaroff/roster-console/src/logging"
)

//go:embed schema.sql
var schemaSQL string

// ErrNotConnected is returned by health checks on a database without a pool
var ErrNotConnected = errors.New("database connection not initialized")

// PoolOptions sizes the notification log pool
type PoolOptions struct {
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultPoolOptions suits the notification log: short writes and a periodic retention sweep
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: 5 * time.Minute,
		MaxConnIdleTime: time.Minute,
	}
}

// Database holds the PostgreSQL pool backing the console notification log
type Database struct {
	pool *pgxpool.Pool
}

// PoolStats is a snapshot of pool usage reported by the health endpoint
type PoolStats struct {
	Total    int32 `json:"total"`
	Idle     int32 `json:"idle"`
	Acquired int32 `json:"acquired"`
}

// New connects to databaseURL and applies the notification schema
func New(ctx context.Context, databaseURL string, opts PoolOptions) (*Database, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	defaults := DefaultPoolOptions()
	if opts.MaxConns <= 0 {
		opts.MaxConns = defaults.MaxConns
	}
	if opts.MinConns < 0 || opts.MinConns > opts.MaxConns {
		opts.MinConns = defaults.MinConns
	}
	if opts.MaxConnLifetime <= 0 {
		opts.MaxConnLifetime = defaults.MaxConnLifetime
	}
	if opts.MaxConnIdleTime <= 0 {
		opts.MaxConnIdleTime = defaults.MaxConnIdleTime
	}

	config.MaxConns = opts.MaxConns
	config.MinConns = opts.MinConns
	config.MaxConnLifetime = opts.MaxConnLifetime
	config.MaxConnIdleTime = opts.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	db := &Database{pool: pool}
	if err := db.applySchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	logger := logging.NewLogger("database")
	logger.Info().
		Int32("max_conns", opts.MaxConns).
		Msg("Notification log ready")

	return db, nil
}

// NewDatabaseFromPool wraps an existing pool. A nil pool yields a database
// whose health checks fail.
func NewDatabaseFromPool(pool *pgxpool.Pool) *Database {
	return &Database{pool: pool}
}

func (db *Database) applySchema(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply notification schema: %w", err)
	}
	return nil
}

// Close closes the pool
func (db *Database) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// GetPool returns the connection pool
func (db *Database) GetPool() *pgxpool.Pool {
	return db.pool
}

// Health pings the database with a 5s bound
func (db *Database) Health(ctx context.Context) error {
	if db == nil || db.pool == nil {
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.pool.Ping(ctx)
}

// Stats reports pool usage; zero when not connected
func (db *Database) Stats() PoolStats {
	if db == nil || db.pool == nil {
		return PoolStats{}
	}
	s := db.pool.Stat()
	return PoolStats{
		Total:    s.TotalConns(),
		Idle:     s.IdleConns(),
		Acquired: s.AcquiredConns(),
	}
}
