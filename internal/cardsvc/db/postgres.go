package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

var DB *pgxpool.Pool

// Connect initializes the connection pool
func Connect(dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}

	// Try pinging to make sure it's valid
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	DB = pool

	return pool, nil
}

// Migrate creates the tables when they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// ClosePool is for graceful shutdown
func ClosePool() {
	if DB != nil {
		DB.Close()
	}
}
