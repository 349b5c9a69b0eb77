// Package postgres implements the repository contract against a normalized
// PostgreSQL schema: surrogate bigserial keys, foreign keys, and a join table
// for program line items. One pgx pool is shared per Store; every repository
// call acquires and releases its connection through the pool and never holds
// one beyond its own scope.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"adstore/pkg/repository"
)

const backendName = "postgres"

// Store holds the connection pool and hands out repositories bound to it.
type Store struct {
	pool *pgxpool.Pool
}

// Config represents database configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// Connect creates a new Store by connecting to PostgreSQL.
func Connect(ctx context.Context, config *Config) (*Store, error) {
	return ConnectWithURL(ctx, buildConnectionString(config), config)
}

// ConnectWithURL creates a new Store using a connection URL.
func ConnectWithURL(ctx context.Context, url string, config *Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection URL: %w", err)
	}

	if config != nil {
		if config.MaxConns > 0 {
			poolConfig.MaxConns = config.MaxConns
		}
		if config.MinConns > 0 {
			poolConfig.MinConns = config.MinConns
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// NewStore wraps an existing pool, e.g. one built by a test harness.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the underlying pgxpool.Pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Ping verifies the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Repositories returns the full repository set backed by this store.
func (s *Store) Repositories() *repository.Set {
	return &repository.Set{
		Categories:   &CategoryRepository{store: s},
		Clients:      &ClientRepository{store: s},
		Advertisings: &AdvertisingRepository{store: s},
		Programs:     &ProgramRepository{store: s},
	}
}

// buildConnectionString builds a PostgreSQL connection string from config.
func buildConnectionString(config *Config) string {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "prefer"
	}

	port := config.Port
	if port == 0 {
		port = 5432
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host,
		port,
		config.User,
		config.Password,
		config.Database,
		sslMode,
	)
}

// storageErr wraps a driver failure in the storage-layer error kind.
func storageErr(op string, err error) error {
	return &repository.StorageError{Backend: backendName, Op: op, Err: err}
}

// parseID decodes a surrogate key. The relational backend only ever assigns
// integer IDs, so anything else is rejected up front.
func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", repository.ErrInvalidID, id)
	}
	return n, nil
}

// formatID renders a surrogate key the way the contract exposes it.
func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// constraintViolation returns the violated constraint name if err is a
// foreign-key or check violation, or "" otherwise.
func constraintViolation(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503", "23514": // foreign_key_violation, check_violation
			return pgErr.ConstraintName
		}
	}
	return ""
}
