package store

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Registry provides access to store metadata stored in meta-database.
type Registry interface {
	// GetByID retrieves store by UUID string.
	GetByID(ctx context.Context, storeID string) (*Store, error)

	// ListActive returns all active stores.
	ListActive(ctx context.Context) ([]*Store, error)

	// ListAll returns all stores.
	ListAll(ctx context.Context) ([]*Store, error)

	// Create inserts a new store row and populates s.ID.
	Create(ctx context.Context, s *Store) error

	// UpdateStatusByID updates store status by UUID string.
	UpdateStatusByID(ctx context.Context, storeID string, status Status) error
}

// PostgresRegistry implements Registry using meta-database PostgreSQL.
type PostgresRegistry struct {
	pool *pgxpool.Pool
}

func NewPostgresRegistry(pool *pgxpool.Pool) *PostgresRegistry {
	return &PostgresRegistry{pool: pool}
}

func (r *PostgresRegistry) GetByID(ctx context.Context, storeID string) (*Store, error) {
	var s Store
	err := pgxscan.Get(ctx, r.pool, &s, `
		SELECT id, slug, display_name, currency, db_name, db_host, db_port,
		       status, created_at, updated_at, settings
		FROM stores
		WHERE id = $1
	`, storeID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("get store by id: %w", err)
	}
	return &s, nil
}

func (r *PostgresRegistry) ListActive(ctx context.Context) ([]*Store, error) {
	var stores []*Store
	err := pgxscan.Select(ctx, r.pool, &stores, `
		SELECT id, slug, display_name, currency, db_name, db_host, db_port,
		       status, created_at, updated_at, settings
		FROM stores
		WHERE status = $1
		ORDER BY slug
	`, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active stores: %w", err)
	}
	return stores, nil
}

func (r *PostgresRegistry) ListAll(ctx context.Context) ([]*Store, error) {
	var stores []*Store
	err := pgxscan.Select(ctx, r.pool, &stores, `
		SELECT id, slug, display_name, currency, db_name, db_host, db_port,
		       status, created_at, updated_at, settings
		FROM stores
		ORDER BY slug
	`)
	if err != nil {
		return nil, fmt.Errorf("list stores: %w", err)
	}
	return stores, nil
}

func (r *PostgresRegistry) Create(ctx context.Context, s *Store) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	if s.Status == "" {
		s.Status = StatusActive
	}
	if s.Currency == "" {
		s.Currency = "USD"
	}

	// settings is JSONB with default '{}', but we still pass it explicitly for clarity.
	if s.Settings == nil {
		s.Settings = map[string]any{}
	}

	// Return generated UUID.
	err := r.pool.QueryRow(ctx, `
		INSERT INTO stores (slug, display_name, currency, db_name, db_host, db_port, status, settings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, s.Slug, s.DisplayName, s.Currency, s.DBName, s.DBHost, s.DBPort, s.Status, s.Settings).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	return nil
}

func (r *PostgresRegistry) UpdateStatusByID(ctx context.Context, storeID string, status Status) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE stores
		SET status = $2
		WHERE id = $1
	`, storeID, status)
	if err != nil {
		return fmt.Errorf("update store status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStoreNotFound
	}
	return nil
}

var _ Registry = (*PostgresRegistry)(nil)
