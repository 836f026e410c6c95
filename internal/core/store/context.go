package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"tillpoint/internal/core/tx"
)

// Context keys for store-related values.
type ctxKey int

const (
	poolKey ctxKey = iota
	txManagerKey
	storeKey
)

// Errors for context operations.
var (
	ErrNoStoreInContext = errors.New("store not found in context")
	ErrNoPoolInContext  = errors.New("database pool not found in context")
	ErrNoTxManager      = errors.New("transaction manager not found in context")
)

// --- Pool ---

// WithPool stores database pool in context.
func WithPool(ctx context.Context, pool *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, poolKey, pool)
}

// GetPool retrieves database pool from context.
func GetPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, ok := ctx.Value(poolKey).(*pgxpool.Pool)
	if !ok || pool == nil {
		return nil, ErrNoPoolInContext
	}
	return pool, nil
}

// MustGetPool retrieves database pool or panics.
// Use in places where missing pool is a programming error.
func MustGetPool(ctx context.Context) *pgxpool.Pool {
	pool, err := GetPool(ctx)
	if err != nil {
		panic("database pool not in context: " + err.Error())
	}
	return pool
}

// --- TxManager ---

// WithTxManager stores TxManager in context.
func WithTxManager(ctx context.Context, txm tx.Manager) context.Context {
	return context.WithValue(ctx, txManagerKey, txm)
}

// GetTxManager retrieves TxManager from context.
func GetTxManager(ctx context.Context) (tx.Manager, error) {
	txm, ok := ctx.Value(txManagerKey).(tx.Manager)
	if !ok || txm == nil {
		return nil, ErrNoTxManager
	}
	return txm, nil
}

// MustGetTxManager retrieves TxManager or panics.
// Use in places where missing TxManager is a programming error.
func MustGetTxManager(ctx context.Context) tx.Manager {
	txm, err := GetTxManager(ctx)
	if err != nil {
		panic("TxManager not in context: " + err.Error())
	}
	return txm
}

// --- Store ---

// WithStore stores store info in context.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeKey, s)
}

// GetStore retrieves store from context.
func GetStore(ctx context.Context) *Store {
	s, _ := ctx.Value(storeKey).(*Store)
	return s
}

// GetStoreID returns store ID or empty string.
func GetStoreID(ctx context.Context) string {
	if s := GetStore(ctx); s != nil {
		return s.ID
	}
	return ""
}
