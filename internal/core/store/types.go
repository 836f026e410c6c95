// Package store provides multi-store database management for Database-per-Store architecture.
// Each store has its own isolated PostgreSQL database.
package store

import (
	"fmt"
	"strings"
	"time"
)

// Status represents store lifecycle state.
type Status string

const (
	// StatusActive - store can accept requests
	StatusActive Status = "active"

	// StatusSuspended - store is temporarily disabled (e.g., payment issues)
	StatusSuspended Status = "suspended"

	// StatusDeleted - store is marked for deletion
	StatusDeleted Status = "deleted"
)

// Store represents a store record from meta-database.
type Store struct {
	ID          string         `db:"id"`
	Slug        string         `db:"slug"`         // URL-safe identifier
	DisplayName string         `db:"display_name"` // Human-readable name
	Currency    string         `db:"currency"`     // ISO 4217 code for receipts
	DBName      string         `db:"db_name"`      // Database name
	DBHost      string         `db:"db_host"`      // Database host
	DBPort      int            `db:"db_port"`      // Database port
	Status      Status         `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
	Settings    map[string]any `db:"settings"` // Additional settings (JSONB)
}

// IsActive returns true if store can accept requests.
func (s *Store) IsActive() bool {
	return s.Status == StatusActive
}

// DSN builds PostgreSQL connection string for this store's database.
func (s *Store) DSN(user, password string) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		user, password, s.DBHost, s.DBPort, s.DBName,
	)
}

// DSNWithSSL builds PostgreSQL connection string with SSL enabled.
func (s *Store) DSNWithSSL(user, password, sslMode string) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		user, password, s.DBHost, s.DBPort, s.DBName, sslMode,
	)
}

// ScanRuleKey is the settings key holding the store's device acceptance rule (CEL).
const ScanRuleKey = "scan_rule"

// ScanRule returns the store's device acceptance expression or empty string.
func (s *Store) ScanRule() string {
	if s.Settings == nil {
		return ""
	}
	if expr, ok := s.Settings[ScanRuleKey].(string); ok {
		return expr
	}
	return ""
}

// CreateStoreInput contains data for creating a new store.
type CreateStoreInput struct {
	Slug        string
	DisplayName string
	Currency    string
	DBHost      string // Optional, defaults to localhost
	DBPort      int    // Optional, defaults to 5432
}

// Validate checks if input is valid.
func (i *CreateStoreInput) Validate() error {
	if i.Slug == "" {
		return fmt.Errorf("slug is required")
	}
	i.Slug = strings.ToLower(i.Slug)
	if len(i.Slug) > 63 {
		return fmt.Errorf("slug must be 63 characters or less")
	}
	if i.DisplayName == "" {
		return fmt.Errorf("display_name is required")
	}
	if i.Currency == "" {
		i.Currency = "USD"
	}
	return nil
}

// GenerateDBName creates database name from slug.
// Format: pos_<slug>
func (i *CreateStoreInput) GenerateDBName() string {
	return "pos_" + i.Slug
}
