// Package main seeds a store database with initial data:
// roles, an admin user, the store registry row, and optional demo data.
//
// Usage:
//
//	DATABASE_URL=postgres://... META_DATABASE_URL=postgres://... go run ./cmd/seed
//
// Environment:
//
//	DATABASE_URL       - store database connection (required)
//	META_DATABASE_URL  - meta-database connection (optional, registers the store)
//	ADMIN_EMAIL        - admin user email (default: admin@tillpoint.local)
//	ADMIN_PASSWORD     - admin user password (default: admin123)
//	STORE_SLUG         - store slug for the registry (default: demo)
//	STORE_NAME         - store display name (default: Demo Store)
//	STORE_CURRENCY     - ISO 4217 currency code (default: USD)
//	SEED_DEMO_DATA     - set to "true" to seed demo products and customers
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tillpoint/internal/core/id"
	"tillpoint/internal/core/store"
	"tillpoint/internal/infrastructure/storage/postgres"
	"tillpoint/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatalw("DATABASE_URL is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to store database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to store database")

	if err := seedRoles(ctx, pool, log); err != nil {
		log.Fatalw("failed to seed roles", "error", err)
	}

	adminID, err := seedAdminUser(ctx, pool, log)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if metaURL := os.Getenv("META_DATABASE_URL"); metaURL != "" {
		if err := seedStoreRegistry(ctx, metaURL, dbURL, log); err != nil {
			log.Fatalw("failed to seed store registry", "error", err)
		}
	} else {
		log.Info("META_DATABASE_URL not set, skipping store registry")
	}

	if getEnv("SEED_DEMO_DATA", "false") == "true" {
		if err := seedDemoData(ctx, pool, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Infow("seeding complete", "admin_user_id", adminID.String())
}

// seedRoles creates the built-in roles. Safe to run repeatedly.
func seedRoles(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	roles := []struct {
		code, name, description string
	}{
		{"admin", "Administrator", "Full access to all operations"},
		{"manager", "Manager", "Catalog management, documents and audits"},
		{"cashier", "Cashier", "Sales, debts and customer lookups"},
	}

	for _, r := range roles {
		tag, err := pool.Exec(ctx, `
			INSERT INTO roles (id, code, name, description, is_system, created_at, updated_at)
			VALUES ($1, $2, $3, $4, true, NOW(), NOW())
			ON CONFLICT (code) DO NOTHING
		`, id.New(), r.code, r.name, r.description)
		if err != nil {
			return fmt.Errorf("insert role %s: %w", r.code, err)
		}
		if tag.RowsAffected() > 0 {
			log.Infow("created role", "code", r.code)
		}
	}

	return nil
}

// seedAdminUser creates the admin user and grants the admin role.
func seedAdminUser(ctx context.Context, pool *postgres.Pool, log *logger.Logger) (id.ID, error) {
	email := getEnv("ADMIN_EMAIL", "admin@tillpoint.local")
	password := getEnv("ADMIN_PASSWORD", "admin123")

	var existingID id.ID
	err := pool.QueryRow(ctx, `
		SELECT id FROM users WHERE email = $1 AND deleted_at IS NULL
	`, email).Scan(&existingID)
	if err == nil {
		log.Infow("admin user already exists", "email", email)
		return existingID, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return id.Nil(), fmt.Errorf("hash password: %w", err)
	}

	userID := id.New()
	_, err = pool.Exec(ctx, `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name,
			is_active, is_admin, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, true, true, NOW(), NOW(), 1)
	`, userID, email, string(hash), "Admin", "User")
	if err != nil {
		return id.Nil(), fmt.Errorf("insert admin user: %w", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id, granted_by)
		SELECT $1, r.id, $1 FROM roles r WHERE r.code = 'admin'
		ON CONFLICT (user_id, role_id) DO NOTHING
	`, userID)
	if err != nil {
		return id.Nil(), fmt.Errorf("grant admin role: %w", err)
	}

	log.Infow("created admin user", "email", email, "user_id", userID.String())
	if password == "admin123" {
		log.Warnw("admin user uses the default password, change it", "email", email)
	}

	return userID, nil
}

// seedStoreRegistry registers the store in the meta-database so the
// API server can resolve its database from X-Store-ID.
func seedStoreRegistry(ctx context.Context, metaURL, dbURL string, log *logger.Logger) error {
	metaPool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(metaURL))
	if err != nil {
		return fmt.Errorf("connect to meta database: %w", err)
	}
	defer metaPool.Close()

	slug := getEnv("STORE_SLUG", "demo")

	var existingID string
	err = metaPool.QueryRow(ctx, `SELECT id FROM stores WHERE slug = $1`, slug).Scan(&existingID)
	if err == nil {
		log.Infow("store already registered", "slug", slug, "store_id", existingID)
		return nil
	}

	host, port, dbName, err := parseDBTarget(dbURL)
	if err != nil {
		return fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	registry := store.NewPostgresRegistry(metaPool.Unwrap())
	s := &store.Store{
		Slug:        slug,
		DisplayName: getEnv("STORE_NAME", "Demo Store"),
		Currency:    getEnv("STORE_CURRENCY", "USD"),
		DBName:      dbName,
		DBHost:      host,
		DBPort:      port,
		Status:      store.StatusActive,
	}
	if err := registry.Create(ctx, s); err != nil {
		return err
	}

	log.Infow("registered store",
		"slug", s.Slug,
		"store_id", s.ID,
		"db_name", s.DBName,
	)
	return nil
}

// parseDBTarget extracts host, port and database name from a postgres URL.
func parseDBTarget(dbURL string) (host string, port int, dbName string, err error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", 0, "", err
	}

	host = u.Hostname()
	if host == "" {
		host = "localhost"
	}

	port = 5432
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, "", fmt.Errorf("invalid port %q", p)
		}
	}

	dbName = strings.TrimPrefix(u.Path, "/")
	if dbName == "" {
		return "", 0, "", fmt.Errorf("database name missing in URL")
	}

	return host, port, dbName, nil
}

// seedDemoData inserts demo products and customers for development.
func seedDemoData(ctx context.Context, pool *postgres.Pool, log *logger.Logger) error {
	log.Info("seeding demo data...")

	products := []struct {
		code, name  string
		barcode     string
		unitPrice   int64 // minor units
		costPrice   int64
		deviceIDs   string
		deviceSizes string
		minStock    int64
	}{
		{
			code: "PHN-001", name: "Galaxy A15 128GB",
			unitPrice: 1799900, costPrice: 1450000,
			deviceIDs:   "356938035643809,356938035643810,356938035643811",
			deviceSizes: "128GB,128GB,128GB",
		},
		{
			code: "PHN-002", name: "Redmi Note 13",
			unitPrice: 2199900, costPrice: 1820000,
			deviceIDs:   "490154203237518,490154203237519",
			deviceSizes: "256GB,128GB",
		},
		{
			code: "PHN-003", name: "iPhone 13 (pre-owned)",
			unitPrice: 4499900, costPrice: 3900000,
			deviceIDs:   "353879234567891",
			deviceSizes: "128GB",
		},
		{
			code: "ACC-001", name: "USB-C Cable 1m",
			barcode: "4006381333931", unitPrice: 49900, costPrice: 18000,
			minStock: 10,
		},
		{
			code: "ACC-002", name: "Tempered Glass Protector",
			barcode: "4006381333948", unitPrice: 29900, costPrice: 8000,
			minStock: 20,
		},
		{
			code: "ACC-003", name: "Wall Charger 20W",
			barcode: "4006381333955", unitPrice: 89900, costPrice: 42000,
			minStock: 5,
		},
	}

	created := 0
	for _, p := range products {
		var barcode *string
		if p.barcode != "" {
			barcode = &p.barcode
		}

		tag, err := pool.Exec(ctx, `
			INSERT INTO cat_products (
				id, code, name, barcode, unit_price, cost_price,
				device_ids, device_sizes, min_stock,
				deletion_mark, version, attributes
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, 1, '{}')
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, id.New(), p.code, p.name, barcode, p.unitPrice, p.costPrice,
			p.deviceIDs, p.deviceSizes, p.minStock)
		if err != nil {
			return fmt.Errorf("insert product %s: %w", p.code, err)
		}
		if tag.RowsAffected() > 0 {
			created++
		}
	}
	log.Infow("seeded products", "created", created, "total", len(products))

	customers := []struct {
		code, name, phone string
	}{
		{"CUST-001", "John Mwangi", "+254712345001"},
		{"CUST-002", "Grace Achieng", "+254712345002"},
		{"CUST-003", "Peter Otieno", "+254712345003"},
	}

	created = 0
	for _, c := range customers {
		tag, err := pool.Exec(ctx, `
			INSERT INTO cat_customers (
				id, code, name, phone,
				deletion_mark, version, attributes
			) VALUES ($1, $2, $3, $4, false, 1, '{}')
			ON CONFLICT (code) WHERE deletion_mark = FALSE DO NOTHING
		`, id.New(), c.code, c.name, c.phone)
		if err != nil {
			return fmt.Errorf("insert customer %s: %w", c.code, err)
		}
		if tag.RowsAffected() > 0 {
			created++
		}
	}
	log.Infow("seeded customers", "created", created, "total", len(customers))

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
