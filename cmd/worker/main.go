// Package main is the entry point for the tillpoint background worker.
// Database-per-Store: one worker goroutine per active store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"tillpoint/internal/core/store"
	"tillpoint/internal/infrastructure/storage/postgres"
	"tillpoint/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log.Info("starting tillpoint worker")

	// Connect to meta-database
	metaPool, err := pgxpool.New(ctx, mustEnv("META_DATABASE_URL"))
	if err != nil {
		log.Fatalw("failed to connect to meta database", "error", err)
	}
	defer metaPool.Close()

	// Create store registry and manager
	registry := store.NewPostgresRegistry(metaPool)

	managerCfg := store.DefaultManagerConfig()
	managerCfg.DBUser = mustEnv("STORE_DB_USER")
	managerCfg.DBPassword = mustEnv("STORE_DB_PASSWORD")
	managerCfg.PoolIdleTimeout = 10 * time.Minute // Shorter for worker

	manager := store.NewManager(managerCfg, registry, log)
	defer manager.Close()

	// Start per-store worker supervisor
	worker := NewStoreWorker(manager, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// StoreWorker processes background jobs for all active stores.
type StoreWorker struct {
	manager *store.Manager
	log     *logger.Logger
}

func NewStoreWorker(manager *store.Manager, log *logger.Logger) *StoreWorker {
	return &StoreWorker{
		manager: manager,
		log:     log.WithComponent("worker"),
	}
}

// Run starts worker goroutines for all active stores and keeps the set
// in sync with the registry.
func (w *StoreWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	var wg sync.WaitGroup
	storeContexts := make(map[string]context.CancelFunc) // store_id(UUID) -> cancel
	var mu sync.Mutex

	// Initial start
	w.refreshStores(ctx, &wg, storeContexts, &mu)

	for {
		select {
		case <-ctx.Done():
			mu.Lock()
			for _, cancel := range storeContexts {
				cancel()
			}
			mu.Unlock()
			wg.Wait()
			return

		case <-ticker.C:
			w.refreshStores(ctx, &wg, storeContexts, &mu)
		}
	}
}

func (w *StoreWorker) refreshStores(ctx context.Context, wg *sync.WaitGroup, storeContexts map[string]context.CancelFunc, mu *sync.Mutex) {
	stores, err := w.manager.GetActiveStores(ctx)
	if err != nil {
		w.log.Errorw("failed to get active stores", "error", err)
		return
	}

	activeStores := make(map[string]*store.Store, len(stores))
	for _, s := range stores {
		activeStores[s.ID] = s
	}

	mu.Lock()
	defer mu.Unlock()

	for storeID, cancel := range storeContexts {
		if _, active := activeStores[storeID]; !active {
			cancel()
			delete(storeContexts, storeID)
			w.log.Infow("stopped worker for inactive store", "store_id", storeID)
		}
	}

	for _, s := range stores {
		if _, exists := storeContexts[s.ID]; !exists {
			storeCtx, storeCancel := context.WithCancel(ctx)
			storeContexts[s.ID] = storeCancel

			wg.Add(1)
			go func(s *store.Store) {
				defer wg.Done()
				w.runStoreWorker(storeCtx, s)
			}(s)

			w.log.Infow("started worker for store", "store_id", s.ID)
		}
	}
}

func (w *StoreWorker) runStoreWorker(ctx context.Context, s *store.Store) {
	mp, err := w.manager.GetPool(ctx, s.ID)
	if err != nil {
		w.log.Errorw("failed to get pool for store", "store_id", s.ID, "error", err)
		return
	}

	relay := postgres.NewOutboxRelay(mp.Pool(), 100, &loggingOutboxHandler{log: w.log, storeID: s.ID})

	pollInterval := 500 * time.Millisecond
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(1 * time.Hour)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Infow("stopping worker for store", "store_id", s.ID)
			return
		case <-ticker.C:
			w.processOutbox(ctx, relay, s.ID)
		case <-cleanupTicker.C:
			w.cleanupSessions(ctx, mp.Pool(), s.ID)
		}
	}
}

func (w *StoreWorker) processOutbox(ctx context.Context, relay *postgres.OutboxRelay, storeID string) {
	count, err := relay.ProcessBatch(ctx)
	if err != nil {
		w.log.Debugw("outbox batch failed (table may not exist)", "store_id", storeID, "error", err)
		return
	}

	if count > 0 {
		w.log.Debugw("processed outbox batch", "store_id", storeID, "count", count)
	}

	if moved, err := relay.MoveToDLQ(ctx); err == nil && moved > 0 {
		w.log.Warnw("moved failed outbox messages to DLQ", "store_id", storeID, "count", moved)
	}
}

func (w *StoreWorker) cleanupSessions(ctx context.Context, pool *pgxpool.Pool, storeID string) {
	result, err := pool.Exec(ctx, `
		DELETE FROM auth_refresh_tokens
		WHERE expires_at < NOW() OR revoked = true
	`)
	if err != nil {
		return
	}

	if result.RowsAffected() > 0 {
		w.log.Infow("cleaned up expired sessions", "store_id", storeID, "count", result.RowsAffected())
	}
}

// loggingOutboxHandler is the default event sink: events are logged and
// acknowledged. Swap for a broker-backed handler when one is configured.
type loggingOutboxHandler struct {
	log     *logger.Logger
	storeID string
}

func (h *loggingOutboxHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	h.log.Infow("domain event",
		"store_id", h.storeID,
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID.String(),
		"event_type", msg.EventType,
	)
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}
