package draft

import (
	"context"
	"sync"
	"time"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/pkg/logger"
)

// ManagerConfig configures draft lifecycle.
type ManagerConfig struct {
	// IdleTimeout evicts drafts untouched for this long (0 = never)
	IdleTimeout time.Duration

	// SweepPeriod is how often eviction runs
	SweepPeriod time.Duration
}

// DefaultManagerConfig returns production-safe defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		IdleTimeout: 2 * time.Hour,
		SweepPeriod: 10 * time.Minute,
	}
}

// Manager holds the in-memory draft registry, keyed per store.
// Drafts exist only until save; an evicted draft is simply gone.
// Thread-safe for concurrent access.
type Manager struct {
	config ManagerConfig

	mu     sync.RWMutex
	drafts map[string]map[id.ID]*Draft // storeID -> draftID -> draft

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *logger.Logger
}

// NewManager creates a draft manager and starts the eviction loop.
func NewManager(cfg ManagerConfig, log *logger.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		config: cfg,
		drafts: make(map[string]map[id.ID]*Draft),
		ctx:    ctx,
		cancel: cancel,
		log:    log.WithComponent("draft-manager"),
	}

	if cfg.IdleTimeout > 0 && cfg.SweepPeriod > 0 {
		m.wg.Add(1)
		go m.evictionLoop()
	}

	return m
}

// Create opens a new draft for the store.
func (m *Manager) Create(storeID string, kind Kind) *Draft {
	d := New(storeID, kind)

	m.mu.Lock()
	byID, ok := m.drafts[storeID]
	if !ok {
		byID = make(map[id.ID]*Draft)
		m.drafts[storeID] = byID
	}
	byID[d.ID] = d
	m.mu.Unlock()

	return d
}

// Get returns the store's draft by ID.
func (m *Manager) Get(storeID string, draftID id.ID) (*Draft, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if byID, ok := m.drafts[storeID]; ok {
		if d, ok := byID[draftID]; ok {
			return d, nil
		}
	}
	return nil, apperror.NewNotFound("draft", draftID.String())
}

// Delete discards a draft (after save or explicit cancel).
func (m *Manager) Delete(storeID string, draftID id.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if byID, ok := m.drafts[storeID]; ok {
		delete(byID, draftID)
		if len(byID) == 0 {
			delete(m.drafts, storeID)
		}
	}
}

// List returns all drafts for a store.
func (m *Manager) List(storeID string) []*Draft {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byID := m.drafts[storeID]
	out := make([]*Draft, 0, len(byID))
	for _, d := range byID {
		out = append(out, d)
	}
	return out
}

// Count returns the total number of live drafts.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, byID := range m.drafts {
		n += len(byID)
	}
	return n
}

func (m *Manager) evictionLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.config.SweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	threshold := time.Now().UTC().Add(-m.config.IdleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	for storeID, byID := range m.drafts {
		for draftID, d := range byID {
			if d.UpdatedAt.Before(threshold) {
				delete(byID, draftID)
				m.log.Info("evicted idle draft",
					"store_id", storeID,
					"draft_id", draftID.String(),
				)
			}
		}
		if len(byID) == 0 {
			delete(m.drafts, storeID)
		}
	}
}

// Close stops the eviction loop.
func (m *Manager) Close() {
	m.cancel()
	m.wg.Wait()
}
