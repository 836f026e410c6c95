package scan

import (
	"context"
	"sync"
	"time"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/draft"
	"tillpoint/pkg/logger"
)

// Manager tracks live scan sessions. At most one session exists per
// draft; opening a new one tears down the prior so two scanners never
// feed the same draft at once.
type Manager struct {
	cfg   Config
	clock Clock

	mu       sync.Mutex
	sessions map[string]map[id.ID]*Session // storeID -> draftID -> session
	byID     map[id.ID]*Session

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	log    *logger.Logger
}

// NewManager creates a session manager and starts the idle sweep.
func NewManager(cfg Config, clock Clock, log *logger.Logger) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		cfg:      cfg,
		clock:    clock,
		sessions: make(map[string]map[id.ID]*Session),
		byID:     make(map[id.ID]*Session),
		ctx:      ctx,
		cancel:   cancel,
		log:      log.WithComponent("scan-manager"),
	}

	if cfg.SessionIdleTimeout > 0 {
		m.wg.Add(1)
		go m.sweepLoop()
	}

	return m
}

// Open starts a session targeting a draft slot. An existing session on
// the same draft is torn down first.
func (m *Manager) Open(storeID string, draftID id.ID, target draft.SlotRef) *Session {
	s := newSession(storeID, draftID, target, m.cfg, m.clock)

	m.mu.Lock()
	byDraft, ok := m.sessions[storeID]
	if !ok {
		byDraft = make(map[id.ID]*Session)
		m.sessions[storeID] = byDraft
	}
	if prev, ok := byDraft[draftID]; ok {
		delete(m.byID, prev.ID)
		prev.Close()
		m.log.Info("replaced scan session",
			"store_id", storeID,
			"draft_id", draftID.String(),
			"prev_session_id", prev.ID.String(),
		)
	}
	byDraft[draftID] = s
	m.byID[s.ID] = s
	m.mu.Unlock()

	return s
}

// Get returns a live session by ID.
func (m *Manager) Get(storeID string, sessionID id.ID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[sessionID]
	if !ok || s.StoreID != storeID || s.closed() {
		return nil, apperror.NewNotFound("scan session", sessionID.String())
	}
	return s, nil
}

// Retarget points an existing session at a different slot, keeping its
// debounce state. Used when the operator clicks another cell mid-scan.
func (m *Manager) Retarget(storeID string, sessionID id.ID, target draft.SlotRef) (*Session, error) {
	s, err := m.Get(storeID, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.Target = target
	s.lastActive = m.clock.Now()
	s.mu.Unlock()
	return s, nil
}

// Close tears down a session by ID. Unknown IDs are a no-op.
func (m *Manager) Close(storeID string, sessionID id.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.byID[sessionID]
	if !ok || s.StoreID != storeID {
		return
	}
	m.remove(s)
	s.Close()
}

// CloseDraft tears down the draft's session, if any. Called when a
// draft is saved or discarded.
func (m *Manager) CloseDraft(storeID string, draftID id.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if byDraft, ok := m.sessions[storeID]; ok {
		if s, ok := byDraft[draftID]; ok {
			m.remove(s)
			s.Close()
		}
	}
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// remove drops the session from both indexes. Caller holds the lock.
func (m *Manager) remove(s *Session) {
	delete(m.byID, s.ID)
	if byDraft, ok := m.sessions[s.StoreID]; ok {
		if cur, ok := byDraft[s.DraftID]; ok && cur.ID == s.ID {
			delete(byDraft, s.DraftID)
		}
		if len(byDraft) == 0 {
			delete(m.sessions, s.StoreID)
		}
	}
}

func (m *Manager) sweepLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.SessionIdleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.sweepIdle()
		}
	}
}

func (m *Manager) sweepIdle() {
	threshold := m.clock.Now().Add(-m.cfg.SessionIdleTimeout)

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range m.byID {
		if s.idleSince().Before(threshold) {
			m.remove(s)
			s.Close()
			m.log.Info("expired idle scan session",
				"store_id", s.StoreID,
				"session_id", s.ID.String(),
			)
		}
	}
}

// Shutdown stops the sweep loop and tears down every session.
func (m *Manager) Shutdown() {
	m.cancel()
	m.wg.Wait()

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.byID {
		s.Close()
	}
	m.sessions = make(map[string]map[id.ID]*Session)
	m.byID = make(map[id.ID]*Session)
}
