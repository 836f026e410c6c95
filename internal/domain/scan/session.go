package scan

import (
	"context"
	"strings"
	"sync"
	"time"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/draft"
)

// State is the session lifecycle state.
type State string

const (
	// StateIdle - session closed or not yet opened
	StateIdle State = "idle"
	// StateAwaitingScan - session open, waiting for input
	StateAwaitingScan State = "awaiting_scan"
	// StateValidating - a candidate is in the validation pipeline
	StateValidating State = "validating"
)

// Source identifies the input path that produced a candidate.
type Source string

const (
	SourceCamera Source = "camera"
	SourceWedge  Source = "wedge"
	SourceManual Source = "manual"
)

// Candidate is an emitted device-ID candidate ready for validation.
type Candidate struct {
	DeviceID string
	Source   Source
	At       time.Time
}

// Session is the scan state machine bound to one scanner target
// (a draft slot). All input paths funnel through it; teardown happens
// on every exit path via context cancellation.
type Session struct {
	ID      id.ID
	StoreID string
	DraftID id.ID

	// Target is the slot the operator is scanning into
	Target draft.SlotRef

	cfg   Config
	clock Clock

	mu    sync.Mutex
	state State

	// camera path: last accepted code for the repeat window
	lastCode   string
	lastCodeAt time.Time

	// wedge path: keystroke burst buffer
	wedgeBuf   strings.Builder
	lastKeyAt  time.Time
	lastActive time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// newSession opens a session in AwaitingScan.
func newSession(storeID string, draftID id.ID, target draft.SlotRef, cfg Config, clock Clock) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:         id.New(),
		StoreID:    storeID,
		DraftID:    draftID,
		Target:     target,
		cfg:        cfg,
		clock:      clock,
		state:      StateAwaitingScan,
		lastActive: clock.Now(),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed when the session is torn down.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Close tears the session down. Safe to call multiple times; every exit
// path (explicit close, error, idle expiry, replacement) ends here.
func (s *Session) Close() {
	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()
	s.cancel()
}

func (s *Session) closed() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}

// CameraScan accepts a camera decode event. A repeat of the
// immediately-previous code within the repeat window is dropped.
// Returns the candidate and true when one is emitted.
func (s *Session) CameraScan(code string) (Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed() || s.state != StateAwaitingScan {
		return Candidate{}, false
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return Candidate{}, false
	}

	now := s.clock.Now()
	s.lastActive = now

	if code == s.lastCode && now.Sub(s.lastCodeAt) < s.cfg.CameraRepeatWindow {
		// Decoder bounce: same code re-read within the window.
		s.lastCodeAt = now
		return Candidate{}, false
	}

	s.lastCode = code
	s.lastCodeAt = now
	return Candidate{DeviceID: code, Source: SourceCamera, At: now}, true
}

// WedgeKey buffers one keystroke from a keyboard-wedge scanner.
// An inter-key gap above the threshold means the burst ended (or a human
// is typing), so the buffer restarts with this key.
func (s *Session) WedgeKey(r rune) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed() || s.state != StateAwaitingScan {
		return
	}

	now := s.clock.Now()
	s.lastActive = now

	if !s.lastKeyAt.IsZero() && now.Sub(s.lastKeyAt) > s.cfg.WedgeGapThreshold {
		s.wedgeBuf.Reset()
	}
	s.lastKeyAt = now
	s.wedgeBuf.WriteRune(r)
}

// WedgeEnter finishes a wedge burst. A non-empty buffer emits the
// candidate; the buffer is cleared either way.
func (s *Session) WedgeEnter() (Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed() || s.state != StateAwaitingScan {
		return Candidate{}, false
	}

	now := s.clock.Now()
	s.lastActive = now

	code := strings.TrimSpace(s.wedgeBuf.String())
	// Gap check also applies between last key and Enter: a stale buffer
	// is discarded, not emitted.
	stale := !s.lastKeyAt.IsZero() && now.Sub(s.lastKeyAt) > s.cfg.WedgeGapThreshold
	s.wedgeBuf.Reset()
	s.lastKeyAt = time.Time{}

	if code == "" || stale {
		return Candidate{}, false
	}

	return Candidate{DeviceID: code, Source: SourceWedge, At: now}, true
}

// Manual accepts a manually typed device ID.
func (s *Session) Manual(input string) (Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed() || s.state != StateAwaitingScan {
		return Candidate{}, apperror.NewConflict("scan session is not accepting input")
	}

	now := s.clock.Now()
	s.lastActive = now

	code := strings.TrimSpace(input)
	if code == "" {
		return Candidate{}, apperror.NewValidation("device ID is empty").
			WithDetail("field", "deviceId")
	}

	return Candidate{DeviceID: code, Source: SourceManual, At: now}, nil
}

// beginValidation moves AwaitingScan -> Validating.
func (s *Session) beginValidation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed() || s.state != StateAwaitingScan {
		return false
	}
	s.state = StateValidating
	return true
}

// endValidation moves Validating -> AwaitingScan (unless torn down).
func (s *Session) endValidation() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateValidating {
		s.state = StateAwaitingScan
	}
}

// target reads the slot reference under the session lock.
func (s *Session) target() draft.SlotRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Target
}

// idleSince reports the last activity timestamp.
func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}
