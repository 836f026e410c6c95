package scan

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/domain/draft"
	"tillpoint/pkg/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestSession(clock Clock) *Session {
	return newSession("store-1", draft.New("store-1", draft.KindSale).ID,
		draft.SlotRef{}, DefaultConfig(), clock)
}

func TestCameraScan_RepeatWindowDrops(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(clock)

	c, ok := s.CameraScan("IMEI1")
	require.True(t, ok)
	assert.Equal(t, "IMEI1", c.DeviceID)
	assert.Equal(t, SourceCamera, c.Source)

	// Same code 200ms later is decoder bounce.
	clock.Advance(200 * time.Millisecond)
	_, ok = s.CameraScan("IMEI1")
	assert.False(t, ok)

	// The bounce refreshed the window, so continuous re-reads stay dropped.
	clock.Advance(400 * time.Millisecond)
	_, ok = s.CameraScan("IMEI1")
	assert.False(t, ok)

	// Past the window the same code is a deliberate rescan.
	clock.Advance(600 * time.Millisecond)
	_, ok = s.CameraScan("IMEI1")
	assert.True(t, ok)
}

func TestCameraScan_DifferentCodeInsideWindow(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(clock)

	_, ok := s.CameraScan("IMEI1")
	require.True(t, ok)

	clock.Advance(50 * time.Millisecond)
	c, ok := s.CameraScan("IMEI2")
	require.True(t, ok)
	assert.Equal(t, "IMEI2", c.DeviceID)
}

func TestWedge_BurstEmitsOnEnter(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(clock)

	for _, r := range "IMEI42" {
		s.WedgeKey(r)
		clock.Advance(15 * time.Millisecond)
	}

	c, ok := s.WedgeEnter()
	require.True(t, ok)
	assert.Equal(t, "IMEI42", c.DeviceID)
	assert.Equal(t, SourceWedge, c.Source)

	// Buffer is consumed.
	_, ok = s.WedgeEnter()
	assert.False(t, ok)
}

func TestWedge_GapResetsBuffer(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(clock)

	s.WedgeKey('A')
	clock.Advance(20 * time.Millisecond)
	s.WedgeKey('B')

	// Human pause: next key starts a fresh burst.
	clock.Advance(300 * time.Millisecond)
	for _, r := range "CD42" {
		s.WedgeKey(r)
		clock.Advance(10 * time.Millisecond)
	}

	c, ok := s.WedgeEnter()
	require.True(t, ok)
	assert.Equal(t, "CD42", c.DeviceID)
}

func TestWedge_StaleBufferDiscardedOnEnter(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(clock)

	for _, r := range "IMEI7" {
		s.WedgeKey(r)
		clock.Advance(15 * time.Millisecond)
	}

	// Enter arrives well after the burst: the buffer is stale, not a scan.
	clock.Advance(500 * time.Millisecond)
	_, ok := s.WedgeEnter()
	assert.False(t, ok)

	// The discarded buffer does not leak into the next burst.
	for _, r := range "IMEI8" {
		s.WedgeKey(r)
		clock.Advance(15 * time.Millisecond)
	}
	c, ok := s.WedgeEnter()
	require.True(t, ok)
	assert.Equal(t, "IMEI8", c.DeviceID)
}

func TestManual(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(clock)

	c, err := s.Manual("  IMEI9  ")
	require.NoError(t, err)
	assert.Equal(t, "IMEI9", c.DeviceID)
	assert.Equal(t, SourceManual, c.Source)

	_, err = s.Manual("   ")
	require.Error(t, err)
}

func TestSession_ClosedRejectsInput(t *testing.T) {
	clock := newFakeClock()
	s := newTestSession(clock)
	s.Close()

	assert.Equal(t, StateIdle, s.State())

	_, ok := s.CameraScan("IMEI1")
	assert.False(t, ok)

	_, err := s.Manual("IMEI1")
	require.Error(t, err)

	select {
	case <-s.Done():
	default:
		t.Fatal("Done channel should be closed")
	}
}

func TestManager_OpenReplacesPriorSession(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(DefaultConfig(), clock, logger.Default())
	defer m.Shutdown()

	d := draft.New("store-1", draft.KindSale)

	s1 := m.Open("store-1", d.ID, draft.SlotRef{LineIndex: 0})
	s2 := m.Open("store-1", d.ID, draft.SlotRef{LineIndex: 1})

	assert.Equal(t, 1, m.Count())
	assert.Equal(t, StateIdle, s1.State())
	assert.Equal(t, StateAwaitingScan, s2.State())

	_, err := m.Get("store-1", s1.ID)
	require.Error(t, err)

	got, err := m.Get("store-1", s2.ID)
	require.NoError(t, err)
	assert.Equal(t, s2.ID, got.ID)
}

func TestManager_GetScopedToStore(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(DefaultConfig(), clock, logger.Default())
	defer m.Shutdown()

	s := m.Open("store-1", draft.New("store-1", draft.KindSale).ID, draft.SlotRef{})

	_, err := m.Get("store-2", s.ID)
	require.Error(t, err)
}

func TestManager_Retarget(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(DefaultConfig(), clock, logger.Default())
	defer m.Shutdown()

	s := m.Open("store-1", draft.New("store-1", draft.KindSale).ID, draft.SlotRef{})

	got, err := m.Retarget("store-1", s.ID, draft.SlotRef{LineIndex: 2, SlotIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, draft.SlotRef{LineIndex: 2, SlotIndex: 1}, got.Target)
}

func TestManager_SweepIdle(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(DefaultConfig(), clock, logger.Default())
	defer m.Shutdown()

	s := m.Open("store-1", draft.New("store-1", draft.KindSale).ID, draft.SlotRef{})
	require.Equal(t, 1, m.Count())

	clock.Advance(6 * time.Minute)
	m.sweepIdle()

	assert.Equal(t, 0, m.Count())
	assert.Equal(t, StateIdle, s.State())
}

func TestManager_CloseDraft(t *testing.T) {
	clock := newFakeClock()
	m := NewManager(DefaultConfig(), clock, logger.Default())
	defer m.Shutdown()

	d := draft.New("store-1", draft.KindSale)
	s := m.Open("store-1", d.ID, draft.SlotRef{})

	m.CloseDraft("store-1", d.ID)

	assert.Equal(t, 0, m.Count())
	assert.Equal(t, StateIdle, s.State())
}
