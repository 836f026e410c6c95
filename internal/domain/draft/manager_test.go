package draft

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/domain/device"
	"tillpoint/pkg/logger"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(ManagerConfig{}, logger.Default())
	t.Cleanup(m.Close)
	return m
}

func TestManager_CreateGetDelete(t *testing.T) {
	m := newTestManager(t)

	d := m.Create("store-1", KindSale)
	require.NotNil(t, d)
	assert.Equal(t, "store-1", d.StoreID)
	assert.Equal(t, KindSale, d.Kind)

	got, err := m.Get("store-1", d.ID)
	require.NoError(t, err)
	assert.Same(t, d, got)

	// Scoped per store: another store cannot see the draft.
	_, err = m.Get("store-2", d.ID)
	require.Error(t, err)

	m.Delete("store-1", d.ID)
	_, err = m.Get("store-1", d.ID)
	require.Error(t, err)
	assert.Equal(t, 0, m.Count())
}

func TestManager_EvictIdle(t *testing.T) {
	m := NewManager(ManagerConfig{IdleTimeout: time.Minute}, logger.Default())
	defer m.Close()

	fresh := m.Create("store-1", KindSale)
	stale := m.Create("store-1", KindDebt)
	stale.UpdatedAt = time.Now().UTC().Add(-2 * time.Minute)

	m.evictIdle()

	_, err := m.Get("store-1", fresh.ID)
	require.NoError(t, err)
	_, err = m.Get("store-1", stale.ID)
	require.Error(t, err)
}

func TestDraft_SingleFlight(t *testing.T) {
	d := New("store-1", KindSale)

	require.True(t, d.TryBeginValidation())
	// Second candidate is dropped while the first is validating.
	assert.False(t, d.TryBeginValidation())

	d.EndValidation()
	assert.True(t, d.TryBeginValidation())
	d.EndValidation()
}

func TestDuplicate_OnePassAcrossLines(t *testing.T) {
	d := New("store-1", KindSale)
	d.Lines = []*Line{
		{Units: []device.Unit{{ID: "A1"}, {ID: "B2"}}},
		{Units: []device.Unit{{ID: "C3"}, {}}},
	}

	assert.True(t, HasDuplicate(d, "b2", nil))
	assert.True(t, HasDuplicate(d, " C3 ", nil))
	assert.False(t, HasDuplicate(d, "D4", nil))
	assert.False(t, HasDuplicate(d, "", nil))

	// Excluded slot is skipped.
	assert.False(t, HasDuplicate(d, "A1", &SlotRef{LineIndex: 0, SlotIndex: 0}))
	assert.True(t, HasDuplicate(d, "A1", &SlotRef{LineIndex: 1, SlotIndex: 0}))
}
