package soldset

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/domain/device"
)

type fakeRepo struct {
	sold    map[string]bool
	err     error
	lastIDs []string
}

func (f *fakeRepo) FindSold(ctx context.Context, candidates []string, excludeDocID string) ([]string, error) {
	f.lastIDs = candidates
	if f.err != nil {
		return nil, f.err
	}
	var out []string
	for _, c := range candidates {
		if f.sold[c] {
			out = append(out, c)
		}
	}
	return out, nil
}

func TestResolve(t *testing.T) {
	repo := &fakeRepo{sold: map[string]bool{"IMEI1": true, "IMEI3": true}}
	svc := NewService(repo)

	sold, err := svc.Resolve(context.Background(), []string{" IMEI1 ", "IMEI2", "IMEI1", "", "IMEI3"}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"IMEI1", "IMEI3"}, sold)
	// Input is trimmed and de-duplicated before the query.
	assert.Equal(t, []string{"IMEI1", "IMEI2", "IMEI3"}, repo.lastIDs)
}

func TestResolve_FailOpen(t *testing.T) {
	repo := &fakeRepo{err: errors.New("connection refused")}
	svc := NewService(repo)

	sold, err := svc.Resolve(context.Background(), []string{"IMEI1"}, "")
	require.Error(t, err)
	assert.Empty(t, sold)
}

func TestResolve_EmptyCandidates(t *testing.T) {
	repo := &fakeRepo{err: errors.New("should not be called")}
	svc := NewService(repo)

	sold, err := svc.Resolve(context.Background(), []string{"", "  "}, "")
	require.NoError(t, err)
	assert.Empty(t, sold)
	assert.Nil(t, repo.lastIDs)
}

func TestIsSold(t *testing.T) {
	repo := &fakeRepo{sold: map[string]bool{"IMEI1": true}}
	svc := NewService(repo)

	sold, err := svc.IsSold(context.Background(), "IMEI1", "")
	require.NoError(t, err)
	assert.True(t, sold)

	sold, err = svc.IsSold(context.Background(), "IMEI2", "")
	require.NoError(t, err)
	assert.False(t, sold)

	// Save-path check propagates errors instead of failing open.
	repo.err = errors.New("down")
	_, err = svc.IsSold(context.Background(), "IMEI1", "")
	require.Error(t, err)
}

func TestAvailable(t *testing.T) {
	repo := &fakeRepo{sold: map[string]bool{"IMEI2": true}}
	svc := NewService(repo)

	registry := []device.Unit{
		{ID: "IMEI1", Size: "S"},
		{ID: "IMEI2", Size: "M"},
		{ID: "IMEI3", Size: "L"},
	}

	avail, err := svc.Available(context.Background(), registry, "")
	require.NoError(t, err)
	assert.Equal(t, []device.Unit{
		{ID: "IMEI1", Size: "S"},
		{ID: "IMEI3", Size: "L"},
	}, avail)
}

func TestAvailable_FailOpenShowsRegistry(t *testing.T) {
	repo := &fakeRepo{err: errors.New("down")}
	svc := NewService(repo)

	registry := []device.Unit{{ID: "IMEI1"}}
	avail, err := svc.Available(context.Background(), registry, "")
	require.Error(t, err)
	assert.Equal(t, registry, avail)
}
