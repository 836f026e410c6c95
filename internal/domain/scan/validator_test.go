package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/store"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/catalogs/product"
	"tillpoint/internal/domain/draft"
	"tillpoint/internal/domain/scan/rules"
	"tillpoint/internal/domain/soldset"
	"tillpoint/pkg/logger"
)

type fakeFinder struct {
	products map[string]*product.Product
	err      error
}

func (f *fakeFinder) FindByDeviceID(ctx context.Context, deviceID string) (*product.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.products[deviceID]; ok {
		return p, nil
	}
	return nil, apperror.NewNotFound("product", deviceID)
}

type fakeSoldRepo struct {
	sold map[string]bool
	err  error
}

func (f *fakeSoldRepo) FindSold(ctx context.Context, candidates []string, excludeDocID string) ([]string, error) {
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

type validatorFixture struct {
	drafts   *draft.Manager
	sessions *Manager
	finder   *fakeFinder
	soldRepo *fakeSoldRepo
	v        *Validator

	draft   *draft.Draft
	session *Session
}

func newValidatorFixture(t *testing.T) *validatorFixture {
	t.Helper()

	engine, err := rules.NewEngine()
	require.NoError(t, err)

	f := &validatorFixture{
		drafts:   draft.NewManager(draft.DefaultManagerConfig(), logger.Default()),
		sessions: NewManager(DefaultConfig(), newFakeClock(), logger.Default()),
		finder:   &fakeFinder{products: make(map[string]*product.Product)},
		soldRepo: &fakeSoldRepo{sold: make(map[string]bool)},
	}
	t.Cleanup(f.drafts.Close)
	t.Cleanup(f.sessions.Shutdown)

	f.v = NewValidator(f.drafts, f.finder, soldset.NewService(f.soldRepo), engine)
	f.draft = f.drafts.Create("store-1", draft.KindSale)
	f.session = f.sessions.Open("store-1", f.draft.ID, draft.SlotRef{})
	return f
}

func (f *validatorFixture) addProduct(name, ids, sizes string, price types.MinorUnits) *product.Product {
	p := product.NewProduct("", name)
	p.DeviceIDs = ids
	p.DeviceSizes = sizes
	p.UnitPrice = price
	for _, u := range p.Units() {
		f.finder.products[u.ID] = p
	}
	return p
}

func TestProcess_AppliesCandidate(t *testing.T) {
	f := newValidatorFixture(t)
	f.addProduct("Phone X", "IMEI1,IMEI2", "128GB,256GB", 50000)

	res, err := f.v.Process(context.Background(), f.session,
		Candidate{DeviceID: "IMEI1", Source: SourceManual})
	require.NoError(t, err)

	assert.True(t, res.NewLine)
	assert.Equal(t, "IMEI1", res.DeviceID)
	assert.Equal(t, "128GB", res.Size)

	require.Len(t, f.draft.Lines, 1)
	assert.Equal(t, []string{"IMEI1"}, f.draft.Lines[0].FilledIDs())

	// Pipeline released the single-flight slot.
	assert.True(t, f.draft.TryBeginValidation())
	f.draft.EndValidation()
	assert.Equal(t, StateAwaitingScan, f.session.State())
}

func TestProcess_BusyWhileValidating(t *testing.T) {
	f := newValidatorFixture(t)

	require.True(t, f.draft.TryBeginValidation())
	defer f.draft.EndValidation()

	_, err := f.v.Process(context.Background(), f.session,
		Candidate{DeviceID: "IMEI1"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeScanBusy, appErr.Code)
}

func TestProcess_SoldDevice(t *testing.T) {
	f := newValidatorFixture(t)
	f.addProduct("Phone X", "IMEI1", "128GB", 50000)
	f.soldRepo.sold["IMEI1"] = true

	_, err := f.v.Process(context.Background(), f.session,
		Candidate{DeviceID: "IMEI1"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDeviceSold, appErr.Code)
	assert.Empty(t, f.draft.Lines)
}

func TestProcess_SoldCheckErrorBlocks(t *testing.T) {
	f := newValidatorFixture(t)
	f.soldRepo.err = errors.New("connection refused")

	_, err := f.v.Process(context.Background(), f.session,
		Candidate{DeviceID: "IMEI1"})
	require.Error(t, err)
	assert.Empty(t, f.draft.Lines)
}

func TestProcess_UnrecognizedKeptRaw(t *testing.T) {
	f := newValidatorFixture(t)

	res, err := f.v.Process(context.Background(), f.session,
		Candidate{DeviceID: "UNKNOWN-1"})
	require.NoError(t, err)

	assert.True(t, res.Unrecognized)
	require.Len(t, f.draft.Lines, 1)
	assert.Equal(t, []string{"UNKNOWN-1"}, f.draft.Lines[0].FilledIDs())
}

func TestProcess_StoreRule(t *testing.T) {
	f := newValidatorFixture(t)
	f.addProduct("Phone X", "12345,999", "S,M", 50000)

	ctx := store.WithStore(context.Background(), &store.Store{
		ID:       "store-1",
		Status:   store.StatusActive,
		Settings: map[string]any{store.ScanRuleKey: `size(id) == 5`},
	})

	_, err := f.v.Process(ctx, f.session, Candidate{DeviceID: "999"})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeScanRejected, appErr.Code)
	assert.Empty(t, f.draft.Lines)

	res, err := f.v.Process(ctx, f.session, Candidate{DeviceID: "12345"})
	require.NoError(t, err)
	assert.Equal(t, "12345", res.DeviceID)
}

func TestProcess_BrokenRuleAccepts(t *testing.T) {
	f := newValidatorFixture(t)
	f.addProduct("Phone X", "IMEI1", "S", 50000)

	ctx := store.WithStore(context.Background(), &store.Store{
		ID:       "store-1",
		Status:   store.StatusActive,
		Settings: map[string]any{store.ScanRuleKey: `size(`},
	})

	res, err := f.v.Process(ctx, f.session, Candidate{DeviceID: "IMEI1"})
	require.NoError(t, err)
	assert.Equal(t, "IMEI1", res.DeviceID)
}

func TestProcess_DuplicateInDraft(t *testing.T) {
	f := newValidatorFixture(t)
	f.addProduct("Phone X", "IMEI1,IMEI2", "S,M", 50000)

	_, err := f.v.Process(context.Background(), f.session,
		Candidate{DeviceID: "IMEI1"})
	require.NoError(t, err)

	// Move to the next slot; rescanning into the same slot is allowed,
	// a second slot holding the same ID is not.
	_, err = f.sessions.Retarget("store-1", f.session.ID, draft.SlotRef{LineIndex: 0, SlotIndex: 1})
	require.NoError(t, err)

	_, err = f.v.Process(context.Background(), f.session,
		Candidate{DeviceID: "IMEI1"})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicateDevice, appErr.Code)
}
