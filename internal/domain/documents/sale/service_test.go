package sale

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain"
	"tillpoint/internal/domain/device"
	"tillpoint/internal/domain/posting"
	"tillpoint/internal/domain/soldset"
	"tillpoint/pkg/numerator"
)

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memRepo mirrors the SQL layer's optimistic locking: Update matches the
// stored row's version against the entity's and bumps it on success, so
// a stale entity version fails the same way the database would.
type memRepo struct {
	docs  map[id.ID]*Sale
	lines map[id.ID][]SaleLine
}

func newMemRepo() *memRepo {
	return &memRepo{
		docs:  make(map[id.ID]*Sale),
		lines: make(map[id.ID][]SaleLine),
	}
}

func (r *memRepo) clone(doc *Sale) *Sale {
	c := *doc
	c.Lines = nil
	return &c
}

func (r *memRepo) Create(ctx context.Context, doc *Sale) error {
	if _, ok := r.docs[doc.ID]; ok {
		return apperror.NewDuplicate("sale", "id", doc.ID.String())
	}
	r.docs[doc.ID] = r.clone(doc)
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, docID id.ID) (*Sale, error) {
	stored, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("sale", docID)
	}
	return r.clone(stored), nil
}

func (r *memRepo) GetByNumber(ctx context.Context, number string) (*Sale, error) {
	for _, stored := range r.docs {
		if stored.Number == number {
			return r.clone(stored), nil
		}
	}
	return nil, apperror.NewNotFound("sale", number)
}

func (r *memRepo) Update(ctx context.Context, doc *Sale) error {
	stored, ok := r.docs[doc.ID]
	if !ok || stored.Version != doc.Version {
		return apperror.NewConcurrentModification("sale", doc.ID)
	}
	next := r.clone(doc)
	next.Version = stored.Version + 1
	r.docs[doc.ID] = next
	return nil
}

func (r *memRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(r.docs, docID)
	delete(r.lines, docID)
	return nil
}

func (r *memRepo) GetLines(ctx context.Context, docID id.ID) ([]SaleLine, error) {
	return append([]SaleLine(nil), r.lines[docID]...), nil
}

func (r *memRepo) SaveLines(ctx context.Context, docID id.ID, lines []SaleLine) error {
	r.lines[docID] = append([]SaleLine(nil), lines...)
	return nil
}

func (r *memRepo) List(ctx context.Context, f ListFilter) (domain.ListResult[*Sale], error) {
	out := domain.ListResult[*Sale]{}
	for _, stored := range r.docs {
		out.Items = append(out.Items, r.clone(stored))
	}
	out.TotalCount = int64(len(out.Items))
	return out, nil
}

func (r *memRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Sale, error) {
	return r.GetByID(ctx, docID)
}

type memStock struct {
	recorded [][]entity.StockMovement
	reversed []int
}

func (f *memStock) RecordMovements(ctx context.Context, movements []entity.StockMovement) error {
	f.recorded = append(f.recorded, movements)
	return nil
}

func (f *memStock) ReverseMovements(ctx context.Context, recorderID id.ID, beforeVersion int) error {
	f.reversed = append(f.reversed, beforeVersion)
	return nil
}

func (f *memStock) CheckAndReserveStock(ctx context.Context, movements []entity.StockMovement) error {
	return nil
}

type unsoldRepo struct{}

func (unsoldRepo) FindSold(ctx context.Context, candidates []string, excludeDocID string) ([]string, error) {
	return nil, nil
}

func newTestService() (*Service, *memRepo, *memStock) {
	repo := newMemRepo()
	stock := &memStock{}
	engine := posting.NewEngine(stock, noopTxManager{})
	svc := NewService(repo, engine, &numerator.MockGenerator{},
		soldset.NewService(unsoldRepo{}), noopTxManager{})
	return svc, repo, stock
}

func TestService_CreateThenPost(t *testing.T) {
	ctx := context.Background()
	svc, repo, stock := newTestService()

	doc := NewSale()
	doc.AddLine(id.New(), []device.Unit{{ID: "IMEI1"}}, qty(1), false, 50000)
	require.NoError(t, svc.Create(ctx, doc))

	// Posting a freshly created document must clear the version check in
	// the repository, not trip it.
	require.NoError(t, svc.Post(ctx, doc.ID))

	stored, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, stored.Posted)
	assert.Equal(t, 1, stored.PostedVersion)
	assert.Equal(t, 2, stored.Version)
	require.Len(t, stock.recorded, 1)
}

func TestService_PostAndSave_NewDocument(t *testing.T) {
	ctx := context.Background()
	svc, repo, stock := newTestService()

	doc := NewSale()
	doc.AddLine(id.New(), []device.Unit{{ID: "IMEI1"}}, qty(1), false, 50000)
	require.NoError(t, svc.PostAndSave(ctx, doc))

	stored, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.True(t, stored.Posted)
	assert.Equal(t, 1, stored.PostedVersion)
	assert.NotEmpty(t, stored.Number)

	lines, err := repo.GetLines(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	// Nothing to reverse on a first post.
	assert.Empty(t, stock.reversed)
	require.Len(t, stock.recorded, 1)
}

func TestService_PostAndSave_RepostEditedDocument(t *testing.T) {
	ctx := context.Background()
	svc, repo, stock := newTestService()

	productID := id.New()
	doc := NewSale()
	doc.AddLine(productID, nil, qty(3), false, 1000)
	require.NoError(t, svc.PostAndSave(ctx, doc))

	// Reload, change the quantity, save again: the same document is
	// updated and its movements replaced at the next posting version.
	edited, err := svc.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	edited.Lines = edited.Lines[:0]
	edited.AddLine(productID, nil, qty(5), false, 1000)
	require.NoError(t, svc.PostAndSave(ctx, edited))

	assert.Len(t, repo.docs, 1)

	stored, err := repo.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ID, stored.ID)
	assert.Equal(t, doc.Number, stored.Number)
	assert.Equal(t, 2, stored.PostedVersion)

	// The first set was reversed before the new one landed.
	assert.Equal(t, []int{2}, stock.reversed)
	require.Len(t, stock.recorded, 2)
	assert.Equal(t, qty(5), stock.recorded[1][0].Quantity)
	assert.Equal(t, 2, stock.recorded[1][0].RecorderVersion)
}

func TestService_Post_MissingDocument(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	err := svc.Post(ctx, id.New())
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}
