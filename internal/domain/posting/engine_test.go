package posting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
)

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeStock struct {
	recorded   [][]entity.StockMovement
	reversed   []int
	reserveErr error
}

func (f *fakeStock) RecordMovements(ctx context.Context, movements []entity.StockMovement) error {
	f.recorded = append(f.recorded, movements)
	return nil
}

func (f *fakeStock) ReverseMovements(ctx context.Context, recorderID id.ID, beforeVersion int) error {
	f.reversed = append(f.reversed, beforeVersion)
	return nil
}

func (f *fakeStock) CheckAndReserveStock(ctx context.Context, movements []entity.StockMovement) error {
	return f.reserveErr
}

type testDoc struct {
	entity.Document
	productID id.ID
	quantity  types.Quantity
}

func newTestDoc() *testDoc {
	return &testDoc{
		Document:  entity.NewDocument(),
		productID: id.New(),
		quantity:  types.NewQuantityFromInt64Scaled(2 * types.QuantityScale),
	}
}

func (d *testDoc) GetDocumentType() string { return "TestDoc" }

func (d *testDoc) GenerateMovements(ctx context.Context) (*MovementSet, error) {
	set := NewMovementSet()
	set.AddStock(entity.NewStockMovement(
		d.ID, d.GetDocumentType(), d.PostedVersion+1, d.Date,
		entity.RecordTypeExpense, d.productID, d.quantity,
	))
	return set, nil
}

func TestPost(t *testing.T) {
	stock := &fakeStock{}
	engine := NewEngine(stock, noopTxManager{})
	doc := newTestDoc()

	saved := false
	err := engine.Post(context.Background(), doc, func(ctx context.Context) error {
		saved = true
		return nil
	})
	require.NoError(t, err)

	assert.True(t, saved)
	assert.True(t, doc.Posted)
	assert.Equal(t, 1, doc.PostedVersion)

	// First post has nothing to reverse.
	assert.Empty(t, stock.reversed)
	require.Len(t, stock.recorded, 1)
	assert.Equal(t, 1, stock.recorded[0][0].RecorderVersion)
}

func TestPost_RepostReversesPriorVersion(t *testing.T) {
	stock := &fakeStock{}
	engine := NewEngine(stock, noopTxManager{})
	doc := newTestDoc()

	update := func(ctx context.Context) error { return nil }
	require.NoError(t, engine.Post(context.Background(), doc, update))
	require.NoError(t, engine.Post(context.Background(), doc, update))

	assert.Equal(t, 2, doc.PostedVersion)
	// Repost reverses everything below the new version.
	assert.Equal(t, []int{2}, stock.reversed)
	require.Len(t, stock.recorded, 2)
	assert.Equal(t, 2, stock.recorded[1][0].RecorderVersion)
}

func TestPost_InsufficientStock(t *testing.T) {
	stock := &fakeStock{reserveErr: errors.New("insufficient")}
	engine := NewEngine(stock, noopTxManager{})
	doc := newTestDoc()

	err := engine.Post(context.Background(), doc, func(ctx context.Context) error {
		t.Fatal("document must not be saved when reservation fails")
		return nil
	})
	require.Error(t, err)

	assert.False(t, doc.Posted)
	assert.Empty(t, stock.recorded)
}

func TestUnpost(t *testing.T) {
	stock := &fakeStock{}
	engine := NewEngine(stock, noopTxManager{})
	doc := newTestDoc()

	update := func(ctx context.Context) error { return nil }
	require.NoError(t, engine.Post(context.Background(), doc, update))
	require.NoError(t, engine.Unpost(context.Background(), doc, update))

	assert.False(t, doc.Posted)
	// Version stays so the next post records version 2.
	assert.Equal(t, 1, doc.PostedVersion)
	assert.Equal(t, []int{2}, stock.reversed)
}

func TestUnpost_NotPosted(t *testing.T) {
	engine := NewEngine(&fakeStock{}, noopTxManager{})
	doc := newTestDoc()

	err := engine.Unpost(context.Background(), doc, func(ctx context.Context) error { return nil })
	require.Error(t, err)
}

func TestPost_ValidatesFirst(t *testing.T) {
	engine := NewEngine(&fakeStock{}, noopTxManager{})
	doc := newTestDoc()
	doc.Date = time.Time{}

	err := engine.Post(context.Background(), doc, func(ctx context.Context) error { return nil })
	require.Error(t, err)
}

type fakeSink struct {
	events []string
	err    error
}

func (f *fakeSink) Publish(ctx context.Context, aggregateType string, aggregateID id.ID, eventType string, payload any) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, eventType)
	return nil
}

func TestPost_PublishesEvent(t *testing.T) {
	sink := &fakeSink{}
	engine := NewEngine(&fakeStock{}, noopTxManager{}).WithEvents(sink)
	doc := newTestDoc()

	update := func(ctx context.Context) error { return nil }
	require.NoError(t, engine.Post(context.Background(), doc, update))
	require.NoError(t, engine.Unpost(context.Background(), doc, update))

	assert.Equal(t, []string{"TestDocPosted", "TestDocUnposted"}, sink.events)
}

func TestPost_SinkErrorFailsTransaction(t *testing.T) {
	sink := &fakeSink{err: errors.New("outbox down")}
	engine := NewEngine(&fakeStock{}, noopTxManager{}).WithEvents(sink)
	doc := newTestDoc()

	err := engine.Post(context.Background(), doc, func(ctx context.Context) error { return nil })
	require.Error(t, err)
}

func TestFanout(t *testing.T) {
	a := &fakeSink{}
	b := &fakeSink{}

	sink := Fanout(a, nil, b)
	require.NoError(t, sink.Publish(context.Background(), "Sale", id.New(), "SalePosted", nil))

	assert.Equal(t, []string{"SalePosted"}, a.events)
	assert.Equal(t, []string{"SalePosted"}, b.events)

	assert.Nil(t, Fanout(nil))
	assert.Same(t, a, Fanout(a, nil))
}

func TestFanout_StopsOnError(t *testing.T) {
	a := &fakeSink{err: errors.New("boom")}
	b := &fakeSink{}

	err := Fanout(a, b).Publish(context.Background(), "Sale", id.New(), "SalePosted", nil)
	require.Error(t, err)
	assert.Empty(t, b.events)
}
