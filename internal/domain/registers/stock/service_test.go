package stock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
)

type fakeRepo struct {
	Repository

	balances map[id.ID]types.Quantity
	created  []entity.StockMovement
	locked   []id.ID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{balances: make(map[id.ID]types.Quantity)}
}

func (f *fakeRepo) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	f.created = append(f.created, movements...)
	return nil
}

func (f *fakeRepo) GetBalanceForUpdate(ctx context.Context, productID id.ID) (entity.StockBalance, error) {
	f.locked = append(f.locked, productID)
	return entity.StockBalance{ProductID: productID, Quantity: f.balances[productID]}, nil
}

func qty(n int64) types.Quantity {
	return types.NewQuantityFromInt64Scaled(n * types.QuantityScale)
}

func expense(productID id.ID, q types.Quantity) entity.StockMovement {
	return entity.NewStockMovement(id.New(), "Sale", 1, time.Now(), entity.RecordTypeExpense, productID, q)
}

func receipt(productID id.ID, q types.Quantity) entity.StockMovement {
	return entity.NewStockMovement(id.New(), "Sale", 1, time.Now(), entity.RecordTypeReceipt, productID, q)
}

func TestCheckAndReserveStock(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	productID := id.New()
	repo.balances[productID] = qty(5)

	err := svc.CheckAndReserveStock(context.Background(), []entity.StockMovement{
		expense(productID, qty(3)),
	})
	require.NoError(t, err)
	assert.Equal(t, []id.ID{productID}, repo.locked)
}

func TestCheckAndReserveStock_Insufficient(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	productID := id.New()
	repo.balances[productID] = qty(2)

	err := svc.CheckAndReserveStock(context.Background(), []entity.StockMovement{
		expense(productID, qty(3)),
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
}

func TestCheckAndReserveStock_NetsReceiptsAgainstExpenses(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	productID := id.New()
	repo.balances[productID] = qty(1)

	// Expense 4, receipt 3: net demand 1 fits the balance of 1.
	err := svc.CheckAndReserveStock(context.Background(), []entity.StockMovement{
		expense(productID, qty(4)),
		receipt(productID, qty(3)),
	})
	require.NoError(t, err)
}

func TestCheckAndReserveStock_ReceiptOnlySkipsLock(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	err := svc.CheckAndReserveStock(context.Background(), []entity.StockMovement{
		receipt(id.New(), qty(10)),
	})
	require.NoError(t, err)
	assert.Empty(t, repo.locked)
}

func TestRecordMovements_Validation(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	err := svc.RecordMovements(context.Background(), []entity.StockMovement{
		expense(id.New(), qty(0)),
	})
	require.Error(t, err)
	assert.Empty(t, repo.created)
}

func TestRecordMovements(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	err := svc.RecordMovements(context.Background(), []entity.StockMovement{
		expense(id.New(), qty(2)),
	})
	require.NoError(t, err)
	assert.Len(t, repo.created, 1)
}
