package debt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/device"
	"tillpoint/internal/domain/draft"
)

func qty(n int64) types.Quantity {
	return types.NewQuantityFromInt64Scaled(n * types.QuantityScale)
}

func newTestDebt() *Debt {
	d := NewDebt(id.New())
	d.AddLine(id.New(), []device.Unit{{ID: "IMEI1", Size: "S"}}, qty(1), false, 50000)
	return d
}

func TestSettle(t *testing.T) {
	d := newTestDebt()
	require.Equal(t, types.MinorUnits(50000), d.Owed())

	require.NoError(t, d.Settle(20000))
	assert.Equal(t, types.MinorUnits(30000), d.Owed())
	assert.False(t, d.IsSettled())

	require.NoError(t, d.Settle(30000))
	assert.True(t, d.IsSettled())
}

func TestSettle_Overpayment(t *testing.T) {
	d := newTestDebt()
	require.Error(t, d.Settle(50001))
	require.Error(t, d.Settle(0))
	assert.Equal(t, types.MinorUnits(0), d.PaidAmount)
}

func TestIsOverdue(t *testing.T) {
	d := newTestDebt()
	now := time.Now()

	assert.False(t, d.IsOverdue(now), "no due date")

	due := now.Add(-24 * time.Hour)
	d.DueDate = &due
	assert.True(t, d.IsOverdue(now))

	require.NoError(t, d.Settle(50000))
	assert.False(t, d.IsOverdue(now), "settled debts are not overdue")
}

func TestValidate_RequiresCustomer(t *testing.T) {
	d := newTestDebt()
	require.NoError(t, d.Validate(context.Background()))

	d.CustomerID = id.Nil()
	require.Error(t, d.Validate(context.Background()))
}

func TestFromDraft_RequiresCustomer(t *testing.T) {
	dr := draft.New("store-1", draft.KindDebt)
	dr.Lines = append(dr.Lines, &draft.Line{
		ID:        id.New(),
		ProductID: id.New(),
		Quantity:  qty(1),
		UnitPrice: 100,
	})

	_, err := FromDraft(dr)
	require.Error(t, err)

	customerID := id.New()
	dr.CustomerID = &customerID
	d, err := FromDraft(dr)
	require.NoError(t, err)
	assert.Equal(t, customerID, d.CustomerID)
	assert.Len(t, d.Lines, 1)
}

func TestApplyDraft_EditKeepsCustomerAndPayments(t *testing.T) {
	d := newTestDebt()
	customerID := d.CustomerID
	origVersion := d.Version

	require.NoError(t, d.Settle(20000))
	assert.Equal(t, origVersion, d.Version)

	// Draft without a customer keeps the debtor; lines are replaced.
	dr := draft.New("store-1", draft.KindDebt)
	dr.Lines = append(dr.Lines, &draft.Line{
		ID:        id.New(),
		ProductID: id.New(),
		Quantity:  qty(2),
		UnitPrice: 40000,
	})

	require.NoError(t, d.ApplyDraft(dr))

	assert.Equal(t, customerID, d.CustomerID)
	assert.Equal(t, types.MinorUnits(20000), d.PaidAmount)
	assert.Equal(t, origVersion, d.Version)
	require.Len(t, d.Lines, 1)
	assert.Equal(t, types.MinorUnits(80000), d.TotalAmount)
	assert.Equal(t, types.MinorUnits(60000), d.Owed())
}
