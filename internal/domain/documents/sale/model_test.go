package sale

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/device"
	"tillpoint/internal/domain/draft"
)

func qty(n int64) types.Quantity {
	return types.NewQuantityFromInt64Scaled(n * types.QuantityScale)
}

func TestAddLine_Totals(t *testing.T) {
	s := NewSale()
	s.AddLine(id.New(), []device.Unit{{ID: "A1", Size: "S"}, {ID: "A2", Size: "M"}}, qty(2), false, 50000)
	s.AddLine(id.New(), nil, qty(3), false, 1000)

	assert.Equal(t, qty(5), s.TotalQuantity)
	// 2*50000 + 3*1000
	assert.Equal(t, types.MinorUnits(103000), s.TotalAmount)

	assert.Equal(t, "A1,A2", s.Lines[0].DeviceIDs)
	assert.Equal(t, "S,M", s.Lines[0].DeviceSizes)
}

func TestValidate(t *testing.T) {
	s := NewSale()
	require.Error(t, s.Validate(context.Background()), "no lines")

	s.AddLine(id.New(), nil, qty(1), false, 100)
	require.NoError(t, s.Validate(context.Background()))

	s.PaymentMethod = "barter"
	require.Error(t, s.Validate(context.Background()))
}

func TestFromDraft(t *testing.T) {
	d := draft.New("store-1", draft.KindSale)
	customerID := id.New()
	d.CustomerID = &customerID

	productID := id.New()
	d.Lines = append(d.Lines, &draft.Line{
		ID:          id.New(),
		ProductID:   productID,
		ProductName: "Phone X",
		Serialized:  true,
		Units:       []device.Unit{{ID: "IMEI1", Size: "128GB"}, {}},
		UnitPrice:   50000,
	})
	d.Lines[0].Recalculate()

	// Empty line is dropped, not an error.
	d.Lines = append(d.Lines, &draft.Line{ID: id.New(), ProductID: id.New()})

	s, err := FromDraft(d)
	require.NoError(t, err)

	assert.Equal(t, &customerID, s.CustomerID)
	require.Len(t, s.Lines, 1)
	assert.Equal(t, productID, s.Lines[0].ProductID)
	assert.Equal(t, "IMEI1", s.Lines[0].DeviceIDs)
	assert.Equal(t, qty(1), s.Lines[0].Quantity)
	assert.Equal(t, types.MinorUnits(50000), s.TotalAmount)
}

func TestApplyDraft_EditKeepsIdentity(t *testing.T) {
	s := NewSale()
	s.Number = "SAL-2026-00007"
	s.AddLine(id.New(), []device.Unit{{ID: "OLD-1"}}, qty(3), false, 1000)
	origID := s.ID
	origVersion := s.Version

	d := draft.New("store-1", draft.KindSale)
	productID := id.New()
	d.Lines = append(d.Lines, &draft.Line{
		ID:        id.New(),
		ProductID: productID,
		Quantity:  qty(5),
		UnitPrice: 2000,
	})

	require.NoError(t, s.ApplyDraft(d))

	// The draft replaces lines; the document stays the same row.
	assert.Equal(t, origID, s.ID)
	assert.Equal(t, "SAL-2026-00007", s.Number)
	assert.Equal(t, origVersion, s.Version)
	require.Len(t, s.Lines, 1)
	assert.Equal(t, productID, s.Lines[0].ProductID)
	assert.Equal(t, qty(5), s.TotalQuantity)
	assert.Equal(t, types.MinorUnits(10000), s.TotalAmount)
}

func TestFromDraft_UnassignedDevicesRejected(t *testing.T) {
	d := draft.New("store-1", draft.KindSale)
	d.Lines = append(d.Lines, &draft.Line{
		ID:         id.New(),
		Serialized: true,
		Units:      []device.Unit{{ID: "RAW-1"}},
	})

	_, err := FromDraft(d)
	require.Error(t, err)
}

func TestGenerateMovements(t *testing.T) {
	s := NewSale()
	productID := id.New()
	s.AddLine(productID, []device.Unit{{ID: "A1"}}, qty(1), false, 100)

	set, err := s.GenerateMovements(context.Background())
	require.NoError(t, err)

	require.Len(t, set.Stock, 1)
	m := set.Stock[0]
	assert.Equal(t, entity.RecordTypeExpense, m.RecordType)
	assert.Equal(t, productID, m.ProductID)
	assert.Equal(t, qty(1), m.Quantity)
	assert.Equal(t, s.PostedVersion+1, m.RecorderVersion)
}
