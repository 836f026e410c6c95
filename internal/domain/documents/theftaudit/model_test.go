package theftaudit

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

func TestAddLines_Totals(t *testing.T) {
	a := NewTheftAudit()
	a.AddMissing(id.New(), []device.Unit{{ID: "IMEI1"}, {ID: "IMEI2"}})
	a.AddFoundUnregistered([]device.Unit{{ID: "STRAY-1"}})

	assert.Equal(t, qty(2), a.TotalMissing)
	assert.Equal(t, qty(1), a.TotalFound)
	require.NoError(t, a.Validate(context.Background()))
}

func TestValidate_MissingRequiresProduct(t *testing.T) {
	a := NewTheftAudit()
	a.Lines = append(a.Lines, AuditLine{
		LineID:    id.New(),
		LineNo:    1,
		Status:    StatusMissing,
		DeviceIDs: "IMEI1",
		Quantity:  qty(1),
	})

	require.Error(t, a.Validate(context.Background()))
}

func TestGenerateMovements_OnlyMissingWritesOff(t *testing.T) {
	a := NewTheftAudit()
	productID := id.New()
	a.AddMissing(productID, []device.Unit{{ID: "IMEI1"}, {ID: "IMEI2"}})
	a.AddFoundUnregistered([]device.Unit{{ID: "STRAY-1"}})

	set, err := a.GenerateMovements(context.Background())
	require.NoError(t, err)

	require.Len(t, set.Stock, 1)
	m := set.Stock[0]
	assert.Equal(t, entity.RecordTypeExpense, m.RecordType)
	assert.Equal(t, productID, m.ProductID)
	assert.Equal(t, qty(2), m.Quantity)
}

func TestFromDraft(t *testing.T) {
	d := draft.New("store-1", draft.KindTheftAudit)
	productID := id.New()
	d.Lines = append(d.Lines,
		&draft.Line{
			ID:         id.New(),
			ProductID:  productID,
			Serialized: true,
			Units:      []device.Unit{{ID: "IMEI1", Size: "S"}, {}},
		},
		&draft.Line{
			ID:         id.New(),
			Serialized: true,
			Units:      []device.Unit{{ID: "STRAY-1"}},
		},
	)

	a, err := FromDraft(d)
	require.NoError(t, err)

	require.Len(t, a.Lines, 2)
	assert.Equal(t, StatusMissing, a.Lines[0].Status)
	assert.Equal(t, productID, a.Lines[0].ProductID)
	assert.Equal(t, "IMEI1", a.Lines[0].DeviceIDs)
	assert.Equal(t, StatusFoundUnregistered, a.Lines[1].Status)
	assert.Equal(t, "STRAY-1", a.Lines[1].DeviceIDs)
}

func TestFromDraft_Empty(t *testing.T) {
	d := draft.New("store-1", draft.KindTheftAudit)
	_, err := FromDraft(d)
	require.Error(t, err)
}
