package draft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/catalogs/product"
	"tillpoint/internal/domain/device"
)

func newTestProduct(name, ids, sizes string, price types.MinorUnits) *product.Product {
	p := product.NewProduct("", name)
	p.DeviceIDs = ids
	p.DeviceSizes = sizes
	p.UnitPrice = price
	return p
}

func TestApply_NewLine(t *testing.T) {
	d := New("store-1", KindSale)
	p := newTestProduct("Phone X", "IMEI1,IMEI2", "128GB,256GB", 50000)

	res, err := Apply(d, "IMEI1", p, SlotRef{LineIndex: 0, SlotIndex: 0})
	require.NoError(t, err)

	assert.True(t, res.NewLine)
	assert.Equal(t, 0, res.LineIndex)
	assert.Equal(t, 0, res.SlotIndex)
	assert.Equal(t, "128GB", res.Size)

	require.Len(t, d.Lines, 1)
	line := d.Lines[0]
	assert.Equal(t, p.ID, line.ProductID)
	assert.True(t, line.Serialized)

	// One filled slot plus the trailing blank scan target.
	require.Len(t, line.Units, 2)
	assert.Equal(t, "IMEI1", line.Units[0].ID)
	assert.Equal(t, "", line.Units[1].ID)

	assert.Equal(t, types.NewQuantityFromFloat64(1), line.Quantity)
	assert.Equal(t, types.MinorUnits(50000), line.Amount)
}

func TestApply_FillsTargetSlot(t *testing.T) {
	d := New("store-1", KindSale)
	p := newTestProduct("Phone X", "IMEI1,IMEI2,IMEI3", "S,M,L", 10000)

	_, err := Apply(d, "IMEI1", p, SlotRef{})
	require.NoError(t, err)

	// Scan into the trailing blank slot of the same line.
	res, err := Apply(d, "IMEI2", p, SlotRef{LineIndex: 0, SlotIndex: 1})
	require.NoError(t, err)

	assert.False(t, res.NewLine)
	assert.False(t, res.Merged)
	assert.Equal(t, 1, res.SlotIndex)
	assert.Equal(t, "M", res.Size)

	line := d.Lines[0]
	assert.Equal(t, []string{"IMEI1", "IMEI2"}, line.FilledIDs())
	assert.Equal(t, types.NewQuantityFromFloat64(2), line.Quantity)
	assert.Equal(t, types.MinorUnits(20000), line.Amount)
}

func TestApply_RoutesForeignProductAway(t *testing.T) {
	d := New("store-1", KindSale)
	phoneA := newTestProduct("Phone A", "AAA1,AAA2", "", 10000)
	phoneB := newTestProduct("Phone B", "BBB1", "", 20000)

	_, err := Apply(d, "AAA1", phoneA, SlotRef{})
	require.NoError(t, err)

	// Target is phone A's line, but the unit belongs to phone B.
	res, err := Apply(d, "BBB1", phoneB, SlotRef{LineIndex: 0, SlotIndex: 1})
	require.NoError(t, err)

	assert.True(t, res.NewLine)
	assert.Equal(t, 1, res.LineIndex)

	// Phone A's line was not touched.
	assert.Equal(t, []string{"AAA1"}, d.Lines[0].FilledIDs())
	assert.Equal(t, []string{"BBB1"}, d.Lines[1].FilledIDs())
}

func TestApply_MergesIntoExistingLine(t *testing.T) {
	d := New("store-1", KindSale)
	phoneA := newTestProduct("Phone A", "AAA1,AAA2", "", 10000)
	phoneB := newTestProduct("Phone B", "BBB1", "", 20000)

	_, err := Apply(d, "AAA1", phoneA, SlotRef{})
	require.NoError(t, err)
	_, err = Apply(d, "BBB1", phoneB, SlotRef{LineIndex: 1, SlotIndex: 0})
	require.NoError(t, err)

	// Target is phone B's line; the unit belongs to phone A and merges back.
	res, err := Apply(d, "AAA2", phoneA, SlotRef{LineIndex: 1, SlotIndex: 1})
	require.NoError(t, err)

	assert.True(t, res.Merged)
	assert.Equal(t, 0, res.LineIndex)
	assert.Equal(t, []string{"AAA1", "AAA2"}, d.Lines[0].FilledIDs())
	assert.Equal(t, types.NewQuantityFromFloat64(2), d.Lines[0].Quantity)
}

func TestApply_RejectsBlank(t *testing.T) {
	d := New("store-1", KindSale)

	_, err := Apply(d, "   ", nil, SlotRef{})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Empty(t, d.Lines)
}

func TestApply_RejectsDuplicate(t *testing.T) {
	d := New("store-1", KindSale)
	p := newTestProduct("Phone X", "IMEI1,IMEI2", "", 10000)

	_, err := Apply(d, "IMEI1", p, SlotRef{})
	require.NoError(t, err)

	// Same unit into a different slot: rejected, draft unchanged.
	_, err = Apply(d, "imei1", p, SlotRef{LineIndex: 0, SlotIndex: 1})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDuplicateDevice, appErr.Code)
	assert.Equal(t, []string{"IMEI1"}, d.Lines[0].FilledIDs())
}

func TestApply_RescanIntoOwnSlot(t *testing.T) {
	d := New("store-1", KindSale)
	p := newTestProduct("Phone X", "IMEI1", "S", 10000)

	res, err := Apply(d, "IMEI1", p, SlotRef{})
	require.NoError(t, err)

	// Re-scanning the same unit into its own slot is not a duplicate.
	res, err = Apply(d, "IMEI1", p, SlotRef{LineIndex: 0, SlotIndex: res.SlotIndex})
	require.NoError(t, err)
	assert.Equal(t, 0, res.SlotIndex)
	assert.Equal(t, []string{"IMEI1"}, d.Lines[0].FilledIDs())
}

func TestApply_UnrecognizedKeptRaw(t *testing.T) {
	d := New("store-1", KindSale)

	res, err := Apply(d, "UNKNOWN99", nil, SlotRef{})
	require.NoError(t, err)

	assert.True(t, res.Unrecognized)
	assert.True(t, res.NewLine)
	assert.Empty(t, res.Size)

	require.Len(t, d.Lines, 1)
	line := d.Lines[0]
	assert.True(t, id.IsNil(line.ProductID))
	assert.Equal(t, []string{"UNKNOWN99"}, line.FilledIDs())
}

func TestApply_UnrecognizedIntoExistingLine(t *testing.T) {
	d := New("store-1", KindSale)
	p := newTestProduct("Phone X", "IMEI1", "", 10000)

	_, err := Apply(d, "IMEI1", p, SlotRef{})
	require.NoError(t, err)

	res, err := Apply(d, "UNKNOWN99", nil, SlotRef{LineIndex: 0, SlotIndex: 1})
	require.NoError(t, err)

	assert.True(t, res.Unrecognized)
	assert.False(t, res.NewLine)
	assert.Equal(t, []string{"IMEI1", "UNKNOWN99"}, d.Lines[0].FilledIDs())
}

func TestLine_QuantityOverrideSurvivesRescan(t *testing.T) {
	d := New("store-1", KindSale)
	p := newTestProduct("Phone X", "IMEI1,IMEI2", "", 10000)

	_, err := Apply(d, "IMEI1", p, SlotRef{})
	require.NoError(t, err)

	line := d.Lines[0]
	line.SetQuantityOverride(types.NewQuantityFromFloat64(5))
	assert.Equal(t, types.MinorUnits(50000), line.Amount)

	_, err = Apply(d, "IMEI2", p, SlotRef{LineIndex: 0, SlotIndex: 1})
	require.NoError(t, err)

	// Manual quantity holds even though two slots are filled.
	assert.Equal(t, types.NewQuantityFromFloat64(5), line.Quantity)
	assert.Equal(t, types.MinorUnits(50000), line.Amount)

	line.ClearQuantityOverride()
	assert.Equal(t, types.NewQuantityFromFloat64(2), line.Quantity)
	assert.Equal(t, types.MinorUnits(20000), line.Amount)
}

func TestLine_TrailingBlankMaintained(t *testing.T) {
	line := &Line{Serialized: true, Units: []device.Unit{
		{ID: "A"}, {}, {}, {},
	}}
	line.EnsureTrailingBlank()

	assert.Len(t, line.Units, 2)
	assert.Equal(t, "A", line.Units[0].ID)
	assert.Equal(t, "", line.Units[1].ID)
}
