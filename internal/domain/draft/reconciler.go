package draft

import (
	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/catalogs/product"
	"tillpoint/internal/domain/device"
)

// Result describes where a validated candidate landed in the draft.
type Result struct {
	// LineIndex/SlotIndex locate the slot that received the device ID
	LineIndex int `json:"lineIndex"`
	SlotIndex int `json:"slotIndex"`

	// NewLine is true when a line was opened for the candidate's product
	NewLine bool `json:"newLine"`

	// Merged is true when the candidate was routed away from the target
	// line into an existing line of its own product
	Merged bool `json:"merged"`

	// Unrecognized is true when no product registry holds the device ID;
	// the raw input is kept but size auto-fill was skipped
	Unrecognized bool `json:"unrecognized"`

	DeviceID string `json:"deviceId"`
	Size     string `json:"size,omitempty"`
}

// Apply reconciles a validated scan candidate into the draft.
//
// Routing: a candidate belonging to the target line's product fills the
// target slot. A candidate of a different product goes to that product's
// existing line (first blank slot) or opens a new line; the target line is
// never given a foreign product's unit. An unrecognized candidate stays in
// the target slot as raw input, flagged in the result.
//
// Rejections (blank, duplicate in draft) return an error without mutating
// the draft. The caller is responsible for the sold-set check.
func Apply(d *Draft, candidate string, p *product.Product, target SlotRef) (*Result, error) {
	norm := device.Normalize(candidate)
	if norm == "" {
		return nil, apperror.NewValidation("device ID is empty").
			WithDetail("field", "deviceId")
	}

	if HasDuplicate(d, norm, &target) {
		return nil, apperror.NewDuplicateDevice(norm)
	}

	if p == nil {
		return applyUnrecognized(d, norm, target)
	}

	size := p.SizeForDevice(norm)
	unit := device.Unit{ID: norm, Size: size}

	// Target line of the same product: fill the target slot.
	if tl := d.Line(target.LineIndex); tl != nil && tl.ProductID == p.ID {
		slot := placeAt(tl, target.SlotIndex, unit)
		tl.EnsureTrailingBlank()
		tl.Recalculate()
		d.Touch()
		return &Result{
			LineIndex: target.LineIndex,
			SlotIndex: slot,
			DeviceID:  norm,
			Size:      size,
		}, nil
	}

	// Different product: merge into its existing line.
	if el, ei := d.LineByProduct(p.ID); el != nil {
		slot := placeInBlank(el, unit)
		el.EnsureTrailingBlank()
		el.Recalculate()
		d.Touch()
		return &Result{
			LineIndex: ei,
			SlotIndex: slot,
			Merged:    true,
			DeviceID:  norm,
			Size:      size,
		}, nil
	}

	// No line for this product yet: open one.
	nl := &Line{
		ID:          id.New(),
		ProductID:   p.ID,
		ProductName: p.Name,
		Serialized:  true,
		UnitPrice:   p.UnitPrice,
		Units:       []device.Unit{unit},
	}
	nl.EnsureTrailingBlank()
	nl.Recalculate()
	d.Lines = append(d.Lines, nl)
	d.Touch()
	return &Result{
		LineIndex: len(d.Lines) - 1,
		SlotIndex: 0,
		NewLine:   true,
		DeviceID:  norm,
		Size:      size,
	}, nil
}

// applyUnrecognized keeps raw input in the target slot without size
// auto-fill. If the target line does not exist, a product-less line is
// opened so manual entries are never lost.
func applyUnrecognized(d *Draft, norm string, target SlotRef) (*Result, error) {
	tl := d.Line(target.LineIndex)
	if tl == nil {
		nl := &Line{
			ID:         id.New(),
			Serialized: true,
			Units:      []device.Unit{{ID: norm}},
		}
		nl.EnsureTrailingBlank()
		nl.Recalculate()
		d.Lines = append(d.Lines, nl)
		d.Touch()
		return &Result{
			LineIndex:    len(d.Lines) - 1,
			SlotIndex:    0,
			NewLine:      true,
			Unrecognized: true,
			DeviceID:     norm,
		}, nil
	}

	slot := placeAt(tl, target.SlotIndex, device.Unit{ID: norm})
	tl.EnsureTrailingBlank()
	tl.Recalculate()
	d.Touch()
	return &Result{
		LineIndex:    target.LineIndex,
		SlotIndex:    slot,
		Unrecognized: true,
		DeviceID:     norm,
	}, nil
}

// placeAt writes the unit into slot i, extending the slot list if the
// index is past the end. Returns the slot actually used.
func placeAt(l *Line, i int, u device.Unit) int {
	if i < 0 {
		i = 0
	}
	if i >= len(l.Units) {
		l.Units = append(l.Units, u)
		return len(l.Units) - 1
	}
	l.Units[i] = u
	return i
}

// placeInBlank fills the first blank slot, appending when all are full.
func placeInBlank(l *Line, u device.Unit) int {
	for i := range l.Units {
		if device.Normalize(l.Units[i].ID) == "" {
			l.Units[i] = u
			return i
		}
	}
	l.Units = append(l.Units, u)
	return len(l.Units) - 1
}
