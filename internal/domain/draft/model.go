// Package draft provides in-memory draft entries: the working state of a
// sale, debt, or theft-audit document while the operator is still scanning.
// Drafts live only until save; persistence happens through the document
// services.
package draft

import (
	"sync"
	"sync/atomic"
	"time"

	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/device"
)

// Kind identifies which document type a draft will become on save.
type Kind string

const (
	KindSale       Kind = "sale"
	KindDebt       Kind = "debt"
	KindTheftAudit Kind = "theft_audit"
)

// Line is one draft line: a product with its scanned unit slots, or a
// free-entry line for non-serialized items and unrecognized scans.
type Line struct {
	ID id.ID `json:"id"`

	// ProductID is nil-UUID for free/unrecognized lines
	ProductID   id.ID  `json:"productId"`
	ProductName string `json:"productName"`

	// Serialized lines track unit slots; quantity follows the filled count
	Serialized bool `json:"serialized"`

	// Units are the scan slots, in order. A blank ID is an empty slot.
	// Serialized lines keep one trailing blank slot as the scan target.
	Units []device.Unit `json:"units"`

	Quantity types.Quantity `json:"quantity"`

	// QuantityOverride preserves a manually entered quantity across rescans
	QuantityOverride bool `json:"quantityOverride"`

	UnitPrice types.MinorUnits `json:"unitPrice"`
	Amount    types.MinorUnits `json:"amount"`
}

// FilledIDs returns the non-blank device IDs in slot order.
func (l *Line) FilledIDs() []string {
	var out []string
	for _, u := range l.Units {
		if device.Normalize(u.ID) != "" {
			out = append(out, u.ID)
		}
	}
	return out
}

// FilledCount returns the number of occupied slots.
func (l *Line) FilledCount() int {
	n := 0
	for _, u := range l.Units {
		if device.Normalize(u.ID) != "" {
			n++
		}
	}
	return n
}

// EnsureTrailingBlank keeps exactly one blank slot at the end of a
// serialized line so the next scan always has a target.
func (l *Line) EnsureTrailingBlank() {
	if !l.Serialized {
		return
	}
	// Drop surplus trailing blanks, then guarantee one.
	for len(l.Units) > 0 && device.Normalize(l.Units[len(l.Units)-1].ID) == "" {
		l.Units = l.Units[:len(l.Units)-1]
	}
	l.Units = append(l.Units, device.Unit{})
}

// Recalculate refreshes quantity and amount after slot changes.
// Serialized lines derive quantity from the filled slot count (unless
// manually overridden) and amount from unit price times quantity.
// Non-serialized lines are free entry and are left untouched.
func (l *Line) Recalculate() {
	if !l.Serialized {
		return
	}
	if !l.QuantityOverride {
		l.Quantity = types.Quantity(int64(l.FilledCount()) * types.QuantityScale)
	}
	l.Amount = types.MinorUnits((l.Quantity.Int64Scaled() * int64(l.UnitPrice)) / types.QuantityScale)
}

// SetQuantityOverride records a manual quantity that survives rescans.
func (l *Line) SetQuantityOverride(q types.Quantity) {
	l.Quantity = q
	l.QuantityOverride = true
	if l.Serialized {
		l.Amount = types.MinorUnits((l.Quantity.Int64Scaled() * int64(l.UnitPrice)) / types.QuantityScale)
	}
}

// ClearQuantityOverride returns the line to derived quantity.
func (l *Line) ClearQuantityOverride() {
	l.QuantityOverride = false
	l.Recalculate()
}

// SlotRef addresses one slot of one line within a draft.
type SlotRef struct {
	LineIndex int `json:"lineIndex"`
	SlotIndex int `json:"slotIndex"`
}

// Draft is the in-memory working entry.
// Not safe for concurrent mutation; callers hold Lock around changes.
type Draft struct {
	ID   id.ID `json:"id"`
	Kind Kind  `json:"kind"`

	// StoreID scopes the draft to one store's registry
	StoreID string `json:"storeId"`

	// CustomerID is optional for sales, required for debts
	CustomerID *id.ID `json:"customerId,omitempty"`

	// DocumentID is set when the draft edits an existing document
	DocumentID *id.ID `json:"documentId,omitempty"`

	Lines []*Line `json:"lines"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	mu sync.Mutex

	// validating is the per-draft single-flight guard: only one scan
	// candidate may be in the validate/apply pipeline at a time.
	validating atomic.Bool
}

// New creates an empty draft for the store.
func New(storeID string, kind Kind) *Draft {
	now := time.Now().UTC()
	return &Draft{
		ID:        id.New(),
		Kind:      kind,
		StoreID:   storeID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Lock acquires the draft mutation lock.
func (d *Draft) Lock() { d.mu.Lock() }

// Unlock releases the draft mutation lock.
func (d *Draft) Unlock() { d.mu.Unlock() }

// Touch updates the activity timestamp (used by idle eviction).
func (d *Draft) Touch() {
	d.UpdatedAt = time.Now().UTC()
}

// TryBeginValidation claims the single-flight slot.
// Returns false if another candidate is already being validated;
// such candidates are dropped, not queued.
func (d *Draft) TryBeginValidation() bool {
	return d.validating.CompareAndSwap(false, true)
}

// EndValidation releases the single-flight slot.
// Must be called on every exit path once TryBeginValidation returned true.
func (d *Draft) EndValidation() {
	d.validating.Store(false)
}

// Line returns the line at index or nil.
func (d *Draft) Line(i int) *Line {
	if i < 0 || i >= len(d.Lines) {
		return nil
	}
	return d.Lines[i]
}

// LineByProduct returns the first line of the given product, or nil.
func (d *Draft) LineByProduct(productID id.ID) (*Line, int) {
	for i, l := range d.Lines {
		if !id.IsNil(l.ProductID) && l.ProductID == productID {
			return l, i
		}
	}
	return nil, -1
}

// AllDeviceIDs returns every non-blank device ID across all lines.
func (d *Draft) AllDeviceIDs() []string {
	var out []string
	for _, l := range d.Lines {
		out = append(out, l.FilledIDs()...)
	}
	return out
}
