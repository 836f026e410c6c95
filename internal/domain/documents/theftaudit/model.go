// Package theftaudit provides the TheftAudit document: a batch audit of
// scanned device IDs against the registry. Units confirmed missing are
// written off stock; units found on the shelf but absent from any
// registry are recorded for follow-up without a stock effect.
package theftaudit

import (
	"context"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/device"
	"tillpoint/internal/domain/draft"
	"tillpoint/internal/domain/posting"
)

// LineStatus classifies an audit line.
type LineStatus string

const (
	// StatusMissing - registered units not found during the audit; posting
	// writes them off stock
	StatusMissing LineStatus = "missing"

	// StatusFoundUnregistered - physical units with no registry entry;
	// recorded without a stock effect
	StatusFoundUnregistered LineStatus = "found_unregistered"
)

// TheftAudit represents a theft/audit batch document.
type TheftAudit struct {
	entity.Document

	// Totals (calculated from lines)
	TotalMissing types.Quantity `db:"total_missing" json:"totalMissing"`
	TotalFound   types.Quantity `db:"total_found" json:"totalFound"`

	// Table part: audited units
	Lines []AuditLine `db:"-" json:"lines"`
}

// AuditLine represents one audited product (or a batch of unregistered
// units when ProductID is nil).
type AuditLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	// ProductID is nil for found-unregistered units
	ProductID id.ID `db:"product_id" json:"productId"`

	Status LineStatus `db:"status" json:"status"`

	DeviceIDs   string `db:"device_ids" json:"deviceIds"`
	DeviceSizes string `db:"device_sizes" json:"deviceSizes"`

	Quantity types.Quantity `db:"quantity" json:"quantity"`
}

// Units parses the line's device columns.
func (l *AuditLine) Units() []device.Unit {
	return device.Parse(l.DeviceIDs, l.DeviceSizes)
}

// SetUnits re-joins units into the device columns, dropping blanks.
func (l *AuditLine) SetUnits(units []device.Unit) {
	l.DeviceIDs, l.DeviceSizes = device.Join(units)
}

// NewTheftAudit creates a new audit batch.
func NewTheftAudit() *TheftAudit {
	return &TheftAudit{
		Document: entity.NewDocument(),
		Lines:    make([]AuditLine, 0),
	}
}

// AddMissing records registered units confirmed missing.
func (t *TheftAudit) AddMissing(productID id.ID, units []device.Unit) {
	line := AuditLine{
		LineID:    id.New(),
		LineNo:    len(t.Lines) + 1,
		ProductID: productID,
		Status:    StatusMissing,
	}
	line.SetUnits(units)
	line.Quantity = countQuantity(units)

	t.Lines = append(t.Lines, line)
	t.RecalculateTotals()
}

// AddFoundUnregistered records physical units absent from the registry.
func (t *TheftAudit) AddFoundUnregistered(units []device.Unit) {
	line := AuditLine{
		LineID: id.New(),
		LineNo: len(t.Lines) + 1,
		Status: StatusFoundUnregistered,
	}
	line.SetUnits(units)
	line.Quantity = countQuantity(units)

	t.Lines = append(t.Lines, line)
	t.RecalculateTotals()
}

func countQuantity(units []device.Unit) types.Quantity {
	n := int64(0)
	for _, u := range units {
		if device.Normalize(u.ID) != "" {
			n++
		}
	}
	return types.NewQuantityFromInt64Scaled(n * types.QuantityScale)
}

// RecalculateTotals refreshes header totals from lines.
func (t *TheftAudit) RecalculateTotals() {
	t.TotalMissing = 0
	t.TotalFound = 0
	for _, line := range t.Lines {
		switch line.Status {
		case StatusMissing:
			t.TotalMissing += line.Quantity
		case StatusFoundUnregistered:
			t.TotalFound += line.Quantity
		}
	}
}

// Validate implements entity.Validatable.
func (t *TheftAudit) Validate(ctx context.Context) error {
	if err := t.Document.Validate(ctx); err != nil {
		return err
	}

	if len(t.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range t.Lines {
		switch line.Status {
		case StatusMissing:
			if id.IsNil(line.ProductID) {
				return apperror.NewValidation("missing units require a product").
					WithDetail("field", "lines").
					WithDetail("lineNo", i+1)
			}
			if !line.Quantity.IsPositive() {
				return apperror.NewValidation("quantity must be positive").
					WithDetail("field", "lines").
					WithDetail("lineNo", i+1)
			}
		case StatusFoundUnregistered:
			if len(line.Units()) == 0 {
				return apperror.NewValidation("found-unregistered line has no device IDs").
					WithDetail("field", "lines").
					WithDetail("lineNo", i+1)
			}
		default:
			return apperror.NewValidation("unknown audit line status").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// FromDraft builds an audit batch from a draft entry. Draft lines with a
// product become missing-unit lines; product-less lines holding raw
// scanned IDs become found-unregistered lines.
func FromDraft(d *draft.Draft) (*TheftAudit, error) {
	t := NewTheftAudit()
	if err := t.ApplyDraft(d); err != nil {
		return nil, err
	}
	return t, nil
}

// ApplyDraft replaces the audit's lines from a draft entry. Identity,
// number and lock version are untouched, so a draft opened against an
// existing audit edits that audit in place.
func (t *TheftAudit) ApplyDraft(d *draft.Draft) error {
	t.Lines = t.Lines[:0]

	for _, dl := range d.Lines {
		units := filledUnits(dl)
		if len(units) == 0 {
			continue
		}
		if id.IsNil(dl.ProductID) {
			t.AddFoundUnregistered(units)
			continue
		}
		t.AddMissing(dl.ProductID, units)
	}

	if len(t.Lines) == 0 {
		return apperror.NewValidation("audit batch is empty").
			WithDetail("field", "lines")
	}

	t.RecalculateTotals()
	return nil
}

func filledUnits(l *draft.Line) []device.Unit {
	var out []device.Unit
	for _, u := range l.Units {
		if device.Normalize(u.ID) != "" {
			out = append(out, u)
		}
	}
	return out
}

// --- Postable implementation ---

func (t *TheftAudit) GetDocumentType() string { return "TheftAudit" }

// GenerateMovements writes missing units off stock. Found-unregistered
// lines produce no movements.
func (t *TheftAudit) GenerateMovements(ctx context.Context) (*posting.MovementSet, error) {
	movements := posting.NewMovementSet()
	newVersion := t.PostedVersion + 1

	for _, line := range t.Lines {
		if line.Status != StatusMissing {
			continue
		}
		movements.AddStock(entity.NewStockMovement(
			t.ID,
			t.GetDocumentType(),
			newVersion,
			t.Date,
			entity.RecordTypeExpense,
			line.ProductID,
			line.Quantity,
		))
	}

	return movements, nil
}

var _ posting.Postable = (*TheftAudit)(nil)
