// Package sale provides the Sale document: a completed point-of-sale
// transaction with serialized (per-device) and free-quantity lines.
package sale

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

// PaymentMethod is how the sale was paid.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// Sale represents a sale document.
type Sale struct {
	entity.Document

	// CustomerID is optional; walk-in sales have none
	CustomerID *id.ID `db:"customer_id" json:"customerId,omitempty"`

	PaymentMethod PaymentMethod `db:"payment_method" json:"paymentMethod"`

	// Totals (calculated from lines)
	TotalQuantity types.Quantity   `db:"total_quantity" json:"totalQuantity"`
	TotalAmount   types.MinorUnits `db:"total_amount" json:"totalAmount"`

	// Table part: sold goods
	Lines []SaleLine `db:"-" json:"lines"`
}

// SaleLine represents one line of a sale.
// Device IDs and sizes persist as parallel comma-joined columns.
type SaleLine struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID `db:"product_id" json:"productId"`

	DeviceIDs   string `db:"device_ids" json:"deviceIds"`
	DeviceSizes string `db:"device_sizes" json:"deviceSizes"`

	Quantity         types.Quantity `db:"quantity" json:"quantity"`
	QuantityOverride bool           `db:"quantity_override" json:"quantityOverride"`

	UnitPrice types.MinorUnits `db:"unit_price" json:"unitPrice"`
	Amount    types.MinorUnits `db:"amount" json:"amount"`
}

// Units parses the line's device columns.
func (l *SaleLine) Units() []device.Unit {
	return device.Parse(l.DeviceIDs, l.DeviceSizes)
}

// SetUnits re-joins units into the device columns, dropping blanks.
func (l *SaleLine) SetUnits(units []device.Unit) {
	l.DeviceIDs, l.DeviceSizes = device.Join(units)
}

// NewSale creates a new sale document.
func NewSale() *Sale {
	return &Sale{
		Document:      entity.NewDocument(),
		PaymentMethod: PaymentCash,
		Lines:         make([]SaleLine, 0),
	}
}

// AddLine adds a line and recalculates totals.
func (s *Sale) AddLine(productID id.ID, units []device.Unit, quantity types.Quantity, override bool, unitPrice types.MinorUnits) {
	line := SaleLine{
		LineID:           id.New(),
		LineNo:           len(s.Lines) + 1,
		ProductID:        productID,
		Quantity:         quantity,
		QuantityOverride: override,
		UnitPrice:        unitPrice,
	}
	line.SetUnits(units)
	line.Amount = types.MinorUnits((quantity.Int64Scaled() * int64(unitPrice)) / types.QuantityScale)

	s.Lines = append(s.Lines, line)
	s.RecalculateTotals()
}

// RecalculateTotals refreshes header totals from lines.
func (s *Sale) RecalculateTotals() {
	s.TotalQuantity = 0
	s.TotalAmount = 0
	for _, line := range s.Lines {
		s.TotalQuantity += line.Quantity
		s.TotalAmount += line.Amount
	}
}

// Validate implements entity.Validatable.
func (s *Sale) Validate(ctx context.Context) error {
	if err := s.Document.Validate(ctx); err != nil {
		return err
	}

	switch s.PaymentMethod {
	case PaymentCash, PaymentCard, PaymentTransfer:
	default:
		return apperror.NewValidation("unknown payment method").
			WithDetail("field", "paymentMethod")
	}

	if len(s.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range s.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// FromDraft builds a sale from a finished draft entry. Lines without a
// product or without any content are skipped; a draft line holding raw
// unassigned device IDs is an error the operator must resolve first.
func FromDraft(d *draft.Draft) (*Sale, error) {
	s := NewSale()
	if err := s.ApplyDraft(d); err != nil {
		return nil, err
	}
	return s, nil
}

// ApplyDraft replaces the sale's customer and lines from a draft entry.
// Identity, number and lock version are untouched, so a draft opened
// against an existing sale edits that sale in place.
func (s *Sale) ApplyDraft(d *draft.Draft) error {
	s.CustomerID = d.CustomerID
	s.Lines = s.Lines[:0]

	for i, dl := range d.Lines {
		if id.IsNil(dl.ProductID) {
			if dl.FilledCount() > 0 {
				return apperror.NewValidation("line has device IDs without a product").
					WithDetail("lineNo", i+1)
			}
			continue
		}
		if dl.Quantity.IsZero() && dl.FilledCount() == 0 {
			continue
		}
		s.AddLine(dl.ProductID, dl.Units, dl.Quantity, dl.QuantityOverride, dl.UnitPrice)
	}

	s.RecalculateTotals()
	return nil
}

// --- Postable implementation ---

func (s *Sale) GetDocumentType() string { return "Sale" }

// GenerateMovements creates expense movements reducing stock.
func (s *Sale) GenerateMovements(ctx context.Context) (*posting.MovementSet, error) {
	movements := posting.NewMovementSet()
	newVersion := s.PostedVersion + 1

	for _, line := range s.Lines {
		movements.AddStock(entity.NewStockMovement(
			s.ID,
			s.GetDocumentType(),
			newVersion,
			s.Date,
			entity.RecordTypeExpense,
			line.ProductID,
			line.Quantity,
		))
	}

	return movements, nil
}

var _ posting.Postable = (*Sale)(nil)
