// Package debt provides the Debt document: goods handed over on credit,
// tracked until the customer settles the owed amount.
package debt

import (
	"context"
	"time"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/device"
	"tillpoint/internal/domain/draft"
	"tillpoint/internal/domain/posting"
)

// Debt represents a debt document.
type Debt struct {
	entity.Document

	// CustomerID is required; a debt always has a debtor
	CustomerID id.ID `db:"customer_id" json:"customerId"`

	// PaidAmount accumulates settlements against TotalAmount
	PaidAmount types.MinorUnits `db:"paid_amount" json:"paidAmount"`

	// DueDate is the agreed repayment date, if any
	DueDate *time.Time `db:"due_date" json:"dueDate,omitempty"`

	// Totals (calculated from lines)
	TotalQuantity types.Quantity   `db:"total_quantity" json:"totalQuantity"`
	TotalAmount   types.MinorUnits `db:"total_amount" json:"totalAmount"`

	// Table part: goods given on credit
	Lines []DebtLine `db:"-" json:"lines"`
}

// DebtLine represents one line of a debt.
type DebtLine struct {
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
func (l *DebtLine) Units() []device.Unit {
	return device.Parse(l.DeviceIDs, l.DeviceSizes)
}

// SetUnits re-joins units into the device columns, dropping blanks.
func (l *DebtLine) SetUnits(units []device.Unit) {
	l.DeviceIDs, l.DeviceSizes = device.Join(units)
}

// NewDebt creates a new debt document for a customer.
func NewDebt(customerID id.ID) *Debt {
	return &Debt{
		Document:   entity.NewDocument(),
		CustomerID: customerID,
		Lines:      make([]DebtLine, 0),
	}
}

// AddLine adds a line and recalculates totals.
func (d *Debt) AddLine(productID id.ID, units []device.Unit, quantity types.Quantity, override bool, unitPrice types.MinorUnits) {
	line := DebtLine{
		LineID:           id.New(),
		LineNo:           len(d.Lines) + 1,
		ProductID:        productID,
		Quantity:         quantity,
		QuantityOverride: override,
		UnitPrice:        unitPrice,
	}
	line.SetUnits(units)
	line.Amount = types.MinorUnits((quantity.Int64Scaled() * int64(unitPrice)) / types.QuantityScale)

	d.Lines = append(d.Lines, line)
	d.RecalculateTotals()
}

// RecalculateTotals refreshes header totals from lines.
func (d *Debt) RecalculateTotals() {
	d.TotalQuantity = 0
	d.TotalAmount = 0
	for _, line := range d.Lines {
		d.TotalQuantity += line.Quantity
		d.TotalAmount += line.Amount
	}
}

// Owed returns the outstanding amount.
func (d *Debt) Owed() types.MinorUnits {
	return d.TotalAmount - d.PaidAmount
}

// IsSettled reports whether the debt is fully paid.
func (d *Debt) IsSettled() bool {
	return d.PaidAmount >= d.TotalAmount
}

// IsOverdue reports whether the due date has passed with money owed.
func (d *Debt) IsOverdue(now time.Time) bool {
	return d.DueDate != nil && now.After(*d.DueDate) && !d.IsSettled()
}

// Settle applies a payment against the debt.
func (d *Debt) Settle(amount types.MinorUnits) error {
	if !amount.IsPositive() {
		return apperror.NewValidation("payment amount must be positive").
			WithDetail("field", "amount")
	}
	if d.PaidAmount+amount > d.TotalAmount {
		return apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"Payment exceeds the owed amount",
		).WithDetail("owed", int64(d.Owed()))
	}

	d.PaidAmount += amount
	return nil
}

// Validate implements entity.Validatable.
func (d *Debt) Validate(ctx context.Context) error {
	if err := d.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(d.CustomerID) {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}

	if d.PaidAmount.IsNegative() {
		return apperror.NewValidation("paid amount cannot be negative").
			WithDetail("field", "paidAmount")
	}

	if len(d.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	for i, line := range d.Lines {
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

// FromDraft builds a debt from a finished draft entry.
// Unlike sales, the draft must carry a customer.
func FromDraft(d *draft.Draft) (*Debt, error) {
	doc := NewDebt(id.Nil())
	if err := doc.ApplyDraft(d); err != nil {
		return nil, err
	}
	return doc, nil
}

// ApplyDraft replaces the debt's lines from a draft entry. The draft's
// customer wins when set; an existing debt keeps its customer otherwise.
// Identity, number, paid amount and lock version are untouched, so a
// draft opened against an existing debt edits that debt in place.
func (d *Debt) ApplyDraft(dr *draft.Draft) error {
	if dr.CustomerID != nil && !id.IsNil(*dr.CustomerID) {
		d.CustomerID = *dr.CustomerID
	}
	if id.IsNil(d.CustomerID) {
		return apperror.NewValidation("customer is required for a debt").
			WithDetail("field", "customerId")
	}

	d.Lines = d.Lines[:0]

	for i, dl := range dr.Lines {
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
		d.AddLine(dl.ProductID, dl.Units, dl.Quantity, dl.QuantityOverride, dl.UnitPrice)
	}

	d.RecalculateTotals()
	return nil
}

// --- Postable implementation ---

func (d *Debt) GetDocumentType() string { return "Debt" }

// GenerateMovements creates expense movements: goods leave stock when
// the debt is recorded, regardless of payment state.
func (d *Debt) GenerateMovements(ctx context.Context) (*posting.MovementSet, error) {
	movements := posting.NewMovementSet()
	newVersion := d.PostedVersion + 1

	for _, line := range d.Lines {
		movements.AddStock(entity.NewStockMovement(
			d.ID,
			d.GetDocumentType(),
			newVersion,
			d.Date,
			entity.RecordTypeExpense,
			line.ProductID,
			line.Quantity,
		))
	}

	return movements, nil
}

var _ posting.Postable = (*Debt)(nil)
