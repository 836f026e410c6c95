package dto

import (
	"time"

	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/documents/debt"
)

// --- Debt DTOs ---

// DebtLineResponse represents one debt line.
type DebtLineResponse struct {
	LineID           string           `json:"lineId"`
	LineNo           int              `json:"lineNo"`
	ProductID        string           `json:"productId"`
	Units            []DeviceUnit     `json:"units,omitempty"`
	Quantity         types.Quantity   `json:"quantity"`
	QuantityOverride bool             `json:"quantityOverride"`
	UnitPrice        types.MinorUnits `json:"unitPrice"`
	Amount           types.MinorUnits `json:"amount"`
}

// DebtResponse represents a debt document.
type DebtResponse struct {
	DocumentResponse
	CustomerID    string             `json:"customerId"`
	PaidAmount    types.MinorUnits   `json:"paidAmount"`
	Owed          types.MinorUnits   `json:"owed"`
	Settled       bool               `json:"settled"`
	DueDate       *time.Time         `json:"dueDate,omitempty"`
	TotalQuantity types.Quantity     `json:"totalQuantity"`
	TotalAmount   types.MinorUnits   `json:"totalAmount"`
	Lines         []DebtLineResponse `json:"lines"`
}

// FromDebt converts domain debt to response DTO.
func FromDebt(d *debt.Debt) DebtResponse {
	lines := make([]DebtLineResponse, len(d.Lines))
	for i, l := range d.Lines {
		lines[i] = DebtLineResponse{
			LineID:           l.LineID.String(),
			LineNo:           l.LineNo,
			ProductID:        l.ProductID.String(),
			Units:            FromUnits(l.Units()),
			Quantity:         l.Quantity,
			QuantityOverride: l.QuantityOverride,
			UnitPrice:        l.UnitPrice,
			Amount:           l.Amount,
		}
	}

	return DebtResponse{
		DocumentResponse: FromDocument(d.Document),
		CustomerID:       d.CustomerID.String(),
		PaidAmount:       d.PaidAmount,
		Owed:             d.Owed(),
		Settled:          d.IsSettled(),
		DueDate:          d.DueDate,
		TotalQuantity:    d.TotalQuantity,
		TotalAmount:      d.TotalAmount,
		Lines:            lines,
	}
}

// CreateDebtRequest for creating debts.
type CreateDebtRequest struct {
	Date            *time.Time            `json:"date"`
	CustomerID      string                `json:"customerId" binding:"required,uuid"`
	DueDate         *time.Time            `json:"dueDate"`
	Comment         string                `json:"comment"`
	Lines           []DocumentLineRequest `json:"lines" binding:"required,min=1"`
	PostImmediately bool                  `json:"postImmediately"`
}

// ToDebt maps the create request to a new domain debt.
func (r *CreateDebtRequest) ToDebt() *debt.Debt {
	cid, _ := id.Parse(r.CustomerID)
	d := debt.NewDebt(cid)
	if r.Date != nil {
		d.Date = *r.Date
	}
	d.DueDate = r.DueDate
	d.Comment = r.Comment
	for _, l := range r.Lines {
		pid, err := id.Parse(l.ProductID)
		if err != nil {
			continue
		}
		d.AddLine(pid, ToUnits(l.Units), l.effectiveQuantity(), l.QuantityOverride, l.UnitPrice)
	}
	return d
}

// UpdateDebtRequest for updating debts. Lines always replace the table part.
type UpdateDebtRequest struct {
	Date       *time.Time            `json:"date"`
	CustomerID *string               `json:"customerId"`
	DueDate    *time.Time            `json:"dueDate"`
	Comment    *string               `json:"comment"`
	Lines      []DocumentLineRequest `json:"lines" binding:"required,min=1"`
	Version    int                   `json:"version" binding:"required,min=1"`
}

// ApplyTo maps the update request onto an existing debt.
func (r *UpdateDebtRequest) ApplyTo(d *debt.Debt) *debt.Debt {
	if r.Date != nil {
		d.Date = *r.Date
	}
	if r.CustomerID != nil {
		if cid, err := id.Parse(*r.CustomerID); err == nil {
			d.CustomerID = cid
		}
	}
	if r.DueDate != nil {
		d.DueDate = r.DueDate
	}
	if r.Comment != nil {
		d.Comment = *r.Comment
	}

	d.Lines = d.Lines[:0]
	for _, l := range r.Lines {
		pid, err := id.Parse(l.ProductID)
		if err != nil {
			continue
		}
		d.AddLine(pid, ToUnits(l.Units), l.effectiveQuantity(), l.QuantityOverride, l.UnitPrice)
	}
	d.Version = r.Version
	return d
}

// SettleDebtRequest records a repayment against a debt.
type SettleDebtRequest struct {
	Amount types.MinorUnits `json:"amount" binding:"required"`
}
