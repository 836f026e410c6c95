package dto

import (
	"time"

	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/documents/sale"
)

// --- Sale DTOs ---

// SaleLineResponse represents one sale line.
type SaleLineResponse struct {
	LineID           string           `json:"lineId"`
	LineNo           int              `json:"lineNo"`
	ProductID        string           `json:"productId"`
	Units            []DeviceUnit     `json:"units,omitempty"`
	Quantity         types.Quantity   `json:"quantity"`
	QuantityOverride bool             `json:"quantityOverride"`
	UnitPrice        types.MinorUnits `json:"unitPrice"`
	Amount           types.MinorUnits `json:"amount"`
}

// SaleResponse represents a sale document.
type SaleResponse struct {
	DocumentResponse
	CustomerID    *string            `json:"customerId,omitempty"`
	PaymentMethod string             `json:"paymentMethod"`
	TotalQuantity types.Quantity     `json:"totalQuantity"`
	TotalAmount   types.MinorUnits   `json:"totalAmount"`
	Lines         []SaleLineResponse `json:"lines"`
}

// FromSale converts domain sale to response DTO.
func FromSale(s *sale.Sale) SaleResponse {
	lines := make([]SaleLineResponse, len(s.Lines))
	for i, l := range s.Lines {
		lines[i] = SaleLineResponse{
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

	resp := SaleResponse{
		DocumentResponse: FromDocument(s.Document),
		PaymentMethod:    string(s.PaymentMethod),
		TotalQuantity:    s.TotalQuantity,
		TotalAmount:      s.TotalAmount,
		Lines:            lines,
	}
	if s.CustomerID != nil {
		v := s.CustomerID.String()
		resp.CustomerID = &v
	}
	return resp
}

// DocumentLineRequest is the shared line shape for sale and debt requests.
// Quantity zero on a line with units derives the quantity from the unit
// count; a non-zero quantity with quantityOverride set survives rescans.
type DocumentLineRequest struct {
	ProductID        string           `json:"productId" binding:"required,uuid"`
	Units            []DeviceUnit     `json:"units"`
	Quantity         types.Quantity   `json:"quantity"`
	QuantityOverride bool             `json:"quantityOverride"`
	UnitPrice        types.MinorUnits `json:"unitPrice"`
}

func (r *DocumentLineRequest) effectiveQuantity() types.Quantity {
	if r.Quantity != 0 {
		return r.Quantity
	}
	return types.Quantity(int64(len(r.Units)) * types.QuantityScale)
}

// CreateSaleRequest for creating sales.
type CreateSaleRequest struct {
	Date            *time.Time            `json:"date"`
	CustomerID      *string               `json:"customerId"`
	PaymentMethod   string                `json:"paymentMethod"`
	Comment         string                `json:"comment"`
	Lines           []DocumentLineRequest `json:"lines" binding:"required,min=1"`
	PostImmediately bool                  `json:"postImmediately"`
}

// ToSale maps the create request to a new domain sale.
func (r *CreateSaleRequest) ToSale() *sale.Sale {
	s := sale.NewSale()
	if r.Date != nil {
		s.Date = *r.Date
	}
	if r.PaymentMethod != "" {
		s.PaymentMethod = sale.PaymentMethod(r.PaymentMethod)
	}
	s.Comment = r.Comment
	if r.CustomerID != nil {
		if cid, err := id.Parse(*r.CustomerID); err == nil {
			s.CustomerID = &cid
		}
	}
	for _, l := range r.Lines {
		pid, err := id.Parse(l.ProductID)
		if err != nil {
			continue
		}
		s.AddLine(pid, ToUnits(l.Units), l.effectiveQuantity(), l.QuantityOverride, l.UnitPrice)
	}
	return s
}

// UpdateSaleRequest for updating sales. Lines always replace the table part.
type UpdateSaleRequest struct {
	Date          *time.Time            `json:"date"`
	CustomerID    *string               `json:"customerId"`
	PaymentMethod *string               `json:"paymentMethod"`
	Comment       *string               `json:"comment"`
	Lines         []DocumentLineRequest `json:"lines" binding:"required,min=1"`
	Version       int                   `json:"version" binding:"required,min=1"`
}

// ApplyTo maps the update request onto an existing sale.
func (r *UpdateSaleRequest) ApplyTo(s *sale.Sale) *sale.Sale {
	if r.Date != nil {
		s.Date = *r.Date
	}
	if r.PaymentMethod != nil {
		s.PaymentMethod = sale.PaymentMethod(*r.PaymentMethod)
	}
	if r.Comment != nil {
		s.Comment = *r.Comment
	}
	if r.CustomerID != nil {
		if cid, err := id.Parse(*r.CustomerID); err == nil {
			s.CustomerID = &cid
		}
	}

	s.Lines = s.Lines[:0]
	for _, l := range r.Lines {
		pid, err := id.Parse(l.ProductID)
		if err != nil {
			continue
		}
		s.AddLine(pid, ToUnits(l.Units), l.effectiveQuantity(), l.QuantityOverride, l.UnitPrice)
	}
	s.Version = r.Version
	return s
}
