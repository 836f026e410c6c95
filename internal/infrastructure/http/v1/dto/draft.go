package dto

import (
	"time"

	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/draft"
)

// --- Draft DTOs ---

// DraftLineResponse represents one draft line.
type DraftLineResponse struct {
	ID               string           `json:"id"`
	ProductID        string           `json:"productId,omitempty"`
	ProductName      string           `json:"productName,omitempty"`
	Serialized       bool             `json:"serialized"`
	Units            []DeviceUnit     `json:"units"`
	Quantity         types.Quantity   `json:"quantity"`
	QuantityOverride bool             `json:"quantityOverride"`
	UnitPrice        types.MinorUnits `json:"unitPrice"`
	Amount           types.MinorUnits `json:"amount"`
}

// DraftResponse represents an in-memory draft entry.
type DraftResponse struct {
	ID         string              `json:"id"`
	Kind       string              `json:"kind"`
	CustomerID *string             `json:"customerId,omitempty"`
	DocumentID *string             `json:"documentId,omitempty"`
	Lines      []DraftLineResponse `json:"lines"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// FromDraft converts a draft to response DTO.
// Caller must hold the draft lock.
func FromDraft(d *draft.Draft) DraftResponse {
	lines := make([]DraftLineResponse, len(d.Lines))
	for i, l := range d.Lines {
		line := DraftLineResponse{
			ID:               l.ID.String(),
			ProductName:      l.ProductName,
			Serialized:       l.Serialized,
			Units:            FromUnits(l.Units),
			Quantity:         l.Quantity,
			QuantityOverride: l.QuantityOverride,
			UnitPrice:        l.UnitPrice,
			Amount:           l.Amount,
		}
		if !id.IsNil(l.ProductID) {
			line.ProductID = l.ProductID.String()
		}
		lines[i] = line
	}

	resp := DraftResponse{
		ID:        d.ID.String(),
		Kind:      string(d.Kind),
		Lines:     lines,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.CustomerID != nil {
		v := d.CustomerID.String()
		resp.CustomerID = &v
	}
	if d.DocumentID != nil {
		v := d.DocumentID.String()
		resp.DocumentID = &v
	}
	return resp
}

// CreateDraftRequest opens a new draft entry.
type CreateDraftRequest struct {
	Kind       string  `json:"kind" binding:"required,oneof=sale debt theft_audit"`
	CustomerID *string `json:"customerId"`
	DocumentID *string `json:"documentId"`
}

// SetLineQuantityRequest records or clears a manual quantity override.
type SetLineQuantityRequest struct {
	Quantity *types.Quantity `json:"quantity"`
}

// SaveDraftRequest turns a draft into a persisted document.
type SaveDraftRequest struct {
	Date            *time.Time `json:"date"`
	PaymentMethod   *string    `json:"paymentMethod"`
	DueDate         *time.Time `json:"dueDate"`
	Comment         string     `json:"comment"`
	PostImmediately bool       `json:"postImmediately"`
}

// DraftListResponse wraps the store's open drafts.
type DraftListResponse struct {
	Items []DraftResponse `json:"items"`
}
