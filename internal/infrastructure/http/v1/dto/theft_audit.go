package dto

import (
	"time"

	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/documents/theftaudit"
)

// --- Theft Audit DTOs ---

// AuditLineResponse represents one audit line.
type AuditLineResponse struct {
	LineID    string         `json:"lineId"`
	LineNo    int            `json:"lineNo"`
	ProductID string         `json:"productId,omitempty"`
	Status    string         `json:"status"`
	Units     []DeviceUnit   `json:"units,omitempty"`
	Quantity  types.Quantity `json:"quantity"`
}

// TheftAuditResponse represents a theft-audit document.
type TheftAuditResponse struct {
	DocumentResponse
	TotalMissing types.Quantity      `json:"totalMissing"`
	TotalFound   types.Quantity      `json:"totalFound"`
	Lines        []AuditLineResponse `json:"lines"`
}

// FromTheftAudit converts domain theft audit to response DTO.
func FromTheftAudit(t *theftaudit.TheftAudit) TheftAuditResponse {
	lines := make([]AuditLineResponse, len(t.Lines))
	for i, l := range t.Lines {
		line := AuditLineResponse{
			LineID:   l.LineID.String(),
			LineNo:   l.LineNo,
			Status:   string(l.Status),
			Units:    FromUnits(l.Units()),
			Quantity: l.Quantity,
		}
		if !id.IsNil(l.ProductID) {
			line.ProductID = l.ProductID.String()
		}
		lines[i] = line
	}

	return TheftAuditResponse{
		DocumentResponse: FromDocument(t.Document),
		TotalMissing:     t.TotalMissing,
		TotalFound:       t.TotalFound,
		Lines:            lines,
	}
}

// AuditLineRequest is one audited batch: a product's missing units, or
// found-but-unregistered units when productId is absent.
type AuditLineRequest struct {
	ProductID *string      `json:"productId"`
	Units     []DeviceUnit `json:"units" binding:"required,min=1"`
}

// CreateTheftAuditRequest for creating theft audits.
type CreateTheftAuditRequest struct {
	Date            *time.Time         `json:"date"`
	Comment         string             `json:"comment"`
	Lines           []AuditLineRequest `json:"lines" binding:"required,min=1"`
	PostImmediately bool               `json:"postImmediately"`
}

// ToTheftAudit maps the create request to a new domain theft audit.
func (r *CreateTheftAuditRequest) ToTheftAudit() *theftaudit.TheftAudit {
	t := theftaudit.NewTheftAudit()
	if r.Date != nil {
		t.Date = *r.Date
	}
	t.Comment = r.Comment
	applyAuditLines(t, r.Lines)
	return t
}

// UpdateTheftAuditRequest for updating theft audits.
type UpdateTheftAuditRequest struct {
	Date    *time.Time         `json:"date"`
	Comment *string            `json:"comment"`
	Lines   []AuditLineRequest `json:"lines" binding:"required,min=1"`
	Version int                `json:"version" binding:"required,min=1"`
}

// ApplyTo maps the update request onto an existing theft audit.
func (r *UpdateTheftAuditRequest) ApplyTo(t *theftaudit.TheftAudit) *theftaudit.TheftAudit {
	if r.Date != nil {
		t.Date = *r.Date
	}
	if r.Comment != nil {
		t.Comment = *r.Comment
	}
	t.Lines = t.Lines[:0]
	applyAuditLines(t, r.Lines)
	t.Version = r.Version
	return t
}

func applyAuditLines(t *theftaudit.TheftAudit, lines []AuditLineRequest) {
	for _, l := range lines {
		if l.ProductID != nil {
			pid, err := id.Parse(*l.ProductID)
			if err != nil {
				continue
			}
			t.AddMissing(pid, ToUnits(l.Units))
			continue
		}
		t.AddFoundUnregistered(ToUnits(l.Units))
	}
}
