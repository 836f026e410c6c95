package dto

import (
	"tillpoint/internal/domain/draft"
	"tillpoint/internal/domain/scan"
)

// --- Scan DTOs ---

// OpenSessionRequest opens a scan session bound to one draft slot.
type OpenSessionRequest struct {
	DraftID   string `json:"draftId" binding:"required,uuid"`
	LineIndex int    `json:"lineIndex"`
	SlotIndex int    `json:"slotIndex"`
}

// RetargetSessionRequest moves an open session to another slot.
type RetargetSessionRequest struct {
	LineIndex int `json:"lineIndex"`
	SlotIndex int `json:"slotIndex"`
}

// SessionResponse represents a scan session.
type SessionResponse struct {
	ID        string `json:"id"`
	DraftID   string `json:"draftId"`
	State     string `json:"state"`
	LineIndex int    `json:"lineIndex"`
	SlotIndex int    `json:"slotIndex"`
}

// FromSession converts a scan session to response DTO.
func FromSession(s *scan.Session) SessionResponse {
	return SessionResponse{
		ID:        s.ID.String(),
		DraftID:   s.DraftID.String(),
		State:     string(s.State()),
		LineIndex: s.Target.LineIndex,
		SlotIndex: s.Target.SlotIndex,
	}
}

// CameraScanRequest carries one camera decode event.
type CameraScanRequest struct {
	Code string `json:"code" binding:"required"`
}

// WedgeKeysRequest carries a burst of keyboard-wedge keystrokes.
// Enter finishes the burst and emits the buffered candidate.
type WedgeKeysRequest struct {
	Keys  string `json:"keys"`
	Enter bool   `json:"enter"`
}

// ManualScanRequest carries a manually typed device ID.
type ManualScanRequest struct {
	DeviceID string `json:"deviceId" binding:"required"`
}

// ScanResultResponse reports where an accepted candidate landed.
// Accepted false means the input produced no candidate (decoder bounce,
// empty wedge buffer) and the draft was not touched.
type ScanResultResponse struct {
	Accepted     bool   `json:"accepted"`
	DeviceID     string `json:"deviceId,omitempty"`
	LineIndex    int    `json:"lineIndex,omitempty"`
	SlotIndex    int    `json:"slotIndex,omitempty"`
	NewLine      bool   `json:"newLine,omitempty"`
	Merged       bool   `json:"merged,omitempty"`
	Unrecognized bool   `json:"unrecognized,omitempty"`
	Size         string `json:"size,omitempty"`
}

// FromScanResult converts a reconciliation result to response DTO.
func FromScanResult(r *draft.Result) ScanResultResponse {
	return ScanResultResponse{
		Accepted:     true,
		DeviceID:     r.DeviceID,
		LineIndex:    r.LineIndex,
		SlotIndex:    r.SlotIndex,
		NewLine:      r.NewLine,
		Merged:       r.Merged,
		Unrecognized: r.Unrecognized,
		Size:         r.Size,
	}
}

// AvailabilityResponse lists a product's unsold registry units.
type AvailabilityResponse struct {
	ProductID string       `json:"productId"`
	Units     []DeviceUnit `json:"units"`
}
