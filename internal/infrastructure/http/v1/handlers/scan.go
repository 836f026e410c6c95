package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/store"
	"tillpoint/internal/domain/draft"
	"tillpoint/internal/domain/scan"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// ScanHandler exposes scan sessions and their three input paths:
// camera decode events, keyboard-wedge bursts, and manual entry.
type ScanHandler struct {
	*BaseHandler
	sessions  *scan.Manager
	validator *scan.Validator
}

// NewScanHandler creates a new scan handler.
func NewScanHandler(base *BaseHandler, sessions *scan.Manager, validator *scan.Validator) *ScanHandler {
	return &ScanHandler{
		BaseHandler: base,
		sessions:    sessions,
		validator:   validator,
	}
}

// OpenSession handles POST /scan/sessions
// Opens a session targeting a draft slot; an existing session on the
// same draft is replaced.
func (h *ScanHandler) OpenSession(c *gin.Context) {
	storeID := store.GetStoreID(c.Request.Context())

	var req dto.OpenSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	draftID, err := id.Parse(req.DraftID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid draftId format"))
		return
	}

	s := h.sessions.Open(storeID, draftID, draft.SlotRef{
		LineIndex: req.LineIndex,
		SlotIndex: req.SlotIndex,
	})

	c.JSON(http.StatusCreated, dto.FromSession(s))
}

// GetSession handles GET /scan/sessions/:id
func (h *ScanHandler) GetSession(c *gin.Context) {
	storeID := store.GetStoreID(c.Request.Context())

	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		h.Error(c, err)
		return
	}

	s, err := h.sessions.Get(storeID, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromSession(s))
}

// Retarget handles PUT /scan/sessions/:id/target
// Points the session at another slot without losing debounce state.
func (h *ScanHandler) Retarget(c *gin.Context) {
	storeID := store.GetStoreID(c.Request.Context())

	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.RetargetSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.sessions.Retarget(storeID, sessionID, draft.SlotRef{
		LineIndex: req.LineIndex,
		SlotIndex: req.SlotIndex,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromSession(s))
}

// CloseSession handles DELETE /scan/sessions/:id
func (h *ScanHandler) CloseSession(c *gin.Context) {
	storeID := store.GetStoreID(c.Request.Context())

	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		h.Error(c, err)
		return
	}

	h.sessions.Close(storeID, sessionID)
	c.Status(http.StatusNoContent)
}

// CameraScan handles POST /scan/sessions/:id/camera
// A decoder bounce (same code re-read inside the repeat window) returns
// accepted:false without touching the draft.
func (h *ScanHandler) CameraScan(c *gin.Context) {
	ctx := c.Request.Context()
	storeID := store.GetStoreID(ctx)

	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.CameraScanRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.sessions.Get(storeID, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	candidate, ok := s.CameraScan(req.Code)
	if !ok {
		c.JSON(http.StatusOK, dto.ScanResultResponse{Accepted: false})
		return
	}

	result, err := h.validator.Process(ctx, s, candidate)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromScanResult(result))
}

// WedgeKeys handles POST /scan/sessions/:id/wedge
// Buffers the keystroke burst; enter finishes it and emits the buffered
// candidate. Without enter the call only feeds the buffer.
func (h *ScanHandler) WedgeKeys(c *gin.Context) {
	ctx := c.Request.Context()
	storeID := store.GetStoreID(ctx)

	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.WedgeKeysRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.sessions.Get(storeID, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	for _, r := range req.Keys {
		s.WedgeKey(r)
	}

	if !req.Enter {
		c.JSON(http.StatusOK, dto.ScanResultResponse{Accepted: false})
		return
	}

	candidate, ok := s.WedgeEnter()
	if !ok {
		c.JSON(http.StatusOK, dto.ScanResultResponse{Accepted: false})
		return
	}

	result, err := h.validator.Process(ctx, s, candidate)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromScanResult(result))
}

// ManualScan handles POST /scan/sessions/:id/manual
func (h *ScanHandler) ManualScan(c *gin.Context) {
	ctx := c.Request.Context()
	storeID := store.GetStoreID(ctx)

	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.ManualScanRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.sessions.Get(storeID, sessionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	candidate, err := s.Manual(req.DeviceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.validator.Process(ctx, s, candidate)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromScanResult(result))
}
