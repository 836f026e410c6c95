package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/infrastructure/storage/postgres"
)

// AuditHandler serves the entity change history from the audit trail.
type AuditHandler struct {
	*BaseHandler
	audit *postgres.AuditService
}

func NewAuditHandler(base *BaseHandler, audit *postgres.AuditService) *AuditHandler {
	return &AuditHandler{
		BaseHandler: base,
		audit:       audit,
	}
}

// GetHistory handles GET /audit/:entityType/:entityId
func (h *AuditHandler) GetHistory(c *gin.Context) {
	entityID, err := parseIDParam(c, "entityId")
	if err != nil {
		h.Error(c, err)
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	entries, err := h.audit.GetEntityHistory(c.Request.Context(), c.Param("entityType"), entityID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		items = append(items, gin.H{
			"id":         e.ID,
			"entityType": e.EntityType,
			"entityId":   e.EntityID,
			"action":     e.Action,
			"userId":     e.UserID,
			"userEmail":  e.UserEmail,
			"changes":    e.Changes,
			"createdAt":  e.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
