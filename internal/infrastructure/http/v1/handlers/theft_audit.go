package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/domain"
	"tillpoint/internal/domain/documents/theftaudit"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// TheftAuditHandler handles HTTP requests for TheftAudit documents.
type TheftAuditHandler struct {
	*BaseDocumentHandler[*theftaudit.TheftAudit, dto.CreateTheftAuditRequest, dto.UpdateTheftAuditRequest]
	service *theftaudit.Service
}

// NewTheftAuditHandler creates a new theft-audit handler.
func NewTheftAuditHandler(base *BaseHandler, service *theftaudit.Service) *TheftAuditHandler {
	docHandler := NewBaseDocumentHandler(base, BaseDocumentHandlerConfig[*theftaudit.TheftAudit, dto.CreateTheftAuditRequest, dto.UpdateTheftAuditRequest]{
		Service:    service,
		EntityName: "theft_audit",
		MapCreateDTO: func(req dto.CreateTheftAuditRequest) *theftaudit.TheftAudit {
			return req.ToTheftAudit()
		},
		MapUpdateDTO: func(req dto.UpdateTheftAuditRequest, existing *theftaudit.TheftAudit) *theftaudit.TheftAudit {
			return req.ApplyTo(existing)
		},
		MapToDTO: func(t *theftaudit.TheftAudit) any {
			return dto.FromTheftAudit(t)
		},
		IsPostImmediately: func(req dto.CreateTheftAuditRequest) bool {
			return req.PostImmediately
		},
	})

	return &TheftAuditHandler{
		BaseDocumentHandler: docHandler,
		service:             service,
	}
}

// List handles GET /document/theft-audits
func (h *TheftAuditHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := theftaudit.ListFilter{ListFilter: domain.DefaultListFilter()}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if postedStr := c.Query("posted"); postedStr != "" {
		val := postedStr == "true"
		filter.Posted = &val
	}
	if fromStr := c.Query("dateFrom"); fromStr != "" {
		if parsed, err := time.Parse(time.RFC3339, fromStr); err == nil {
			filter.DateFrom = &parsed
		}
	}
	if toStr := c.Query("dateTo"); toStr != "" {
		if parsed, err := time.Parse(time.RFC3339, toStr); err == nil {
			filter.DateTo = &parsed
		}
	}

	result, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, t := range result.Items {
		items[i] = dto.FromTheftAudit(t)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
