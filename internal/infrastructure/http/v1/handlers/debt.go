package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/id"
	"tillpoint/internal/domain"
	"tillpoint/internal/domain/documents/debt"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// DebtHandler handles HTTP requests for Debt documents.
type DebtHandler struct {
	*BaseDocumentHandler[*debt.Debt, dto.CreateDebtRequest, dto.UpdateDebtRequest]
	service *debt.Service
}

// NewDebtHandler creates a new debt handler.
func NewDebtHandler(base *BaseHandler, service *debt.Service) *DebtHandler {
	docHandler := NewBaseDocumentHandler(base, BaseDocumentHandlerConfig[*debt.Debt, dto.CreateDebtRequest, dto.UpdateDebtRequest]{
		Service:    service,
		EntityName: "debt",
		MapCreateDTO: func(req dto.CreateDebtRequest) *debt.Debt {
			return req.ToDebt()
		},
		MapUpdateDTO: func(req dto.UpdateDebtRequest, existing *debt.Debt) *debt.Debt {
			return req.ApplyTo(existing)
		},
		MapToDTO: func(d *debt.Debt) any {
			return dto.FromDebt(d)
		},
		IsPostImmediately: func(req dto.CreateDebtRequest) bool {
			return req.PostImmediately
		},
	})

	return &DebtHandler{
		BaseDocumentHandler: docHandler,
		service:             service,
	}
}

// Settle handles POST /document/debts/:id/settle
func (h *DebtHandler) Settle(c *gin.Context) {
	ctx := c.Request.Context()

	docID, err := parseIDParam(c, "id")
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.SettleDebtRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.Settle(ctx, docID, req.Amount); err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.service.GetByID(ctx, docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromDebt(doc))
}

// List handles GET /document/debts
func (h *DebtHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := debt.ListFilter{ListFilter: domain.DefaultListFilter()}
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "-date")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if custStr := c.Query("customerId"); custStr != "" {
		if parsed, err := id.Parse(custStr); err == nil {
			filter.CustomerID = &parsed
		}
	}
	if postedStr := c.Query("posted"); postedStr != "" {
		val := postedStr == "true"
		filter.Posted = &val
	}
	if settledStr := c.Query("settled"); settledStr != "" {
		val := settledStr == "true"
		filter.Settled = &val
	}
	if overdueStr := c.Query("overdue"); overdueStr != "" {
		val := overdueStr == "true"
		filter.Overdue = &val
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
	for i, d := range result.Items {
		items[i] = dto.FromDebt(d)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
