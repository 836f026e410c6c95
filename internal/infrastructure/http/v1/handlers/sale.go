package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/id"
	"tillpoint/internal/domain"
	"tillpoint/internal/domain/documents/sale"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles HTTP requests for Sale documents.
type SaleHandler struct {
	*BaseDocumentHandler[*sale.Sale, dto.CreateSaleRequest, dto.UpdateSaleRequest]
	service *sale.Service
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	docHandler := NewBaseDocumentHandler(base, BaseDocumentHandlerConfig[*sale.Sale, dto.CreateSaleRequest, dto.UpdateSaleRequest]{
		Service:    service,
		EntityName: "sale",
		MapCreateDTO: func(req dto.CreateSaleRequest) *sale.Sale {
			return req.ToSale()
		},
		MapUpdateDTO: func(req dto.UpdateSaleRequest, existing *sale.Sale) *sale.Sale {
			return req.ApplyTo(existing)
		},
		MapToDTO: func(s *sale.Sale) any {
			return dto.FromSale(s)
		},
		IsPostImmediately: func(req dto.CreateSaleRequest) bool {
			return req.PostImmediately
		},
	})

	return &SaleHandler{
		BaseDocumentHandler: docHandler,
		service:             service,
	}
}

// List handles GET /document/sales
func (h *SaleHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := sale.ListFilter{ListFilter: domain.DefaultListFilter()}
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
	for i, s := range result.Items {
		items[i] = dto.FromSale(s)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
