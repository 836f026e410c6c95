package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/domain"
	"tillpoint/internal/domain/catalogs/product"
	"tillpoint/internal/domain/soldset"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// ProductHandler handles HTTP requests for Product catalog.
type ProductHandler struct {
	*CatalogHandler[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]
	service *product.Service
	sold    *soldset.Service
}

// NewProductHandler creates a new product handler.
func NewProductHandler(base *BaseHandler, service *product.Service, sold *soldset.Service) *ProductHandler {
	catalogHandler := NewCatalogHandler(base, CatalogHandlerConfig[*product.Product, dto.CreateProductRequest, dto.UpdateProductRequest]{
		Service:    service.CatalogService,
		EntityName: "product",
		MapCreateDTO: func(req dto.CreateProductRequest) *product.Product {
			return req.ToProduct()
		},
		MapUpdateDTO: func(req dto.UpdateProductRequest, existing *product.Product) *product.Product {
			return req.ApplyTo(existing)
		},
		MapToDTO: func(p *product.Product) any {
			return dto.FromProduct(p)
		},
	})

	return &ProductHandler{
		CatalogHandler: catalogHandler,
		service:        service,
		sold:           sold,
	}
}

// FindByBarcode handles GET /catalog/products/barcode/:barcode
func (h *ProductHandler) FindByBarcode(c *gin.Context) {
	ctx := c.Request.Context()

	barcode := c.Param("barcode")
	if barcode == "" {
		h.Error(c, apperror.NewValidation("barcode is required"))
		return
	}

	p, err := h.service.FindByBarcode(ctx, barcode)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromProduct(p))
}

// FindByDeviceID handles GET /catalog/products/device/:deviceId
// Resolves a scanned device ID to its owning product.
func (h *ProductHandler) FindByDeviceID(c *gin.Context) {
	ctx := c.Request.Context()

	deviceID := c.Param("deviceId")
	if deviceID == "" {
		h.Error(c, apperror.NewValidation("deviceId is required"))
		return
	}

	p, err := h.service.FindByDeviceID(ctx, deviceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromProduct(p))
}

// GetAvailability handles GET /catalog/products/:id/availability
// Returns the registry units not yet present in any sale or debt.
// An excludeDocumentId query parameter ignores one document's own units
// (editing an existing document must not count its units as sold).
func (h *ProductHandler) GetAvailability(c *gin.Context) {
	ctx := c.Request.Context()

	p, err := h.getByParam(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	available, err := h.sold.Available(ctx, p.Units(), c.Query("excludeDocumentId"))
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AvailabilityResponse{
		ProductID: p.ID.String(),
		Units:     dto.FromUnits(available),
	})
}

// ListLowStock handles GET /catalog/products/low-stock
func (h *ProductHandler) ListLowStock(c *gin.Context) {
	ctx := c.Request.Context()

	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)

	result, err := h.service.FindLowStock(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, p := range result.Items {
		items[i] = dto.FromProduct(p)
	}

	c.JSON(http.StatusOK, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

func (h *ProductHandler) getByParam(c *gin.Context) (*product.Product, error) {
	productID, err := parseIDParam(c, "id")
	if err != nil {
		return nil, err
	}
	return h.service.GetByID(c.Request.Context(), productID)
}
