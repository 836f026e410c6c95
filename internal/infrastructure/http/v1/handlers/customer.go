package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/domain/catalogs/customer"
	"tillpoint/internal/infrastructure/http/v1/dto"
)

// CustomerHandler handles HTTP requests for Customer catalog.
type CustomerHandler struct {
	*CatalogHandler[*customer.Customer, dto.CreateCustomerRequest, dto.UpdateCustomerRequest]
	service *customer.Service
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(base *BaseHandler, service *customer.Service) *CustomerHandler {
	catalogHandler := NewCatalogHandler(base, CatalogHandlerConfig[*customer.Customer, dto.CreateCustomerRequest, dto.UpdateCustomerRequest]{
		Service:    service.CatalogService,
		EntityName: "customer",
		MapCreateDTO: func(req dto.CreateCustomerRequest) *customer.Customer {
			return req.ToCustomer()
		},
		MapUpdateDTO: func(req dto.UpdateCustomerRequest, existing *customer.Customer) *customer.Customer {
			return req.ApplyTo(existing)
		},
		MapToDTO: func(cust *customer.Customer) any {
			return dto.FromCustomer(cust)
		},
	})

	return &CustomerHandler{
		CatalogHandler: catalogHandler,
		service:        service,
	}
}

// FindByPhone handles GET /catalog/customers/phone/:phone
func (h *CustomerHandler) FindByPhone(c *gin.Context) {
	ctx := c.Request.Context()

	phone := c.Param("phone")
	if phone == "" {
		h.Error(c, apperror.NewValidation("phone is required"))
		return
	}

	cust, err := h.service.FindByPhone(ctx, phone)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromCustomer(cust))
}
