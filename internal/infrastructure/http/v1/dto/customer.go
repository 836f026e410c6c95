package dto

import (
	"tillpoint/internal/core/entity"
	"tillpoint/internal/domain/catalogs/customer"
)

// --- Customer DTOs ---

// CustomerResponse represents a customer in API responses.
type CustomerResponse struct {
	CatalogResponse
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
	Comment *string `json:"comment,omitempty"`
}

// FromCustomer converts domain customer to response DTO.
func FromCustomer(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		CatalogResponse: FromCatalog(c.Catalog),
		Phone:           c.Phone,
		Email:           c.Email,
		Address:         c.Address,
		Comment:         c.Comment,
	}
}

// CreateCustomerRequest for creating customers.
type CreateCustomerRequest struct {
	Code       string            `json:"code"`
	Name       string            `json:"name" binding:"required"`
	Phone      *string           `json:"phone"`
	Email      *string           `json:"email"`
	Address    *string           `json:"address"`
	Comment    *string           `json:"comment"`
	Attributes entity.Attributes `json:"attributes"`
}

// ToCustomer maps the create request to a new domain customer.
func (r *CreateCustomerRequest) ToCustomer() *customer.Customer {
	c := customer.NewCustomer(r.Code, r.Name)
	c.Phone = r.Phone
	c.Email = r.Email
	c.Address = r.Address
	c.Comment = r.Comment
	c.Attributes = r.Attributes
	return c
}

// UpdateCustomerRequest for updating customers.
type UpdateCustomerRequest struct {
	Code       *string           `json:"code"`
	Name       *string           `json:"name"`
	Phone      *string           `json:"phone"`
	Email      *string           `json:"email"`
	Address    *string           `json:"address"`
	Comment    *string           `json:"comment"`
	Attributes entity.Attributes `json:"attributes"`
	Version    int               `json:"version" binding:"required,min=1"`
}

// ApplyTo maps the update request onto an existing customer.
func (r *UpdateCustomerRequest) ApplyTo(c *customer.Customer) *customer.Customer {
	if r.Code != nil {
		c.Code = *r.Code
	}
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.Phone != nil {
		c.Phone = r.Phone
	}
	if r.Email != nil {
		c.Email = r.Email
	}
	if r.Address != nil {
		c.Address = r.Address
	}
	if r.Comment != nil {
		c.Comment = r.Comment
	}
	if r.Attributes != nil {
		c.Attributes = r.Attributes
	}
	c.Version = r.Version
	return c
}
