package dto

import (
	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/catalogs/product"
)

// --- Product DTOs ---

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	CatalogResponse
	Barcode     *string          `json:"barcode,omitempty"`
	UnitPrice   types.MinorUnits `json:"unitPrice"`
	CostPrice   types.MinorUnits `json:"costPrice"`
	Serialized  bool             `json:"serialized"`
	Units       []DeviceUnit     `json:"units,omitempty"`
	MinStock    types.Quantity   `json:"minStock"`
	Description *string          `json:"description,omitempty"`
	ImageURL    *string          `json:"imageUrl,omitempty"`
}

// FromProduct converts domain product to response DTO.
func FromProduct(p *product.Product) ProductResponse {
	return ProductResponse{
		CatalogResponse: FromCatalog(p.Catalog),
		Barcode:         p.Barcode,
		UnitPrice:       p.UnitPrice,
		CostPrice:       p.CostPrice,
		Serialized:      p.Serialized(),
		Units:           FromUnits(p.Units()),
		MinStock:        p.MinStock,
		Description:     p.Description,
		ImageURL:        p.ImageURL,
	}
}

// CreateProductRequest for creating products.
type CreateProductRequest struct {
	Code        string            `json:"code"`
	Name        string            `json:"name" binding:"required"`
	Barcode     *string           `json:"barcode"`
	UnitPrice   types.MinorUnits  `json:"unitPrice"`
	CostPrice   types.MinorUnits  `json:"costPrice"`
	Units       []DeviceUnit      `json:"units"`
	MinStock    types.Quantity    `json:"minStock"`
	Description *string           `json:"description"`
	ImageURL    *string           `json:"imageUrl"`
	Attributes  entity.Attributes `json:"attributes"`
}

// ToProduct maps the create request to a new domain product.
func (r *CreateProductRequest) ToProduct() *product.Product {
	p := product.NewProduct(r.Code, r.Name)
	p.Barcode = r.Barcode
	p.UnitPrice = r.UnitPrice
	p.CostPrice = r.CostPrice
	p.MinStock = r.MinStock
	p.Description = r.Description
	p.ImageURL = r.ImageURL
	p.Attributes = r.Attributes
	p.SetUnits(ToUnits(r.Units))
	return p
}

// UpdateProductRequest for updating products. Nil pointers leave the
// field unchanged; Units replaces the whole registry when present.
type UpdateProductRequest struct {
	Code        *string           `json:"code"`
	Name        *string           `json:"name"`
	Barcode     *string           `json:"barcode"`
	UnitPrice   *types.MinorUnits `json:"unitPrice"`
	CostPrice   *types.MinorUnits `json:"costPrice"`
	Units       []DeviceUnit      `json:"units"`
	MinStock    *types.Quantity   `json:"minStock"`
	Description *string           `json:"description"`
	ImageURL    *string           `json:"imageUrl"`
	Attributes  entity.Attributes `json:"attributes"`
	Version     int               `json:"version" binding:"required,min=1"`
}

// ApplyTo maps the update request onto an existing product.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) *product.Product {
	if r.Code != nil {
		p.Code = *r.Code
	}
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Barcode != nil {
		p.Barcode = r.Barcode
	}
	if r.UnitPrice != nil {
		p.UnitPrice = *r.UnitPrice
	}
	if r.CostPrice != nil {
		p.CostPrice = *r.CostPrice
	}
	if r.Units != nil {
		p.SetUnits(ToUnits(r.Units))
	}
	if r.MinStock != nil {
		p.MinStock = *r.MinStock
	}
	if r.Description != nil {
		p.Description = r.Description
	}
	if r.ImageURL != nil {
		p.ImageURL = r.ImageURL
	}
	if r.Attributes != nil {
		p.Attributes = r.Attributes
	}
	p.Version = r.Version
	return p
}
