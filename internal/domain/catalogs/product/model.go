// Package product provides the Product catalog.
// A product either tracks individual serialized units (phones by IMEI,
// devices by serial) via its device registry, or is sold as free-quantity
// stock (accessories, airtime).
package product

import (
	"context"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/device"
)

// Product represents an item sold by the store.
type Product struct {
	entity.Catalog

	// Barcode is the item barcode (EAN-13, etc.)
	Barcode *string `db:"barcode" json:"barcode,omitempty"`

	// UnitPrice is the selling price per unit in minor currency units
	UnitPrice types.MinorUnits `db:"unit_price" json:"unitPrice"`

	// CostPrice is the acquisition cost per unit in minor currency units
	CostPrice types.MinorUnits `db:"cost_price" json:"costPrice"`

	// DeviceIDs is the comma-joined registry of device IDs (IMEI/serial)
	// currently attached to this product
	DeviceIDs string `db:"device_ids" json:"deviceIds"`

	// DeviceSizes is the comma-joined size/variant labels, positionally
	// aligned with DeviceIDs
	DeviceSizes string `db:"device_sizes" json:"deviceSizes"`

	// MinStock is the low-stock alert threshold
	MinStock types.Quantity `db:"min_stock" json:"minStock"`

	// Description is a detailed description
	Description *string `db:"description" json:"description,omitempty"`

	// ImageURL is the item image URL
	ImageURL *string `db:"image_url" json:"imageUrl,omitempty"`
}

// NewProduct creates a new Product with required fields.
func NewProduct(code, name string) *Product {
	return &Product{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.UnitPrice.IsNegative() {
		return apperror.NewValidation("unit price cannot be negative").
			WithDetail("field", "unitPrice")
	}

	if p.CostPrice.IsNegative() {
		return apperror.NewValidation("cost price cannot be negative").
			WithDetail("field", "costPrice")
	}

	if p.MinStock.IsNegative() {
		return apperror.NewValidation("min stock cannot be negative").
			WithDetail("field", "minStock")
	}

	return nil
}

// Serialized reports whether the product tracks individual units.
// Derived from a non-empty device registry.
func (p *Product) Serialized() bool {
	return len(p.Units()) > 0
}

// Units decodes the device registry into ordered units.
func (p *Product) Units() []device.Unit {
	return device.Parse(p.DeviceIDs, p.DeviceSizes)
}

// SetUnits replaces the device registry.
func (p *Product) SetUnits(units []device.Unit) {
	p.DeviceIDs, p.DeviceSizes = device.Join(units)
}

// HasDevice reports whether deviceID is in the registry.
func (p *Product) HasDevice(deviceID string) bool {
	return device.Contains(p.Units(), deviceID)
}

// SizeForDevice returns the size label recorded for deviceID.
func (p *Product) SizeForDevice(deviceID string) string {
	return device.SizeFor(p.Units(), deviceID)
}
