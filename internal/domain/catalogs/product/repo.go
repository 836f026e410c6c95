package product

import (
	"context"

	"tillpoint/internal/core/id"
	"tillpoint/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// FindByBarcode retrieves product by barcode.
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)

	// FindByDeviceID retrieves the product whose registry holds deviceID.
	FindByDeviceID(ctx context.Context, deviceID string) (*Product, error)

	// GetForUpdate retrieves product with row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Product, error)

	// FindLowStock retrieves items with stock below their min_stock threshold.
	FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error)
}
