package product

import (
	"context"
	"fmt"
	"time"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain"
	"tillpoint/pkg/numerator"
)

// Service provides business logic for Product catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Product]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new Product service.
// In Database-per-Store, TxManager is obtained from context.
func NewService(
	repo Repository,
	numerator numerator.Generator,
) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Product]{
		Repo:       repo,
		TxManager:  nil, // Will be obtained from context
		Numerator:  numerator,
		EntityName: "product",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      numerator,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)
	base.Hooks().OnBeforeUpdate(svc.prepareForUpdate)

	return svc
}

// prepareForCreate handles code generation and uniqueness checks.
func (s *Service) prepareForCreate(ctx context.Context, item *Product) error {
	// Generate code if not provided
	if item.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("PRD"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		item.Code = code
	}

	if err := s.checkBarcodeUnique(ctx, item); err != nil {
		return err
	}
	return s.checkRegistryUnique(ctx, item)
}

// prepareForUpdate handles uniqueness checks.
func (s *Service) prepareForUpdate(ctx context.Context, item *Product) error {
	if err := s.checkBarcodeUnique(ctx, item); err != nil {
		return err
	}
	return s.checkRegistryUnique(ctx, item)
}

// checkBarcodeUnique rejects a barcode already used by another product.
func (s *Service) checkBarcodeUnique(ctx context.Context, item *Product) error {
	if item.Barcode == nil || *item.Barcode == "" {
		return nil
	}
	existing, err := s.repo.FindByBarcode(ctx, *item.Barcode)
	if err != nil {
		return nil
	}
	if existing.ID != item.ID {
		return apperror.NewConflict("product with this barcode already exists").
			WithDetail("barcode", *item.Barcode)
	}
	return nil
}

// checkRegistryUnique rejects device IDs already registered to another product.
// A device ID belongs to exactly one product's registry at a time.
func (s *Service) checkRegistryUnique(ctx context.Context, item *Product) error {
	for _, u := range item.Units() {
		existing, err := s.repo.FindByDeviceID(ctx, u.ID)
		if err != nil {
			continue
		}
		if existing.ID != item.ID {
			return apperror.NewConflict("device is registered to another product").
				WithDetail("device_id", u.ID).
				WithDetail("product_id", existing.ID.String())
		}
	}
	return nil
}

// --- Entity-specific methods ---

// FindByBarcode retrieves product by barcode.
func (s *Service) FindByBarcode(ctx context.Context, barcode string) (*Product, error) {
	return s.repo.FindByBarcode(ctx, barcode)
}

// FindByDeviceID retrieves the product whose registry holds deviceID.
// This is the scan-to-product lookup.
func (s *Service) FindByDeviceID(ctx context.Context, deviceID string) (*Product, error) {
	return s.repo.FindByDeviceID(ctx, deviceID)
}

// GetForUpdate retrieves product with row lock.
func (s *Service) GetForUpdate(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetForUpdate(ctx, productID)
}

// FindLowStock retrieves items with stock below their threshold.
func (s *Service) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.FindLowStock(ctx, filter)
}
