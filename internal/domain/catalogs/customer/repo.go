package customer

import (
	"context"

	"tillpoint/internal/domain"
)

// Repository defines the interface for Customer persistence.
type Repository interface {
	domain.CatalogRepository[*Customer]

	// FindByPhone retrieves customer by phone.
	FindByPhone(ctx context.Context, phone string) (*Customer, error)
}
