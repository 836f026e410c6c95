package customer

import (
	"context"
	"fmt"
	"time"

	"tillpoint/internal/domain"
	"tillpoint/pkg/numerator"
)

// Service provides business logic for Customer catalog.
type Service struct {
	*domain.CatalogService[*Customer]
	repo      Repository
	numerator numerator.Generator
}

// NewService creates a new Customer service.
// In Database-per-Store, TxManager is obtained from context.
func NewService(
	repo Repository,
	numerator numerator.Generator,
) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Customer]{
		Repo:       repo,
		TxManager:  nil, // Will be obtained from context
		Numerator:  numerator,
		EntityName: "customer",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
		numerator:      numerator,
	}

	base.Hooks().OnBeforeCreate(svc.prepareForCreate)

	return svc
}

// prepareForCreate handles code generation.
func (s *Service) prepareForCreate(ctx context.Context, item *Customer) error {
	if item.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("CST"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate code: %w", err)
		}
		item.Code = code
	}
	return nil
}

// FindByPhone retrieves customer by phone.
func (s *Service) FindByPhone(ctx context.Context, phone string) (*Customer, error) {
	return s.repo.FindByPhone(ctx, phone)
}
