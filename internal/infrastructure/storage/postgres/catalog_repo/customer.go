package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/domain/catalogs/customer"
	"tillpoint/internal/infrastructure/storage/postgres"
)

const customerTable = "cat_customers"

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	*BaseCatalogRepo[*customer.Customer]
}

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo() *CustomerRepo {
	return &CustomerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*customer.Customer](
			customerTable,
			postgres.ExtractDBColumns[customer.Customer](),
			func() *customer.Customer { return &customer.Customer{} },
		),
	}
}

// FindByPhone retrieves customer by phone.
func (r *CustomerRepo) FindByPhone(ctx context.Context, phone string) (*customer.Customer, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"phone": phone}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	c, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("customer", phone)
		}
		return nil, err
	}
	return c, nil
}

// Ensure interface compliance.
var _ customer.Repository = (*CustomerRepo)(nil)
