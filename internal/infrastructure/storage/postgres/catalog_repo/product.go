package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/domain"
	"tillpoint/internal/domain/catalogs/product"
	"tillpoint/internal/infrastructure/storage/postgres"
)

const productTable = "cat_products"

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo() *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*product.Product](
			productTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// FindByBarcode retrieves product by barcode.
func (r *ProductRepo) FindByBarcode(ctx context.Context, barcode string) (*product.Product, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Eq{"barcode": barcode}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	item, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", barcode)
		}
		return nil, err
	}
	return item, nil
}

// FindByDeviceID retrieves the product whose device registry holds deviceID.
// device_ids is a comma-joined list, so the match is against its elements,
// not a substring (an IMEI must not match inside a longer IMEI).
func (r *ProductRepo) FindByDeviceID(ctx context.Context, deviceID string) (*product.Product, error) {
	q := r.baseSelect(ctx).
		Where(squirrel.Expr("? = ANY(string_to_array(device_ids, ','))", deviceID)).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	item, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("product", deviceID)
		}
		return nil, err
	}
	return item, nil
}

// FindLowStock retrieves items with stock below their min_stock threshold.
func (r *ProductRepo) FindLowStock(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*product.Product], error) {
	result := domain.ListResult[*product.Product]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	// Qualify columns: the balance join carries its own updated_at.
	cols := postgres.ExtractDBColumns[product.Product]()
	qualified := make([]string, len(cols))
	for i, c := range cols {
		qualified[i] = "p." + c
	}

	q := r.Builder().
		Select(qualified...).
		From(productTable + " p").
		LeftJoin("reg_stock_balances b ON b.product_id = p.id").
		Where(squirrel.Eq{"p.deletion_mark": false}).
		Where(squirrel.Gt{"p.min_stock": int64(0)}).
		Where(squirrel.Expr("COALESCE(b.quantity, 0) < p.min_stock")).
		OrderBy("p.name ASC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	var items []*product.Product
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return result, fmt.Errorf("find low stock: %w", err)
	}
	result.Items = items
	result.TotalCount = int64(len(items))

	return result, nil
}

// Ensure interface compliance.
var _ product.Repository = (*ProductRepo)(nil)
