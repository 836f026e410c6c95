package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillpoint/internal/core/id"
	"tillpoint/internal/domain"
	"tillpoint/internal/domain/documents/debt"
	"tillpoint/internal/infrastructure/storage/postgres"
)

const (
	debtsTable     = "doc_debts"
	debtLinesTable = "doc_debt_lines"
)

// DebtRepo implements debt.Repository.
type DebtRepo struct {
	*BaseDocumentRepo[*debt.Debt]
}

// NewDebtRepo creates a new debt repository.
func NewDebtRepo() *DebtRepo {
	return &DebtRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*debt.Debt](
			debtsTable,
			postgres.ExtractDBColumns[debt.Debt](),
			func() *debt.Debt { return &debt.Debt{} },
		),
	}
}

func (r *DebtRepo) GetLines(ctx context.Context, docID id.ID) ([]debt.DebtLine, error) {
	q := r.Builder().
		Select(
			"line_id", "line_no", "product_id",
			"device_ids", "device_sizes",
			"quantity", "quantity_override", "unit_price", "amount",
		).
		From(debtLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []debt.DebtLine
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

func (r *DebtRepo) SaveLines(ctx context.Context, docID id.ID, lines []debt.DebtLine) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + debtLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(debtLinesTable).
		Columns(
			"line_id", "document_id", "line_no", "product_id",
			"device_ids", "device_sizes",
			"quantity", "quantity_override", "unit_price", "amount",
		)

	for _, line := range lines {
		q = q.Values(
			line.LineID, docID, line.LineNo, line.ProductID,
			line.DeviceIDs, line.DeviceSizes,
			line.Quantity, line.QuantityOverride, line.UnitPrice, line.Amount,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

func (r *DebtRepo) List(ctx context.Context, filter debt.ListFilter) (domain.ListResult[*debt.Debt], error) {
	result := domain.ListResult[*debt.Debt]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect(ctx)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}

	if filter.Posted != nil {
		q = q.Where(squirrel.Eq{"posted": *filter.Posted})
	}

	if filter.Settled != nil {
		if *filter.Settled {
			q = q.Where(squirrel.Expr("paid_amount >= total_amount"))
		} else {
			q = q.Where(squirrel.Expr("paid_amount < total_amount"))
		}
	}

	if filter.Overdue != nil && *filter.Overdue {
		q = q.Where(squirrel.Expr("due_date IS NOT NULL AND due_date < NOW() AND paid_amount < total_amount"))
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

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

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select: %w", err)
	}

	return result, nil
}

// Ensure interface compliance.
var _ debt.Repository = (*DebtRepo)(nil)
