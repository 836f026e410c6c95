package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"tillpoint/internal/core/id"
	"tillpoint/internal/domain"
	"tillpoint/internal/domain/documents/theftaudit"
	"tillpoint/internal/infrastructure/storage/postgres"
)

const (
	theftAuditsTable     = "doc_theft_audits"
	theftAuditLinesTable = "doc_theft_audit_lines"
)

// TheftAuditRepo implements theftaudit.Repository.
type TheftAuditRepo struct {
	*BaseDocumentRepo[*theftaudit.TheftAudit]
}

// NewTheftAuditRepo creates a new theft-audit repository.
func NewTheftAuditRepo() *TheftAuditRepo {
	return &TheftAuditRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*theftaudit.TheftAudit](
			theftAuditsTable,
			postgres.ExtractDBColumns[theftaudit.TheftAudit](),
			func() *theftaudit.TheftAudit { return &theftaudit.TheftAudit{} },
		),
	}
}

func (r *TheftAuditRepo) GetLines(ctx context.Context, docID id.ID) ([]theftaudit.AuditLine, error) {
	q := r.Builder().
		Select(
			"line_id", "line_no", "product_id", "status",
			"device_ids", "device_sizes", "quantity",
		).
		From(theftAuditLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []theftaudit.AuditLine
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

func (r *TheftAuditRepo) SaveLines(ctx context.Context, docID id.ID, lines []theftaudit.AuditLine) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + theftAuditLinesTable + " WHERE document_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, docID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(theftAuditLinesTable).
		Columns(
			"line_id", "document_id", "line_no", "product_id", "status",
			"device_ids", "device_sizes", "quantity",
		)

	for _, line := range lines {
		q = q.Values(
			line.LineID, docID, line.LineNo, line.ProductID, line.Status,
			line.DeviceIDs, line.DeviceSizes, line.Quantity,
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

func (r *TheftAuditRepo) List(ctx context.Context, filter theftaudit.ListFilter) (domain.ListResult[*theftaudit.TheftAudit], error) {
	result := domain.ListResult[*theftaudit.TheftAudit]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect(ctx)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.Posted != nil {
		q = q.Where(squirrel.Eq{"posted": *filter.Posted})
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
var _ theftaudit.Repository = (*TheftAuditRepo)(nil)
