// Package soldset_repo answers sold-set membership queries against the
// persisted sale and debt line tables.
package soldset_repo

import (
	"context"
	"fmt"

	"tillpoint/internal/domain/soldset"
	"tillpoint/internal/infrastructure/storage/postgres"
)

// SoldSetRepo implements soldset.Repository over doc_sale_lines and
// doc_debt_lines. A device counts as sold when its ID appears in any
// line of a non-deleted sale or debt document. Line device_ids columns
// are comma-joined, so matching is against array elements, never
// substrings.
type SoldSetRepo struct{}

// NewSoldSetRepo creates a new sold-set repository.
func NewSoldSetRepo() *SoldSetRepo {
	return &SoldSetRepo{}
}

const findSoldSQL = `
	SELECT DISTINCT dev
	FROM (
		SELECT unnest(string_to_array(l.device_ids, ',')) AS dev
		FROM doc_sale_lines l
		JOIN doc_sales d ON d.id = l.document_id
		WHERE d.deletion_mark = false
		  AND d.id::text <> $2
		  AND string_to_array(l.device_ids, ',') && $1::text[]

		UNION ALL

		SELECT unnest(string_to_array(l.device_ids, ',')) AS dev
		FROM doc_debt_lines l
		JOIN doc_debts d ON d.id = l.document_id
		WHERE d.deletion_mark = false
		  AND d.id::text <> $2
		  AND string_to_array(l.device_ids, ',') && $1::text[]
	) hits
	WHERE dev = ANY($1::text[])
`

// FindSold returns the subset of candidates present in any persisted
// sale or debt row, skipping rows of excludeDocID.
func (r *SoldSetRepo) FindSold(ctx context.Context, candidates []string, excludeDocID string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	// A doc UUID never equals the empty string, so "" excludes nothing.
	querier := postgres.MustGetTxManager(ctx).GetQuerier(ctx)
	rows, err := querier.Query(ctx, findSoldSQL, candidates, excludeDocID)
	if err != nil {
		return nil, fmt.Errorf("query sold set: %w", err)
	}
	defer rows.Close()

	var sold []string
	for rows.Next() {
		var dev string
		if err := rows.Scan(&dev); err != nil {
			return nil, fmt.Errorf("scan sold device: %w", err)
		}
		sold = append(sold, dev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sold set: %w", err)
	}

	return sold, nil
}

// Ensure interface compliance.
var _ soldset.Repository = (*SoldSetRepo)(nil)
