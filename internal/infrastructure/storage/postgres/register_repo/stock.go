// Package register_repo provides PostgreSQL implementations for register repositories.
// In Database-per-Store architecture, TxManager is obtained from context.
package register_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/registers/stock"
	"tillpoint/internal/infrastructure/storage/postgres"
)

const (
	stockMovementsTable = "reg_stock_movements"
	stockBalancesTable  = "reg_stock_balances"
)

// StockRepo implements stock.Repository.
// Balances are maintained incrementally: every movement insert or delete
// applies the corresponding delta to reg_stock_balances, so replacing a
// document's movements at a new recorder version changes the balance by
// exactly the difference between the old and new posted quantities.
type StockRepo struct {
	builder squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock register repository.
func NewStockRepo() *StockRepo {
	return &StockRepo{
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// getTxManager retrieves TxManager from context.
func (r *StockRepo) getTxManager(ctx context.Context) *postgres.TxManager {
	return postgres.MustGetTxManager(ctx)
}

// CreateMovements batch inserts movements and applies them to balances.
// Must be called within a transaction so movements and balances stay consistent.
func (r *StockRepo) CreateMovements(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	txm := r.getTxManager(ctx)
	if tx := txm.GetTx(ctx); tx != nil {
		// Fast path: COPY when inside a transaction.
		inserter := postgres.NewBatchInserter(txm)
		columns := []string{
			"line_id", "recorder_id", "recorder_type", "recorder_version",
			"period", "record_type",
			"product_id", "quantity", "created_at",
		}
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, []any{
				m.LineID, m.RecorderID, m.RecorderType, m.RecorderVersion,
				m.Period, m.RecordType,
				m.ProductID, m.Quantity, m.CreatedAt,
			})
		}
		if _, err := inserter.CopyFromSlice(ctx, stockMovementsTable, columns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
	} else {
		q := r.builder.Insert(stockMovementsTable).Columns(
			"line_id", "recorder_id", "recorder_type", "recorder_version",
			"period", "record_type",
			"product_id", "quantity", "created_at",
		)

		for _, m := range movements {
			q = q.Values(
				m.LineID, m.RecorderID, m.RecorderType, m.RecorderVersion,
				m.Period, m.RecordType,
				m.ProductID, m.Quantity, m.CreatedAt,
			)
		}

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}

		querier := txm.GetQuerier(ctx)
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert movements: %w", err)
		}
	}

	deltas := make(map[id.ID]types.Quantity, len(movements))
	var lastPeriod time.Time
	for i := range movements {
		deltas[movements[i].ProductID] += movements[i].SignedQuantity()
		if movements[i].Period.After(lastPeriod) {
			lastPeriod = movements[i].Period
		}
	}

	return r.applyBalanceDeltas(ctx, deltas, lastPeriod)
}

// DeleteMovementsByRecorder removes the recorder's movements below the given
// version and rolls their effect out of balances.
func (r *StockRepo) DeleteMovementsByRecorder(ctx context.Context, recorderID id.ID, beforeVersion int) error {
	sql := `
		DELETE FROM reg_stock_movements
		WHERE recorder_id = $1 AND recorder_version < $2
		RETURNING product_id, record_type, quantity
	`

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	rows, err := querier.Query(ctx, sql, recorderID, beforeVersion)
	if err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}
	defer rows.Close()

	deltas := make(map[id.ID]types.Quantity)
	for rows.Next() {
		var (
			productID  id.ID
			recordType entity.RecordType
			quantity   types.Quantity
		)
		if err := rows.Scan(&productID, &recordType, &quantity); err != nil {
			return fmt.Errorf("scan deleted movement: %w", err)
		}
		// Invert the original effect.
		if recordType == entity.RecordTypeExpense {
			deltas[productID] += quantity
		} else {
			deltas[productID] -= quantity
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate deleted movements: %w", err)
	}
	rows.Close()

	return r.applyBalanceDeltas(ctx, deltas, time.Now().UTC())
}

// applyBalanceDeltas upserts per-product quantity deltas into the balance table.
func (r *StockRepo) applyBalanceDeltas(ctx context.Context, deltas map[id.ID]types.Quantity, movementAt time.Time) error {
	if len(deltas) == 0 {
		return nil
	}

	sql := `
		INSERT INTO reg_stock_balances (product_id, quantity, last_movement_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (product_id) DO UPDATE
		SET quantity = reg_stock_balances.quantity + EXCLUDED.quantity,
		    last_movement_at = EXCLUDED.last_movement_at,
		    updated_at = NOW()
	`

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	for productID, delta := range deltas {
		if delta == 0 {
			continue
		}
		if _, err := querier.Exec(ctx, sql, productID, delta, movementAt); err != nil {
			return fmt.Errorf("apply balance delta: %w", err)
		}
	}

	return nil
}

// GetMovementsByRecorder retrieves movements for a document.
func (r *StockRepo) GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error) {
	q := r.builder.Select(
		"line_id", "recorder_id", "recorder_type", "recorder_version",
		"period", "record_type",
		"product_id", "quantity", "created_at",
	).From(stockMovementsTable).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		OrderBy("created_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select movements: %w", err)
	}

	return movements, nil
}

// GetBalance returns the current balance for a product.
func (r *StockRepo) GetBalance(ctx context.Context, productID id.ID) (entity.StockBalance, error) {
	var balance entity.StockBalance

	q := r.builder.Select(
		"product_id", "quantity", "last_movement_at", "updated_at",
	).From(stockBalancesTable).
		Where(squirrel.Eq{"product_id": productID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return balance, fmt.Errorf("build query: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &balance, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity.StockBalance{
				ProductID: productID,
				Quantity:  0,
			}, nil
		}
		return balance, fmt.Errorf("get balance: %w", err)
	}

	return balance, nil
}

// GetBalanceForUpdate returns the balance with pessimistic lock.
func (r *StockRepo) GetBalanceForUpdate(ctx context.Context, productID id.ID) (entity.StockBalance, error) {
	var balance entity.StockBalance

	sql := `
		SELECT product_id, quantity, last_movement_at, updated_at
		FROM reg_stock_balances
		WHERE product_id = $1
		FOR UPDATE
	`

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	err := pgxscan.Get(ctx, querier, &balance, sql, productID)
	if err != nil {
		if pgxscan.NotFound(err) {
			return entity.StockBalance{
				ProductID: productID,
				Quantity:  0,
			}, nil
		}
		return balance, fmt.Errorf("get balance for update: %w", err)
	}

	return balance, nil
}

// GetBalances returns balances matching the filter.
func (r *StockRepo) GetBalances(ctx context.Context, filter stock.BalanceFilter) ([]entity.StockBalance, error) {
	q := r.builder.Select(
		"product_id", "quantity", "last_movement_at", "updated_at",
	).From(stockBalancesTable)

	if filter.ExcludeZero {
		q = q.Where(squirrel.NotEq{"quantity": int64(0)})
	}

	if len(filter.ProductIDs) > 0 {
		q = q.Where(squirrel.Eq{"product_id": filter.ProductIDs})
	}

	if filter.MinQuantity != nil {
		q = q.Where(squirrel.GtOrEq{"quantity": filter.MinQuantity.Int64Scaled()})
	}

	if filter.MaxQuantity != nil {
		q = q.Where(squirrel.LtOrEq{"quantity": filter.MaxQuantity.Int64Scaled()})
	}

	q = q.OrderBy("product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []entity.StockBalance
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}

	return balances, nil
}

// GetMovementHistory returns movement history for a product.
func (r *StockRepo) GetMovementHistory(ctx context.Context, productID id.ID, filter stock.MovementFilter) ([]entity.StockMovement, error) {
	q := r.builder.Select(
		"line_id", "recorder_id", "recorder_type", "recorder_version",
		"period", "record_type",
		"product_id", "quantity", "created_at",
	).From(stockMovementsTable).
		Where(squirrel.Eq{"product_id": productID})

	if filter.RecordType != nil {
		q = q.Where(squirrel.Eq{"record_type": *filter.RecordType})
	}

	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"period": *filter.FromDate})
	}

	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"period": *filter.ToDate})
	}

	q = q.OrderBy("period DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []entity.StockMovement
	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("select history: %w", err)
	}

	return movements, nil
}

// GetTurnover calculates turnover for period.
func (r *StockRepo) GetTurnover(ctx context.Context, filter stock.TurnoverFilter) (stock.Turnover, error) {
	var result stock.Turnover

	args := []any{filter.FromDate, filter.ToDate}
	baseConditions := "period >= $1 AND period < $2"

	if filter.ProductID != nil {
		baseConditions += " AND product_id = $3"
		args = append(args, *filter.ProductID)
		result.ProductID = *filter.ProductID
	}

	sql := fmt.Sprintf(`
		SELECT
			COALESCE(SUM(CASE WHEN record_type = 'receipt' THEN quantity ELSE 0 END), 0) as receipt,
			COALESCE(SUM(CASE WHEN record_type = 'expense' THEN quantity ELSE 0 END), 0) as expense
		FROM reg_stock_movements
		WHERE %s
	`, baseConditions)

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	var receiptScaled, expenseScaled int64
	err := querier.QueryRow(ctx, sql, args...).Scan(&receiptScaled, &expenseScaled)
	if err != nil && err != pgx.ErrNoRows {
		return result, fmt.Errorf("calculate turnover: %w", err)
	}
	result.Receipt = types.NewQuantityFromInt64Scaled(receiptScaled)
	result.Expense = types.NewQuantityFromInt64Scaled(expenseScaled)

	// Opening balance: everything before the period start.
	openingArgs := []any{filter.FromDate}
	openingConditions := "period < $1"

	if filter.ProductID != nil {
		openingConditions += " AND product_id = $2"
		openingArgs = append(openingArgs, *filter.ProductID)
	}

	openingSQL := fmt.Sprintf(`
		SELECT COALESCE(
			SUM(CASE WHEN record_type = 'receipt' THEN quantity ELSE -quantity END),
			0
		)
		FROM reg_stock_movements
		WHERE %s
	`, openingConditions)

	var openingScaled int64
	err = querier.QueryRow(ctx, openingSQL, openingArgs...).Scan(&openingScaled)
	if err != nil && err != pgx.ErrNoRows {
		return result, fmt.Errorf("calculate opening balance: %w", err)
	}
	result.OpeningBalance = types.NewQuantityFromInt64Scaled(openingScaled)

	result.ClosingBalance = result.OpeningBalance + result.Receipt - result.Expense

	return result, nil
}

// RecalculateBalances rebuilds the balance table from movements.
func (r *StockRepo) RecalculateBalances(ctx context.Context, productID *id.ID) error {
	querier := r.getTxManager(ctx).GetQuerier(ctx)

	deleteSQL := "DELETE FROM reg_stock_balances"
	rebuildSQL := `
		INSERT INTO reg_stock_balances (product_id, quantity, last_movement_at, updated_at)
		SELECT product_id,
		       SUM(CASE WHEN record_type = 'receipt' THEN quantity ELSE -quantity END),
		       MAX(period),
		       NOW()
		FROM reg_stock_movements
		GROUP BY product_id
	`

	var args []any
	if productID != nil {
		deleteSQL += " WHERE product_id = $1"
		rebuildSQL = `
			INSERT INTO reg_stock_balances (product_id, quantity, last_movement_at, updated_at)
			SELECT product_id,
			       SUM(CASE WHEN record_type = 'receipt' THEN quantity ELSE -quantity END),
			       MAX(period),
			       NOW()
			FROM reg_stock_movements
			WHERE product_id = $1
			GROUP BY product_id
		`
		args = []any{*productID}
	}

	if _, err := querier.Exec(ctx, deleteSQL, args...); err != nil {
		return fmt.Errorf("clear balances: %w", err)
	}
	if _, err := querier.Exec(ctx, rebuildSQL, args...); err != nil {
		return fmt.Errorf("rebuild balances: %w", err)
	}

	return nil
}

// Ensure interface compliance.
var _ stock.Repository = (*StockRepo)(nil)
