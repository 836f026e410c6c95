// Package stock provides the stock accumulation register.
// The register has a single dimension (product); each store database
// carries its own movements and balances.
package stock

import (
	"context"
	"time"

	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
)

// Repository defines operations for the stock register.
type Repository interface {
	// Movement operations

	// CreateMovements batch inserts movements and applies them to balances
	CreateMovements(ctx context.Context, movements []entity.StockMovement) error

	// DeleteMovementsByRecorder removes the recorder's movements below the
	// given version and rolls their effect out of balances
	DeleteMovementsByRecorder(ctx context.Context, recorderID id.ID, beforeVersion int) error

	// GetMovementsByRecorder retrieves all movements for a document
	GetMovementsByRecorder(ctx context.Context, recorderID id.ID) ([]entity.StockMovement, error)

	// Balance operations

	// GetBalance returns the current balance for a product
	GetBalance(ctx context.Context, productID id.ID) (entity.StockBalance, error)

	// GetBalanceForUpdate returns the balance with a row lock for stock control
	GetBalanceForUpdate(ctx context.Context, productID id.ID) (entity.StockBalance, error)

	// GetBalances returns balances matching the filter
	GetBalances(ctx context.Context, filter BalanceFilter) ([]entity.StockBalance, error)

	// Reporting

	// GetMovementHistory returns movement history for a product
	GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]entity.StockMovement, error)

	// GetTurnover calculates receipt and expense totals for a period
	GetTurnover(ctx context.Context, filter TurnoverFilter) (Turnover, error)

	// Maintenance

	// RecalculateBalances rebuilds the balance table from movements
	RecalculateBalances(ctx context.Context, productID *id.ID) error
}

// BalanceFilter for filtering balance queries.
type BalanceFilter struct {
	ProductIDs  []id.ID
	ExcludeZero bool
	MinQuantity *types.Quantity
	MaxQuantity *types.Quantity
}

// MovementFilter for filtering movement history.
type MovementFilter struct {
	RecordType *entity.RecordType
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}

// TurnoverFilter for turnover reports.
type TurnoverFilter struct {
	ProductID *id.ID
	FromDate  time.Time
	ToDate    time.Time
}

// Turnover represents receipt/expense totals.
type Turnover struct {
	ProductID      id.ID          `json:"productId,omitempty"`
	OpeningBalance types.Quantity `json:"openingBalance"`
	Receipt        types.Quantity `json:"receipt"`
	Expense        types.Quantity `json:"expense"`
	ClosingBalance types.Quantity `json:"closingBalance"`
}
