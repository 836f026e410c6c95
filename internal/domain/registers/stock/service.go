package stock

import (
	"context"
	"fmt"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/pkg/logger"
)

// Service provides business operations for the stock register.
// Transactions are managed by the caller (posting engine).
type Service struct {
	repo Repository
}

// NewService creates a stock register service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

// RecordMovements records stock movements from a document posting.
// Called during document posting within a transaction.
func (s *Service) RecordMovements(ctx context.Context, movements []entity.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}

	for i, m := range movements {
		if !m.Quantity.IsPositive() {
			return apperror.NewValidation(fmt.Sprintf("movement %d: quantity must be positive", i))
		}
		if id.IsNil(m.RecorderID) {
			return apperror.NewValidation(fmt.Sprintf("movement %d: recorder_id is required", i))
		}
	}

	if err := s.repo.CreateMovements(ctx, movements); err != nil {
		return fmt.Errorf("create movements: %w", err)
	}

	logger.Info(ctx, "recorded stock movements",
		"count", len(movements),
		"recorder_id", movements[0].RecorderID,
	)

	return nil
}

// ReverseMovements removes the recorder's movements below the given
// version (used during unposting and reposting).
func (s *Service) ReverseMovements(ctx context.Context, recorderID id.ID, beforeVersion int) error {
	if err := s.repo.DeleteMovementsByRecorder(ctx, recorderID, beforeVersion); err != nil {
		return fmt.Errorf("delete movements: %w", err)
	}

	logger.Info(ctx, "reversed stock movements",
		"recorder_id", recorderID,
		"before_version", beforeVersion,
	)

	return nil
}

// CheckAndReserveStock validates that the movement set's net expense
// fits the current balances, locking the balance rows pessimistically.
// Called within the posting transaction, after prior movements were
// reversed, before the new ones are recorded.
func (s *Service) CheckAndReserveStock(ctx context.Context, movements []entity.StockMovement) error {
	demand := make(map[id.ID]types.Quantity)
	for _, m := range movements {
		demand[m.ProductID] -= m.SignedQuantity()
	}

	for productID, required := range demand {
		if !required.IsPositive() {
			continue
		}

		balance, err := s.repo.GetBalanceForUpdate(ctx, productID)
		if err != nil {
			return fmt.Errorf("get balance for %s: %w", productID, err)
		}

		if balance.Quantity < required {
			return apperror.NewInsufficientStock(
				productID.String(),
				required.Float64(),
				balance.Quantity.Float64(),
			)
		}
	}

	return nil
}

// GetProductAvailability returns the available quantity for a product.
func (s *Service) GetProductAvailability(ctx context.Context, productID id.ID) (types.Quantity, error) {
	balance, err := s.repo.GetBalance(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance.Quantity, nil
}

// GetStock returns all products with non-zero stock.
func (s *Service) GetStock(ctx context.Context) ([]entity.StockBalance, error) {
	return s.repo.GetBalances(ctx, BalanceFilter{ExcludeZero: true})
}

// GetMovementHistory returns the movement history for a product.
func (s *Service) GetMovementHistory(ctx context.Context, productID id.ID, filter MovementFilter) ([]entity.StockMovement, error) {
	return s.repo.GetMovementHistory(ctx, productID, filter)
}

// GetStockReport generates a turnover report for the period.
func (s *Service) GetStockReport(ctx context.Context, filter TurnoverFilter) (Turnover, error) {
	return s.repo.GetTurnover(ctx, filter)
}
