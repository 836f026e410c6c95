package dto

import (
	"time"

	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/id"
	"tillpoint/internal/domain/registers/stock"
)

// --- Response DTOs for Stock Register ---

// StockBalanceResponse represents stock balance in API responses.
type StockBalanceResponse struct {
	ProductID      string     `json:"productId"`
	Quantity       float64    `json:"quantity"`
	LastMovementAt *time.Time `json:"lastMovementAt,omitempty"`
}

// FromStockBalance converts entity to response DTO.
func FromStockBalance(b entity.StockBalance) StockBalanceResponse {
	// Zero-value LastMovementAt renders as null, not "0001-01-01".
	var lastMovement *time.Time
	if !b.LastMovementAt.IsZero() {
		val := b.LastMovementAt
		lastMovement = &val
	}

	return StockBalanceResponse{
		ProductID:      b.ProductID.String(),
		Quantity:       b.Quantity.Float64(),
		LastMovementAt: lastMovement,
	}
}

// StockMovementResponse represents stock movement in API responses.
type StockMovementResponse struct {
	LineID          string    `json:"lineId"`
	RecorderID      string    `json:"recorderId"`
	RecorderType    string    `json:"recorderType"`
	RecorderVersion int       `json:"recorderVersion"`
	Period          time.Time `json:"period"`
	RecordType      string    `json:"recordType"`
	ProductID       string    `json:"productId"`
	Quantity        float64   `json:"quantity"`
	CreatedAt       time.Time `json:"createdAt"`
}

// FromStockMovement converts entity to response DTO.
func FromStockMovement(m entity.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		LineID:          m.LineID.String(),
		RecorderID:      m.RecorderID.String(),
		RecorderType:    m.RecorderType,
		RecorderVersion: m.RecorderVersion,
		Period:          m.Period,
		RecordType:      string(m.RecordType),
		ProductID:       m.ProductID.String(),
		Quantity:        m.Quantity.Float64(),
		CreatedAt:       m.CreatedAt,
	}
}

// StockTurnoverResponse represents stock turnover report.
type StockTurnoverResponse struct {
	ProductID      string  `json:"productId,omitempty"`
	OpeningBalance float64 `json:"openingBalance"`
	Receipt        float64 `json:"receipt"`
	Expense        float64 `json:"expense"`
	ClosingBalance float64 `json:"closingBalance"`
}

// FromStockTurnover converts domain turnover to response DTO.
func FromStockTurnover(t stock.Turnover) StockTurnoverResponse {
	resp := StockTurnoverResponse{
		OpeningBalance: t.OpeningBalance.Float64(),
		Receipt:        t.Receipt.Float64(),
		Expense:        t.Expense.Float64(),
		ClosingBalance: t.ClosingBalance.Float64(),
	}
	if !id.IsNil(t.ProductID) {
		resp.ProductID = t.ProductID.String()
	}
	return resp
}

// StockBalanceListResponse represents a list of stock balances.
type StockBalanceListResponse struct {
	Items []StockBalanceResponse `json:"items"`
}

// StockMovementListResponse represents a list of stock movements.
type StockMovementListResponse struct {
	Items      []StockMovementResponse `json:"items"`
	TotalCount int                     `json:"totalCount,omitempty"`
}
