package debt

import (
	"context"
	"time"

	"tillpoint/internal/core/id"
	"tillpoint/internal/domain"
)

// Repository defines operations for debt documents.
type Repository interface {
	Create(ctx context.Context, doc *Debt) error
	GetByID(ctx context.Context, docID id.ID) (*Debt, error)
	GetByNumber(ctx context.Context, number string) (*Debt, error)
	Update(ctx context.Context, doc *Debt) error
	Delete(ctx context.Context, docID id.ID) error

	GetLines(ctx context.Context, docID id.ID) ([]DebtLine, error)
	SaveLines(ctx context.Context, docID id.ID, lines []DebtLine) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Debt], error)
	GetForUpdate(ctx context.Context, docID id.ID) (*Debt, error)
}

// ListFilter for filtering debts.
type ListFilter struct {
	domain.ListFilter

	CustomerID *id.ID
	Posted     *bool
	Settled    *bool
	Overdue    *bool
	DateFrom   *time.Time
	DateTo     *time.Time
}
