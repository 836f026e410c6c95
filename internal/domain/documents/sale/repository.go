package sale

import (
	"context"
	"time"

	"tillpoint/internal/core/id"
	"tillpoint/internal/domain"
)

// Repository defines operations for sale documents.
type Repository interface {
	Create(ctx context.Context, doc *Sale) error
	GetByID(ctx context.Context, docID id.ID) (*Sale, error)
	GetByNumber(ctx context.Context, number string) (*Sale, error)
	Update(ctx context.Context, doc *Sale) error
	Delete(ctx context.Context, docID id.ID) error

	GetLines(ctx context.Context, docID id.ID) ([]SaleLine, error)
	SaveLines(ctx context.Context, docID id.ID, lines []SaleLine) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error)
	GetForUpdate(ctx context.Context, docID id.ID) (*Sale, error)
}

// ListFilter for filtering sales.
type ListFilter struct {
	domain.ListFilter

	CustomerID *id.ID
	Posted     *bool
	DateFrom   *time.Time
	DateTo     *time.Time
}
