package theftaudit

import (
	"context"
	"time"

	"tillpoint/internal/core/id"
	"tillpoint/internal/domain"
)

// Repository defines operations for theft-audit documents.
type Repository interface {
	Create(ctx context.Context, doc *TheftAudit) error
	GetByID(ctx context.Context, docID id.ID) (*TheftAudit, error)
	GetByNumber(ctx context.Context, number string) (*TheftAudit, error)
	Update(ctx context.Context, doc *TheftAudit) error
	Delete(ctx context.Context, docID id.ID) error

	GetLines(ctx context.Context, docID id.ID) ([]AuditLine, error)
	SaveLines(ctx context.Context, docID id.ID, lines []AuditLine) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*TheftAudit], error)
	GetForUpdate(ctx context.Context, docID id.ID) (*TheftAudit, error)
}

// ListFilter for filtering audit batches.
type ListFilter struct {
	domain.ListFilter

	Posted   *bool
	DateFrom *time.Time
	DateTo   *time.Time
}
