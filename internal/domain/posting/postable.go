// Package posting provides the document posting engine: the single place
// where document movements are generated, reconciled against previous
// postings, and recorded to accumulation registers.
package posting

import (
	"context"

	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/id"
)

// Postable is implemented by documents that record register movements.
// entity.Document provides defaults for everything except
// GetDocumentType and GenerateMovements.
type Postable interface {
	GetID() id.ID
	GetDocumentType() string
	GetPostedVersion() int
	IsPosted() bool

	// CanPost validates the document is ready for posting
	CanPost(ctx context.Context) error

	// GenerateMovements produces the movement set for the NEXT posted
	// version (GetPostedVersion()+1)
	GenerateMovements(ctx context.Context) (*MovementSet, error)

	MarkPosted()
	MarkUnposted()
}

// MovementSet collects register movements generated by one document.
type MovementSet struct {
	Stock []entity.StockMovement
}

// NewMovementSet creates an empty movement set.
func NewMovementSet() *MovementSet {
	return &MovementSet{}
}

// AddStock appends a stock register movement.
func (s *MovementSet) AddStock(m entity.StockMovement) {
	s.Stock = append(s.Stock, m)
}

// IsEmpty reports whether the set contains no movements.
func (s *MovementSet) IsEmpty() bool {
	return len(s.Stock) == 0
}
