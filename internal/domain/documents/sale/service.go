package sale

import (
	"context"
	"fmt"
	"time"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/store"
	"tillpoint/internal/core/tx"
	"tillpoint/internal/domain"
	"tillpoint/internal/domain/device"
	"tillpoint/internal/domain/posting"
	"tillpoint/internal/domain/soldset"
	"tillpoint/pkg/logger"
	"tillpoint/pkg/numerator"
)

// Service provides business operations for sale documents.
// In Database-per-Store architecture, TxManager is obtained from context.
type Service struct {
	repo          Repository
	postingEngine *posting.Engine
	numerator     numerator.Generator
	soldSet       *soldset.Service
	txManager     tx.Manager // Optional. If nil, obtained from context.
}

// NewService creates a new sale service.
func NewService(
	repo Repository,
	postingEngine *posting.Engine,
	gen numerator.Generator,
	soldSet *soldset.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:          repo,
		postingEngine: postingEngine,
		numerator:     gen,
		soldSet:       soldSet,
		txManager:     txManager,
	}
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return store.GetTxManager(ctx)
}

// checkUnitsUnsold re-verifies every device ID on the document against
// the sold index. This is the authoritative guard; the scan-time check
// only covered the moment of scanning.
func (s *Service) checkUnitsUnsold(ctx context.Context, doc *Sale) error {
	var candidates []string
	for _, line := range doc.Lines {
		candidates = append(candidates, device.IDs(line.Units())...)
	}
	if len(candidates) == 0 {
		return nil
	}

	sold, err := s.soldSet.Resolve(ctx, candidates, doc.ID.String())
	if err != nil {
		return fmt.Errorf("verify devices unsold: %w", err)
	}
	if len(sold) > 0 {
		return apperror.NewDeviceSold(sold[0])
	}
	return nil
}

func (s *Service) assignNumber(ctx context.Context, doc *Sale) error {
	if doc.Number != "" {
		return nil
	}
	cfg := numerator.DefaultConfig(NumberPrefix)
	number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
	if err != nil {
		return fmt.Errorf("generate number: %w", err)
	}
	doc.Number = number
	return nil
}

// Create creates a new sale document.
func (s *Service) Create(ctx context.Context, doc *Sale) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if err := s.checkUnitsUnsold(ctx, doc); err != nil {
		return err
	}

	if err := s.assignNumber(ctx, doc); err != nil {
		return err
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})

	if err != nil {
		return err
	}

	logger.Info(ctx, "sale created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves a sale with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Sale, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// Update updates a sale document.
func (s *Service) Update(ctx context.Context, doc *Sale) error {
	if err := doc.CanModify(); err != nil {
		return err
	}

	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if err := s.checkUnitsUnsold(ctx, doc); err != nil {
		return err
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	return txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
}

// Delete soft-deletes a sale.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	if doc.Posted {
		return doc.CanModify()
	}

	return s.repo.Delete(ctx, docID)
}

// Post records the sale's movements to the stock register.
// Fails on insufficient stock (negative balance prevention).
func (s *Service) Post(ctx context.Context, docID id.ID) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	updateDoc := func(ctx context.Context) error {
		return s.repo.Update(ctx, doc)
	}

	return s.postingEngine.Post(ctx, doc, updateDoc)
}

// Unpost reverses the sale's movements.
func (s *Service) Unpost(ctx context.Context, docID id.ID) error {
	doc, err := s.GetByID(ctx, docID)
	if err != nil {
		return err
	}

	updateDoc := func(ctx context.Context) error {
		return s.repo.Update(ctx, doc)
	}

	return s.postingEngine.Unpost(ctx, doc, updateDoc)
}

// PostAndSave posts the sale and saves changes atomically.
// This is the save path of the POS register: one call persists the
// draft-built document and records its movements.
func (s *Service) PostAndSave(ctx context.Context, doc *Sale) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if err := s.checkUnitsUnsold(ctx, doc); err != nil {
		return err
	}

	if err := s.assignNumber(ctx, doc); err != nil {
		return err
	}

	updateDoc := func(ctx context.Context) error {
		// The document may be brand new (draft save) or a persisted one
		// being edited and reposted. Only the database knows which.
		_, err := s.repo.GetByID(ctx, doc.ID)
		switch {
		case apperror.IsNotFound(err):
			if err := s.repo.Create(ctx, doc); err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			if err := s.repo.Update(ctx, doc); err != nil {
				return err
			}
		}
		return s.repo.SaveLines(ctx, doc.ID, doc.Lines)
	}

	return s.postingEngine.Post(ctx, doc, updateDoc)
}

// List retrieves sales with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Sale], error) {
	return s.repo.List(ctx, filter)
}
