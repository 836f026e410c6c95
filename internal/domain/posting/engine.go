package posting

import (
	"context"
	"fmt"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/entity"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/store"
	"tillpoint/internal/core/tx"
	"tillpoint/pkg/logger"
)

// StockRegister is the stock register surface the engine drives.
// Implemented by registers/stock.Service.
type StockRegister interface {
	// RecordMovements persists movements and updates balances
	RecordMovements(ctx context.Context, movements []entity.StockMovement) error

	// ReverseMovements deletes the recorder's movements below the given
	// version, rolling their effect out of the balances
	ReverseMovements(ctx context.Context, recorderID id.ID, beforeVersion int) error

	// CheckAndReserveStock verifies the net expense of the movement set
	// fits current balances, locking the balance rows
	CheckAndReserveStock(ctx context.Context, movements []entity.StockMovement) error
}

// EventSink records a domain event inside the current transaction.
// Implemented by the transactional outbox.
type EventSink interface {
	Publish(ctx context.Context, aggregateType string, aggregateID id.ID, eventType string, payload any) error
}

// FanoutSink publishes to every sink in order, failing on the first error.
type FanoutSink []EventSink

func (f FanoutSink) Publish(ctx context.Context, aggregateType string, aggregateID id.ID, eventType string, payload any) error {
	for _, sink := range f {
		if err := sink.Publish(ctx, aggregateType, aggregateID, eventType, payload); err != nil {
			return err
		}
	}
	return nil
}

// Fanout combines sinks into one. Nil sinks are skipped.
func Fanout(sinks ...EventSink) EventSink {
	var out FanoutSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// Engine posts and unposts documents. Replacing a document's movements
// at a new recorder version applies exactly the difference between the
// old and new posted quantities, so reposting an edited document never
// double-counts.
//
// In Database-per-Store, TxManager is obtained from context unless one
// is injected (tests).
type Engine struct {
	stock     StockRegister
	txManager tx.Manager
	events    EventSink
}

// NewEngine creates a posting engine.
func NewEngine(stock StockRegister, txManager tx.Manager) *Engine {
	return &Engine{
		stock:     stock,
		txManager: txManager,
	}
}

// WithEvents attaches an event sink. Posted/unposted events are then
// written in the same transaction as the document.
func (e *Engine) WithEvents(events EventSink) *Engine {
	e.events = events
	return e
}

func (e *Engine) getTxManager(ctx context.Context) (tx.Manager, error) {
	if e.txManager != nil {
		return e.txManager, nil
	}
	return store.GetTxManager(ctx)
}

// Post records the document's movements atomically: previous movements
// are reversed, the new set is availability-checked and recorded, and
// the document is marked posted and saved via updateDoc.
//
// Posting an already-posted document is a repost: version bumps and the
// movement delta lands on the balances.
func (e *Engine) Post(ctx context.Context, doc Postable, updateDoc func(ctx context.Context) error) error {
	if err := doc.CanPost(ctx); err != nil {
		return err
	}

	txm, err := e.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}

	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		movements, err := doc.GenerateMovements(ctx)
		if err != nil {
			return fmt.Errorf("generate movements: %w", err)
		}

		newVersion := doc.GetPostedVersion() + 1

		if doc.IsPosted() {
			if err := e.stock.ReverseMovements(ctx, doc.GetID(), newVersion); err != nil {
				return fmt.Errorf("reverse movements: %w", err)
			}
		}

		if err := e.stock.CheckAndReserveStock(ctx, movements.Stock); err != nil {
			return err
		}

		if err := e.stock.RecordMovements(ctx, movements.Stock); err != nil {
			return fmt.Errorf("record movements: %w", err)
		}

		doc.MarkPosted()
		if err := updateDoc(ctx); err != nil {
			return err
		}

		if e.events != nil {
			return e.events.Publish(ctx, doc.GetDocumentType(), doc.GetID(),
				doc.GetDocumentType()+"Posted",
				map[string]any{"version": doc.GetPostedVersion()},
			)
		}
		return nil
	})

	if err != nil {
		return err
	}

	logger.Info(ctx, "document posted",
		"id", doc.GetID(),
		"type", doc.GetDocumentType(),
		"version", doc.GetPostedVersion(),
	)
	return nil
}

// Unpost reverses the document's movements and clears the posted flag.
func (e *Engine) Unpost(ctx context.Context, doc Postable, updateDoc func(ctx context.Context) error) error {
	if !doc.IsPosted() {
		return apperror.NewBusinessRule(
			apperror.CodeBusinessRule,
			"Document is not posted",
		).WithDetail("document_id", doc.GetID().String())
	}

	txm, err := e.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}

	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		// beforeVersion above the current one removes every recorded set
		if err := e.stock.ReverseMovements(ctx, doc.GetID(), doc.GetPostedVersion()+1); err != nil {
			return fmt.Errorf("reverse movements: %w", err)
		}

		doc.MarkUnposted()
		if err := updateDoc(ctx); err != nil {
			return err
		}

		if e.events != nil {
			return e.events.Publish(ctx, doc.GetDocumentType(), doc.GetID(),
				doc.GetDocumentType()+"Unposted", nil,
			)
		}
		return nil
	})

	if err != nil {
		return err
	}

	logger.Info(ctx, "document unposted",
		"id", doc.GetID(),
		"type", doc.GetDocumentType(),
	)
	return nil
}
