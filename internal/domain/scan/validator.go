package scan

import (
	"context"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/store"
	"tillpoint/internal/domain/catalogs/product"
	"tillpoint/internal/domain/draft"
	"tillpoint/internal/domain/scan/rules"
	"tillpoint/internal/domain/soldset"
	"tillpoint/pkg/logger"
)

// ProductFinder is the product lookup the validator needs.
type ProductFinder interface {
	FindByDeviceID(ctx context.Context, deviceID string) (*product.Product, error)
}

// Validator runs a candidate through the acceptance pipeline and into
// the draft: store rule, sold-set check, product resolution, then
// reconciliation. One candidate per draft at a time.
type Validator struct {
	drafts   *draft.Manager
	products ProductFinder
	sold     *soldset.Service
	rules    *rules.Engine
}

// NewValidator creates the pipeline.
func NewValidator(drafts *draft.Manager, products ProductFinder, sold *soldset.Service, engine *rules.Engine) *Validator {
	return &Validator{
		drafts:   drafts,
		products: products,
		sold:     sold,
		rules:    engine,
	}
}

// Process validates the candidate and applies it to the session's draft.
//
// A candidate already being validated for the draft returns a busy
// conflict instead of queueing. A candidate failing the store rule or
// already sold is rejected without touching the draft. A candidate with
// no owning product is applied as unrecognized raw input.
func (v *Validator) Process(ctx context.Context, s *Session, c Candidate) (*draft.Result, error) {
	d, err := v.drafts.Get(s.StoreID, s.DraftID)
	if err != nil {
		return nil, err
	}

	if !d.TryBeginValidation() {
		return nil, apperror.NewScanBusy()
	}
	defer d.EndValidation()

	if !s.beginValidation() {
		return nil, apperror.NewConflict("scan session is not accepting input")
	}
	defer s.endValidation()

	if err := v.checkRule(ctx, c.DeviceID); err != nil {
		return nil, err
	}

	excludeDocID := ""
	if d.DocumentID != nil {
		excludeDocID = d.DocumentID.String()
	}

	sold, err := v.sold.IsSold(ctx, c.DeviceID, excludeDocID)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if sold {
		return nil, apperror.NewDeviceSold(c.DeviceID)
	}

	p, err := v.products.FindByDeviceID(ctx, c.DeviceID)
	if err != nil {
		if !apperror.IsNotFound(err) {
			return nil, err
		}
		p = nil
	}

	d.Lock()
	defer d.Unlock()

	return draft.Apply(d, c.DeviceID, p, s.target())
}

// checkRule evaluates the store's scan acceptance rule. A rule that
// cannot compile or evaluate is treated as accept with a warning so a
// settings typo cannot block the register; a clean false rejects.
func (v *Validator) checkRule(ctx context.Context, deviceID string) error {
	st := store.GetStore(ctx)
	if st == nil {
		return nil
	}

	expr := st.ScanRule()
	if expr == "" {
		return nil
	}

	allow, err := v.rules.Allow(expr, deviceID)
	if err != nil {
		logger.Warn(ctx, "scan rule failed, accepting candidate",
			"rule", expr, "error", err)
		return nil
	}
	if !allow {
		return apperror.NewScanRejected(deviceID, "store scan rule rejected the ID")
	}
	return nil
}
