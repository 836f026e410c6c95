package soldset

import (
	"context"
	"fmt"

	"tillpoint/internal/domain/device"
	"tillpoint/pkg/logger"
)

// Service computes sold/available sets over product registries.
type Service struct {
	repo Repository
}

// NewService creates a sold-set service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Resolve returns the subset of candidates that are already sold.
// Candidates are trimmed and de-duplicated before the query; blanks are
// dropped. On query failure it returns an empty set together with the
// error so display callers can fail open.
func (s *Service) Resolve(ctx context.Context, candidates []string, excludeDocID string) ([]string, error) {
	cleaned := dedupe(candidates)
	if len(cleaned) == 0 {
		return nil, nil
	}

	sold, err := s.repo.FindSold(ctx, cleaned, excludeDocID)
	if err != nil {
		logger.Warn(ctx, "sold-set query failed, treating as unsold for display",
			"candidates", len(cleaned), "error", err)
		return nil, fmt.Errorf("resolve sold set: %w", err)
	}
	return sold, nil
}

// IsSold is the authoritative single-device check used again at save time.
// Unlike Resolve it propagates errors without a fail-open result.
func (s *Service) IsSold(ctx context.Context, deviceID string, excludeDocID string) (bool, error) {
	norm := device.Normalize(deviceID)
	if norm == "" {
		return false, nil
	}

	sold, err := s.repo.FindSold(ctx, []string{norm}, excludeDocID)
	if err != nil {
		return false, fmt.Errorf("check sold: %w", err)
	}
	return len(sold) > 0, nil
}

// Available returns registry minus sold: the units of a product registry
// not yet committed to a persisted sale or debt.
func (s *Service) Available(ctx context.Context, registry []device.Unit, excludeDocID string) ([]device.Unit, error) {
	sold, err := s.Resolve(ctx, device.IDs(registry), excludeDocID)
	if err != nil {
		// Fail open: show the full registry when the index is unreachable.
		return registry, err
	}

	soldSet := make(map[string]struct{}, len(sold))
	for _, id := range sold {
		soldSet[device.Normalize(id)] = struct{}{}
	}

	var out []device.Unit
	for _, u := range registry {
		if _, ok := soldSet[device.Normalize(u.ID)]; !ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// dedupe trims, drops blanks, and removes duplicates preserving order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	var out []string
	for _, raw := range ids {
		norm := device.Normalize(raw)
		if norm == "" {
			continue
		}
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}
