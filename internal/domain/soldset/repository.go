// Package soldset resolves which device IDs are already committed in
// persisted sale or debt rows for the store. The display path is
// fail-open (empty set plus error); the save path re-checks each unit
// authoritatively.
package soldset

import (
	"context"
)

// Repository answers membership questions against persisted transaction rows.
type Repository interface {
	// FindSold returns the subset of candidates present in any persisted
	// sale or debt row. Matching is case-sensitive exact after trim.
	// excludeDocID, when non-empty, skips rows of that document so an
	// edit does not see its own units as sold.
	FindSold(ctx context.Context, candidates []string, excludeDocID string) ([]string, error)
}
