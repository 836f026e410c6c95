package store

import "errors"

var (
	// ErrStoreNotFound is returned when store does not exist in meta-database.
	ErrStoreNotFound = errors.New("store not found")

	// ErrStoreNotActive is returned when store exists but is not active.
	ErrStoreNotActive = errors.New("store is not active")

	// ErrMaxPoolLimit is returned when store manager reached pool limit.
	ErrMaxPoolLimit = errors.New("max store pool limit reached")
)
