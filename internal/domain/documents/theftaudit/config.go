package theftaudit

import "tillpoint/pkg/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	// Audit batches are internal documents; cached numbering is fine.
	NumeratorStrategy = numerator.StrategyCached

	// NumberPrefix for generated audit numbers.
	NumberPrefix = "TA"
)
