package sale

import "tillpoint/pkg/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	// Receipts are fiscal documents, so numbering is strict and gap-free.
	NumeratorStrategy = numerator.StrategyStrict

	// NumberPrefix for generated receipt numbers.
	NumberPrefix = "SAL"
)
