package debt

import "tillpoint/pkg/numerator"

const (
	// NumeratorStrategy defines the numbering strategy for this document type.
	NumeratorStrategy = numerator.StrategyStrict

	// NumberPrefix for generated debt numbers.
	NumberPrefix = "DBT"
)
