package types

// AggregationStatus describes an expression relative to a GROUP BY list.
type AggregationStatus int

const (
	// Aggregated expressions yield one value per group.
	Aggregated AggregationStatus = iota + 1
	// NotAggregated expressions yield one value per input row.
	NotAggregated
	// Either marks literals and grouped columns, which fit both contexts.
	Either
)

func (s AggregationStatus) String() string {
	switch s {
	case Aggregated:
		return "AGGREGATED"
	case NotAggregated:
		return "NOT_AGGREGATED"
	case Either:
		return "EITHER"
	default:
		return "UNKNOWN"
	}
}

// Combine merges the statuses of two sub-expressions of one expression.
func Combine(left, right AggregationStatus) (AggregationStatus, error) {
	switch left {
	case Aggregated:
		if right == NotAggregated {
			return 0, &AggregationMismatchError{Message: "cannot combine aggregated and non-aggregated operands"}
		}
		return Aggregated, nil
	case NotAggregated:
		if right == Aggregated {
			return 0, &AggregationMismatchError{Message: "cannot combine non-aggregated and aggregated operands"}
		}
		return NotAggregated, nil
	case Either:
		return right, nil
	default:
		return 0, &AggregationMismatchError{Message: "unknown aggregation status " + left.String()}
	}
}
