package pivot

// Supported aggregations.
const (
	AggSum     = "sum"
	AggCount   = "count"
	AggAverage = "average"
	AggMin     = "min"
	AggMax     = "max"
)

func validAggregation(name string) bool {
	switch name {
	case AggSum, AggCount, AggAverage, AggMin, AggMax:
		return true
	}
	return false
}

// accumulator folds the numeric values of one (group, value field) pair.
// Non-numeric values never reach it, so count reflects numeric entries only.
type accumulator struct {
	count int
	sum   float64
	min   float64
	max   float64
}

func (a *accumulator) add(v float64) {
	if a.count == 0 || v < a.min {
		a.min = v
	}
	if a.count == 0 || v > a.max {
		a.max = v
	}
	a.sum += v
	a.count++
}

// result reads the accumulator out under one aggregation. Groups with no
// numeric values yield zero for every aggregation, not an error.
func (a *accumulator) result(agg string) float64 {
	switch agg {
	case AggSum:
		return a.sum
	case AggCount:
		return float64(a.count)
	case AggAverage:
		if a.count == 0 {
			return 0
		}
		return a.sum / float64(a.count)
	case AggMin:
		return a.min
	case AggMax:
		return a.max
	default:
		return 0
	}
}
