package analytics

// Trend is the least-squares fit of a numeric column against its row order.
type Trend struct {
	Column    string    `json:"column"`
	Slope     float64   `json:"slope"`
	Intercept float64   `json:"intercept"`
	RSquared  float64   `json:"r_squared"`
	Label     string    `json:"label"`
	Forecast  []float64 `json:"forecast,omitempty"`
}

// Trend labels.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
	TrendVolatile   = "volatile"
)

// trend fits value = intercept + slope*i over i = 1..n and projects the
// next points along the fitted line.
func (e *Engine) trend(c column) Trend {
	nums := c.numbers()
	t := Trend{Column: c.name, Label: TrendStable}
	n := len(nums)
	if n < 2 {
		return t
	}

	// Least squares over index 1..n.
	fn := float64(n)
	sumX := fn * (fn + 1) / 2
	sumXX := fn * (fn + 1) * (2*fn + 1) / 6
	sumY := 0.0
	sumXY := 0.0
	for i, y := range nums {
		x := float64(i + 1)
		sumY += y
		sumXY += x * y
	}
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return t
	}
	t.Slope = (fn*sumXY - sumX*sumY) / denom
	t.Intercept = (sumY - t.Slope*sumX) / fn

	// R-squared against the mean; a constant column fits its own line
	// exactly.
	meanY := sumY / fn
	ssTot := 0.0
	ssRes := 0.0
	for i, y := range nums {
		fitted := t.Intercept + t.Slope*float64(i+1)
		ssRes += (y - fitted) * (y - fitted)
		ssTot += (y - meanY) * (y - meanY)
	}
	if ssTot == 0 {
		t.RSquared = 1
	} else {
		t.RSquared = 1 - ssRes/ssTot
	}

	t.Label = e.classify(t.Slope, t.RSquared)

	t.Forecast = make([]float64, e.opts.ForecastPoints)
	for k := 1; k <= e.opts.ForecastPoints; k++ {
		t.Forecast[k-1] = t.Intercept + t.Slope*(fn+float64(k))
	}
	return t
}

func (e *Engine) classify(slope, rSquared float64) string {
	magnitude := slope
	if magnitude < 0 {
		magnitude = -magnitude
	}
	switch {
	case magnitude <= e.opts.TrendEpsilon:
		return TrendStable
	case rSquared < e.opts.TrendConfidence:
		return TrendVolatile
	case slope > 0:
		return TrendIncreasing
	default:
		return TrendDecreasing
	}
}
