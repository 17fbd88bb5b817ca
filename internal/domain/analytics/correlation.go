package analytics

import "math"

// CorrelationMatrix holds pairwise Pearson coefficients over the numeric
// columns, in column order. The matrix is symmetric with a unit diagonal.
type CorrelationMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`
}

func (e *Engine) correlate(cols []column) *CorrelationMatrix {
	m := &CorrelationMatrix{
		Columns: make([]string, len(cols)),
		Values:  make([][]float64, len(cols)),
	}
	series := make([][]float64, len(cols))
	for i, c := range cols {
		m.Columns[i] = c.name
		series[i] = c.numbers()
		m.Values[i] = make([]float64, len(cols))
		m.Values[i][i] = 1
	}

	for i := 0; i < len(cols); i++ {
		for j := i + 1; j < len(cols); j++ {
			r := pearson(series[i], series[j])
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m
}

// pearson computes the correlation coefficient over the paired prefix of the
// two series. Zero variance on either side makes the coefficient undefined,
// reported as 0.
func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	if n < 2 {
		return 0
	}
	xs, ys = xs[:n], ys[:n]

	mx, my := mean(xs), mean(ys)
	var cov, vx, vy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0
	}
	return cov / (math.Sqrt(vx) * math.Sqrt(vy))
}
