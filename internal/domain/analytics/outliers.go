package analytics

import (
	"math"
	"sort"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// Outlier flags a value whose z-score magnitude exceeds the threshold.
type Outlier struct {
	Column  string  `json:"column"`
	Address string  `json:"address"`
	Value   float64 `json:"value"`
	ZScore  float64 `json:"z_score"`
}

// outliers flags the column's extreme values by z-score, keeping the most
// extreme ones when the per-column cap is hit.
func (e *Engine) outliers(c column) []Outlier {
	nums := c.numbers()
	if len(nums) < 3 {
		return nil
	}
	mu := mean(nums)
	sigma := stdDev(nums, mu)
	if sigma == 0 {
		return nil
	}

	var flagged []Outlier
	for _, p := range c.points {
		z := (p.value - mu) / sigma
		if math.Abs(z) <= e.opts.OutlierThreshold {
			continue
		}
		flagged = append(flagged, Outlier{
			Column:  c.name,
			Address: sheet.Address{Row: p.row, Col: c.index}.Label(),
			Value:   p.value,
			ZScore:  z,
		})
	}

	if len(flagged) > e.opts.MaxOutliersPerColumn {
		ranked := make([]Outlier, len(flagged))
		copy(ranked, flagged)
		sort.SliceStable(ranked, func(i, j int) bool {
			return math.Abs(ranked[i].ZScore) > math.Abs(ranked[j].ZScore)
		})
		cutoff := math.Abs(ranked[e.opts.MaxOutliersPerColumn-1].ZScore)

		// Keep the most extreme values but report them in row order.
		kept := make([]Outlier, 0, e.opts.MaxOutliersPerColumn)
		for _, o := range flagged {
			if math.Abs(o.ZScore) >= cutoff && len(kept) < e.opts.MaxOutliersPerColumn {
				kept = append(kept, o)
			}
		}
		flagged = kept
	}
	return flagged
}
