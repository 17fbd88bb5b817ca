// Package analytics derives statistical summaries from a cell collection:
// per-column descriptives, least-squares trends with a short forecast,
// a Pearson correlation matrix, z-score outliers and histograms. Analysis
// is a pure function of the input snapshot, so re-running it on unchanged
// cells produces an identical report.
package analytics

import (
	"log/slog"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// Tunable thresholds. These mirror long-standing spreadsheet heuristics and
// are overridable through Options rather than baked into the algorithms.
const (
	DefaultNumericShare         = 0.70
	DefaultTrendEpsilon         = 0.01
	DefaultTrendConfidence      = 0.5
	DefaultOutlierThreshold     = 1.96
	DefaultMaxOutliersPerColumn = 25
	DefaultHistogramBuckets     = 10
	DefaultForecastPoints       = 5
)

// Options control classification thresholds and output sizes.
type Options struct {
	// NumericShare is the fraction of non-empty values that must parse as
	// numbers for a column to be analyzed as numeric.
	NumericShare float64
	// TrendEpsilon is the slope magnitude below which a trend is "stable".
	TrendEpsilon float64
	// TrendConfidence is the minimum R-squared for a directional label.
	TrendConfidence float64
	// OutlierThreshold is the absolute z-score above which a value is
	// flagged.
	OutlierThreshold float64
	// MaxOutliersPerColumn bounds the flagged values reported per column.
	MaxOutliersPerColumn int
	// HistogramBuckets is the number of buckets per distribution.
	HistogramBuckets int
	// ForecastPoints is the number of future points projected per trend.
	ForecastPoints int
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		NumericShare:         DefaultNumericShare,
		TrendEpsilon:         DefaultTrendEpsilon,
		TrendConfidence:      DefaultTrendConfidence,
		OutlierThreshold:     DefaultOutlierThreshold,
		MaxOutliersPerColumn: DefaultMaxOutliersPerColumn,
		HistogramBuckets:     DefaultHistogramBuckets,
		ForecastPoints:       DefaultForecastPoints,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.NumericShare <= 0 || o.NumericShare > 1 {
		o.NumericShare = d.NumericShare
	}
	if o.TrendEpsilon <= 0 {
		o.TrendEpsilon = d.TrendEpsilon
	}
	if o.TrendConfidence <= 0 {
		o.TrendConfidence = d.TrendConfidence
	}
	if o.OutlierThreshold <= 0 {
		o.OutlierThreshold = d.OutlierThreshold
	}
	if o.MaxOutliersPerColumn <= 0 {
		o.MaxOutliersPerColumn = d.MaxOutliersPerColumn
	}
	if o.HistogramBuckets <= 0 {
		o.HistogramBuckets = d.HistogramBuckets
	}
	if o.ForecastPoints <= 0 {
		o.ForecastPoints = d.ForecastPoints
	}
	return o
}

// Engine runs the analysis passes over a cell snapshot.
type Engine struct {
	opts   Options
	logger *slog.Logger
}

// NewEngine creates an engine, filling unset options with defaults.
func NewEngine(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{opts: opts.withDefaults(), logger: logger}
}

// Report is the full analysis output.
type Report struct {
	Rows           int                `json:"rows"`
	NumericColumns int                `json:"numeric_columns"`
	TextColumns    int                `json:"text_columns"`
	Columns        []ColumnSummary    `json:"columns"`
	Trends         []Trend            `json:"trends,omitempty"`
	Correlation    *CorrelationMatrix `json:"correlation,omitempty"`
	Outliers       []Outlier          `json:"outliers,omitempty"`
	Histograms     []Histogram        `json:"histograms,omitempty"`
}

// ColumnSummary describes one column of the grid.
type ColumnSummary struct {
	Name         string        `json:"name"`
	Letter       string        `json:"letter"`
	Kind         string        `json:"kind"`
	Count        int           `json:"count"`
	Missing      int           `json:"missing"`
	NumericShare float64       `json:"numeric_share"`
	Distinct     int           `json:"distinct,omitempty"`
	Stats        *NumericStats `json:"stats,omitempty"`
}

// NumericStats are the descriptive statistics of a numeric column.
type NumericStats struct {
	Sum    float64 `json:"sum"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// Analyze runs every pass and assembles the report. Column order follows
// sheet column order, which keeps output deterministic.
func (e *Engine) Analyze(cells sheet.CellCollection) Report {
	cols := extractColumns(cells, e.opts.NumericShare)

	report := Report{Columns: make([]ColumnSummary, 0, len(cols))}
	var numeric []column
	for _, c := range cols {
		if c.dataRows > report.Rows {
			report.Rows = c.dataRows
		}
		report.Columns = append(report.Columns, summarize(c))
		if c.isNumeric {
			numeric = append(numeric, c)
			report.NumericColumns++
		} else {
			report.TextColumns++
		}
	}

	for _, c := range numeric {
		report.Trends = append(report.Trends, e.trend(c))
		report.Histograms = append(report.Histograms, e.histogram(c))
		report.Outliers = append(report.Outliers, e.outliers(c)...)
	}
	if len(numeric) >= 2 {
		report.Correlation = e.correlate(numeric)
	}

	e.logger.Debug("analysis complete",
		slog.Int("rows", report.Rows),
		slog.Int("numeric_columns", report.NumericColumns),
		slog.Int("text_columns", report.TextColumns),
		slog.Int("outliers", len(report.Outliers)),
	)
	return report
}

func summarize(c column) ColumnSummary {
	s := ColumnSummary{
		Name:         c.name,
		Letter:       c.letter,
		Kind:         "text",
		Count:        len(c.samples),
		Missing:      c.dataRows - len(c.samples),
		NumericShare: c.share,
	}
	if c.isNumeric {
		s.Kind = "numeric"
		s.Stats = describe(c.numbers())
		return s
	}
	distinct := map[string]struct{}{}
	for _, v := range c.samples {
		distinct[displayString(v.value)] = struct{}{}
	}
	s.Distinct = len(distinct)
	return s
}

// describe computes descriptive statistics with the population standard
// deviation, matching the z-score definition used by outlier detection.
func describe(nums []float64) *NumericStats {
	if len(nums) == 0 {
		return nil
	}
	stats := &NumericStats{Min: nums[0], Max: nums[0]}
	for _, n := range nums {
		stats.Sum += n
		if n < stats.Min {
			stats.Min = n
		}
		if n > stats.Max {
			stats.Max = n
		}
	}
	stats.Mean = stats.Sum / float64(len(nums))
	stats.StdDev = stdDev(nums, stats.Mean)
	stats.Median = median(nums)
	return stats
}
