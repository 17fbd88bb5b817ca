package analytics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// grid builds a collection from dense rows; nil entries stay empty.
func grid(rows ...[]any) sheet.CellCollection {
	cells := sheet.CellCollection{}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cells[sheet.Address{Row: r + 1, Col: c + 1}.Label()] = sheet.NewCell(v)
		}
	}
	return cells
}

func columnOf(values ...any) sheet.CellCollection {
	cells := sheet.CellCollection{}
	for i, v := range values {
		if v == nil {
			continue
		}
		cells[sheet.Address{Row: i + 1, Col: 1}.Label()] = sheet.NewCell(v)
	}
	return cells
}

func defaultEngine() *Engine {
	return NewEngine(DefaultOptions(), nil)
}

func TestAnalyzeClassifiesColumns(t *testing.T) {
	cells := grid(
		[]any{"name", "amount"},
		[]any{"alpha", 10.0},
		[]any{"beta", 20.0},
		[]any{"gamma", 30.0},
	)

	report := defaultEngine().Analyze(cells)

	require.Len(t, report.Columns, 2)
	assert.Equal(t, 3, report.Rows)
	assert.Equal(t, 1, report.NumericColumns)
	assert.Equal(t, 1, report.TextColumns)

	name := report.Columns[0]
	assert.Equal(t, "name", name.Name)
	assert.Equal(t, "A", name.Letter)
	assert.Equal(t, "text", name.Kind)
	assert.Equal(t, 3, name.Distinct)
	assert.Nil(t, name.Stats)

	amount := report.Columns[1]
	assert.Equal(t, "amount", amount.Name)
	assert.Equal(t, "numeric", amount.Kind)
	require.NotNil(t, amount.Stats)
	assert.InDelta(t, 20.0, amount.Stats.Mean, 1e-9)
	assert.InDelta(t, 60.0, amount.Stats.Sum, 1e-9)
	assert.InDelta(t, 10.0, amount.Stats.Min, 1e-9)
	assert.InDelta(t, 30.0, amount.Stats.Max, 1e-9)
	assert.InDelta(t, 20.0, amount.Stats.Median, 1e-9)
}

func TestAnalyzeNumericShareThreshold(t *testing.T) {
	t.Run("sixty percent numeric stays textual", func(t *testing.T) {
		cells := columnOf(1.0, 2.0, 3.0, "x", "y")
		report := defaultEngine().Analyze(cells)
		require.Len(t, report.Columns, 1)
		assert.Equal(t, "text", report.Columns[0].Kind)
		assert.InDelta(t, 0.6, report.Columns[0].NumericShare, 1e-9)
	})
	t.Run("seventy percent numeric qualifies", func(t *testing.T) {
		cells := columnOf(1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0, "x", "y", "z")
		report := defaultEngine().Analyze(cells)
		require.Len(t, report.Columns, 1)
		assert.Equal(t, "numeric", report.Columns[0].Kind)
	})
	t.Run("numeric text counts as numeric", func(t *testing.T) {
		cells := columnOf("10", "20", "30")
		report := defaultEngine().Analyze(cells)
		require.Len(t, report.Columns, 1)
		assert.Equal(t, "numeric", report.Columns[0].Kind)
	})
}

func TestAnalyzeHeaderDetection(t *testing.T) {
	t.Run("numeric first row is data", func(t *testing.T) {
		report := defaultEngine().Analyze(columnOf(1.0, 2.0, 3.0, 4.0, 5.0))
		require.Len(t, report.Columns, 1)
		assert.Equal(t, "A", report.Columns[0].Name)
		assert.Equal(t, 5, report.Columns[0].Count)
	})
	t.Run("textual first row becomes the header", func(t *testing.T) {
		report := defaultEngine().Analyze(columnOf("score", 1.0, 2.0, 3.0))
		require.Len(t, report.Columns, 1)
		assert.Equal(t, "score", report.Columns[0].Name)
		assert.Equal(t, 3, report.Columns[0].Count)
		assert.Equal(t, "numeric", report.Columns[0].Kind)
	})
	t.Run("lone text row is data not header", func(t *testing.T) {
		report := defaultEngine().Analyze(columnOf("only"))
		require.Len(t, report.Columns, 1)
		assert.Equal(t, "A", report.Columns[0].Name)
		assert.Equal(t, 1, report.Columns[0].Count)
	})
}

func TestAnalyzeMissingValues(t *testing.T) {
	cells := columnOf(10.0, nil, 30.0, nil, 50.0)
	report := defaultEngine().Analyze(cells)

	require.Len(t, report.Columns, 1)
	assert.Equal(t, 3, report.Columns[0].Count)
	assert.Equal(t, 2, report.Columns[0].Missing)
}

func TestAnalyzeEmptyCollection(t *testing.T) {
	report := defaultEngine().Analyze(sheet.CellCollection{})
	assert.Zero(t, report.Rows)
	assert.Empty(t, report.Columns)
	assert.Nil(t, report.Correlation)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	cells := grid(
		[]any{"region", "amount", "count"},
		[]any{"north", 10.0, 1.0},
		[]any{"south", 25.0, 2.0},
		[]any{"north", 40.0, 3.0},
		[]any{"west", 5.0, 4.0},
	)
	engine := defaultEngine()

	first := engine.Analyze(cells)
	second := engine.Analyze(cells)

	require.Equal(t, first, second)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{}.withDefaults()
	assert.Equal(t, DefaultNumericShare, opts.NumericShare)
	assert.Equal(t, DefaultOutlierThreshold, opts.OutlierThreshold)
	assert.Equal(t, DefaultHistogramBuckets, opts.HistogramBuckets)

	custom := Options{OutlierThreshold: 3.5, HistogramBuckets: 4}.withDefaults()
	assert.Equal(t, 3.5, custom.OutlierThreshold)
	assert.Equal(t, 4, custom.HistogramBuckets)
	assert.Equal(t, DefaultTrendEpsilon, custom.TrendEpsilon)
}

func BenchmarkAnalyze(b *testing.B) {
	cells := sheet.CellCollection{}
	for row := 1; row <= 500; row++ {
		cells[sheet.Address{Row: row, Col: 1}.Label()] = sheet.NewCell(float64(row))
		cells[sheet.Address{Row: row, Col: 2}.Label()] = sheet.NewCell(float64(row % 17))
		cells[sheet.Address{Row: row, Col: 3}.Label()] = sheet.NewCell("label")
	}
	engine := defaultEngine()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		engine.Analyze(cells)
	}
}
