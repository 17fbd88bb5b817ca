package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/analytics"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/pivot"
)

func TestFormulaCommand(t *testing.T) {
	i := newTestInterpreter()
	cells := grid([]any{10.0}, []any{20.0})

	t.Run("evaluates directly", func(t *testing.T) {
		resp := i.Interpret("=SUM(A1:A2)", cells)

		require.True(t, resp.Success, resp.Message)
		assert.Equal(t, "formula", resp.Action)
		assert.Equal(t, 30.0, resp.Data)
		assert.Equal(t, "=SUM(A1:A2)", resp.Formula)
	})

	t.Run("error sentinel fails the response", func(t *testing.T) {
		resp := i.Interpret("=1/0", cells)

		assert.False(t, resp.Success)
		assert.Contains(t, resp.Message, "#DIV/0!")
	})
}

func TestVlookupCommand(t *testing.T) {
	i := newTestInterpreter()

	t.Run("numeric key", func(t *testing.T) {
		resp := i.Interpret("vlookup 2 in A1:B3 column 2", lookupCells())

		require.True(t, resp.Success, resp.Message)
		assert.Equal(t, "=VLOOKUP(2,A1:B3,2,FALSE)", resp.Formula)
		assert.Equal(t, "b", resp.Data)
	})

	t.Run("quoted text key", func(t *testing.T) {
		cells := grid(
			[]any{"alpha", 10.0},
			[]any{"beta", 20.0},
		)
		resp := i.Interpret(`vlookup "beta" in A1:B2 column 2`, cells)

		require.True(t, resp.Success, resp.Message)
		assert.Equal(t, `=VLOOKUP("beta",A1:B2,2,FALSE)`, resp.Formula)
		assert.Equal(t, 20.0, resp.Data)
	})

	t.Run("column defaults to 2", func(t *testing.T) {
		resp := i.Interpret("vlookup 3 in A1:B3", lookupCells())

		require.True(t, resp.Success, resp.Message)
		assert.Equal(t, "c", resp.Data)
	})

	t.Run("miss surfaces the sentinel", func(t *testing.T) {
		resp := i.Interpret("vlookup 99 in A1:B3 column 2", lookupCells())

		assert.False(t, resp.Success)
		assert.Contains(t, resp.Message, "#N/A")
	})
}

func TestHlookupCommand(t *testing.T) {
	i := newTestInterpreter()
	cells := grid(
		[]any{"q1", "q2", "q3"},
		[]any{100.0, 200.0, 300.0},
	)

	resp := i.Interpret(`hlookup "q2" in A1:C2 row 2`, cells)

	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, `=HLOOKUP("q2",A1:C2,2,FALSE)`, resp.Formula)
	assert.Equal(t, 200.0, resp.Data)
}

func TestIndexMatchCommand(t *testing.T) {
	i := newTestInterpreter()
	cells := grid(
		[]any{"alpha", 10.0},
		[]any{"beta", 20.0},
		[]any{"gamma", 30.0},
	)

	resp := i.Interpret(`index match "gamma" in B1:B3 from A1:A3`, cells)

	require.True(t, resp.Success, resp.Message)
	assert.Equal(t, `=INDEX(B1:B3,MATCH("gamma",A1:A3,0))`, resp.Formula)
	assert.Equal(t, 30.0, resp.Data)
}

func TestPmtCommand(t *testing.T) {
	i := newTestInterpreter()

	t.Run("percent rate", func(t *testing.T) {
		resp := i.Interpret("pmt 1% over 12 periods for 1000", grid())

		require.True(t, resp.Success, resp.Message)
		assert.Equal(t, "=PMT(0.01,12,1000)", resp.Formula)
		payment, ok := resp.Data.(float64)
		require.True(t, ok)
		assert.InDelta(t, -88.8488, payment, 1e-3)
	})

	t.Run("missing numbers", func(t *testing.T) {
		resp := i.Interpret("pmt for my loan", grid())

		assert.False(t, resp.Success)
		assert.Contains(t, resp.Message, "rate")
	})
}

func TestDateDifCommand(t *testing.T) {
	i := newTestInterpreter()

	tests := []struct {
		command string
		want    float64
	}{
		{"days between 2024-01-01 and 2024-01-31", 30},
		{"months between 2024-01-15 and 2024-04-20", 3},
		{"years between 2020-06-01 and 2024-05-31", 3},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			resp := i.Interpret(tt.command, grid())

			require.True(t, resp.Success, resp.Message)
			assert.Equal(t, tt.want, resp.Data)
		})
	}

	t.Run("one date is not enough", func(t *testing.T) {
		resp := i.Interpret("days between 2024-01-01 and tomorrow", grid())

		assert.False(t, resp.Success)
		assert.Contains(t, resp.Message, "yyyy-mm-dd")
	})
}

func TestAggregateCommands(t *testing.T) {
	i := newTestInterpreter()
	cells := grid(
		[]any{10.0},
		[]any{"note"},
		[]any{20.0},
		[]any{30.0},
	)

	tests := []struct {
		command string
		action  string
		want    float64
	}{
		{"sum A1:A4", "sum", 60},
		{"total up A1:A4 please", "sum", 60},
		{"average A1:A4", "average", 20},
		{"count A1:A4", "count", 3},
		{"min A1:A4", "min", 10},
		{"max A1:A4", "max", 30},
		{"median A1:A4", "median", 20},
	}
	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			resp := i.Interpret(tt.command, cells)

			require.True(t, resp.Success, resp.Message)
			assert.Equal(t, tt.action, resp.Action)
			assert.Equal(t, tt.want, resp.Data)
		})
	}
}

func TestAggregateWithCondition(t *testing.T) {
	i := newTestInterpreter()
	cells := grid(
		[]any{5.0},
		[]any{15.0},
		[]any{25.0},
		[]any{10.0},
		[]any{30.0},
	)

	t.Run("sum where", func(t *testing.T) {
		resp := i.Interpret("sum A1:A5 where > 10", cells)

		require.True(t, resp.Success, resp.Message)
		assert.Equal(t, `=SUMIF(A1:A5,">10")`, resp.Formula)
		assert.Equal(t, 70.0, resp.Data)
	})

	t.Run("count where", func(t *testing.T) {
		resp := i.Interpret("count A1:A5 where >= 15", cells)

		require.True(t, resp.Success, resp.Message)
		assert.Equal(t, 3.0, resp.Data)
	})

	t.Run("min ignores conditions", func(t *testing.T) {
		resp := i.Interpret("min A1:A5 where > 10", cells)

		require.True(t, resp.Success, resp.Message)
		assert.Equal(t, "=MIN(A1:A5)", resp.Formula)
		assert.Equal(t, 5.0, resp.Data)
	})
}

func TestPivotCommand(t *testing.T) {
	i := newTestInterpreter()
	cells := grid(
		[]any{"region", "amount"},
		[]any{"north", 10.0},
		[]any{"south", 5.0},
		[]any{"north", 20.0},
	)

	t.Run("sum by dimension", func(t *testing.T) {
		resp := i.Interpret("pivot by region sum amount", cells)

		require.True(t, resp.Success, resp.Message)
		result, ok := resp.Data.(pivot.Result)
		require.True(t, ok)
		assert.Equal(t, []string{"region", "amount_sum"}, result.Fields)
		require.Len(t, result.Rows, 2)
		assert.Equal(t, 30.0, result.Rows[0]["amount_sum"])
	})

	t.Run("unknown field is actionable", func(t *testing.T) {
		resp := i.Interpret("pivot by territory sum amount", cells)

		assert.False(t, resp.Success)
		assert.Contains(t, resp.Message, "territory")
		assert.Contains(t, resp.Message, "region")
	})
}

func TestChartCommand(t *testing.T) {
	i := newTestInterpreter()

	t.Run("kind and range", func(t *testing.T) {
		resp := i.Interpret("pie chart of A1:B5", grid())

		require.True(t, resp.Success, resp.Message)
		spec, ok := resp.Data.(ChartSpec)
		require.True(t, ok)
		assert.Equal(t, "pie", spec.Type)
		assert.Equal(t, "A1:B5", spec.Range)
	})

	t.Run("defaults to bar with quoted title", func(t *testing.T) {
		resp := i.Interpret(`chart A1:B10 "Quarterly Sales"`, grid())

		require.True(t, resp.Success, resp.Message)
		spec := resp.Data.(ChartSpec)
		assert.Equal(t, "bar", spec.Type)
		assert.Equal(t, "Quarterly Sales", spec.Title)
	})

	t.Run("range required", func(t *testing.T) {
		resp := i.Interpret("draw me a chart", grid())

		assert.False(t, resp.Success)
		assert.Contains(t, resp.Message, "data range")
	})
}

func TestAnalyzeCommand(t *testing.T) {
	i := newTestInterpreter()
	cells := grid(
		[]any{"label", "value"},
		[]any{"a", 1.0},
		[]any{"b", 2.0},
		[]any{"c", 3.0},
	)

	t.Run("whole sheet", func(t *testing.T) {
		resp := i.Interpret("analyze the data", cells)

		require.True(t, resp.Success, resp.Message)
		report, ok := resp.Data.(analytics.Report)
		require.True(t, ok)
		assert.Equal(t, 3, report.Rows)
		assert.Equal(t, 1, report.NumericColumns)
	})

	t.Run("restricted to a range", func(t *testing.T) {
		polluted := cells.Clone()
		polluted["D9"] = cells["A2"]
		resp := i.Interpret("analyze B1:B4", polluted)

		require.True(t, resp.Success, resp.Message)
		report := resp.Data.(analytics.Report)
		assert.Equal(t, 3, report.Rows)
		assert.Equal(t, 1, report.NumericColumns)
		assert.Equal(t, 0, report.TextColumns)
	})

	t.Run("empty sheet fails", func(t *testing.T) {
		resp := i.Interpret("analyze everything", grid())

		assert.False(t, resp.Success)
		assert.Contains(t, resp.Message, "nothing to analyze")
	})
}

func TestFindCommand(t *testing.T) {
	i := newTestInterpreter()
	cells := grid(
		[]any{"Widget A", 10.0},
		[]any{"Gadget B", 20.0},
		[]any{"widget pro", 30.0},
	)

	t.Run("quoted query scans case-insensitively", func(t *testing.T) {
		resp := i.Interpret(`find "widget"`, cells)

		require.True(t, resp.Success, resp.Message)
		matches, ok := resp.Data.([]Match)
		require.True(t, ok)
		require.Len(t, matches, 2)
		assert.Equal(t, "A1", matches[0].Address)
		assert.Equal(t, "A3", matches[1].Address)
	})

	t.Run("containing phrasing", func(t *testing.T) {
		resp := i.Interpret("find cells containing gadget", cells)

		require.True(t, resp.Success, resp.Message)
		matches := resp.Data.([]Match)
		require.Len(t, matches, 1)
		assert.Equal(t, "A2", matches[0].Address)
	})

	t.Run("no hits is still a success", func(t *testing.T) {
		resp := i.Interpret(`find "sprocket"`, cells)

		require.True(t, resp.Success)
		assert.Contains(t, resp.Message, "no cells matching")
	})

	t.Run("query required", func(t *testing.T) {
		resp := i.Interpret("search", cells)

		assert.False(t, resp.Success)
		assert.Contains(t, resp.Message, "text to search")
	})
}
