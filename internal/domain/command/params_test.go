package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

func parse(raw string) *Input {
	return newInput(raw, sheet.CellCollection{})
}

func TestInputRanges(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"sum A1:A10", []string{"A1:A10"}},
		{"sum a1 : b10 today", []string{"A1:B10"}},
		{"copy A1:B2 into C5:D6", []string{"A1:B2", "C5:D6"}},
		{"nothing here", nil},
		{"lonely cell B2", nil},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, parse(tt.raw).ranges())
		})
	}
}

func TestInputFirstCellSkipsRanges(t *testing.T) {
	in := parse("copy A1:B10 to D5")

	cell, ok := in.firstCell()
	require.True(t, ok)
	assert.Equal(t, "D5", cell)

	target, ok := in.targetCell()
	require.True(t, ok)
	assert.Equal(t, "D5", target)
}

func TestInputNumbersIgnoreCellDigits(t *testing.T) {
	tests := []struct {
		raw  string
		want []float64
	}{
		{"sum A1:A10 and add 5", []float64{5}},
		{"pmt 0.5% over 12 for 1000", []float64{0.5, 12, 1000}},
		{"set B2 to -3.5", []float64{-3.5}},
		{"sum A1:A10", nil},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, parse(tt.raw).numbers())
		})
	}
}

func TestInputCondition(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"filter A1:B4 where > 10", ">10", true},
		{"filter A1:B4 where >= 5.5", ">=5.5", true},
		{"filter A1:B4 where <> 0", "<>0", true},
		{"filter A1:B4 where active", "active", true},
		{"filter A1:B4", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parse(tt.raw).condition()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInputQuoted(t *testing.T) {
	q, ok := parse(`find "Widget Pro" in A1:B10`).quoted()
	require.True(t, ok)
	assert.Equal(t, "Widget Pro", q, "raw casing survives")

	q, ok = parse("find 'gadget' now").quoted()
	require.True(t, ok)
	assert.Equal(t, "gadget", q)

	_, ok = parse("find gadget").quoted()
	assert.False(t, ok)
}

func TestInputFindQuery(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{`find "widget"`, "widget", true},
		{"find cells containing gadget", "gadget", true},
		{"search for blue widgets", "blue widgets", true},
		{"search widget in A1:B10", "widget", true},
		{"search", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parse(tt.raw).findQuery()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInputPivotParams(t *testing.T) {
	t.Run("single dimension with aggregation", func(t *testing.T) {
		in := parse("pivot by region sum amount")

		assert.Equal(t, []string{"region"}, in.pivotDimensions())
		fields, aggs := in.pivotValues()
		assert.Equal(t, []string{"amount"}, fields)
		assert.Equal(t, []string{"sum"}, aggs)
	})

	t.Run("two dimensions and avg normalizes", func(t *testing.T) {
		in := parse("pivot by region and quarter avg price")

		assert.Equal(t, []string{"region", "quarter"}, in.pivotDimensions())
		fields, aggs := in.pivotValues()
		assert.Equal(t, []string{"price"}, fields)
		assert.Equal(t, []string{"average"}, aggs)
	})

	t.Run("no dimensions", func(t *testing.T) {
		assert.Empty(t, parse("pivot everything").pivotDimensions())
	})
}

func TestInputColumnAndRowIndex(t *testing.T) {
	col, ok := parse("sort A1:B10 by column 2").columnIndex()
	require.True(t, ok)
	assert.Equal(t, 2, col)

	col, ok = parse("vlookup 5 in A1:C9 col #3").columnIndex()
	require.True(t, ok)
	assert.Equal(t, 3, col)

	row, ok := parse("hlookup 5 in A1:E2 row 2").rowIndex()
	require.True(t, ok)
	assert.Equal(t, 2, row)

	_, ok = parse("sort A1:B10").columnIndex()
	assert.False(t, ok)
}

func TestInputSetValue(t *testing.T) {
	t.Run("number", func(t *testing.T) {
		v, ok := parse("set A1 to 42").setValue()
		require.True(t, ok)
		assert.Equal(t, 42.0, v)
	})

	t.Run("quoted keeps casing", func(t *testing.T) {
		v, ok := parse(`set A1 to "Hello World"`).setValue()
		require.True(t, ok)
		assert.Equal(t, "Hello World", v)
	})

	t.Run("formula text", func(t *testing.T) {
		v, ok := parse("set A1 to =SUM(B1:B3)").setValue()
		require.True(t, ok)
		assert.Equal(t, "=SUM(B1:B3)", v)
	})

	t.Run("trailing words", func(t *testing.T) {
		v, ok := parse("set A1 to pending review").setValue()
		require.True(t, ok)
		assert.Equal(t, "pending review", v)
	})

	t.Run("nothing to set", func(t *testing.T) {
		_, ok := parse("set A1").setValue()
		assert.False(t, ok)
	})
}

func TestInputDatesAndPercent(t *testing.T) {
	in := parse("days between 2024-01-01 and 2024-03-15")
	assert.Equal(t, []string{"2024-01-01", "2024-03-15"}, in.isoDates())

	assert.True(t, parse("pmt 0.5% over 12").hasPercent())
	assert.False(t, parse("pmt 0.005 over 12").hasPercent())
}

func TestInputNormalization(t *testing.T) {
	in := newInput("  SUM   a1:A10\tNOW  ", sheet.CellCollection{})
	assert.Equal(t, "sum a1:a10 now", in.Normalized)
	assert.False(t, in.empty())
	assert.True(t, parse("   ").empty())
}
