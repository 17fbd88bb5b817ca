package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatesSkipNonNumericValues(t *testing.T) {
	cells := newCells(map[string]any{"A1": 10.0, "A2": "x", "A3": 20.0})

	t.Run("sum treats text as zero contribution", func(t *testing.T) {
		assert.Equal(t, 30.0, evalIn(t, cells, "=SUM(A1:A3)"))
	})
	t.Run("average drops text from the denominator", func(t *testing.T) {
		assert.Equal(t, 15.0, evalIn(t, cells, "=AVERAGE(A1:A3)"))
	})
	t.Run("count sees only numbers", func(t *testing.T) {
		assert.Equal(t, 2.0, evalIn(t, cells, "=COUNT(A1:A3)"))
	})
	t.Run("counta sees every populated cell", func(t *testing.T) {
		assert.Equal(t, 3.0, evalIn(t, cells, "=COUNTA(A1:A3)"))
		assert.Equal(t, 3.0, evalIn(t, cells, "=COUNTA(A1:A10)"))
	})
	t.Run("min and max ignore text", func(t *testing.T) {
		assert.Equal(t, 10.0, evalIn(t, cells, "=MIN(A1:A3)"))
		assert.Equal(t, 20.0, evalIn(t, cells, "=MAX(A1:A3)"))
	})
}

func TestMedian(t *testing.T) {
	cells := newCells(map[string]any{
		"A1": 7.0, "A2": 1.0, "A3": 9.0, "A4": 3.0, "A5": 5.0,
	})

	assert.Equal(t, 5.0, evalIn(t, cells, "=MEDIAN(A1:A5)"))
	assert.Equal(t, 4.0, evalIn(t, cells, "=MEDIAN(A1:A4)"))
	assert.Equal(t, "#ERROR!", errorLabel(t, evalIn(t, cells, "=MEDIAN(B1:B3)")))
}

func TestSumAcceptsMixedArguments(t *testing.T) {
	cells := newCells(map[string]any{"A1": 1.0, "A2": 2.0, "B1": 10.0})
	assert.Equal(t, 18.0, evalIn(t, cells, "=SUM(A1:A2,B1,5)"))
}

func TestAverageWithoutNumbersIsDivisionError(t *testing.T) {
	cells := newCells(map[string]any{"A1": "only", "A2": "text"})
	assert.Equal(t, "#DIV/0!", errorLabel(t, evalIn(t, cells, "=AVERAGE(A1:A2)")))
}

func TestMinMaxWithoutNumbersIsZero(t *testing.T) {
	cells := newCells(map[string]any{"A1": "text"})
	assert.Equal(t, 0.0, evalIn(t, cells, "=MIN(A1:A3)"))
	assert.Equal(t, 0.0, evalIn(t, cells, "=MAX(A1:A3)"))
}

func TestSumIf(t *testing.T) {
	cells := newCells(map[string]any{
		"A1": 10.0, "A2": 25.0, "A3": 8.0, "A4": 40.0,
		"B1": 1.0, "B2": 2.0, "B3": 3.0, "B4": 4.0,
	})

	t.Run("criteria range is the sum range by default", func(t *testing.T) {
		assert.Equal(t, 65.0, evalIn(t, cells, `=SUMIF(A1:A4,">10")`))
	})
	t.Run("separate sum range pairs by position", func(t *testing.T) {
		assert.Equal(t, 6.0, evalIn(t, cells, `=SUMIF(A1:A4,">10",B1:B4)`))
	})
	t.Run("numeric criterion is equality", func(t *testing.T) {
		assert.Equal(t, 25.0, evalIn(t, cells, "=SUMIF(A1:A4,25)"))
	})
	t.Run("no match sums to zero", func(t *testing.T) {
		assert.Equal(t, 0.0, evalIn(t, cells, `=SUMIF(A1:A4,">1000")`))
	})
}

func TestCountIf(t *testing.T) {
	cells := newCells(map[string]any{
		"A1": "apple", "A2": "apricot", "A3": "banana", "A4": 42.0,
	})

	tests := []struct {
		name string
		expr string
		want float64
	}{
		{"wildcard prefix", `=COUNTIF(A1:A4,"ap*")`, 2},
		{"wildcard is anchored", `=COUNTIF(A1:A4,"an*")`, 0},
		{"single char wildcard", `=COUNTIF(A1:A4,"a?ple")`, 1},
		{"case insensitive text", `=COUNTIF(A1:A4,"APPLE")`, 1},
		{"numeric equality", "=COUNTIF(A1:A4,42)", 1},
		{"not blank", `=COUNTIF(A1:A6,"<>")`, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, evalIn(t, cells, tc.expr))
		})
	}
}

func TestAverageIf(t *testing.T) {
	cells := newCells(map[string]any{
		"A1": "east", "A2": "west", "A3": "east",
		"B1": 10.0, "B2": 99.0, "B3": 20.0,
	})

	assert.Equal(t, 15.0, evalIn(t, cells, `=AVERAGEIF(A1:A3,"east",B1:B3)`))
	assert.Equal(t, "#DIV/0!", errorLabel(t, evalIn(t, cells, `=AVERAGEIF(A1:A3,"north",B1:B3)`)))
}

func TestRoundFamily(t *testing.T) {
	cells := newCells(map[string]any{"A1": 2.345})

	tests := []struct {
		expr string
		want float64
	}{
		{"=ROUND(2.345,2)", 2.35},
		{"=ROUND(2.4)", 2},
		{"=ROUND(2.5)", 3},
		{"=ROUND(-2.5)", -3},
		{"=ROUND(1234.567,-2)", 1200},
		{"=ROUND(A1,1)", 2.3},
		{"=ROUNDUP(2.1)", 3},
		{"=ROUNDUP(-2.1)", -3},
		{"=ROUNDUP(2.344,2)", 2.35},
		{"=ROUNDDOWN(2.9)", 2},
		{"=ROUNDDOWN(-2.9)", -2},
		{"=ROUNDDOWN(2.399,2)", 2.39},
	}
	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			assert.InDelta(t, tc.want, evalIn(t, cells, tc.expr), 1e-9)
		})
	}

	t.Run("non-numeric value rejected", func(t *testing.T) {
		assert.Equal(t, "#ERROR!", errorLabel(t, evalIn(t, cells, `=ROUND("abc",2)`)))
	})
}

func TestPmt(t *testing.T) {
	cells := newCells(map[string]any{})

	t.Run("zero rate splits evenly", func(t *testing.T) {
		assert.InDelta(t, -100.0, evalIn(t, cells, "=PMT(0,12,1200)"), 1e-9)
	})
	t.Run("standard amortization", func(t *testing.T) {
		got := evalIn(t, cells, "=PMT(0.01,12,1000)")
		assert.InDelta(t, -88.8488, got, 1e-3)
	})
	t.Run("positive principal gives negative payment", func(t *testing.T) {
		got, ok := evalIn(t, cells, "=PMT(0.005,360,200000)").(float64)
		require.True(t, ok)
		assert.Less(t, got, 0.0)
	})
	t.Run("zero periods rejected", func(t *testing.T) {
		assert.Equal(t, "#ERROR!", errorLabel(t, evalIn(t, cells, "=PMT(0.01,0,1000)")))
	})
}

func TestModFollowsDivisorSign(t *testing.T) {
	cells := newCells(map[string]any{})

	assert.InDelta(t, 1.0, evalIn(t, cells, "=MOD(10,3)"), 1e-9)
	assert.InDelta(t, 2.0, evalIn(t, cells, "=MOD(-10,3)"), 1e-9)
	assert.InDelta(t, -2.0, evalIn(t, cells, "=MOD(10,-3)"), 1e-9)
	assert.Equal(t, "#DIV/0!", errorLabel(t, evalIn(t, cells, "=MOD(1,0)")))
}

func TestProductAbsSqrtPower(t *testing.T) {
	cells := newCells(map[string]any{"A1": 2.0, "A2": 3.0, "A3": 4.0})

	assert.InDelta(t, 24.0, evalIn(t, cells, "=PRODUCT(A1:A3)"), 1e-9)
	assert.InDelta(t, 5.0, evalIn(t, cells, "=ABS(-5)"), 1e-9)
	assert.InDelta(t, 3.0, evalIn(t, cells, "=SQRT(9)"), 1e-9)
	assert.Equal(t, "#ERROR!", errorLabel(t, evalIn(t, cells, "=SQRT(-1)")))
	assert.InDelta(t, 1024.0, evalIn(t, cells, "=POWER(2,10)"), 1e-9)
	assert.InDelta(t, 3.0, evalIn(t, cells, "=POWER(27,1/3)"), 1e-6)
}
