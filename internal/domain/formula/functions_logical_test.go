package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIf(t *testing.T) {
	cells := newCells(map[string]any{"A1": 85.0})

	assert.Equal(t, "pass", evalIn(t, cells, `=IF(A1>=50,"pass","fail")`))
	assert.Equal(t, "fail", evalIn(t, cells, `=IF(A1>=90,"pass","fail")`))
	assert.Equal(t, false, evalIn(t, cells, "=IF(A1>100,1)"))

	t.Run("untaken branch is not evaluated", func(t *testing.T) {
		assert.Equal(t, 1.0, evalIn(t, cells, "=IF(TRUE,1,1/0)"))
		assert.Equal(t, 2.0, evalIn(t, cells, "=IF(FALSE,1/0,2)"))
	})
}

func TestIfsGrading(t *testing.T) {
	grade := func(score float64) any {
		cells := newCells(map[string]any{"A1": score})
		return evalIn(t, cells, `=IFS(A1>=90,"A",A1>=80,"B",TRUE,"F")`)
	}

	assert.Equal(t, "A", grade(95))
	assert.Equal(t, "B", grade(85))
	assert.Equal(t, "F", grade(70))
}

func TestIfsEdgeCases(t *testing.T) {
	cells := newCells(map[string]any{"A1": 10.0})

	t.Run("no matching condition", func(t *testing.T) {
		assert.Equal(t, "#N/A", errorLabel(t, evalIn(t, cells, `=IFS(A1>100,"big")`)))
	})
	t.Run("odd argument count", func(t *testing.T) {
		assert.Equal(t, "#ERROR!", errorLabel(t, evalIn(t, cells, `=IFS(A1>5,"yes","dangling")`)))
	})
	t.Run("later conditions are not evaluated after a match", func(t *testing.T) {
		assert.Equal(t, "first", evalIn(t, cells, `=IFS(TRUE,"first",1/0,"second")`))
	})
}

func TestAndOrNot(t *testing.T) {
	cells := newCells(map[string]any{"A1": 10.0, "A2": 0.0})

	tests := []struct {
		expr string
		want bool
	}{
		{"=AND(TRUE,TRUE)", true},
		{"=AND(TRUE,FALSE)", false},
		{"=AND(A1>5,A1<20)", true},
		{"=OR(FALSE,FALSE)", false},
		{"=OR(FALSE,A1=10)", true},
		{"=NOT(TRUE)", false},
		{"=NOT(A2)", true},
	}
	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			assert.Equal(t, tc.want, evalIn(t, cells, tc.expr))
		})
	}
}
