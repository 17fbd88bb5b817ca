package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func lookupTable() map[string]any {
	return map[string]any{
		"A1": 1.0, "B1": "a",
		"A2": 2.0, "B2": "b",
		"A3": 3.0, "B3": "c",
	}
}

func TestVlookupExact(t *testing.T) {
	cells := newCells(lookupTable())

	t.Run("finds the matching row", func(t *testing.T) {
		assert.Equal(t, "b", evalIn(t, cells, "=VLOOKUP(2,A1:B3,2,FALSE)"))
	})
	t.Run("missing key yields NA", func(t *testing.T) {
		assert.Equal(t, "#N/A", errorLabel(t, evalIn(t, cells, "=VLOOKUP(9,A1:B3,2,FALSE)")))
	})
	t.Run("text keys compare case-insensitively", func(t *testing.T) {
		cells := newCells(map[string]any{
			"A1": "Widget", "B1": 10.0,
			"A2": "Gadget", "B2": 20.0,
		})
		assert.Equal(t, 20.0, evalIn(t, cells, `=VLOOKUP("gadget",A1:B2,2,FALSE)`))
	})
}

func TestVlookupApproximate(t *testing.T) {
	cells := newCells(lookupTable())

	// The scan is linear and top-down: the first key at or above the
	// lookup value wins, whether or not the column is sorted.
	t.Run("exact key still matches first", func(t *testing.T) {
		assert.Equal(t, "b", evalIn(t, cells, "=VLOOKUP(2,A1:B3,2)"))
	})
	t.Run("first key at or above wins", func(t *testing.T) {
		assert.Equal(t, "c", evalIn(t, cells, "=VLOOKUP(2.5,A1:B3,2)"))
	})
	t.Run("everything above the largest key yields NA", func(t *testing.T) {
		assert.Equal(t, "#N/A", errorLabel(t, evalIn(t, cells, "=VLOOKUP(99,A1:B3,2)")))
	})
	t.Run("unsorted column is scanned in range order", func(t *testing.T) {
		cells := newCells(map[string]any{
			"A1": 30.0, "B1": "high",
			"A2": 10.0, "B2": "low",
			"A3": 20.0, "B3": "mid",
		})
		assert.Equal(t, "high", evalIn(t, cells, "=VLOOKUP(15,A1:B3,2)"))
	})
}

func TestVlookupColumnIndexBounds(t *testing.T) {
	cells := newCells(lookupTable())

	assert.Equal(t, "#REF!", errorLabel(t, evalIn(t, cells, "=VLOOKUP(2,A1:B3,3,FALSE)")))
	assert.Equal(t, "#ERROR!", errorLabel(t, evalIn(t, cells, "=VLOOKUP(2,A1:B3,0,FALSE)")))
}

func TestHlookup(t *testing.T) {
	cells := newCells(map[string]any{
		"A1": 1.0, "B1": 2.0, "C1": 3.0,
		"A2": "x", "B2": "y", "C2": "z",
	})

	assert.Equal(t, "y", evalIn(t, cells, "=HLOOKUP(2,A1:C2,2,FALSE)"))
	assert.Equal(t, "#N/A", errorLabel(t, evalIn(t, cells, "=HLOOKUP(9,A1:C2,2,FALSE)")))
	assert.Equal(t, "#REF!", errorLabel(t, evalIn(t, cells, "=HLOOKUP(2,A1:C2,5,FALSE)")))
}

func TestIndex(t *testing.T) {
	cells := newCells(lookupTable())

	t.Run("row and column offsets", func(t *testing.T) {
		assert.Equal(t, "b", evalIn(t, cells, "=INDEX(A1:B3,2,2)"))
		assert.Equal(t, 3.0, evalIn(t, cells, "=INDEX(A1:B3,3,1)"))
	})
	t.Run("single row treats the position as a column", func(t *testing.T) {
		cells := newCells(map[string]any{"A1": 10.0, "B1": 20.0, "C1": 30.0})
		assert.Equal(t, 20.0, evalIn(t, cells, "=INDEX(A1:C1,2)"))
	})
	t.Run("out of bounds", func(t *testing.T) {
		assert.Equal(t, "#REF!", errorLabel(t, evalIn(t, cells, "=INDEX(A1:B3,4,1)")))
		assert.Equal(t, "#REF!", errorLabel(t, evalIn(t, cells, "=INDEX(A1:B3,1,3)")))
	})
}

func TestMatch(t *testing.T) {
	cells := newCells(lookupTable())

	t.Run("exact position", func(t *testing.T) {
		assert.Equal(t, 3.0, evalIn(t, cells, "=MATCH(3,A1:A3,0)"))
	})
	t.Run("no match yields NA", func(t *testing.T) {
		assert.Equal(t, "#N/A", errorLabel(t, evalIn(t, cells, "=MATCH(9,A1:A3,0)")))
	})
	t.Run("descending mode unsupported", func(t *testing.T) {
		assert.Equal(t, "#ERROR!", errorLabel(t, evalIn(t, cells, "=MATCH(2,A1:A3,-1)")))
	})
	t.Run("index match composition", func(t *testing.T) {
		assert.Equal(t, "b", evalIn(t, cells, "=INDEX(B1:B3,MATCH(2,A1:A3,0))"))
	})
}
