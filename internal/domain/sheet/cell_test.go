package sheet

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCellKindInference(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  Kind
	}{
		{"nil is empty", nil, KindEmpty},
		{"float is number", 42.5, KindNumber},
		{"numeric string is number", "17", KindNumber},
		{"text string is text", "hello", KindText},
		{"blank string is empty", "   ", KindEmpty},
		{"bool is boolean", true, KindBoolean},
		{"time is date", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), KindDate},
		{"sentinel is error", NAError(""), KindError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NewCell(tc.value).Kind)
		})
	}
}

func TestCellIsEmpty(t *testing.T) {
	assert.True(t, Cell{}.IsEmpty())
	assert.True(t, NewCell("  ").IsEmpty())
	assert.False(t, NewCell(0.0).IsEmpty())
	assert.False(t, NewCell("x").IsEmpty())
}

func TestCollectionAccessors(t *testing.T) {
	cc := CellCollection{
		"A1": NewCell(10.0),
		"B2": NewCell("label"),
	}

	t.Run("get by label and address", func(t *testing.T) {
		c, ok := cc.Get("A1")
		require.True(t, ok)
		assert.Equal(t, 10.0, c.Value)

		v := cc.Value(Address{Row: 2, Col: 2})
		assert.Equal(t, "label", v)

		assert.Nil(t, cc.Value(Address{Row: 9, Col: 9}))
	})

	t.Run("bounds cover the populated extent", func(t *testing.T) {
		maxRow, maxCol := cc.Bounds()
		assert.Equal(t, 2, maxRow)
		assert.Equal(t, 2, maxCol)
	})

	t.Run("clone is independent", func(t *testing.T) {
		clone := cc.Clone()
		clone["C3"] = NewCell(1.0)
		_, ok := cc.Get("C3")
		assert.False(t, ok)
	})
}

func TestCollectionTable(t *testing.T) {
	cc := CellCollection{
		"A1": NewCell("name"),
		"B1": NewCell("amount"),
		"A2": NewCell("north"),
		"B2": NewCell(30.0),
	}

	table := cc.Table()
	require.Len(t, table, 2)
	assert.Equal(t, []any{"name", "amount"}, table[0])
	assert.Equal(t, []any{"north", 30.0}, table[1])

	assert.Nil(t, CellCollection{}.Table())
}

func TestCollectionLabels(t *testing.T) {
	cc := CellCollection{
		"B2": NewCell(1.0),
		"A1": NewCell(2.0),
		"C1": NewCell(3.0),
		"A2": NewCell(4.0),
	}
	assert.Equal(t, []string{"A1", "C1", "A2", "B2"}, cc.Labels())
}

func TestErrorValues(t *testing.T) {
	t.Run("display forms", func(t *testing.T) {
		assert.Equal(t, "#REF!", RefError("bad range").String())
		assert.Equal(t, "#N/A", NAError("no match").String())
		assert.Equal(t, "#DIV/0!", Div0Error().String())
		assert.Equal(t, "#ERROR!", EvalError("boom").String())
	})

	t.Run("marshals as display string", func(t *testing.T) {
		b, err := NAError("x").MarshalJSON()
		require.NoError(t, err)
		assert.Equal(t, `"#N/A"`, string(b))
	})

	t.Run("predicates", func(t *testing.T) {
		assert.True(t, IsError(Div0Error()))
		assert.False(t, IsError(3.0))
		assert.True(t, IsErrorLabel("#DIV/0!"))
		assert.False(t, IsErrorLabel("#NOPE!"))
	})
}
