package ingest

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(opts Options) *Loader {
	return NewLoader(opts, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestLoadCSVTypesValues(t *testing.T) {
	data := []byte("region,amount,active,when\nNorth,100,true,2024-01-15\nSouth,250.5,FALSE,2024-02-20\n")

	cells, info, err := newTestLoader(Options{}).LoadCSV(data)
	require.NoError(t, err)

	assert.Equal(t, 3, info.Rows)
	assert.Equal(t, 4, info.Cols)
	assert.Equal(t, ",", info.Delimiter)
	assert.False(t, info.Truncated)

	a1, ok := cells.Get("A1")
	require.True(t, ok)
	assert.Equal(t, "region", a1.Value)

	b2, ok := cells.Get("B2")
	require.True(t, ok)
	assert.Equal(t, 100.0, b2.Value)

	c2, ok := cells.Get("C2")
	require.True(t, ok)
	assert.Equal(t, true, c2.Value)

	d3, ok := cells.Get("D3")
	require.True(t, ok)
	when, isTime := d3.Value.(time.Time)
	require.True(t, isTime)
	assert.Equal(t, 2024, when.Year())
	assert.Equal(t, time.February, when.Month())
}

func TestLoadCSVSniffsDelimiters(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"semicolon", "a;b;c\n1;2;3\n", ";"},
		{"tab", "a\tb\tc\n1\t2\t3\n", "\t"},
		{"pipe", "a|b|c\n1|2|3\n", "|"},
		{"comma wins when most frequent", "a,b,c\n1,2,3\n", ","},
		{"single column defaults to comma", "notes\nhello\n", ","},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells, info, err := newTestLoader(Options{}).LoadCSV([]byte(tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.want, info.Delimiter)

			a2, ok := cells.Get("A2")
			require.True(t, ok)
			assert.NotNil(t, a2.Value)
		})
	}
}

func TestLoadCSVSkipLines(t *testing.T) {
	data := []byte("Exported 2024-06-01\nAccount 12345\nname,qty\nwidget,5\n")

	cells, info, err := newTestLoader(Options{SkipLines: 2}).LoadCSV(data)
	require.NoError(t, err)

	a1, ok := cells.Get("A1")
	require.True(t, ok)
	assert.Equal(t, "name", a1.Value)

	b2, ok := cells.Get("B2")
	require.True(t, ok)
	assert.Equal(t, 5.0, b2.Value)
	assert.Equal(t, 2, info.Rows)
}

func TestLoadCSVStripsBOM(t *testing.T) {
	data := []byte("\ufeffname,qty\nwidget,5\n")

	cells, _, err := newTestLoader(Options{}).LoadCSV(data)
	require.NoError(t, err)

	a1, ok := cells.Get("A1")
	require.True(t, ok)
	assert.Equal(t, "name", a1.Value)
}

func TestLoadCSVTruncatesAtCellCap(t *testing.T) {
	data := []byte("1,2,3\n4,5,6\n7,8,9\n")

	cells, info, err := newTestLoader(Options{MaxCells: 4}).LoadCSV(data)
	require.NoError(t, err)

	assert.True(t, info.Truncated)
	assert.Equal(t, 4, info.Cells)
	assert.Len(t, cells, 4)
}

func TestLoadCSVEmpty(t *testing.T) {
	_, _, err := newTestLoader(Options{}).LoadCSV(nil)
	require.ErrorIs(t, err, ErrEmptyFile)
}

func TestLoadDispatchesOnExtension(t *testing.T) {
	l := newTestLoader(Options{})

	t.Run("csv", func(t *testing.T) {
		cells, _, err := l.Load("sales.csv", []byte("a,b\n1,2\n"))
		require.NoError(t, err)
		assert.Len(t, cells, 4)
	})

	t.Run("xlsx bytes must be a real workbook", func(t *testing.T) {
		_, _, err := l.Load("sales.xlsx", []byte("a,b\n1,2\n"))
		require.Error(t, err)
	})

	t.Run("unknown extension", func(t *testing.T) {
		_, _, err := l.Load("sales.exe", []byte("a,b\n"))
		require.ErrorIs(t, err, ErrUnknownType)
	})

	t.Run("empty payload", func(t *testing.T) {
		_, _, err := l.Load("sales.csv", nil)
		require.ErrorIs(t, err, ErrEmptyFile)
	})
}

func TestTypeValue(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want any
	}{
		{"integer", "42", 42.0},
		{"negative float", "-3.5", -3.5},
		{"grouped thousands", "1,234.56", 1234.56},
		{"comma pair stays text", "1,2", "1,2"},
		{"bool true", "true", true},
		{"bool upper", "TRUE", true},
		{"bool false", "False", false},
		{"text", "hello world", "hello world"},
		{"padded text trimmed", "  spaced  ", "spaced"},
		{"empty", "", nil},
		{"blank", "   ", nil},
		{"nan stays text", "NaN", "NaN"},
		{"infinity stays text", "Infinity", "Infinity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, typeValue(tt.raw))
		})
	}

	t.Run("iso date", func(t *testing.T) {
		v := typeValue("2024-03-01")
		when, ok := v.(time.Time)
		require.True(t, ok)
		assert.Equal(t, time.March, when.Month())
	})

	t.Run("day first date", func(t *testing.T) {
		v := typeValue("15/04/2024")
		when, ok := v.(time.Time)
		require.True(t, ok)
		assert.Equal(t, 15, when.Day())
		assert.Equal(t, time.April, when.Month())
	})

	t.Run("month first when day slot is impossible", func(t *testing.T) {
		v := typeValue("04/15/2024")
		when, ok := v.(time.Time)
		require.True(t, ok)
		assert.Equal(t, 15, when.Day())
		assert.Equal(t, time.April, when.Month())
	})
}
