package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for cell, value := range map[string]any{
		"A1": "region", "B1": "amount", "C1": "active",
		"A2": "North", "B2": 100, "C2": true,
		"A3": "South", "B3": 250.5, "C3": false,
	} {
		require.NoError(t, f.SetCellValue("Sheet1", cell, value))
	}

	_, err := f.NewSheet("Summary")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Summary", "A1", "total"))
	require.NoError(t, f.SetCellValue("Summary", "B1", 350.5))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestLoadXLSXFirstSheet(t *testing.T) {
	data := buildWorkbook(t)

	cells, info, err := newTestLoader(Options{}).LoadXLSX(data)
	require.NoError(t, err)

	assert.Equal(t, "Sheet1", info.Sheet)
	assert.Equal(t, 3, info.Rows)
	assert.Equal(t, 3, info.Cols)

	a1, ok := cells.Get("A1")
	require.True(t, ok)
	assert.Equal(t, "region", a1.Value)

	b3, ok := cells.Get("B3")
	require.True(t, ok)
	assert.Equal(t, 250.5, b3.Value)

	c2, ok := cells.Get("C2")
	require.True(t, ok)
	assert.Equal(t, true, c2.Value)
}

func TestLoadXLSXNamedSheet(t *testing.T) {
	data := buildWorkbook(t)

	cells, info, err := newTestLoader(Options{Sheet: "Summary"}).LoadXLSX(data)
	require.NoError(t, err)

	assert.Equal(t, "Summary", info.Sheet)

	a1, ok := cells.Get("A1")
	require.True(t, ok)
	assert.Equal(t, "total", a1.Value)

	b1, ok := cells.Get("B1")
	require.True(t, ok)
	assert.Equal(t, 350.5, b1.Value)
}

func TestLoadXLSXUnknownSheet(t *testing.T) {
	data := buildWorkbook(t)

	_, _, err := newTestLoader(Options{Sheet: "Missing"}).LoadXLSX(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadXLSXSkipLines(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "report header"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "name"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "qty"))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "widget"))
	require.NoError(t, f.SetCellValue("Sheet1", "B3", 5))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	cells, info, err := newTestLoader(Options{SkipLines: 1}).LoadXLSX(buf.Bytes())
	require.NoError(t, err)

	a1, ok := cells.Get("A1")
	require.True(t, ok)
	assert.Equal(t, "name", a1.Value)
	assert.Equal(t, 2, info.Rows)
}

func TestLoadXLSXEmptyWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, _, err = newTestLoader(Options{}).LoadXLSX(buf.Bytes())
	require.ErrorIs(t, err, ErrEmptyFile)
}
