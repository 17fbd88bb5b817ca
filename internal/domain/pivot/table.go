package pivot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// table is the record view of a grid: field names from the first populated
// row, one record per later row, fully empty rows dropped.
type table struct {
	fields  []string
	index   map[string]int
	records []record
}

type record []any

func extractTable(cells sheet.CellCollection) (*table, error) {
	maxRow, maxCol := cells.Bounds()
	if maxRow == 0 || maxCol == 0 {
		return nil, ErrNoData
	}

	headerRow := 0
	for row := 1; row <= maxRow; row++ {
		if !rowEmpty(cells, row, maxCol) {
			headerRow = row
			break
		}
	}
	if headerRow == 0 || headerRow == maxRow {
		return nil, ErrNoData
	}

	tbl := &table{
		fields: make([]string, maxCol),
		index:  make(map[string]int, maxCol),
	}
	for col := 1; col <= maxCol; col++ {
		name := strings.TrimSpace(display(cells.Value(sheet.Address{Row: headerRow, Col: col})))
		if name == "" {
			name = sheet.ColumnLabel(col)
		}
		tbl.fields[col-1] = name
		key := strings.ToLower(name)
		if _, exists := tbl.index[key]; !exists {
			tbl.index[key] = col - 1
		}
	}

	for row := headerRow + 1; row <= maxRow; row++ {
		if rowEmpty(cells, row, maxCol) {
			continue
		}
		rec := make(record, maxCol)
		for col := 1; col <= maxCol; col++ {
			rec[col-1] = cells.Value(sheet.Address{Row: row, Col: col})
		}
		tbl.records = append(tbl.records, rec)
	}
	if len(tbl.records) == 0 {
		return nil, ErrNoData
	}
	return tbl, nil
}

// fieldOffsets resolves configured field names, case-insensitively, to
// column offsets.
func (t *table) fieldOffsets(names []string) ([]int, error) {
	out := make([]int, 0, len(names))
	for _, name := range names {
		idx, ok := t.index[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownField, name, strings.Join(t.fields, ", "))
		}
		out = append(out, idx)
	}
	return out, nil
}

func (r record) display(idx int) string {
	return display(r[idx])
}

func (r record) number(idx int) (float64, bool) {
	switch n := r[idx].(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func display(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		if s {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return s.Format("2006-01-02")
	case sheet.ErrorValue:
		return s.String()
	default:
		return fmt.Sprint(s)
	}
}

func rowEmpty(cells sheet.CellCollection, row, maxCol int) bool {
	for col := 1; col <= maxCol; col++ {
		v := cells.Value(sheet.Address{Row: row, Col: col})
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			continue
		}
		return false
	}
	return true
}
