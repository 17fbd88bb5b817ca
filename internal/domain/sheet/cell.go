package sheet

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind tags how a cell's value should be interpreted.
type Kind string

const (
	KindEmpty   Kind = "empty"
	KindNumber  Kind = "number"
	KindText    Kind = "text"
	KindBoolean Kind = "boolean"
	KindDate    Kind = "date"
	KindFormula Kind = "formula"
	KindError   Kind = "error"
)

// Format carries optional display formatting for a cell. The core only
// transports these instructions; rendering belongs to the host.
type Format struct {
	Background string `json:"background,omitempty"`
	Color      string `json:"color,omitempty"`
	Bold       bool   `json:"bold,omitempty"`
	Italic     bool   `json:"italic,omitempty"`
	Alignment  string `json:"alignment,omitempty"`
	NumberKind string `json:"number_kind,omitempty"`
}

// Cell is a single grid entry. Value holds one of: nil (empty), float64,
// string, bool, time.Time, or ErrorValue. Formula, when set, is the textual
// expression the value came from. Deps records referenced addresses for
// inspection only; nothing in the core recomputes from them.
type Cell struct {
	Value   any      `json:"value"`
	Formula string   `json:"formula,omitempty"`
	Kind    Kind     `json:"kind"`
	Format  *Format  `json:"format,omitempty"`
	Deps    []string `json:"deps,omitempty"`
}

// IsEmpty reports whether the cell has no usable value.
func (c Cell) IsEmpty() bool {
	if c.Value == nil {
		return true
	}
	if s, ok := c.Value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// NewCell builds a cell from a raw value, inferring the kind tag.
func NewCell(value any) Cell {
	return Cell{Value: value, Kind: inferKind(value)}
}

func inferKind(value any) Kind {
	switch v := value.(type) {
	case nil:
		return KindEmpty
	case float64, int, int64:
		return KindNumber
	case bool:
		return KindBoolean
	case time.Time:
		return KindDate
	case ErrorValue:
		return KindError
	case string:
		if strings.TrimSpace(v) == "" {
			return KindEmpty
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return KindNumber
		}
		return KindText
	default:
		return KindText
	}
}

// CellCollection maps address labels ("B12") to cells. The engines treat a
// collection as an immutable snapshot: they read it and return new data, the
// caller applies updates.
type CellCollection map[string]Cell

// Get returns the cell stored at the label, if any.
func (cc CellCollection) Get(label string) (Cell, bool) {
	c, ok := cc[label]
	return c, ok
}

// At returns the cell at the address, if any.
func (cc CellCollection) At(a Address) (Cell, bool) {
	return cc.Get(a.Label())
}

// Value returns the resolved value at the address, nil when absent.
func (cc CellCollection) Value(a Address) any {
	c, ok := cc.At(a)
	if !ok {
		return nil
	}
	return c.Value
}

// Clone returns a shallow copy of the collection. Hosts use it to apply
// returned cell updates without touching the snapshot an engine read.
func (cc CellCollection) Clone() CellCollection {
	out := make(CellCollection, len(cc))
	for k, v := range cc {
		out[k] = v
	}
	return out
}

// Bounds returns the maximum populated row and column, 0,0 for an empty
// collection. Unparseable keys are skipped.
func (cc CellCollection) Bounds() (maxRow, maxCol int) {
	for label := range cc {
		a, err := ParseAddress(label)
		if err != nil {
			continue
		}
		if a.Row > maxRow {
			maxRow = a.Row
		}
		if a.Col > maxCol {
			maxCol = a.Col
		}
	}
	return maxRow, maxCol
}

// Table materializes the collection as a dense row-ordered grid of resolved
// values, rows 1..maxRow and columns 1..maxCol. Missing cells are nil.
func (cc CellCollection) Table() [][]any {
	maxRow, maxCol := cc.Bounds()
	if maxRow == 0 || maxCol == 0 {
		return nil
	}
	rows := make([][]any, maxRow)
	for i := range rows {
		rows[i] = make([]any, maxCol)
	}
	for label, cell := range cc {
		a, err := ParseAddress(label)
		if err != nil {
			continue
		}
		rows[a.Row-1][a.Col-1] = cell.Value
	}
	return rows
}

// Window returns the cells inside the range rebased so its top-left corner
// becomes A1. Engines that work on whole collections can then be pointed at
// a sub-grid without learning about offsets.
func (cc CellCollection) Window(rng Range) CellCollection {
	out := make(CellCollection)
	for label, cell := range cc {
		a, err := ParseAddress(label)
		if err != nil {
			continue
		}
		if a.Row < rng.Start.Row || a.Row > rng.End.Row || a.Col < rng.Start.Col || a.Col > rng.End.Col {
			continue
		}
		rebased := Address{Row: a.Row - rng.Start.Row + 1, Col: a.Col - rng.Start.Col + 1}
		out[rebased.Label()] = cell
	}
	return out
}

// Labels returns the populated address labels sorted row-major, for
// deterministic traversal in reports and exports.
func (cc CellCollection) Labels() []string {
	type entry struct {
		label string
		addr  Address
	}
	entries := make([]entry, 0, len(cc))
	for label := range cc {
		a, err := ParseAddress(label)
		if err != nil {
			continue
		}
		entries = append(entries, entry{label: label, addr: a})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].addr.Row != entries[j].addr.Row {
			return entries[i].addr.Row < entries[j].addr.Row
		}
		return entries[i].addr.Col < entries[j].addr.Col
	})
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.label
	}
	return out
}
