package formula

import (
	"strings"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

func (e *Evaluator) registerLookup() {
	e.register(builtin{name: "VLOOKUP", minArgs: 3, maxArgs: 4, fn: fnVlookup})
	e.register(builtin{name: "HLOOKUP", minArgs: 3, maxArgs: 4, fn: fnHlookup})
	e.register(builtin{name: "INDEX", minArgs: 2, maxArgs: 3, fn: fnIndex})
	e.register(builtin{name: "MATCH", minArgs: 2, maxArgs: 3, fn: fnMatch})
}

// fnVlookup scans the first column of the table top to bottom. Exact mode
// returns the row whose key equals the lookup value. Approximate mode (the
// default) returns the first row whose key is greater than or equal to the
// lookup value; rows are visited in range order regardless of whether the
// data is sorted, matching long-standing spreadsheet behavior.
func fnVlookup(e *Evaluator, cells sheet.CellCollection, args []span) any {
	lookup := e.scalar(args[0], cells)
	if sheet.IsError(lookup) {
		return lookup
	}
	rng, errv := e.parseRange(args[1])
	if errv != nil {
		return errv
	}
	colF, errv := strictNumber(e.scalar(args[2], cells), "column index")
	if errv != nil {
		return errv
	}
	col := int(colF)
	if col < 1 {
		return sheet.EvalError("column index must be at least 1")
	}
	if col > rng.Cols() {
		return sheet.RefError("column index exceeds the table width")
	}
	approximate := true
	if len(args) == 4 {
		flag := e.scalar(args[3], cells)
		if sheet.IsError(flag) {
			return flag
		}
		approximate = isTruthy(flag)
	}

	for row := rng.Start.Row; row <= rng.End.Row; row++ {
		key := cells.Value(sheet.Address{Row: row, Col: rng.Start.Col})
		if key == nil {
			continue
		}
		if matchKey(key, lookup, approximate) {
			return cells.Value(sheet.Address{Row: row, Col: rng.Start.Col + col - 1})
		}
	}
	return sheet.NAError("no match for " + toString(lookup))
}

// fnHlookup is fnVlookup transposed: keys live in the first row and the
// result comes from the row at the given offset.
func fnHlookup(e *Evaluator, cells sheet.CellCollection, args []span) any {
	lookup := e.scalar(args[0], cells)
	if sheet.IsError(lookup) {
		return lookup
	}
	rng, errv := e.parseRange(args[1])
	if errv != nil {
		return errv
	}
	rowF, errv := strictNumber(e.scalar(args[2], cells), "row index")
	if errv != nil {
		return errv
	}
	row := int(rowF)
	if row < 1 {
		return sheet.EvalError("row index must be at least 1")
	}
	if row > rng.Rows() {
		return sheet.RefError("row index exceeds the table height")
	}
	approximate := true
	if len(args) == 4 {
		flag := e.scalar(args[3], cells)
		if sheet.IsError(flag) {
			return flag
		}
		approximate = isTruthy(flag)
	}

	for col := rng.Start.Col; col <= rng.End.Col; col++ {
		key := cells.Value(sheet.Address{Row: rng.Start.Row, Col: col})
		if key == nil {
			continue
		}
		if matchKey(key, lookup, approximate) {
			return cells.Value(sheet.Address{Row: rng.Start.Row + row - 1, Col: col})
		}
	}
	return sheet.NAError("no match for " + toString(lookup))
}

func matchKey(key, lookup any, approximate bool) bool {
	if approximate {
		return valueGE(key, lookup)
	}
	return equalFold(key, lookup)
}

// valueGE orders two resolved values: numerically when both coerce, by
// case-folded text otherwise.
func valueGE(a, b any) bool {
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok {
		return an >= bn
	}
	return strings.ToLower(toString(a)) >= strings.ToLower(toString(b))
}

// fnIndex returns the value at a position inside a range. A two-argument
// call on a single row or single column treats the position as an offset
// along that line.
func fnIndex(e *Evaluator, cells sheet.CellCollection, args []span) any {
	rng, errv := e.parseRange(args[0])
	if errv != nil {
		return errv
	}
	posF, errv := strictNumber(e.scalar(args[1], cells), "row position")
	if errv != nil {
		return errv
	}
	row := int(posF)
	col := 1
	if len(args) == 3 {
		colF, errv := strictNumber(e.scalar(args[2], cells), "column position")
		if errv != nil {
			return errv
		}
		col = int(colF)
	} else if rng.Rows() == 1 && rng.Cols() > 1 {
		col = row
		row = 1
	}

	if row < 1 || row > rng.Rows() || col < 1 || col > rng.Cols() {
		return sheet.RefError("position outside the range")
	}
	return cells.Value(sheet.Address{
		Row: rng.Start.Row + row - 1,
		Col: rng.Start.Col + col - 1,
	})
}

// fnMatch returns the 1-based position of the lookup value along a single
// row or column. Match type 0 requires equality; the default type 1 uses
// the same first-key-at-or-above rule as VLOOKUP's approximate mode.
func fnMatch(e *Evaluator, cells sheet.CellCollection, args []span) any {
	lookup := e.scalar(args[0], cells)
	if sheet.IsError(lookup) {
		return lookup
	}
	addrs, _, ok := e.rangeAddrs(args[1])
	if !ok {
		return sheet.RefError("expected a range to search")
	}
	matchType := 1.0
	if len(args) == 3 {
		var errv any
		matchType, errv = strictNumber(e.scalar(args[2], cells), "match type")
		if errv != nil {
			return errv
		}
	}
	if matchType < 0 {
		return sheet.EvalError("descending match is not supported")
	}

	for i, a := range addrs {
		v := cells.Value(a)
		if v == nil {
			continue
		}
		if matchKey(v, lookup, matchType != 0) {
			return float64(i + 1)
		}
	}
	return sheet.NAError("no match for " + toString(lookup))
}
