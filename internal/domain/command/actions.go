package command

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/formula"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
	"github.com/FACorreiaa/smart-sheet-core/pkg/numfmt"
)

// rangeRows reads the range as a dense row-major grid of resolved values.
func rangeRows(cells sheet.CellCollection, rng sheet.Range) [][]any {
	rows := make([][]any, 0, rng.Rows())
	for r := rng.Start.Row; r <= rng.End.Row; r++ {
		row := make([]any, 0, rng.Cols())
		for c := rng.Start.Col; c <= rng.End.Col; c++ {
			row = append(row, cells.Value(sheet.Address{Row: r, Col: c}))
		}
		rows = append(rows, row)
	}
	return rows
}

// rowUpdates writes a grid of values back over the range, cell by cell.
func rowUpdates(rng sheet.Range, rows [][]any) []CellUpdate {
	updates := make([]CellUpdate, 0, rng.Size())
	for ri, row := range rows {
		for ci, v := range row {
			addr := sheet.Address{Row: rng.Start.Row + ri, Col: rng.Start.Col + ci}
			updates = append(updates, CellUpdate{Address: addr.Label(), Value: v})
		}
	}
	return updates
}

// valueRank orders mixed cell values the way a spreadsheet sorts them:
// numbers, then dates, then text, then booleans, then errors, blanks last.
func valueRank(v any) int {
	switch v.(type) {
	case float64:
		return 0
	case time.Time:
		return 1
	case string:
		return 2
	case bool:
		return 3
	case sheet.ErrorValue:
		return 4
	default:
		return 5
	}
}

func lessValue(a, b any) bool {
	ra, rb := valueRank(a), valueRank(b)
	if ra != rb {
		return ra < rb
	}
	switch va := a.(type) {
	case float64:
		return va < b.(float64)
	case time.Time:
		return va.Before(b.(time.Time))
	case string:
		return strings.ToLower(va) < strings.ToLower(b.(string))
	case bool:
		return !va && b.(bool)
	default:
		return false
	}
}

// handleSort reorders the rows of a range by one of its columns. Values
// move; formulas are replaced by their current values.
func (i *Interpreter) handleSort(in *Input) Response {
	example := "sort A1:B10 by column 2 descending"
	label, ok := in.firstRange()
	if !ok {
		return missingParam("a cell range", example)
	}
	rng, err := i.resolver.ParseRange(label)
	if err != nil {
		return Response{Success: false, Message: "invalid range " + label}
	}
	if rng.Size() > i.resolver.MaxCells() {
		return Response{Success: false, Message: fmt.Sprintf("range %s exceeds the %d cell limit", label, i.resolver.MaxCells())}
	}
	key, ok := in.columnIndex()
	if !ok {
		key = 1
	}
	if key < 1 || key > rng.Cols() {
		return Response{Success: false, Message: fmt.Sprintf("sort column %d is outside %s", key, label)}
	}
	desc := in.descending()
	rows := rangeRows(in.Cells, rng)
	sort.SliceStable(rows, func(a, b int) bool {
		if desc {
			return lessValue(rows[b][key-1], rows[a][key-1])
		}
		return lessValue(rows[a][key-1], rows[b][key-1])
	})
	direction := "ascending"
	if desc {
		direction = "descending"
	}
	return Response{
		Success:     true,
		Message:     fmt.Sprintf("sorted %s by column %d %s", label, key, direction),
		Data:        rows,
		CellUpdates: rowUpdates(rng, rows),
	}
}

// FilterMatches is the find result of a filter command: the rows that
// passed the condition and their absolute sheet row numbers.
type FilterMatches struct {
	Rows       [][]any `json:"rows"`
	RowNumbers []int   `json:"row_numbers"`
}

func (i *Interpreter) handleFilter(in *Input) Response {
	example := "filter A1:B10 where > 100"
	label, ok := in.firstRange()
	if !ok {
		return missingParam("a cell range", example)
	}
	cond, ok := in.condition()
	if !ok {
		return missingParam(`a condition ("where > 100")`, example)
	}
	rng, err := i.resolver.ParseRange(label)
	if err != nil {
		return Response{Success: false, Message: "invalid range " + label}
	}
	if rng.Size() > i.resolver.MaxCells() {
		return Response{Success: false, Message: fmt.Sprintf("range %s exceeds the %d cell limit", label, i.resolver.MaxCells())}
	}
	key, ok := in.columnIndex()
	if !ok {
		key = 1
	}
	if key < 1 || key > rng.Cols() {
		return Response{Success: false, Message: fmt.Sprintf("filter column %d is outside %s", key, label)}
	}
	matches := formula.NewCriterion(cond)
	result := FilterMatches{Rows: [][]any{}, RowNumbers: []int{}}
	for ri, row := range rangeRows(in.Cells, rng) {
		if matches(row[key-1]) {
			result.Rows = append(result.Rows, row)
			result.RowNumbers = append(result.RowNumbers, rng.Start.Row+ri)
		}
	}
	return Response{
		Success: true,
		Message: fmt.Sprintf("%d of %d rows in %s match %q", len(result.Rows), rng.Rows(), label, cond),
		Data:    result,
	}
}

// handleCopy duplicates a range to a new top-left corner. Formulas are
// copied verbatim; references inside them are not rebased.
func (i *Interpreter) handleCopy(in *Input) Response {
	example := "copy A1:B5 to D1"
	label, ok := in.firstRange()
	if !ok {
		return missingParam("a source range", example)
	}
	target, ok := in.targetCell()
	if !ok {
		return missingParam(`a target cell ("to D1")`, example)
	}
	rng, err := i.resolver.ParseRange(label)
	if err != nil {
		return Response{Success: false, Message: "invalid range " + label}
	}
	if rng.Size() > i.resolver.MaxCells() {
		return Response{Success: false, Message: fmt.Sprintf("range %s exceeds the %d cell limit", label, i.resolver.MaxCells())}
	}
	dst, err := sheet.ParseAddress(target)
	if err != nil {
		return Response{Success: false, Message: "invalid target cell " + target}
	}
	dr := dst.Row - rng.Start.Row
	dc := dst.Col - rng.Start.Col
	updates := make([]CellUpdate, 0, rng.Size())
	for _, a := range i.resolver.Expand(rng) {
		c, _ := in.Cells.Get(a.Label())
		to := sheet.Address{Row: a.Row + dr, Col: a.Col + dc}
		updates = append(updates, CellUpdate{Address: to.Label(), Value: c.Value, Formula: c.Formula})
	}
	return Response{
		Success:     true,
		Message:     fmt.Sprintf("copied %s to %s (%d cells)", label, target, len(updates)),
		CellUpdates: updates,
	}
}

func (i *Interpreter) handleClear(in *Input) Response {
	example := "clear A1:B10"
	var addrs []sheet.Address
	scope := ""
	if label, ok := in.firstRange(); ok {
		rng, err := i.resolver.ParseRange(label)
		if err != nil {
			return Response{Success: false, Message: "invalid range " + label}
		}
		if rng.Size() > i.resolver.MaxCells() {
			return Response{Success: false, Message: fmt.Sprintf("range %s exceeds the %d cell limit", label, i.resolver.MaxCells())}
		}
		addrs = i.resolver.Expand(rng)
		scope = label
	} else if cell, ok := in.firstCell(); ok {
		a, err := sheet.ParseAddress(cell)
		if err != nil {
			return Response{Success: false, Message: "invalid cell " + cell}
		}
		addrs = []sheet.Address{a}
		scope = cell
	} else {
		return missingParam("a range or cell to clear", example)
	}
	updates := make([]CellUpdate, 0, len(addrs))
	for _, a := range addrs {
		updates = append(updates, CellUpdate{Address: a.Label(), Value: nil})
	}
	return Response{
		Success:     true,
		Message:     fmt.Sprintf("cleared %s (%d cells)", scope, len(updates)),
		CellUpdates: updates,
	}
}

// handleSet writes one cell. A value starting with "=" is evaluated and
// stored together with its formula text.
func (i *Interpreter) handleSet(in *Input) Response {
	example := "set A1 to 42"
	cell, ok := in.firstCell()
	if !ok {
		return missingParam("a target cell", example)
	}
	if _, err := sheet.ParseAddress(cell); err != nil {
		return Response{Success: false, Message: "invalid cell " + cell}
	}
	value, ok := in.setValue()
	if !ok {
		return missingParam("a value", `set A1 to 42, or put "note" in B2`)
	}
	update := CellUpdate{Address: cell, Value: value}
	if s, isText := value.(string); isText && strings.HasPrefix(s, "=") {
		update.Formula = s
		update.Value = i.evaluator.Evaluate(s, in.Cells)
	}
	return Response{
		Success:     true,
		Message:     fmt.Sprintf("%s = %s", cell, display(update.Value)),
		CellUpdates: []CellUpdate{update},
	}
}

func (i *Interpreter) handleGet(in *Input) Response {
	example := "what is A1"
	cell, ok := in.firstCell()
	if !ok {
		return missingParam("a cell to read", example)
	}
	c, found := in.Cells.Get(cell)
	if !found || c.IsEmpty() {
		return Response{Success: true, Message: cell + " is empty"}
	}
	msg := fmt.Sprintf("%s = %s", cell, display(c.Value))
	if c.Formula != "" {
		msg += " (" + c.Formula + ")"
	}
	return Response{Success: true, Message: msg, Data: c.Value}
}

// backgroundPalette holds the soft fills used for highlighting; textPalette
// the stronger hues used for font color.
var backgroundPalette = map[string]string{
	"red": "#fecaca", "green": "#bbf7d0", "blue": "#bfdbfe", "yellow": "#fef08a",
	"orange": "#fed7aa", "purple": "#e9d5ff", "pink": "#fbcfe8",
	"gray": "#e5e7eb", "grey": "#e5e7eb", "white": "#ffffff", "black": "#111827",
}

var textPalette = map[string]string{
	"red": "#dc2626", "green": "#16a34a", "blue": "#2563eb", "yellow": "#ca8a04",
	"orange": "#ea580c", "purple": "#9333ea", "pink": "#db2777",
	"gray": "#6b7280", "grey": "#6b7280", "white": "#ffffff", "black": "#111827",
}

func (i *Interpreter) handleFormat(in *Input) Response {
	example := "highlight A1:B3 in yellow"
	target, ok := in.firstRange()
	if !ok {
		if cell, okc := in.firstCell(); okc {
			target = cell
		} else {
			return missingParam("a range or cell to format", example)
		}
	}

	var f sheet.Format
	var applied []string
	n := in.Normalized
	if strings.Contains(n, "bold") {
		f.Bold = true
		applied = append(applied, "bold")
	}
	if strings.Contains(n, "italic") {
		f.Italic = true
		applied = append(applied, "italic")
	}
	switch {
	case strings.Contains(n, "center") || strings.Contains(n, "centre"):
		f.Alignment = "center"
	case strings.Contains(n, " left"):
		f.Alignment = "left"
	case strings.Contains(n, " right"):
		f.Alignment = "right"
	}
	if f.Alignment != "" {
		applied = append(applied, "align "+f.Alignment)
	}
	if color, okc := in.colorWord(); okc {
		if strings.Contains(n, "text") || strings.Contains(n, "font") {
			f.Color = textPalette[color]
			applied = append(applied, color+" text")
		} else {
			f.Background = backgroundPalette[color]
			applied = append(applied, color+" background")
		}
	} else if strings.Contains(n, "highlight") {
		f.Background = backgroundPalette["yellow"]
		applied = append(applied, "yellow background")
	}
	if kind, code, okn := in.numberFormat(); okn {
		f.NumberKind = kind
		applied = append(applied, fmt.Sprintf("%s format (e.g. %s)", kind, numberSample(kind, code)))
	}
	if len(applied) == 0 {
		return missingParam("a style (bold, italic, a color, an alignment or a number format)", example)
	}
	return Response{
		Success:    true,
		Message:    fmt.Sprintf("applied %s to %s", strings.Join(applied, ", "), target),
		Formatting: &FormatUpdate{Range: target, Format: f},
	}
}

// numberSample renders the preview value shown when a number format is
// applied, so the user can see what the format does before any data moves.
func numberSample(kind, code string) string {
	switch kind {
	case "percent":
		return numfmt.Percent(0.125, 2)
	case "currency":
		return numfmt.Currency(1234.5, code)
	default:
		return numfmt.Fixed(1234.567, 2)
	}
}

// CommandHelp is one entry in the help listing, derived from the rule list
// itself so it can never drift from what the interpreter accepts.
type CommandHelp struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Example  string `json:"example"`
}

func (i *Interpreter) handleHelp(in *Input) Response {
	entries := make([]CommandHelp, 0, len(i.rules))
	for _, r := range i.rules {
		if r.Example == "" {
			continue
		}
		entries = append(entries, CommandHelp{Name: r.Name, Category: string(r.Category), Example: r.Example})
	}
	return Response{
		Success: true,
		Message: fmt.Sprintf("%d supported commands", len(entries)),
		Data:    entries,
	}
}
