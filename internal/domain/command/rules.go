package command

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/pivot"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// buildRules assembles the ordered rule list. Order is precedence: the
// vlookup rule sits above the sum rule, so "vlookup 2 in A1:B3 and sum it"
// classifies as a VLOOKUP.
func (i *Interpreter) buildRules() []Rule {
	return []Rule{
		{
			Name:     "formula",
			Category: CategoryFunction,
			Example:  "=SUM(A1:A10)",
			When: func(in *Input) bool {
				return strings.HasPrefix(strings.TrimSpace(in.Raw), "=")
			},
			Handle: i.handleFormula,
		},
		{
			Name:     "vlookup",
			Category: CategoryFunction,
			Triggers: []string{"vlookup", "vertical lookup"},
			Example:  `vlookup "widget" in A1:C10 column 2`,
			Handle:   i.handleVlookup,
		},
		{
			Name:     "hlookup",
			Category: CategoryFunction,
			Triggers: []string{"hlookup", "horizontal lookup"},
			Example:  `hlookup "q3" in A1:E3 row 2`,
			Handle:   i.handleHlookup,
		},
		{
			Name:     "index-match",
			Category: CategoryFunction,
			Triggers: []string{"index match", "index-match", "index/match", "index and match"},
			Example:  `index match "widget" in B1:B10 from A1:A10`,
			Handle:   i.handleIndexMatch,
		},
		{
			Name:     "pmt",
			Category: CategoryFunction,
			Triggers: []string{"pmt", "loan payment", "monthly payment"},
			Example:  "pmt 0.5% over 12 periods for 1000",
			Handle:   i.handlePmt,
		},
		{
			Name:     "datedif",
			Category: CategoryFunction,
			Triggers: []string{"datedif", "days between", "months between", "years between"},
			Example:  "days between 2024-01-01 and 2024-03-01",
			Handle:   i.handleDateDif,
		},
		{
			Name:     "pivot",
			Category: CategoryAnalysis,
			Triggers: []string{"pivot"},
			Example:  "pivot by region sum amount",
			Handle:   i.handlePivot,
		},
		{
			Name:     "chart",
			Category: CategoryAnalysis,
			Triggers: []string{"chart", "plot", "graph"},
			Example:  "bar chart of A1:B10",
			Handle:   i.handleChart,
		},
		{
			Name:     "analyze",
			Category: CategoryAnalysis,
			Triggers: []string{"analyze", "analyse", "analysis", "statistics", "stats", "summarize", "summary", "trend", "trends", "correlation", "correlations", "outlier", "outliers", "histogram", "insights"},
			Example:  "analyze A1:D50",
			Handle:   i.handleAnalyze,
		},
		{
			Name:     "find",
			Category: CategoryAnalysis,
			Triggers: []string{"find", "search", "locate", "containing"},
			Example:  `find "widget"`,
			Handle:   i.handleFind,
		},
		i.aggregateRule("sum", "SUM", "SUMIF", []string{"sum", "total", "add up"}),
		i.aggregateRule("average", "AVERAGE", "AVERAGEIF", []string{"average", "avg", "mean"}),
		i.aggregateRule("count", "COUNT", "COUNTIF", []string{"count", "how many"}),
		i.aggregateRule("min", "MIN", "", []string{"min", "minimum"}),
		i.aggregateRule("max", "MAX", "", []string{"max", "maximum"}),
		i.aggregateRule("median", "MEDIAN", "", []string{"median"}),
		{
			Name:     "sort",
			Category: CategoryStructural,
			Triggers: []string{"sort", "order by", "arrange"},
			Example:  "sort A1:B10 by column 2 descending",
			Handle:   i.handleSort,
		},
		{
			Name:     "filter",
			Category: CategoryStructural,
			Triggers: []string{"filter", "rows where", "only show"},
			Example:  "filter A1:B10 where > 100",
			Handle:   i.handleFilter,
		},
		{
			Name:     "copy",
			Category: CategoryStructural,
			Triggers: []string{"copy", "duplicate"},
			Example:  "copy A1:B5 to D1",
			Handle:   i.handleCopy,
		},
		{
			Name:     "clear",
			Category: CategoryStructural,
			Triggers: []string{"clear", "erase", "empty out"},
			Example:  "clear A1:B10",
			Handle:   i.handleClear,
		},
		{
			Name:     "set",
			Category: CategoryCells,
			Triggers: []string{"set", "put", "enter", "write", "assign"},
			Example:  "set A1 to 42",
			Handle:   i.handleSet,
		},
		{
			Name:     "get",
			Category: CategoryCells,
			Triggers: []string{"what is", "value of", "show", "display", "read"},
			Example:  "what is A1",
			Handle:   i.handleGet,
		},
		{
			Name:     "format",
			Category: CategoryFormatting,
			Triggers: []string{"bold", "italic", "highlight", "background", "color", "colour", "align", "center", "centre", "format"},
			Example:  "highlight A1:B3 in yellow",
			Handle:   i.handleFormat,
		},
		{
			Name:     "help",
			Category: CategoryMeta,
			Triggers: []string{"help", "what can you do", "commands"},
			Example:  "help",
			Handle:   i.handleHelp,
		},
	}
}

// missingParam builds the standard refusal for an instruction that was
// understood but lacks a required parameter.
func missingParam(what, example string) Response {
	return Response{
		Success: false,
		Message: fmt.Sprintf("missing %s. Try: %q", what, example),
	}
}

// display renders a resolved value for messages.
func display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return t.Format("2006-01-02")
	case sheet.ErrorValue:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// quoteArg renders a lookup value as a formula argument, quoting anything
// that is not a number.
func quoteArg(s string) string {
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, "") + `"`
}

// evalToResponse evaluates a built formula and wraps the outcome. An error
// sentinel comes back as an unsuccessful response with the sentinel attached.
func (i *Interpreter) evalToResponse(f string, in *Input) Response {
	v := i.evaluator.Evaluate(f, in.Cells)
	expr := strings.TrimPrefix(f, "=")
	if ev, ok := v.(sheet.ErrorValue); ok {
		msg := fmt.Sprintf("%s returned %s", expr, ev.String())
		if ev.Detail != "" {
			msg += ": " + ev.Detail
		}
		return Response{Success: false, Message: msg, Formula: f, Data: ev}
	}
	return Response{
		Success: true,
		Message: fmt.Sprintf("%s = %s", expr, display(v)),
		Formula: f,
		Data:    v,
	}
}

func (i *Interpreter) handleFormula(in *Input) Response {
	return i.evalToResponse(strings.TrimSpace(in.Raw), in)
}

func (i *Interpreter) handleVlookup(in *Input) Response {
	example := `vlookup "widget" in A1:C10 column 2`
	value, ok := in.lookupValue()
	if !ok {
		return missingParam("a lookup value", example)
	}
	rng, ok := in.firstRange()
	if !ok {
		return missingParam("a table range", example)
	}
	col, ok := in.columnIndex()
	if !ok {
		col = 2
	}
	f := fmt.Sprintf("=VLOOKUP(%s,%s,%d,FALSE)", quoteArg(value), rng, col)
	return i.evalToResponse(f, in)
}

func (i *Interpreter) handleHlookup(in *Input) Response {
	example := `hlookup "q3" in A1:E3 row 2`
	value, ok := in.lookupValue()
	if !ok {
		return missingParam("a lookup value", example)
	}
	rng, ok := in.firstRange()
	if !ok {
		return missingParam("a table range", example)
	}
	row, ok := in.rowIndex()
	if !ok {
		row = 2
	}
	f := fmt.Sprintf("=HLOOKUP(%s,%s,%d,FALSE)", quoteArg(value), rng, row)
	return i.evalToResponse(f, in)
}

func (i *Interpreter) handleIndexMatch(in *Input) Response {
	example := `index match "widget" in B1:B10 from A1:A10`
	value, ok := in.lookupValue()
	if !ok {
		return missingParam("a lookup value", example)
	}
	ranges := in.ranges()
	if len(ranges) < 2 {
		return missingParam("a result range and a lookup range", example)
	}
	f := fmt.Sprintf("=INDEX(%s,MATCH(%s,%s,0))", ranges[0], quoteArg(value), ranges[1])
	return i.evalToResponse(f, in)
}

func (i *Interpreter) handlePmt(in *Input) Response {
	example := "pmt 0.5% over 12 periods for 1000"
	ns := in.numbers()
	if len(ns) < 3 {
		return missingParam("a rate, a number of periods and a principal", example)
	}
	rate := ns[0]
	if in.hasPercent() {
		rate /= 100
	}
	f := fmt.Sprintf("=PMT(%s,%s,%s)",
		formatParamNumber(rate), formatParamNumber(ns[1]), formatParamNumber(ns[2]))
	return i.evalToResponse(f, in)
}

func (i *Interpreter) handleDateDif(in *Input) Response {
	example := "days between 2024-01-01 and 2024-03-01"
	dates := in.isoDates()
	if len(dates) < 2 {
		return missingParam("two dates in yyyy-mm-dd form", example)
	}
	unit := "D"
	switch {
	case strings.Contains(in.Normalized, "year"):
		unit = "Y"
	case strings.Contains(in.Normalized, "month"):
		unit = "M"
	}
	f := fmt.Sprintf(`=DATEDIF("%s","%s","%s")`, dates[0], dates[1], unit)
	return i.evalToResponse(f, in)
}

func (i *Interpreter) handlePivot(in *Input) Response {
	example := "pivot by region sum amount"
	dims := in.pivotDimensions()
	if len(dims) == 0 {
		return missingParam(`row fields ("by <field>")`, example)
	}
	fields, aggs := in.pivotValues()
	cfg := pivot.Config{Rows: dims, Values: fields, Aggregations: aggs}
	result, err := i.pivots.Pivot(in.Cells, cfg)
	if err != nil {
		return Response{Success: false, Message: "pivot failed: " + err.Error()}
	}
	msg := fmt.Sprintf("pivot by %s produced %d groups", strings.Join(dims, ", "), result.Groups)
	if result.Truncated {
		msg += " (truncated)"
	}
	return Response{Success: true, Message: msg, Data: result}
}

// ChartSpec describes a chart a host should render. The core only decides
// what to chart, never how to draw it.
type ChartSpec struct {
	Type  string `json:"type"`
	Range string `json:"range"`
	Title string `json:"title,omitempty"`
}

var chartKinds = []string{"bar", "line", "pie", "scatter", "area"}

func (i *Interpreter) handleChart(in *Input) Response {
	example := "bar chart of A1:B10"
	rng, ok := in.firstRange()
	if !ok {
		return missingParam("a data range", example)
	}
	kind := "bar"
	for _, k := range chartKinds {
		if strings.Contains(in.Normalized, k) {
			kind = k
			break
		}
	}
	spec := ChartSpec{Type: kind, Range: rng}
	if title, okq := in.quoted(); okq {
		spec.Title = title
	}
	return Response{
		Success: true,
		Message: fmt.Sprintf("configured %s chart over %s", kind, rng),
		Data:    spec,
	}
}

func (i *Interpreter) handleAnalyze(in *Input) Response {
	cells := in.Cells
	scope := "the sheet"
	if label, ok := in.firstRange(); ok {
		rng, err := i.resolver.ParseRange(label)
		if err == nil {
			cells = cells.Window(rng)
			scope = label
		}
	}
	report := i.analytics.Analyze(cells)
	if report.Rows == 0 {
		return Response{Success: false, Message: "nothing to analyze: no populated cells in " + scope}
	}
	msg := fmt.Sprintf("analyzed %d rows in %s: %d numeric and %d text columns",
		report.Rows, scope, report.NumericColumns, report.TextColumns)
	if n := len(report.Outliers); n > 0 {
		msg += fmt.Sprintf(", %d outliers", n)
	}
	return Response{Success: true, Message: msg, Data: report}
}

func (i *Interpreter) handleFind(in *Input) Response {
	example := `find "widget"`
	query, ok := in.findQuery()
	if !ok {
		return missingParam("text to search for", example)
	}
	const limit = 20
	var (
		matches []Match
		err     error
	)
	if i.searcher != nil {
		matches, err = i.searcher.Search(in.Cells, query, limit)
		if err != nil {
			i.logger.Warn("search index query failed, falling back to scan", slog.Any("error", err))
			matches = scanCells(in.Cells, query, limit)
		}
	} else {
		matches = scanCells(in.Cells, query, limit)
	}
	if len(matches) == 0 {
		return Response{Success: true, Message: fmt.Sprintf("no cells matching %q", query), Data: []Match{}}
	}
	return Response{
		Success: true,
		Message: fmt.Sprintf("%d cells match %q", len(matches), query),
		Data:    matches,
	}
}

// scanCells is the index-free fallback: a case-insensitive substring walk
// in row-major order.
func scanCells(cells sheet.CellCollection, query string, limit int) []Match {
	needle := strings.ToLower(query)
	var out []Match
	for _, label := range cells.Labels() {
		c, _ := cells.Get(label)
		if c.IsEmpty() {
			continue
		}
		if strings.Contains(strings.ToLower(display(c.Value)), needle) {
			out = append(out, Match{Address: label, Value: c.Value})
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// aggregateRule builds one generic-verb rule. Verbs with a conditional
// variant switch to it when the instruction carries a "where" clause.
func (i *Interpreter) aggregateRule(name, fn, conditionalFn string, triggers []string) Rule {
	example := strings.ToLower(fn) + " A1:A10"
	return Rule{
		Name:     name,
		Category: CategoryAggregate,
		Triggers: triggers,
		Example:  example,
		Handle: func(in *Input) Response {
			rng, ok := in.firstRange()
			if !ok {
				return missingParam("a cell range", example)
			}
			f := "=" + fn + "(" + rng + ")"
			if cond, okc := in.condition(); okc && conditionalFn != "" {
				f = fmt.Sprintf(`=%s(%s,"%s")`, conditionalFn, rng, strings.ReplaceAll(cond, `"`, ""))
			}
			return i.evalToResponse(f, in)
		},
	}
}
