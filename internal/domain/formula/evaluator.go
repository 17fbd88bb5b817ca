// Package formula evaluates spreadsheet formula expressions against a cell
// collection. Each call is independent: there is no dependency graph, no
// cycle detection and no incremental recomputation. A referenced cell
// contributes its stored value, and re-evaluating after an edit is the
// caller's job.
package formula

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/efp"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// Clock supplies the current time so TODAY and NOW are testable.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// span is a slice of formula tokens covering one expression or argument.
type span []efp.Token

type builtin struct {
	name    string
	minArgs int
	maxArgs int // 0 means unbounded
	fn      func(e *Evaluator, cells sheet.CellCollection, args []span) any
}

// Evaluator resolves formula strings to scalar values or error sentinels.
type Evaluator struct {
	resolver *sheet.Resolver
	clock    Clock
	logger   *slog.Logger
	registry map[string]builtin
}

// NewEvaluator creates an evaluator backed by the given resolver.
func NewEvaluator(resolver *sheet.Resolver, logger *slog.Logger) *Evaluator {
	if resolver == nil {
		resolver = sheet.NewResolver(sheet.DefaultLimits())
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &Evaluator{
		resolver: resolver,
		clock:    systemClock{},
		logger:   logger,
		registry: make(map[string]builtin),
	}
	e.registerMath()
	e.registerLookup()
	e.registerLogical()
	e.registerText()
	e.registerDateTime()
	return e
}

func (e *Evaluator) register(b builtin) {
	e.registry[b.name] = b
}

// WithClock overrides the time source.
func (e *Evaluator) WithClock(c Clock) *Evaluator {
	if c != nil {
		e.clock = c
	}
	return e
}

// Functions returns the registered function names, for interpreter wiring
// and documentation surfaces.
func (e *Evaluator) Functions() []string {
	names := make([]string, 0, len(e.registry))
	for name := range e.registry {
		names = append(names, name)
	}
	return names
}

// Evaluate computes a formula (leading "=" required) against the collection.
// The result is a scalar (float64, string, bool, time.Time) or a
// sheet.ErrorValue; a malformed formula yields #ERROR!, never a panic.
func (e *Evaluator) Evaluate(formula string, cells sheet.CellCollection) (result any) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("formula evaluation panic recovered",
				slog.String("formula", formula),
				slog.Any("panic", r),
			)
			result = sheet.EvalError("internal evaluation failure")
		}
	}()

	expr := strings.TrimSpace(formula)
	if !strings.HasPrefix(expr, "=") {
		return sheet.EvalError("formula must start with '='")
	}
	expr = strings.TrimSpace(expr[1:])
	if expr == "" {
		return sheet.EvalError("empty formula")
	}

	toks := tokenize(expr)
	if len(toks) == 0 {
		return sheet.EvalError("unparseable formula")
	}
	return e.eval(toks, cells)
}

// tokenize runs the Excel formula parser and drops whitespace tokens. A new
// parser per call keeps Evaluate safe for concurrent use.
func tokenize(expr string) span {
	parser := efp.ExcelParser()
	parsed := parser.Parse(expr)
	out := make(span, 0, len(parsed))
	for _, t := range parsed {
		if t.TType == efp.TokenTypeWhitespace {
			continue
		}
		out = append(out, t)
	}
	return out
}

// eval dispatches a token span: comparison, function call, parenthesized
// subexpression, single operand, then the restricted arithmetic fallback.
func (e *Evaluator) eval(s span, cells sheet.CellCollection) any {
	if len(s) == 0 {
		return sheet.EvalError("empty expression")
	}

	if idx, op := topLevelComparator(s); idx >= 0 {
		return e.compare(s[:idx], op, s[idx+1:], cells)
	}

	if name, args, ok := asCall(s); ok {
		return e.call(name, args, cells)
	}

	if inner, ok := unwrapSubexpression(s); ok {
		return e.eval(inner, cells)
	}

	if len(s) == 1 {
		return e.operand(s[0], cells)
	}

	return e.evalArithmetic(s, cells)
}

// scalar evaluates an argument span down to a single value. A range argument
// of one cell resolves to that cell's value; larger ranges are not scalars.
func (e *Evaluator) scalar(s span, cells sheet.CellCollection) any {
	if len(s) == 1 && s[0].TType == efp.TokenTypeOperand && s[0].TSubType == efp.TokenSubTypeRange {
		ref := normalizeRef(s[0].TValue)
		if sheet.IsRangeLabel(ref) {
			return sheet.RefError("expected a single cell, got range " + ref)
		}
	}
	return e.eval(s, cells)
}

// operand resolves a single token: literal number, text, logical, or cell
// reference.
func (e *Evaluator) operand(t efp.Token, cells sheet.CellCollection) any {
	if t.TType != efp.TokenTypeOperand {
		return sheet.EvalError("unexpected token " + t.TValue)
	}
	switch t.TSubType {
	case efp.TokenSubTypeNumber:
		n, err := strconv.ParseFloat(t.TValue, 64)
		if err != nil {
			return sheet.EvalError("bad number " + t.TValue)
		}
		return n
	case efp.TokenSubTypeText:
		return t.TValue
	case efp.TokenSubTypeLogical:
		return strings.EqualFold(t.TValue, "TRUE")
	case efp.TokenSubTypeRange:
		ref := normalizeRef(t.TValue)
		if sheet.IsRangeLabel(ref) {
			return sheet.RefError("range used as scalar: " + ref)
		}
		addr, err := sheet.ParseAddress(ref)
		if err != nil {
			return sheet.RefError(ref)
		}
		return cells.Value(addr)
	case efp.TokenSubTypeError:
		return sheet.EvalError(t.TValue)
	default:
		return sheet.EvalError("unsupported operand " + t.TValue)
	}
}

// call looks up a registered function and applies it. Unknown names are
// reported rather than executed.
func (e *Evaluator) call(name string, args []span, cells sheet.CellCollection) any {
	fn, ok := e.registry[strings.ToUpper(name)]
	if !ok {
		return sheet.EvalError("unknown function " + strings.ToUpper(name))
	}
	if len(args) < fn.minArgs {
		return sheet.EvalError(fn.name + " expects at least " + strconv.Itoa(fn.minArgs) + " arguments")
	}
	if fn.maxArgs > 0 && len(args) > fn.maxArgs {
		return sheet.EvalError(fn.name + " expects at most " + strconv.Itoa(fn.maxArgs) + " arguments")
	}
	return fn.fn(e, cells, args)
}

// asCall reports whether the span is exactly one function call and returns
// its name and top-level argument spans.
func asCall(s span) (string, []span, bool) {
	if len(s) < 2 {
		return "", nil, false
	}
	first, last := s[0], s[len(s)-1]
	if first.TType != efp.TokenTypeFunction || first.TSubType != efp.TokenSubTypeStart {
		return "", nil, false
	}
	if last.TType != efp.TokenTypeFunction || last.TSubType != efp.TokenSubTypeStop {
		return "", nil, false
	}
	// The closing token must match the opening one, not a nested call.
	depth := 0
	for i, t := range s {
		switch {
		case isStart(t):
			depth++
		case isStop(t):
			depth--
			if depth == 0 && i != len(s)-1 {
				return "", nil, false
			}
		}
	}
	if depth != 0 {
		return "", nil, false
	}
	return first.TValue, splitArgs(s[1 : len(s)-1]), true
}

// splitArgs splits the tokens between a call's parentheses at top-level
// argument separators.
func splitArgs(inner span) []span {
	if len(inner) == 0 {
		return nil
	}
	var args []span
	depth := 0
	start := 0
	for i, t := range inner {
		switch {
		case isStart(t):
			depth++
		case isStop(t):
			depth--
		case t.TType == efp.TokenTypeArgument && depth == 0:
			args = append(args, inner[start:i])
			start = i + 1
		}
	}
	args = append(args, inner[start:])
	return args
}

// unwrapSubexpression strips one redundant layer of parentheses.
func unwrapSubexpression(s span) (span, bool) {
	if len(s) < 2 {
		return nil, false
	}
	first, last := s[0], s[len(s)-1]
	if first.TType != efp.TokenTypeSubexpression || first.TSubType != efp.TokenSubTypeStart {
		return nil, false
	}
	if last.TType != efp.TokenTypeSubexpression || last.TSubType != efp.TokenSubTypeStop {
		return nil, false
	}
	depth := 0
	for i, t := range s {
		switch {
		case isStart(t):
			depth++
		case isStop(t):
			depth--
			if depth == 0 && i != len(s)-1 {
				return nil, false
			}
		}
	}
	return s[1 : len(s)-1], true
}

func isStart(t efp.Token) bool {
	return (t.TType == efp.TokenTypeFunction || t.TType == efp.TokenTypeSubexpression) &&
		t.TSubType == efp.TokenSubTypeStart
}

func isStop(t efp.Token) bool {
	return (t.TType == efp.TokenTypeFunction || t.TType == efp.TokenTypeSubexpression) &&
		t.TSubType == efp.TokenSubTypeStop
}

var comparators = map[string]bool{
	">": true, "<": true, ">=": true, "<=": true, "=": true, "<>": true,
}

// topLevelComparator finds the first comparison operator outside any nesting.
func topLevelComparator(s span) (int, string) {
	depth := 0
	for i, t := range s {
		switch {
		case isStart(t):
			depth++
		case isStop(t):
			depth--
		case depth == 0 && t.TType == efp.TokenTypeOperatorInfix && comparators[t.TValue]:
			return i, t.TValue
		}
	}
	return -1, ""
}

// compare evaluates both sides of a comparison. Numbers compare numerically,
// everything else falls back to case-insensitive text comparison.
func (e *Evaluator) compare(left span, op string, right span, cells sheet.CellCollection) any {
	lv := e.eval(left, cells)
	if sheet.IsError(lv) {
		return lv
	}
	rv := e.eval(right, cells)
	if sheet.IsError(rv) {
		return rv
	}

	ln, lok := toNumber(lv)
	rn, rok := toNumber(rv)
	if lok && rok {
		switch op {
		case ">":
			return ln > rn
		case "<":
			return ln < rn
		case ">=":
			return ln >= rn
		case "<=":
			return ln <= rn
		case "=":
			return ln == rn
		case "<>":
			return ln != rn
		}
	}

	ls := strings.ToLower(toString(lv))
	rs := strings.ToLower(toString(rv))
	switch op {
	case ">":
		return ls > rs
	case "<":
		return ls < rs
	case ">=":
		return ls >= rs
	case "<=":
		return ls <= rs
	case "=":
		return ls == rs
	case "<>":
		return ls != rs
	}
	return sheet.EvalError("unsupported comparison " + op)
}

// rangeValues expands a range argument into the resolved values of its cells,
// in resolver order. The second return is the expansion metadata, the third
// reports whether the span was a range at all.
func (e *Evaluator) rangeValues(s span, cells sheet.CellCollection) ([]any, sheet.RangeMeta, bool) {
	addrs, meta, ok := e.rangeAddrs(s)
	if !ok {
		return nil, sheet.RangeMeta{}, false
	}
	values := make([]any, len(addrs))
	for i, a := range addrs {
		values[i] = cells.Value(a)
	}
	return values, meta, true
}

// rangeAddrs expands a range argument into addresses. Single-cell references
// count as one-element ranges.
func (e *Evaluator) rangeAddrs(s span) ([]sheet.Address, sheet.RangeMeta, bool) {
	if len(s) != 1 || s[0].TType != efp.TokenTypeOperand || s[0].TSubType != efp.TokenSubTypeRange {
		return nil, sheet.RangeMeta{}, false
	}
	ref := normalizeRef(s[0].TValue)
	if sheet.IsRangeLabel(ref) {
		addrs, meta, err := e.resolver.ExpandRange(ref)
		if err != nil {
			return nil, sheet.RangeMeta{}, false
		}
		return addrs, meta, true
	}
	addr, err := sheet.ParseAddress(ref)
	if err != nil {
		return nil, sheet.RangeMeta{}, false
	}
	return []sheet.Address{addr}, sheet.RangeMeta{Total: 1, Returned: 1}, true
}

// parseRange expands a range argument or reports #REF! for functions that
// require one.
func (e *Evaluator) parseRange(s span) (sheet.Range, any) {
	if len(s) != 1 || s[0].TType != efp.TokenTypeOperand || s[0].TSubType != efp.TokenSubTypeRange {
		return sheet.Range{}, sheet.RefError("expected a range argument")
	}
	ref := normalizeRef(s[0].TValue)
	if !sheet.IsRangeLabel(ref) {
		return sheet.Range{}, sheet.RefError("expected a range, got " + ref)
	}
	rng, err := e.resolver.ParseRange(ref)
	if err != nil {
		return sheet.Range{}, sheet.RefError(ref)
	}
	return rng, nil
}

// normalizeRef strips absolute markers and a leading sheet qualifier from a
// reference ("'Data'!$A$1" -> "A1").
func normalizeRef(ref string) string {
	if idx := strings.LastIndex(ref, "!"); idx >= 0 {
		ref = ref[idx+1:]
	}
	return strings.ReplaceAll(strings.TrimSpace(ref), "$", "")
}

// collect gathers resolved values across arguments that may mix ranges and
// scalars, preserving argument order. An error produced by a scalar argument
// aborts collection; error values stored inside a range are collected as-is
// and left to the caller's filtering.
func (e *Evaluator) collect(args []span, cells sheet.CellCollection) ([]any, any) {
	var out []any
	for _, arg := range args {
		if vals, _, ok := e.rangeValues(arg, cells); ok {
			out = append(out, vals...)
			continue
		}
		v := e.scalar(arg, cells)
		if sheet.IsError(v) {
			return nil, v
		}
		out = append(out, v)
	}
	return out, nil
}
