package command

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// Input is one parsed instruction on its way through the rule list.
// Normalized is lowercased with whitespace collapsed so trigger phrases
// and parameter patterns match regardless of how the user typed them.
type Input struct {
	Raw        string
	Normalized string
	Cells      sheet.CellCollection
}

func newInput(raw string, cells sheet.CellCollection) *Input {
	normalized := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	return &Input{Raw: raw, Normalized: normalized, Cells: cells}
}

func (in *Input) empty() bool { return in.Normalized == "" }

var (
	rangeRe       = regexp.MustCompile(`\b([A-Za-z]{1,3}[0-9]+)\s*:\s*([A-Za-z]{1,3}[0-9]+)\b`)
	cellRe        = regexp.MustCompile(`\b([A-Za-z]{1,3}[0-9]+)\b`)
	targetCellRe  = regexp.MustCompile(`\b(?:to|into|in|at)\s+(?:cell\s+)?([A-Za-z]{1,3}[0-9]+)\b`)
	columnIndexRe = regexp.MustCompile(`\b(?:column|col)\s*#?\s*([0-9]+)\b`)
	conditionRe   = regexp.MustCompile(`\b(?:where|whose value is|if value is)\s+(.+)$`)
	quotedRe      = regexp.MustCompile(`"([^"]*)"|'([^']*)'`)
	numberRe      = regexp.MustCompile(`-?[0-9]+(?:\.[0-9]+)?`)
	descendRe     = regexp.MustCompile(`\b(?:desc|descending|reversed?|z to a)\b`)
	pivotRowsRe   = regexp.MustCompile(`\b(?:by|per|rows?)\s+([a-z_][a-z0-9_]*)(?:\s+and\s+([a-z_][a-z0-9_]*))?\b`)
	pivotValueRe  = regexp.MustCompile(`\b(sum|count|average|avg|min|max)\s+(?:of\s+)?([a-z_][a-z0-9_]*)\b`)
	lookupForRe   = regexp.MustCompile(`\b(?:for|of|find|match|value)\s+([a-z0-9._-]+)\b`)
	setToRe       = regexp.MustCompile(`(?i)\bto\s+(.+)$`)
	rowIndexRe    = regexp.MustCompile(`\brow\s*#?\s*([0-9]+)\b`)
	isoDateRe     = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	percentRe     = regexp.MustCompile(`\b\d+(?:\.\d+)?\s*%`)
	containingRe  = regexp.MustCompile(`\b(?:containing|contains)\s+(.+)$`)
	findQueryRe   = regexp.MustCompile(`\b(?:find|search(?:\s+for)?|locate)\s+(.+)$`)
	colorWordRe   = regexp.MustCompile(`\b(red|green|blue|yellow|orange|purple|pink|gray|grey|white|black)\b`)
	currencyRe    = regexp.MustCompile(`(?i:\b(?:in|as|to)\s+)([A-Z]{3})\b`)
)

// currencyWords maps spoken currency names to ISO-4217 codes for
// "format C1:C9 as euros" style commands.
var currencyWords = map[string]string{
	"dollar":  "USD",
	"dollars": "USD",
	"euro":    "EUR",
	"euros":   "EUR",
	"pound":   "GBP",
	"pounds":  "GBP",
	"yen":     "JPY",
}

// ranges returns every A1:B10 style range in the input, normalized to
// uppercase with the whitespace around the colon removed.
func (in *Input) ranges() []string {
	ms := rangeRe.FindAllStringSubmatch(in.Normalized, -1)
	if len(ms) == 0 {
		return nil
	}
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, strings.ToUpper(m[1])+":"+strings.ToUpper(m[2]))
	}
	return out
}

func (in *Input) firstRange() (string, bool) {
	rs := in.ranges()
	if len(rs) == 0 {
		return "", false
	}
	return rs[0], true
}

// maskRefs blanks out ranges and cell addresses so number extraction does
// not pick up the digits inside A1:B10.
func (in *Input) maskRefs() string {
	masked := rangeRe.ReplaceAllStringFunc(in.Normalized, func(m string) string {
		return strings.Repeat(" ", len(m))
	})
	masked = cellRe.ReplaceAllStringFunc(masked, func(m string) string {
		return strings.Repeat(" ", len(m))
	})
	return masked
}

// firstCell returns the first standalone cell address, skipping any that
// are part of a range.
func (in *Input) firstCell() (string, bool) {
	masked := rangeRe.ReplaceAllStringFunc(in.Normalized, func(m string) string {
		return strings.Repeat(" ", len(m))
	})
	m := cellRe.FindString(masked)
	if m == "" {
		return "", false
	}
	return strings.ToUpper(m), true
}

// targetCell finds a destination address phrased as "to D5", "into cell D5"
// or similar.
func (in *Input) targetCell() (string, bool) {
	m := targetCellRe.FindStringSubmatch(in.Normalized)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

func (in *Input) columnIndex() (int, bool) {
	m := columnIndexRe.FindStringSubmatch(in.Normalized)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (in *Input) rowIndex() (int, bool) {
	m := rowIndexRe.FindStringSubmatch(in.Normalized)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// isoDates returns every yyyy-mm-dd literal in order of appearance.
func (in *Input) isoDates() []string {
	ms := isoDateRe.FindAllStringSubmatch(in.Normalized, -1)
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m[1])
	}
	return out
}

func (in *Input) hasPercent() bool {
	return percentRe.MatchString(in.Normalized)
}

// findQuery extracts the search text: quoted wins, then the words after
// "containing", then everything after the find/search keyword, minus any
// trailing range reference.
func (in *Input) findQuery() (string, bool) {
	if q, ok := in.quoted(); ok {
		return q, true
	}
	m := containingRe.FindStringSubmatch(in.Normalized)
	if m == nil {
		m = findQueryRe.FindStringSubmatch(in.Normalized)
	}
	if m == nil {
		return "", false
	}
	q := strings.TrimSpace(rangeRe.ReplaceAllString(m[1], ""))
	q = strings.TrimSpace(strings.TrimSuffix(q, " in"))
	if q == "" {
		return "", false
	}
	return q, true
}

func (in *Input) colorWord() (string, bool) {
	m := colorWordRe.FindStringSubmatch(in.Normalized)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// numberFormat detects a number format request inside a formatting command
// and, for currency, the ISO-4217 code to render the preview with.
func (in *Input) numberFormat() (kind, code string, ok bool) {
	n := in.Normalized
	switch {
	case strings.Contains(n, "percent"):
		return "percent", "", true
	case strings.Contains(n, "currency"), strings.Contains(n, "money"):
		return "currency", in.currencyCode(), true
	case strings.Contains(n, "decimal"), strings.Contains(n, "as a number"), strings.Contains(n, "as number"):
		return "decimal", "", true
	}
	if c := in.currencyCode(); c != "" {
		return "currency", c, true
	}
	return "", "", false
}

// currencyCode finds an ISO-4217 code, either spelled out ("euros") or given
// directly ("in EUR"). Codes are matched case-sensitively against the raw
// input so ordinary lowercase words never look like codes.
func (in *Input) currencyCode() string {
	if m := currencyRe.FindStringSubmatch(in.Raw); m != nil {
		return m[1]
	}
	for word, code := range currencyWords {
		if strings.Contains(in.Normalized, word) {
			return code
		}
	}
	return ""
}

// condition returns the criteria text after "where", e.g. ">10" for
// "filter A1:B10 where > 10". Spaces are stripped so the criteria grammar
// sees the operator prefix it expects.
func (in *Input) condition() (string, bool) {
	m := conditionRe.FindStringSubmatch(in.Normalized)
	if m == nil {
		return "", false
	}
	cond := strings.TrimSpace(m[1])
	if cond == "" {
		return "", false
	}
	for _, op := range []string{">=", "<=", "<>", ">", "<", "="} {
		if strings.HasPrefix(cond, op) {
			return op + strings.TrimSpace(strings.TrimPrefix(cond, op)), true
		}
	}
	return cond, true
}

// quoted returns the first single or double quoted string, preserving the
// original casing from the raw input when possible.
func (in *Input) quoted() (string, bool) {
	m := quotedRe.FindStringSubmatch(in.Raw)
	if m == nil {
		m = quotedRe.FindStringSubmatch(in.Normalized)
	}
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}

// numbers returns every numeric literal outside of cell references.
func (in *Input) numbers() []float64 {
	ms := numberRe.FindAllString(in.maskRefs(), -1)
	if len(ms) == 0 {
		return nil
	}
	out := make([]float64, 0, len(ms))
	for _, m := range ms {
		if n, err := strconv.ParseFloat(m, 64); err == nil {
			out = append(out, n)
		}
	}
	return out
}

func (in *Input) firstNumber() (float64, bool) {
	ns := in.numbers()
	if len(ns) == 0 {
		return 0, false
	}
	return ns[0], true
}

func (in *Input) descending() bool {
	return descendRe.MatchString(in.Normalized)
}

// lookupValue finds the value a lookup command searches for: a quoted
// string first, then a bare number, then a word after "for"/"find".
func (in *Input) lookupValue() (string, bool) {
	if q, ok := in.quoted(); ok {
		return q, true
	}
	if n, ok := in.firstNumber(); ok {
		return formatParamNumber(n), true
	}
	masked := in.maskRefs()
	if m := lookupForRe.FindStringSubmatch(masked); m != nil {
		return m[1], true
	}
	return "", false
}

// pivotDimensions extracts row fields from "by region" or
// "by region and quarter".
func (in *Input) pivotDimensions() []string {
	m := pivotRowsRe.FindStringSubmatch(in.Normalized)
	if m == nil {
		return nil
	}
	dims := []string{m[1]}
	if m[2] != "" {
		dims = append(dims, m[2])
	}
	return dims
}

// pivotValues extracts (aggregation, field) pairs such as "sum amount" or
// "average of price".
func (in *Input) pivotValues() (fields, aggs []string) {
	for _, m := range pivotValueRe.FindAllStringSubmatch(in.Normalized, -1) {
		agg := m[1]
		if agg == "avg" {
			agg = "average"
		}
		fields = append(fields, m[2])
		aggs = append(aggs, agg)
	}
	return fields, aggs
}

// setValue extracts the value for "set A1 to X": quoted text, a formula,
// a number, or the trailing words after "to".
func (in *Input) setValue() (any, bool) {
	if q, ok := in.quoted(); ok {
		return q, true
	}
	if idx := strings.Index(in.Raw, "="); idx >= 0 && strings.HasPrefix(strings.TrimSpace(in.Raw[idx:]), "=") {
		f := strings.TrimSpace(in.Raw[idx:])
		if len(f) > 1 {
			return f, true
		}
	}
	if n, ok := in.firstNumber(); ok {
		return n, true
	}
	m := setToRe.FindStringSubmatch(strings.TrimSpace(in.Raw))
	if m != nil && strings.TrimSpace(m[1]) != "" {
		return strings.TrimSpace(m[1]), true
	}
	return nil, false
}

func formatParamNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
