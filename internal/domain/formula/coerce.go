package formula

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// toNumber coerces a resolved value to float64. Booleans count as 1/0 and
// numeric-looking strings parse; empty cells, dates and error sentinels do
// not coerce.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// strictNumber is toNumber for values that must be numeric, yielding #ERROR!
// otherwise.
func strictNumber(v any, what string) (float64, any) {
	if sheet.IsError(v) {
		return 0, v
	}
	n, ok := toNumber(v)
	if !ok {
		return 0, sheet.EvalError(what + " must be numeric")
	}
	return n, nil
}

// toString renders any resolved value the way it would appear in a cell.
func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		if s {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return formatNumber(s)
	case float32:
		return formatNumber(float64(s))
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case time.Time:
		return s.Format("2006-01-02")
	case sheet.ErrorValue:
		return s.String()
	default:
		return ""
	}
}

// formatNumber prints integers without a decimal point and keeps fractions
// compact.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// isTruthy applies spreadsheet boolean semantics: FALSE, zero, empty and the
// literal text "FALSE" are false, everything else is true.
func isTruthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case float64:
		return b != 0
	case int:
		return b != 0
	case string:
		if strings.EqualFold(b, "FALSE") || strings.TrimSpace(b) == "" {
			return false
		}
		if strings.EqualFold(b, "TRUE") {
			return true
		}
		if n, ok := toNumber(b); ok {
			return n != 0
		}
		return true
	default:
		return v != nil
	}
}

// numericValues filters resolved values down to the numbers, the shared
// ingredient of the aggregate functions. Text, booleans, blanks and error
// sentinels are skipped, so a stray label inside a range shrinks AVERAGE's
// denominator instead of dragging the mean toward zero.
func numericValues(values []any) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if v == nil || sheet.IsError(v) {
			continue
		}
		if _, isBool := v.(bool); isBool {
			continue
		}
		if n, ok := toNumber(v); ok {
			out = append(out, n)
		}
	}
	return out
}

// equalFold compares two resolved values for spreadsheet equality: numeric
// when both sides coerce, case-insensitive text otherwise.
func equalFold(a, b any) bool {
	an, aok := toNumber(a)
	bn, bok := toNumber(b)
	if aok && bok {
		return an == bn
	}
	return strings.EqualFold(toString(a), toString(b))
}
