package formula

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// criterion is a compiled SUMIF/COUNTIF/AVERAGEIF predicate.
type criterion func(v any) bool

// NewCriterion compiles criteria text for callers outside the evaluator,
// such as command handlers filtering rows. The grammar is the same one the
// conditional aggregate functions use.
func NewCriterion(raw any) func(v any) bool {
	return compileCriterion(raw)
}

// compileCriterion turns a raw criteria value into a predicate. String
// criteria understand the comparison prefixes >, <, >=, <=, <> and the
// wildcards * and ?; wildcard patterns match the whole value, so "mac*"
// matches "machine" but not "stomach". Matching is case-insensitive.
func compileCriterion(raw any) criterion {
	if raw == nil {
		return func(v any) bool { return v == nil || toString(v) == "" }
	}
	if n, ok := raw.(float64); ok {
		return numericEquals(n)
	}
	if b, ok := raw.(bool); ok {
		return func(v any) bool {
			vb, isBool := v.(bool)
			return isBool && vb == b
		}
	}

	text := toString(raw)
	if op, rest, ok := splitOperator(text); ok {
		return operatorCriterion(op, rest)
	}
	if n, ok := toNumber(text); ok {
		return numericEquals(n)
	}
	if strings.ContainsAny(text, "*?") {
		return wildcardCriterion(text)
	}
	return func(v any) bool {
		return v != nil && strings.EqualFold(toString(v), text)
	}
}

func numericEquals(n float64) criterion {
	return func(v any) bool {
		if v == nil || sheet.IsError(v) {
			return false
		}
		vn, ok := toNumber(v)
		return ok && vn == n
	}
}

// splitOperator peels a leading comparison operator off a string criterion,
// checking two-character operators first.
func splitOperator(s string) (op, rest string, ok bool) {
	for _, candidate := range []string{">=", "<=", "<>", ">", "<"} {
		if strings.HasPrefix(s, candidate) {
			return candidate, strings.TrimSpace(s[len(candidate):]), true
		}
	}
	if strings.HasPrefix(s, "=") {
		return "=", strings.TrimSpace(s[1:]), true
	}
	return "", "", false
}

func operatorCriterion(op, rest string) criterion {
	// "<>" with nothing after it means "not blank".
	if rest == "" {
		switch op {
		case "<>":
			return func(v any) bool { return v != nil && toString(v) != "" }
		case "=":
			return func(v any) bool { return v == nil || toString(v) == "" }
		}
		return func(any) bool { return false }
	}

	if threshold, ok := toNumber(rest); ok {
		return func(v any) bool {
			if v == nil || sheet.IsError(v) {
				return false
			}
			n, ok := toNumber(v)
			if !ok {
				// A non-number can only satisfy "not equal".
				return op == "<>"
			}
			switch op {
			case ">":
				return n > threshold
			case "<":
				return n < threshold
			case ">=":
				return n >= threshold
			case "<=":
				return n <= threshold
			case "=":
				return n == threshold
			case "<>":
				return n != threshold
			}
			return false
		}
	}

	lowered := strings.ToLower(rest)
	return func(v any) bool {
		if v == nil {
			return false
		}
		s := strings.ToLower(toString(v))
		switch op {
		case ">":
			return s > lowered
		case "<":
			return s < lowered
		case ">=":
			return s >= lowered
		case "<=":
			return s <= lowered
		case "=":
			return s == lowered
		case "<>":
			return s != lowered
		}
		return false
	}
}

// wildcardCriterion compiles * and ? into an anchored regular expression so
// the pattern must cover the entire value.
func wildcardCriterion(pattern string) criterion {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, ".*")
	escaped = strings.ReplaceAll(escaped, `\?`, ".")
	re, err := regexp.Compile("(?i)^" + escaped + "$")
	if err != nil {
		return func(any) bool { return false }
	}
	return func(v any) bool {
		return v != nil && re.MatchString(toString(v))
	}
}
