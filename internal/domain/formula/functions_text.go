package formula

import (
	"strings"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

func (e *Evaluator) registerText() {
	e.register(builtin{name: "CONCATENATE", minArgs: 1, fn: fnConcatenate})
	e.register(builtin{name: "LEFT", minArgs: 1, maxArgs: 2, fn: fnLeft})
	e.register(builtin{name: "RIGHT", minArgs: 1, maxArgs: 2, fn: fnRight})
	e.register(builtin{name: "MID", minArgs: 3, maxArgs: 3, fn: fnMid})
	e.register(builtin{name: "UPPER", minArgs: 1, maxArgs: 1, fn: fnUpper})
	e.register(builtin{name: "LOWER", minArgs: 1, maxArgs: 1, fn: fnLower})
	e.register(builtin{name: "TRIM", minArgs: 1, maxArgs: 1, fn: fnTrim})
	e.register(builtin{name: "LEN", minArgs: 1, maxArgs: 1, fn: fnLen})
}

func fnConcatenate(e *Evaluator, cells sheet.CellCollection, args []span) any {
	values, errv := e.collect(args, cells)
	if errv != nil {
		return errv
	}
	var b strings.Builder
	for _, v := range values {
		if sheet.IsError(v) {
			return v
		}
		b.WriteString(toString(v))
	}
	return b.String()
}

// textArg resolves the subject of a text function to its display string.
func textArg(e *Evaluator, cells sheet.CellCollection, arg span) (string, any) {
	v := e.scalar(arg, cells)
	if sheet.IsError(v) {
		return "", v
	}
	return toString(v), nil
}

// countArg resolves an optional character count, defaulting to one.
func countArg(e *Evaluator, cells sheet.CellCollection, args []span, idx int) (int, any) {
	if len(args) <= idx {
		return 1, nil
	}
	n, errv := strictNumber(e.scalar(args[idx], cells), "character count")
	if errv != nil {
		return 0, errv
	}
	if n < 0 {
		return 0, sheet.EvalError("character count must not be negative")
	}
	return int(n), nil
}

func fnLeft(e *Evaluator, cells sheet.CellCollection, args []span) any {
	text, errv := textArg(e, cells, args[0])
	if errv != nil {
		return errv
	}
	count, errv := countArg(e, cells, args, 1)
	if errv != nil {
		return errv
	}
	runes := []rune(text)
	if count > len(runes) {
		count = len(runes)
	}
	return string(runes[:count])
}

func fnRight(e *Evaluator, cells sheet.CellCollection, args []span) any {
	text, errv := textArg(e, cells, args[0])
	if errv != nil {
		return errv
	}
	count, errv := countArg(e, cells, args, 1)
	if errv != nil {
		return errv
	}
	runes := []rune(text)
	if count > len(runes) {
		count = len(runes)
	}
	return string(runes[len(runes)-count:])
}

// fnMid extracts a substring by 1-based character position, clamped to the
// end of the text.
func fnMid(e *Evaluator, cells sheet.CellCollection, args []span) any {
	text, errv := textArg(e, cells, args[0])
	if errv != nil {
		return errv
	}
	startF, errv := strictNumber(e.scalar(args[1], cells), "start position")
	if errv != nil {
		return errv
	}
	lengthF, errv := strictNumber(e.scalar(args[2], cells), "length")
	if errv != nil {
		return errv
	}
	start, length := int(startF), int(lengthF)
	if start < 1 {
		return sheet.EvalError("start position must be at least 1")
	}
	if length < 0 {
		return sheet.EvalError("length must not be negative")
	}
	runes := []rune(text)
	if start > len(runes) {
		return ""
	}
	end := start - 1 + length
	if end > len(runes) {
		end = len(runes)
	}
	return string(runes[start-1 : end])
}

func fnUpper(e *Evaluator, cells sheet.CellCollection, args []span) any {
	text, errv := textArg(e, cells, args[0])
	if errv != nil {
		return errv
	}
	return strings.ToUpper(text)
}

func fnLower(e *Evaluator, cells sheet.CellCollection, args []span) any {
	text, errv := textArg(e, cells, args[0])
	if errv != nil {
		return errv
	}
	return strings.ToLower(text)
}

// fnTrim removes leading and trailing whitespace and collapses interior runs
// to a single space.
func fnTrim(e *Evaluator, cells sheet.CellCollection, args []span) any {
	text, errv := textArg(e, cells, args[0])
	if errv != nil {
		return errv
	}
	return strings.Join(strings.Fields(text), " ")
}

func fnLen(e *Evaluator, cells sheet.CellCollection, args []span) any {
	text, errv := textArg(e, cells, args[0])
	if errv != nil {
		return errv
	}
	return float64(len([]rune(text)))
}
