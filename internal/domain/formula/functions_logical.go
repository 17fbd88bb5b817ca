package formula

import (
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

func (e *Evaluator) registerLogical() {
	e.register(builtin{name: "IF", minArgs: 2, maxArgs: 3, fn: fnIf})
	e.register(builtin{name: "IFS", minArgs: 2, fn: fnIfs})
	e.register(builtin{name: "AND", minArgs: 1, fn: fnAnd})
	e.register(builtin{name: "OR", minArgs: 1, fn: fnOr})
	e.register(builtin{name: "NOT", minArgs: 1, maxArgs: 1, fn: fnNot})
}

// fnIf evaluates only the branch the condition selects, so an untaken branch
// cannot surface an error.
func fnIf(e *Evaluator, cells sheet.CellCollection, args []span) any {
	cond := e.scalar(args[0], cells)
	if sheet.IsError(cond) {
		return cond
	}
	if isTruthy(cond) {
		return e.scalar(args[1], cells)
	}
	if len(args) == 3 {
		return e.scalar(args[2], cells)
	}
	return false
}

// fnIfs walks condition/value pairs in order and returns the value of the
// first true condition. TRUE as a final condition acts as the default arm.
func fnIfs(e *Evaluator, cells sheet.CellCollection, args []span) any {
	if len(args)%2 != 0 {
		return sheet.EvalError("IFS expects condition/value pairs")
	}
	for i := 0; i < len(args); i += 2 {
		cond := e.scalar(args[i], cells)
		if sheet.IsError(cond) {
			return cond
		}
		if isTruthy(cond) {
			return e.scalar(args[i+1], cells)
		}
	}
	return sheet.NAError("no condition matched")
}

func fnAnd(e *Evaluator, cells sheet.CellCollection, args []span) any {
	values, errv := e.collect(args, cells)
	if errv != nil {
		return errv
	}
	for _, v := range values {
		if sheet.IsError(v) {
			return v
		}
		if !isTruthy(v) {
			return false
		}
	}
	return true
}

func fnOr(e *Evaluator, cells sheet.CellCollection, args []span) any {
	values, errv := e.collect(args, cells)
	if errv != nil {
		return errv
	}
	for _, v := range values {
		if sheet.IsError(v) {
			return v
		}
		if isTruthy(v) {
			return true
		}
	}
	return false
}

func fnNot(e *Evaluator, cells sheet.CellCollection, args []span) any {
	v := e.scalar(args[0], cells)
	if sheet.IsError(v) {
		return v
	}
	return !isTruthy(v)
}
