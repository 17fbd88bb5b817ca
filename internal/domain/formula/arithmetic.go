package formula

import (
	"strconv"

	"github.com/xuri/efp"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// evalArithmetic handles formulas that are plain arithmetic rather than a
// function call: numbers, single-cell references, + - * /, unary sign and
// parentheses. The token stream is validated before anything is computed;
// any other token rejects the whole expression. This is deliberately not a
// general expression engine.
func (e *Evaluator) evalArithmetic(s span, cells sheet.CellCollection) any {
	for _, t := range s {
		if !arithmeticToken(t) {
			return sheet.EvalError("unsupported expression near " + t.TValue)
		}
	}
	p := &arithParser{e: e, cells: cells, toks: s}
	v := p.expr()
	if p.err != nil {
		return p.err
	}
	if p.pos != len(p.toks) {
		return sheet.EvalError("unexpected token " + p.toks[p.pos].TValue)
	}
	return v
}

func arithmeticToken(t efp.Token) bool {
	switch t.TType {
	case efp.TokenTypeOperand:
		return t.TSubType == efp.TokenSubTypeNumber || t.TSubType == efp.TokenSubTypeRange
	case efp.TokenTypeOperatorInfix:
		return t.TValue == "+" || t.TValue == "-" || t.TValue == "*" || t.TValue == "/"
	case efp.TokenTypeOperatorPrefix:
		return t.TValue == "+" || t.TValue == "-"
	case efp.TokenTypeSubexpression:
		return t.TSubType == efp.TokenSubTypeStart || t.TSubType == efp.TokenSubTypeStop
	default:
		return false
	}
}

// arithParser is a recursive-descent evaluator over the validated tokens.
type arithParser struct {
	e     *Evaluator
	cells sheet.CellCollection
	toks  span
	pos   int
	err   any
}

func (p *arithParser) fail(err any) float64 {
	if p.err == nil {
		p.err = err
	}
	return 0
}

func (p *arithParser) peek() (efp.Token, bool) {
	if p.pos >= len(p.toks) {
		return efp.Token{}, false
	}
	return p.toks[p.pos], true
}

// expr := term (('+'|'-') term)*
func (p *arithParser) expr() float64 {
	v := p.term()
	for p.err == nil {
		t, ok := p.peek()
		if !ok || t.TType != efp.TokenTypeOperatorInfix || (t.TValue != "+" && t.TValue != "-") {
			return v
		}
		p.pos++
		rhs := p.term()
		if t.TValue == "+" {
			v += rhs
		} else {
			v -= rhs
		}
	}
	return v
}

// term := factor (('*'|'/') factor)*
func (p *arithParser) term() float64 {
	v := p.factor()
	for p.err == nil {
		t, ok := p.peek()
		if !ok || t.TType != efp.TokenTypeOperatorInfix || (t.TValue != "*" && t.TValue != "/") {
			return v
		}
		p.pos++
		rhs := p.factor()
		if t.TValue == "*" {
			v *= rhs
			continue
		}
		if rhs == 0 {
			return p.fail(sheet.Div0Error())
		}
		v /= rhs
	}
	return v
}

// factor := ('+'|'-')* primary
func (p *arithParser) factor() float64 {
	t, ok := p.peek()
	if !ok {
		return p.fail(sheet.EvalError("expression ended unexpectedly"))
	}
	if t.TType == efp.TokenTypeOperatorPrefix {
		p.pos++
		v := p.factor()
		if t.TValue == "-" {
			return -v
		}
		return v
	}
	return p.primary()
}

func (p *arithParser) primary() float64 {
	t, ok := p.peek()
	if !ok {
		return p.fail(sheet.EvalError("expression ended unexpectedly"))
	}
	switch {
	case t.TType == efp.TokenTypeSubexpression && t.TSubType == efp.TokenSubTypeStart:
		p.pos++
		v := p.expr()
		closing, ok := p.peek()
		if !ok || closing.TType != efp.TokenTypeSubexpression || closing.TSubType != efp.TokenSubTypeStop {
			return p.fail(sheet.EvalError("unbalanced parentheses"))
		}
		p.pos++
		return v
	case t.TType == efp.TokenTypeOperand && t.TSubType == efp.TokenSubTypeNumber:
		p.pos++
		n, err := strconv.ParseFloat(t.TValue, 64)
		if err != nil {
			return p.fail(sheet.EvalError("bad number " + t.TValue))
		}
		return n
	case t.TType == efp.TokenTypeOperand && t.TSubType == efp.TokenSubTypeRange:
		p.pos++
		return p.cellNumber(t.TValue)
	default:
		return p.fail(sheet.EvalError("unexpected token " + t.TValue))
	}
}

// cellNumber substitutes a single-cell reference with its numeric value.
// Empty cells count as zero; a multi-cell range or non-numeric content
// rejects the expression.
func (p *arithParser) cellNumber(ref string) float64 {
	ref = normalizeRef(ref)
	if sheet.IsRangeLabel(ref) {
		return p.fail(sheet.RefError("range " + ref + " not allowed in arithmetic"))
	}
	addr, err := sheet.ParseAddress(ref)
	if err != nil {
		return p.fail(sheet.RefError(ref))
	}
	v := p.cells.Value(addr)
	if v == nil {
		return 0
	}
	if ev, ok := v.(sheet.ErrorValue); ok {
		return p.fail(ev)
	}
	n, ok := toNumber(v)
	if !ok {
		return p.fail(sheet.EvalError(ref + " is not numeric"))
	}
	return n
}
