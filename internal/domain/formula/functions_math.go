package formula

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

func (e *Evaluator) registerMath() {
	e.register(builtin{name: "SUM", minArgs: 1, fn: fnSum})
	e.register(builtin{name: "AVERAGE", minArgs: 1, fn: fnAverage})
	e.register(builtin{name: "COUNT", minArgs: 1, fn: fnCount})
	e.register(builtin{name: "COUNTA", minArgs: 1, fn: fnCountA})
	e.register(builtin{name: "MIN", minArgs: 1, fn: fnMin})
	e.register(builtin{name: "MAX", minArgs: 1, fn: fnMax})
	e.register(builtin{name: "MEDIAN", minArgs: 1, fn: fnMedian})
	e.register(builtin{name: "PRODUCT", minArgs: 1, fn: fnProduct})
	e.register(builtin{name: "SUMIF", minArgs: 2, maxArgs: 3, fn: fnSumIf})
	e.register(builtin{name: "COUNTIF", minArgs: 2, maxArgs: 2, fn: fnCountIf})
	e.register(builtin{name: "AVERAGEIF", minArgs: 2, maxArgs: 3, fn: fnAverageIf})
	e.register(builtin{name: "ROUND", minArgs: 1, maxArgs: 2, fn: fnRound})
	e.register(builtin{name: "ROUNDUP", minArgs: 1, maxArgs: 2, fn: fnRoundUp})
	e.register(builtin{name: "ROUNDDOWN", minArgs: 1, maxArgs: 2, fn: fnRoundDown})
	e.register(builtin{name: "PMT", minArgs: 3, maxArgs: 5, fn: fnPmt})
	e.register(builtin{name: "ABS", minArgs: 1, maxArgs: 1, fn: fnAbs})
	e.register(builtin{name: "SQRT", minArgs: 1, maxArgs: 1, fn: fnSqrt})
	e.register(builtin{name: "POWER", minArgs: 2, maxArgs: 2, fn: fnPower})
	e.register(builtin{name: "MOD", minArgs: 2, maxArgs: 2, fn: fnMod})
}

func fnSum(e *Evaluator, cells sheet.CellCollection, args []span) any {
	values, errv := e.collect(args, cells)
	if errv != nil {
		return errv
	}
	total := 0.0
	for _, n := range numericValues(values) {
		total += n
	}
	return total
}

// fnAverage divides by the count of numeric values, not the range size, so
// text inside the range shrinks the denominator rather than diluting the
// mean.
func fnAverage(e *Evaluator, cells sheet.CellCollection, args []span) any {
	values, errv := e.collect(args, cells)
	if errv != nil {
		return errv
	}
	nums := numericValues(values)
	if len(nums) == 0 {
		return sheet.Div0Error()
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total / float64(len(nums))
}

func fnCount(e *Evaluator, cells sheet.CellCollection, args []span) any {
	values, errv := e.collect(args, cells)
	if errv != nil {
		return errv
	}
	return float64(len(numericValues(values)))
}

func fnCountA(e *Evaluator, cells sheet.CellCollection, args []span) any {
	values, errv := e.collect(args, cells)
	if errv != nil {
		return errv
	}
	count := 0
	for _, v := range values {
		if v == nil {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		count++
	}
	return float64(count)
}

func fnMin(e *Evaluator, cells sheet.CellCollection, args []span) any {
	values, errv := e.collect(args, cells)
	if errv != nil {
		return errv
	}
	nums := numericValues(values)
	if len(nums) == 0 {
		return 0.0
	}
	min := nums[0]
	for _, n := range nums[1:] {
		if n < min {
			min = n
		}
	}
	return min
}

func fnMax(e *Evaluator, cells sheet.CellCollection, args []span) any {
	values, errv := e.collect(args, cells)
	if errv != nil {
		return errv
	}
	nums := numericValues(values)
	if len(nums) == 0 {
		return 0.0
	}
	max := nums[0]
	for _, n := range nums[1:] {
		if n > max {
			max = n
		}
	}
	return max
}

func fnMedian(e *Evaluator, cells sheet.CellCollection, args []span) any {
	values, errv := e.collect(args, cells)
	if errv != nil {
		return errv
	}
	nums := numericValues(values)
	if len(nums) == 0 {
		return sheet.EvalError("MEDIAN needs at least one numeric value")
	}
	sort.Float64s(nums)
	mid := len(nums) / 2
	if len(nums)%2 == 1 {
		return nums[mid]
	}
	return (nums[mid-1] + nums[mid]) / 2
}

func fnProduct(e *Evaluator, cells sheet.CellCollection, args []span) any {
	values, errv := e.collect(args, cells)
	if errv != nil {
		return errv
	}
	nums := numericValues(values)
	if len(nums) == 0 {
		return 0.0
	}
	product := 1.0
	for _, n := range nums {
		product *= n
	}
	return product
}

// matchedValues runs the shared SUMIF/COUNTIF/AVERAGEIF plumbing: expand the
// criteria range, compile the criterion, and pair each matching position with
// the corresponding cell of the target range (the criteria range itself when
// no separate target is given).
func matchedValues(e *Evaluator, cells sheet.CellCollection, args []span, targetIdx int) ([]any, any) {
	critAddrs, _, ok := e.rangeAddrs(args[0])
	if !ok {
		return nil, sheet.RefError("criteria range is not a valid range")
	}
	raw := e.scalar(args[1], cells)
	if sheet.IsError(raw) {
		return nil, raw
	}
	match := compileCriterion(raw)

	targetAddrs := critAddrs
	if targetIdx > 0 && len(args) > targetIdx {
		targetAddrs, _, ok = e.rangeAddrs(args[targetIdx])
		if !ok {
			return nil, sheet.RefError("target range is not a valid range")
		}
	}

	var matched []any
	for i, a := range critAddrs {
		if !match(cells.Value(a)) {
			continue
		}
		if i < len(targetAddrs) {
			matched = append(matched, cells.Value(targetAddrs[i]))
		}
	}
	return matched, nil
}

func fnSumIf(e *Evaluator, cells sheet.CellCollection, args []span) any {
	matched, errv := matchedValues(e, cells, args, 2)
	if errv != nil {
		return errv
	}
	total := 0.0
	for _, n := range numericValues(matched) {
		total += n
	}
	return total
}

func fnCountIf(e *Evaluator, cells sheet.CellCollection, args []span) any {
	critAddrs, _, ok := e.rangeAddrs(args[0])
	if !ok {
		return sheet.RefError("criteria range is not a valid range")
	}
	raw := e.scalar(args[1], cells)
	if sheet.IsError(raw) {
		return raw
	}
	match := compileCriterion(raw)
	count := 0
	for _, a := range critAddrs {
		if match(cells.Value(a)) {
			count++
		}
	}
	return float64(count)
}

func fnAverageIf(e *Evaluator, cells sheet.CellCollection, args []span) any {
	matched, errv := matchedValues(e, cells, args, 2)
	if errv != nil {
		return errv
	}
	nums := numericValues(matched)
	if len(nums) == 0 {
		return sheet.Div0Error()
	}
	total := 0.0
	for _, n := range nums {
		total += n
	}
	return total / float64(len(nums))
}

// roundArgs extracts the value and optional digit count shared by the ROUND
// family.
func roundArgs(e *Evaluator, cells sheet.CellCollection, args []span) (float64, int32, any) {
	n, errv := strictNumber(e.scalar(args[0], cells), "ROUND value")
	if errv != nil {
		return 0, 0, errv
	}
	digits := 0.0
	if len(args) == 2 {
		digits, errv = strictNumber(e.scalar(args[1], cells), "digit count")
		if errv != nil {
			return 0, 0, errv
		}
	}
	return n, int32(digits), nil
}

func fnRound(e *Evaluator, cells sheet.CellCollection, args []span) any {
	n, digits, errv := roundArgs(e, cells, args)
	if errv != nil {
		return errv
	}
	return decimal.NewFromFloat(n).Round(digits).InexactFloat64()
}

func fnRoundUp(e *Evaluator, cells sheet.CellCollection, args []span) any {
	n, digits, errv := roundArgs(e, cells, args)
	if errv != nil {
		return errv
	}
	return decimal.NewFromFloat(n).RoundUp(digits).InexactFloat64()
}

func fnRoundDown(e *Evaluator, cells sheet.CellCollection, args []span) any {
	n, digits, errv := roundArgs(e, cells, args)
	if errv != nil {
		return errv
	}
	return decimal.NewFromFloat(n).RoundDown(digits).InexactFloat64()
}

// fnPmt computes a loan payment. The sign follows spreadsheet convention:
// a positive present value yields a negative payment.
func fnPmt(e *Evaluator, cells sheet.CellCollection, args []span) any {
	rate, errv := strictNumber(e.scalar(args[0], cells), "rate")
	if errv != nil {
		return errv
	}
	nperF, errv := strictNumber(e.scalar(args[1], cells), "number of periods")
	if errv != nil {
		return errv
	}
	pv, errv := strictNumber(e.scalar(args[2], cells), "present value")
	if errv != nil {
		return errv
	}
	fv := 0.0
	if len(args) >= 4 {
		fv, errv = strictNumber(e.scalar(args[3], cells), "future value")
		if errv != nil {
			return errv
		}
	}
	due := false
	if len(args) == 5 {
		t, errv := strictNumber(e.scalar(args[4], cells), "payment type")
		if errv != nil {
			return errv
		}
		due = t != 0
	}

	nper := int(nperF)
	if nper <= 0 {
		return sheet.EvalError("number of periods must be positive")
	}
	if rate == 0 {
		return -(pv + fv) / float64(nper)
	}

	r := decimal.NewFromFloat(rate)
	onePlus := decimal.NewFromInt(1).Add(r)
	pow := decimal.NewFromInt(1)
	for i := 0; i < nper; i++ {
		pow = pow.Mul(onePlus)
	}
	denom := pow.Sub(decimal.NewFromInt(1))
	if denom.IsZero() {
		return sheet.Div0Error()
	}
	payment := decimal.NewFromFloat(pv).Mul(pow).
		Add(decimal.NewFromFloat(fv)).
		Mul(r).
		Div(denom).
		Neg()
	if due {
		payment = payment.Div(onePlus)
	}
	return payment.InexactFloat64()
}

func fnAbs(e *Evaluator, cells sheet.CellCollection, args []span) any {
	n, errv := strictNumber(e.scalar(args[0], cells), "ABS value")
	if errv != nil {
		return errv
	}
	return math.Abs(n)
}

func fnSqrt(e *Evaluator, cells sheet.CellCollection, args []span) any {
	n, errv := strictNumber(e.scalar(args[0], cells), "SQRT value")
	if errv != nil {
		return errv
	}
	if n < 0 {
		return sheet.EvalError("SQRT of a negative number")
	}
	return math.Sqrt(n)
}

func fnPower(e *Evaluator, cells sheet.CellCollection, args []span) any {
	base, errv := strictNumber(e.scalar(args[0], cells), "base")
	if errv != nil {
		return errv
	}
	exp, errv := strictNumber(e.scalar(args[1], cells), "exponent")
	if errv != nil {
		return errv
	}
	result := math.Pow(base, exp)
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return sheet.EvalError("POWER result out of range")
	}
	return result
}

// fnMod follows spreadsheet semantics: the result carries the divisor's sign.
func fnMod(e *Evaluator, cells sheet.CellCollection, args []span) any {
	n, errv := strictNumber(e.scalar(args[0], cells), "dividend")
	if errv != nil {
		return errv
	}
	d, errv := strictNumber(e.scalar(args[1], cells), "divisor")
	if errv != nil {
		return errv
	}
	if d == 0 {
		return sheet.Div0Error()
	}
	return n - d*math.Floor(n/d)
}
