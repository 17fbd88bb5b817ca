package sheet

import "encoding/json"

// ErrorCode enumerates the in-band evaluation failures. These are result
// values in the spreadsheet sense, not Go errors: evaluation always returns,
// and a failed computation yields one of these instead of a scalar.
type ErrorCode uint8

const (
	// ErrorCodeRef marks a reference to an invalid cell or range.
	ErrorCodeRef ErrorCode = iota
	// ErrorCodeNA marks a lookup that found no match.
	ErrorCodeNA
	// ErrorCodeDiv0 marks a division by zero.
	ErrorCodeDiv0
	// ErrorCodeGeneric marks a malformed or unsupported formula.
	ErrorCodeGeneric
)

// ErrorLabels maps codes to their spreadsheet display form.
var ErrorLabels = map[ErrorCode]string{
	ErrorCodeRef:     "#REF!",
	ErrorCodeNA:      "#N/A",
	ErrorCodeDiv0:    "#DIV/0!",
	ErrorCodeGeneric: "#ERROR!",
}

// ErrorValue is an error sentinel carried as a cell or formula value.
type ErrorValue struct {
	Code   ErrorCode
	Detail string
}

// RefError reports an invalid reference.
func RefError(detail string) ErrorValue {
	return ErrorValue{Code: ErrorCodeRef, Detail: detail}
}

// NAError reports a missed lookup.
func NAError(detail string) ErrorValue {
	return ErrorValue{Code: ErrorCodeNA, Detail: detail}
}

// Div0Error reports a division by zero.
func Div0Error() ErrorValue {
	return ErrorValue{Code: ErrorCodeDiv0}
}

// EvalError reports a malformed or unsupported formula.
func EvalError(detail string) ErrorValue {
	return ErrorValue{Code: ErrorCodeGeneric, Detail: detail}
}

// String returns the spreadsheet display form ("#N/A", "#DIV/0!", ...).
func (e ErrorValue) String() string {
	if label, ok := ErrorLabels[e.Code]; ok {
		return label
	}
	return ErrorLabels[ErrorCodeGeneric]
}

// MarshalJSON renders the sentinel as its display string so responses carry
// "#N/A" rather than a struct.
func (e ErrorValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.String())
}

// IsError reports whether a resolved value is an error sentinel.
func IsError(v any) bool {
	_, ok := v.(ErrorValue)
	return ok
}

// IsErrorLabel reports whether a string is one of the sentinel display forms.
func IsErrorLabel(s string) bool {
	for _, label := range ErrorLabels {
		if s == label {
			return true
		}
	}
	return false
}
