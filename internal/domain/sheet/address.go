// Package sheet defines the spreadsheet data model shared by the engines:
// addresses, cells, cell collections and the error sentinels that formula
// evaluation produces as values.
package sheet

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	ErrInvalidColumn  = errors.New("invalid column letters")
	ErrInvalidAddress = errors.New("invalid cell address")
	ErrInvalidRange   = errors.New("invalid range")
)

var (
	addressPattern = regexp.MustCompile(`^([A-Za-z]+)(\d+)$`)
	rangePattern   = regexp.MustCompile(`^([A-Za-z]+\d+):([A-Za-z]+\d+)$`)
)

// Address identifies a single cell. Row and Col are 1-indexed.
type Address struct {
	Row int
	Col int
}

// ColumnLabel converts a 1-indexed column number to its letter form
// (1 -> "A", 26 -> "Z", 27 -> "AA"). Base-26 with no zero digit, so the
// remainder 0 case borrows from the quotient.
func ColumnLabel(n int) string {
	if n < 1 {
		return ""
	}
	var b strings.Builder
	for n > 0 {
		rem := n % 26
		if rem == 0 {
			rem = 26
			n -= 26
		}
		b.WriteByte(byte('A' + rem - 1))
		n /= 26
	}
	runes := []byte(b.String())
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}

// ColumnNumber converts column letters back to the 1-indexed column number.
// The conversion round-trips exactly with ColumnLabel for any positive n.
func ColumnNumber(letters string) (int, error) {
	if letters == "" {
		return 0, ErrInvalidColumn
	}
	n := 0
	for _, r := range strings.ToUpper(letters) {
		if r < 'A' || r > 'Z' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidColumn, letters)
		}
		n = n*26 + int(r-'A'+1)
	}
	return n, nil
}

// ParseAddress parses a label like "AB12" into an Address.
func ParseAddress(label string) (Address, error) {
	m := addressPattern.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, label)
	}
	col, err := ColumnNumber(m[1])
	if err != nil {
		return Address{}, err
	}
	row, err := strconv.Atoi(m[2])
	if err != nil || row < 1 {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, label)
	}
	return Address{Row: row, Col: col}, nil
}

// Label renders the address in spreadsheet notation ("AB12").
func (a Address) Label() string {
	return ColumnLabel(a.Col) + strconv.Itoa(a.Row)
}

// Range is a rectangular span between two addresses, normalized so that
// Start.Row <= End.Row and Start.Col <= End.Col.
type Range struct {
	Start Address
	End   Address
}

// Rows returns the row count of the span.
func (r Range) Rows() int { return r.End.Row - r.Start.Row + 1 }

// Cols returns the column count of the span.
func (r Range) Cols() int { return r.End.Col - r.Start.Col + 1 }

// Size returns the number of cells the span covers.
func (r Range) Size() int { return r.Rows() * r.Cols() }

// Label renders the range in "A1:B2" notation.
func (r Range) Label() string {
	return r.Start.Label() + ":" + r.End.Label()
}

// RangeMeta reports how much of a range expansion was materialized. When a
// range exceeds the configured cell cap the expansion truncates instead of
// failing, and Truncated is set.
type RangeMeta struct {
	Total     int  `json:"total"`
	Returned  int  `json:"returned"`
	Truncated bool `json:"truncated"`
}

// Limits bounds how much data a single resolver call may materialize.
type Limits struct {
	// MaxCells caps the number of addresses ExpandRange returns.
	MaxCells int
}

// DefaultMaxCells is the default expansion cap. Generous enough for every
// realistic sheet operation while keeping a runaway range from exhausting
// memory.
const DefaultMaxCells = 50000

// DefaultLimits returns the resolver limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxCells: DefaultMaxCells}
}

// Resolver converts between textual labels and addresses and expands range
// labels into address lists under a configurable cell cap.
type Resolver struct {
	limits Limits
}

// NewResolver creates a resolver with the given limits. Zero or negative
// MaxCells falls back to DefaultMaxCells.
func NewResolver(limits Limits) *Resolver {
	if limits.MaxCells <= 0 {
		limits.MaxCells = DefaultMaxCells
	}
	return &Resolver{limits: limits}
}

// ParseRange parses "<col><row>:<col><row>" into a normalized Range.
// Reversed bounds ("B2:A1") are swapped rather than rejected.
func (r *Resolver) ParseRange(label string) (Range, error) {
	m := rangePattern.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, label)
	}
	start, err := ParseAddress(m[1])
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, label)
	}
	end, err := ParseAddress(m[2])
	if err != nil {
		return Range{}, fmt.Errorf("%w: %q", ErrInvalidRange, label)
	}
	if start.Col > end.Col {
		start.Col, end.Col = end.Col, start.Col
	}
	if start.Row > end.Row {
		start.Row, end.Row = end.Row, start.Row
	}
	return Range{Start: start, End: end}, nil
}

// ExpandRange expands a range label into the ordered list of addresses it
// covers: columns ascending, rows ascending within each column ("A1:B2"
// yields A1, A2, B1, B2). Expansions larger than the cell cap return the
// leading addresses plus truncation metadata.
func (r *Resolver) ExpandRange(label string) ([]Address, RangeMeta, error) {
	rng, err := r.ParseRange(label)
	if err != nil {
		return nil, RangeMeta{}, err
	}
	return r.Expand(rng), r.meta(rng), nil
}

// Expand materializes an already-parsed range under the same cap as
// ExpandRange.
func (r *Resolver) Expand(rng Range) []Address {
	total := rng.Size()
	n := total
	if n > r.limits.MaxCells {
		n = r.limits.MaxCells
	}
	out := make([]Address, 0, n)
	for col := rng.Start.Col; col <= rng.End.Col; col++ {
		for row := rng.Start.Row; row <= rng.End.Row; row++ {
			if len(out) == n {
				return out
			}
			out = append(out, Address{Row: row, Col: col})
		}
	}
	return out
}

// MaxCells reports the configured expansion cap.
func (r *Resolver) MaxCells() int { return r.limits.MaxCells }

func (r *Resolver) meta(rng Range) RangeMeta {
	total := rng.Size()
	returned := total
	if returned > r.limits.MaxCells {
		returned = r.limits.MaxCells
	}
	return RangeMeta{Total: total, Returned: returned, Truncated: returned < total}
}

// IsRangeLabel reports whether the text looks like a range label.
func IsRangeLabel(s string) bool {
	return rangePattern.MatchString(strings.TrimSpace(s))
}

// IsAddressLabel reports whether the text looks like a single cell label.
func IsAddressLabel(s string) bool {
	return addressPattern.MatchString(strings.TrimSpace(s))
}
