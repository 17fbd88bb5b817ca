package analytics

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// column is the working form of one sheet column: its non-empty samples in
// row order plus the numeric classification.
type column struct {
	index     int    // 1-based sheet column
	letter    string // "A", "B", ...
	name      string // header text, or the letter when no header row exists
	samples   []sample
	points    []point // numeric samples with their sheet rows
	dataRows  int     // rows spanned after any header row
	share     float64 // fraction of samples that parse as numbers
	isNumeric bool
}

type sample struct {
	row   int
	value any
}

type point struct {
	row   int
	value float64
}

func (c column) numbers() []float64 {
	nums := make([]float64, len(c.points))
	for i, p := range c.points {
		nums[i] = p.value
	}
	return nums
}

// extractColumns walks the grid bounds column by column. When the first
// populated row holds no numbers at all it is consumed as the header row;
// otherwise every row is data and columns are named by their letters.
func extractColumns(cells sheet.CellCollection, numericShare float64) []column {
	maxRow, maxCol := cells.Bounds()
	if maxRow == 0 || maxCol == 0 {
		return nil
	}

	headerRow := detectHeaderRow(cells, maxRow, maxCol)
	firstDataRow := 1
	if headerRow > 0 {
		firstDataRow = headerRow + 1
	}

	cols := make([]column, 0, maxCol)
	for colIdx := 1; colIdx <= maxCol; colIdx++ {
		c := column{
			index:    colIdx,
			letter:   sheet.ColumnLabel(colIdx),
			name:     sheet.ColumnLabel(colIdx),
			dataRows: maxRow - firstDataRow + 1,
		}
		if headerRow > 0 {
			if h := cells.Value(sheet.Address{Row: headerRow, Col: colIdx}); h != nil {
				if s := strings.TrimSpace(displayString(h)); s != "" {
					c.name = s
				}
			}
		}

		for row := firstDataRow; row <= maxRow; row++ {
			v := cells.Value(sheet.Address{Row: row, Col: colIdx})
			if isBlank(v) {
				continue
			}
			c.samples = append(c.samples, sample{row: row, value: v})
			if n, ok := numericValue(v); ok {
				c.points = append(c.points, point{row: row, value: n})
			}
		}

		if len(c.samples) > 0 {
			c.share = float64(len(c.points)) / float64(len(c.samples))
		}
		c.isNumeric = len(c.points) > 0 && c.share >= numericShare
		cols = append(cols, c)
	}
	return cols
}

// detectHeaderRow returns the first populated row if none of its values are
// numeric and data rows follow it, otherwise 0. A fully numeric first row is
// data, so a plain column of numbers is never truncated by mistake.
func detectHeaderRow(cells sheet.CellCollection, maxRow, maxCol int) int {
	for row := 1; row <= maxRow; row++ {
		populated := 0
		numeric := 0
		for col := 1; col <= maxCol; col++ {
			v := cells.Value(sheet.Address{Row: row, Col: col})
			if isBlank(v) {
				continue
			}
			populated++
			if _, ok := numericValue(v); ok {
				numeric++
			}
		}
		if populated == 0 {
			continue
		}
		if numeric == 0 && row < maxRow {
			return row
		}
		return 0
	}
	return 0
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// numericValue parses cell content as a number. Error sentinels, booleans
// and dates are not numeric for analysis purposes.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func displayString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		if s {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return s.Format("2006-01-02")
	case sheet.ErrorValue:
		return s.String()
	default:
		return ""
	}
}

func mean(nums []float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	sum := 0.0
	for _, n := range nums {
		sum += n
	}
	return sum / float64(len(nums))
}

// stdDev is the population standard deviation around the given mean.
func stdDev(nums []float64, mu float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	ss := 0.0
	for _, n := range nums {
		d := n - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(nums)))
}

func median(nums []float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	sorted := make([]float64, len(nums))
	copy(sorted, nums)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
