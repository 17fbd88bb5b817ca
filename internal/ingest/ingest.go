// Package ingest loads uploaded workbooks into cell collections. The engines
// never parse files themselves; this package turns XLSX, CSV and TSV uploads
// into the address-keyed cells they read.
package ingest

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

var (
	ErrEmptyFile   = errors.New("file is empty")
	ErrUnknownType = errors.New("unsupported file type")
)

// Options configures a load.
type Options struct {
	Sheet     string // XLSX sheet name; empty = first sheet
	Delimiter rune   // CSV delimiter; 0 = auto-detect
	SkipLines int    // metadata lines to drop before the data starts
	MaxCells  int    // cell cap; 0 = sheet.DefaultMaxCells
}

// LoadInfo describes what a load produced. Sheet is set for XLSX sources,
// Delimiter for CSV/TSV ones.
type LoadInfo struct {
	Rows      int    `json:"rows"`
	Cols      int    `json:"cols"`
	Cells     int    `json:"cells"`
	Truncated bool   `json:"truncated"`
	Sheet     string `json:"sheet,omitempty"`
	Delimiter string `json:"delimiter,omitempty"`
}

// Loader reads uploaded files into cell collections.
type Loader struct {
	opts   Options
	logger *slog.Logger
}

// NewLoader creates a loader. A zero Options value gives auto-detection and
// the default cell cap.
func NewLoader(opts Options, logger *slog.Logger) *Loader {
	if opts.MaxCells <= 0 {
		opts.MaxCells = sheet.DefaultLimits().MaxCells
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{opts: opts, logger: logger}
}

// Load dispatches on the filename extension: .xlsx and .xlsm go through the
// Excel reader, everything else through the delimiter-sniffing CSV reader.
func (l *Loader) Load(filename string, data []byte) (sheet.CellCollection, *LoadInfo, error) {
	if len(data) == 0 {
		return nil, nil, ErrEmptyFile
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return l.LoadXLSX(data)
	case ".csv", ".tsv", ".txt", "":
		return l.LoadCSV(data)
	default:
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownType, filepath.Ext(filename))
	}
}

// fill walks a dense row grid and stores typed cells, stopping at the cell
// cap. Row 1 of the grid stays row 1 of the collection, so header rows keep
// their place for analytics and pivots.
func (l *Loader) fill(rows [][]string) (sheet.CellCollection, bool) {
	cells := make(sheet.CellCollection)
	truncated := false

outer:
	for r, row := range rows {
		for c, raw := range row {
			value := typeValue(raw)
			if value == nil {
				continue
			}
			if len(cells) >= l.opts.MaxCells {
				truncated = true
				break outer
			}
			addr := sheet.Address{Row: r + 1, Col: c + 1}
			cells[addr.Label()] = sheet.NewCell(value)
		}
	}
	return cells, truncated
}

func (l *Loader) info(cells sheet.CellCollection, truncated bool) *LoadInfo {
	maxRow, maxCol := cells.Bounds()
	info := &LoadInfo{
		Rows:      maxRow,
		Cols:      maxCol,
		Cells:     len(cells),
		Truncated: truncated,
	}
	if truncated {
		l.logger.Warn("workbook truncated at cell cap",
			slog.Int("max_cells", l.opts.MaxCells),
		)
	}
	return info
}

// numberGroupRe matches US-grouped numbers like 1,234,567.89 so the grouping
// commas can be stripped before parsing. Plain "1,2" stays text rather than
// being misread as 12.
var numberGroupRe = regexp.MustCompile(`^-?\d{1,3}(?:,\d{3})+(?:\.\d+)?$`)

// dateFormats are tried in order; day-first before month-first matches how
// ambiguous numeric dates are usually meant in exported statements.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
	"01/02/2006",
	"02.01.2006",
}

// typeValue turns a raw file string into the value a cell should hold:
// float64, bool, time.Time or string. Empty strings become nil so no cell is
// stored.
func typeValue(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	if numberGroupRe.MatchString(s) {
		if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
			return f
		}
	}
	if strings.EqualFold(s, "true") {
		return true
	}
	if strings.EqualFold(s, "false") {
		return false
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return s
}
