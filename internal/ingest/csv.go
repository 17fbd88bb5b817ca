package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// LoadCSV parses delimited text into cells. The delimiter is sniffed from
// the first data line unless Options.Delimiter is set.
func (l *Loader) LoadCSV(data []byte) (sheet.CellCollection, *LoadInfo, error) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	lines := strings.Split(string(data), "\n")
	if l.opts.SkipLines > 0 {
		if l.opts.SkipLines >= len(lines) {
			return nil, nil, ErrEmptyFile
		}
		lines = lines[l.opts.SkipLines:]
	}

	delimiter := l.opts.Delimiter
	if delimiter == 0 {
		delimiter = sniffDelimiter(lines)
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // Variable field count

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse delimited text: %w", err)
		}
		rows = append(rows, record)
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptyFile
	}

	cells, truncated := l.fill(rows)
	info := l.info(cells, truncated)
	info.Delimiter = string(delimiter)

	l.logger.Debug("delimited text loaded",
		slog.String("delimiter", info.Delimiter),
		slog.Int("rows", info.Rows),
		slog.Int("cells", info.Cells),
	)
	return cells, info, nil
}

// sniffDelimiter scores candidate delimiters by how often they appear in the
// first non-empty line. A file with no delimiter at all is a single column
// and defaults to comma.
func sniffDelimiter(lines []string) rune {
	line := ""
	for _, candidate := range lines {
		candidate = strings.TrimRight(candidate, "\r")
		if strings.TrimSpace(candidate) != "" {
			line = candidate
			break
		}
	}

	best := ','
	bestCount := 0
	for _, d := range []rune{';', '\t', ',', '|'} {
		if count := strings.Count(line, string(d)); count > bestCount {
			bestCount = count
			best = d
		}
	}
	return best
}
