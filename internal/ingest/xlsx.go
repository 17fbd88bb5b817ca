package ingest

import (
	"bytes"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// LoadXLSX reads an Excel workbook. Options.Sheet picks the worksheet by
// name; when empty the first sheet is used. Cell values are the computed
// results excelize reports, so formula cells arrive as their cached values.
func (l *Loader) LoadXLSX(data []byte) (sheet.CellCollection, *LoadInfo, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	name, err := l.pickSheet(f)
	if err != nil {
		return nil, nil, err
	}

	rows, err := f.GetRows(name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
	}
	if l.opts.SkipLines > 0 {
		if l.opts.SkipLines >= len(rows) {
			rows = nil
		} else {
			rows = rows[l.opts.SkipLines:]
		}
	}
	if len(rows) == 0 {
		return nil, nil, ErrEmptyFile
	}

	cells, truncated := l.fill(rows)
	info := l.info(cells, truncated)
	info.Sheet = name

	l.logger.Debug("workbook loaded",
		slog.String("sheet", name),
		slog.Int("rows", info.Rows),
		slog.Int("cells", info.Cells),
	)
	return cells, info, nil
}

func (l *Loader) pickSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", ErrEmptyFile
	}
	if l.opts.Sheet == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if s == l.opts.Sheet {
			return s, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found (have %v)", l.opts.Sheet, sheets)
}
