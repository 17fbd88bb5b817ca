package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/xuri/excelize/v2"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/analytics"
)

// SummaryRow is the typed CSV row for one analyzed column. Numeric fields
// are strings so text columns can leave them blank.
type SummaryRow struct {
	Column  string `csv:"column"`
	Letter  string `csv:"letter"`
	Kind    string `csv:"kind"`
	Count   int    `csv:"count"`
	Missing int    `csv:"missing"`
	Sum     string `csv:"sum"`
	Mean    string `csv:"mean"`
	Median  string `csv:"median"`
	Min     string `csv:"min"`
	Max     string `csv:"max"`
	StdDev  string `csv:"std_dev"`
	Trend   string `csv:"trend"`
}

// ReportCSV renders the report's column summaries as CSV through the typed
// row struct, one line per column.
func ReportCSV(report analytics.Report) ([]byte, error) {
	trends := trendLabels(report)

	rows := make([]*SummaryRow, 0, len(report.Columns))
	for _, c := range report.Columns {
		row := &SummaryRow{
			Column:  c.Name,
			Letter:  c.Letter,
			Kind:    c.Kind,
			Count:   c.Count,
			Missing: c.Missing,
			Trend:   trends[c.Name],
		}
		if c.Stats != nil {
			row.Sum = num(c.Stats.Sum)
			row.Mean = num(c.Stats.Mean)
			row.Median = num(c.Stats.Median)
			row.Min = num(c.Stats.Min)
			row.Max = num(c.Stats.Max)
			row.StdDev = num(c.Stats.StdDev)
		}
		rows = append(rows, row)
	}

	return gocsv.MarshalBytes(&rows)
}

// ReportXLSX renders the full report as a workbook, one sheet per section.
// Sections without data are left out.
func ReportXLSX(report analytics.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return nil, err
	}
	if err := writeRows(f, "Summary", summaryGrid(report)); err != nil {
		return nil, err
	}

	if len(report.Trends) > 0 {
		if err := addSheet(f, "Trends", trendGrid(report)); err != nil {
			return nil, err
		}
	}
	if report.Correlation != nil {
		if err := addSheet(f, "Correlation", correlationGrid(report)); err != nil {
			return nil, err
		}
	}
	if len(report.Outliers) > 0 {
		if err := addSheet(f, "Outliers", outlierGrid(report)); err != nil {
			return nil, err
		}
	}
	if len(report.Histograms) > 0 {
		if err := addSheet(f, "Histograms", histogramGrid(report)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func addSheet(f *excelize.File, name string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	return writeRows(f, name, rows)
}

func summaryGrid(report analytics.Report) [][]any {
	trends := trendLabels(report)

	rows := [][]any{{"column", "letter", "kind", "count", "missing", "sum", "mean", "median", "min", "max", "std_dev", "trend"}}
	for _, c := range report.Columns {
		row := []any{c.Name, c.Letter, c.Kind, c.Count, c.Missing}
		if c.Stats != nil {
			row = append(row, c.Stats.Sum, c.Stats.Mean, c.Stats.Median, c.Stats.Min, c.Stats.Max, c.Stats.StdDev)
		} else {
			row = append(row, nil, nil, nil, nil, nil, nil)
		}
		row = append(row, trends[c.Name])
		rows = append(rows, row)
	}
	return rows
}

func trendGrid(report analytics.Report) [][]any {
	rows := [][]any{{"column", "label", "slope", "intercept", "r_squared", "forecast"}}
	for _, t := range report.Trends {
		forecast := make([]string, 0, len(t.Forecast))
		for _, v := range t.Forecast {
			forecast = append(forecast, num(v))
		}
		rows = append(rows, []any{t.Column, t.Label, t.Slope, t.Intercept, t.RSquared, strings.Join(forecast, ", ")})
	}
	return rows
}

func correlationGrid(report analytics.Report) [][]any {
	m := report.Correlation
	header := make([]any, 0, len(m.Columns)+1)
	header = append(header, "")
	for _, c := range m.Columns {
		header = append(header, c)
	}

	rows := [][]any{header}
	for i, c := range m.Columns {
		row := make([]any, 0, len(m.Columns)+1)
		row = append(row, c)
		for _, v := range m.Values[i] {
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return rows
}

func outlierGrid(report analytics.Report) [][]any {
	rows := [][]any{{"column", "address", "value", "z_score"}}
	for _, o := range report.Outliers {
		rows = append(rows, []any{o.Column, o.Address, o.Value, o.ZScore})
	}
	return rows
}

func histogramGrid(report analytics.Report) [][]any {
	rows := [][]any{{"column", "low", "high", "count"}}
	for _, h := range report.Histograms {
		for _, b := range h.Buckets {
			rows = append(rows, []any{h.Column, b.Low, b.High, b.Count})
		}
	}
	return rows
}

func trendLabels(report analytics.Report) map[string]string {
	labels := make(map[string]string, len(report.Trends))
	for _, t := range report.Trends {
		labels[t.Column] = t.Label
	}
	return labels
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
