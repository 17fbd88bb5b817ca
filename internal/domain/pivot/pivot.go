// Package pivot groups grid records by dimension fields and aggregates value
// fields per group. The first populated row of the grid names the fields and
// every later row is a record; output is fully sorted so identical input
// yields identical output.
package pivot

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// GroupSeparator joins dimension values into a grouping key. The unit
// separator control character cannot appear in ordinary field values, so
// composite keys never collide.
const GroupSeparator = "\x1f"

// DefaultMaxGroups bounds the number of materialized groups per pivot.
const DefaultMaxGroups = 10000

var (
	ErrNoData             = errors.New("pivot: no data rows")
	ErrUnknownField       = errors.New("pivot: unknown field")
	ErrUnknownAggregation = errors.New("pivot: unknown aggregation")
)

// Config selects the dimensions, value fields and aggregations of a pivot.
type Config struct {
	// Rows are the row-dimension field names, in grouping order.
	Rows []string `json:"rows"`
	// Columns are the column-dimension field names, grouped after Rows.
	Columns []string `json:"columns"`
	// Values are the fields to aggregate. When empty the pivot emits a
	// bare record count per group.
	Values []string `json:"values"`
	// Aggregations apply to every value field; defaults to ["sum"].
	Aggregations []string `json:"aggregations"`
}

// Result is the computed pivot table.
type Result struct {
	// Fields lists the output columns in order: row dimensions, column
	// dimensions, then one aggregate column per (field, aggregation) pair.
	Fields []string `json:"fields"`
	// Rows hold the grouped output, sorted by row-dimension values then
	// column-dimension values.
	Rows []map[string]any `json:"rows"`
	// Groups is the number of distinct groups in the source data, which
	// exceeds len(Rows) only when truncated.
	Groups    int  `json:"groups"`
	Truncated bool `json:"truncated"`
}

// Engine computes pivots under a group-count bound.
type Engine struct {
	maxGroups int
	logger    *slog.Logger
}

// NewEngine creates a pivot engine. A non-positive bound uses the default.
func NewEngine(maxGroups int, logger *slog.Logger) *Engine {
	if maxGroups <= 0 {
		maxGroups = DefaultMaxGroups
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{maxGroups: maxGroups, logger: logger}
}

// Pivot groups the grid's records and aggregates the configured value
// fields. Groups beyond the engine bound are dropped and reported through
// Groups/Truncated rather than failing the call.
func (e *Engine) Pivot(cells sheet.CellCollection, cfg Config) (Result, error) {
	tbl, err := extractTable(cells)
	if err != nil {
		return Result{}, err
	}

	rowIdx, err := tbl.fieldOffsets(cfg.Rows)
	if err != nil {
		return Result{}, err
	}
	colIdx, err := tbl.fieldOffsets(cfg.Columns)
	if err != nil {
		return Result{}, err
	}
	valIdx, err := tbl.fieldOffsets(cfg.Values)
	if err != nil {
		return Result{}, err
	}
	aggs, err := normalizeAggregations(cfg.Aggregations, len(valIdx) > 0)
	if err != nil {
		return Result{}, err
	}

	groups := map[string]*group{}
	var order []string
	total := 0
	for _, rec := range tbl.records {
		parts := make([]string, 0, len(rowIdx)+len(colIdx))
		for _, idx := range rowIdx {
			parts = append(parts, rec.display(idx))
		}
		for _, idx := range colIdx {
			parts = append(parts, rec.display(idx))
		}
		key := strings.Join(parts, GroupSeparator)

		g, ok := groups[key]
		if !ok {
			total++
			if len(groups) >= e.maxGroups {
				continue
			}
			g = newGroup(parts[:len(rowIdx)], parts[len(rowIdx):], len(valIdx)*len(aggs))
			groups[key] = g
			order = append(order, key)
		}
		g.size++
		for vi, idx := range valIdx {
			if n, ok := rec.number(idx); ok {
				for ai := range aggs {
					g.accs[vi*len(aggs)+ai].add(n)
				}
			}
		}
	}

	result := Result{
		Fields:    outputFields(cfg, tbl, rowIdx, colIdx, valIdx, aggs),
		Groups:    total,
		Truncated: total > len(groups),
	}

	sort.Slice(order, func(i, j int) bool {
		return groups[order[i]].less(groups[order[j]])
	})

	result.Rows = make([]map[string]any, 0, len(order))
	for _, key := range order {
		g := groups[key]
		row := map[string]any{}
		for i, idx := range rowIdx {
			row[tbl.fields[idx]] = g.rowVals[i]
		}
		for i, idx := range colIdx {
			row[tbl.fields[idx]] = g.colVals[i]
		}
		if len(valIdx) == 0 {
			row["count"] = float64(g.size)
		}
		for vi, idx := range valIdx {
			for ai, agg := range aggs {
				name := tbl.fields[idx] + "_" + agg
				row[name] = g.accs[vi*len(aggs)+ai].result(agg)
			}
		}
		result.Rows = append(result.Rows, row)
	}

	if result.Truncated {
		e.logger.Warn("pivot truncated",
			slog.Int("groups", total),
			slog.Int("limit", e.maxGroups),
		)
	}
	return result, nil
}

// outputFields lists the result columns in deterministic order.
func outputFields(cfg Config, tbl *table, rowIdx, colIdx, valIdx []int, aggs []string) []string {
	fields := make([]string, 0, len(rowIdx)+len(colIdx)+len(valIdx)*len(aggs)+1)
	for _, idx := range rowIdx {
		fields = append(fields, tbl.fields[idx])
	}
	for _, idx := range colIdx {
		fields = append(fields, tbl.fields[idx])
	}
	if len(valIdx) == 0 {
		return append(fields, "count")
	}
	for _, idx := range valIdx {
		for _, agg := range aggs {
			fields = append(fields, tbl.fields[idx]+"_"+agg)
		}
	}
	return fields
}

func normalizeAggregations(raw []string, hasValues bool) ([]string, error) {
	if !hasValues {
		return nil, nil
	}
	if len(raw) == 0 {
		return []string{AggSum}, nil
	}
	out := make([]string, 0, len(raw))
	seen := map[string]bool{}
	for _, a := range raw {
		norm := strings.ToLower(strings.TrimSpace(a))
		if !validAggregation(norm) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAggregation, a)
		}
		if seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, norm)
	}
	return out, nil
}

// group accumulates one dimension combination.
type group struct {
	rowVals []string
	colVals []string
	size    int
	accs    []*accumulator
}

func newGroup(rowVals, colVals []string, n int) *group {
	g := &group{
		rowVals: append([]string(nil), rowVals...),
		colVals: append([]string(nil), colVals...),
		accs:    make([]*accumulator, n),
	}
	for i := range g.accs {
		g.accs[i] = &accumulator{}
	}
	return g
}

func (g *group) less(other *group) bool {
	for i, v := range g.rowVals {
		if v != other.rowVals[i] {
			return v < other.rowVals[i]
		}
	}
	for i, v := range g.colVals {
		if v != other.colVals[i] {
			return v < other.colVals[i]
		}
	}
	return false
}
