// Package command classifies free-text spreadsheet instructions into
// operations and executes them against a cell collection.
//
// Classification is a fixed, ordered walk over a rule list: the first rule
// whose trigger phrase appears in the instruction wins. Rules are ordered by
// category so that explicit function names beat generic verbs, generic verbs
// beat structural operations, and cell operations beat formatting. The rule
// list is plain data, so the precedence itself is unit-testable.
package command

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/analytics"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/formula"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/pivot"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// Category orders rules by how specific their triggers are.
type Category string

const (
	CategoryFunction   Category = "function"   // explicit function names, e.g. vlookup
	CategoryAnalysis   Category = "analysis"   // pivot, charts, statistics
	CategoryAggregate  Category = "aggregate"  // generic verbs like sum and count
	CategoryStructural Category = "structural" // sort, filter, copy, clear
	CategoryCells      Category = "cells"      // set and read individual cells
	CategoryFormatting Category = "formatting" // bold, colors, alignment
	CategoryMeta       Category = "meta"       // help
)

// Rule pairs trigger phrases with a handler. A rule with no triggers relies
// entirely on its When predicate.
type Rule struct {
	Name     string
	Category Category
	Triggers []string
	Example  string
	When     func(in *Input) bool
	Handle   func(in *Input) Response
}

// CellUpdate is one cell mutation a command wants applied.
type CellUpdate struct {
	Address string `json:"address"`
	Value   any    `json:"value"`
	Formula string `json:"formula,omitempty"`
}

// FormatUpdate carries styling for a range of cells.
type FormatUpdate struct {
	Range  string       `json:"range"`
	Format sheet.Format `json:"format"`
}

// Response is the interpreter's answer to one instruction. Success false
// means the instruction was understood but could not be executed, or was
// not understood at all; Message always explains which.
type Response struct {
	Success     bool          `json:"success"`
	Action      string        `json:"action,omitempty"`
	Message     string        `json:"message"`
	Formula     string        `json:"formula,omitempty"`
	Data        any           `json:"data,omitempty"`
	CellUpdates []CellUpdate  `json:"cell_updates,omitempty"`
	Formatting  *FormatUpdate `json:"formatting,omitempty"`
	Suggestions []string      `json:"suggestions,omitempty"`
}

// Match is one search hit returned by the find command.
type Match struct {
	Address string  `json:"address"`
	Value   any     `json:"value"`
	Score   float64 `json:"score,omitempty"`
}

// Searcher resolves free-text queries against a cell collection. The server
// wires the bleve-backed index in here; without one the interpreter falls
// back to a linear scan.
type Searcher interface {
	Search(cells sheet.CellCollection, query string, limit int) ([]Match, error)
}

// Dependencies are the engines the handlers delegate to. Nil fields get
// defaults, except Searcher which stays optional.
type Dependencies struct {
	Resolver  *sheet.Resolver
	Evaluator *formula.Evaluator
	Analytics *analytics.Engine
	Pivots    *pivot.Engine
	Searcher  Searcher
	Logger    *slog.Logger
}

// Interpreter walks the rule list for each instruction. A single
// Aho-Corasick pass over the uppercased input finds which trigger phrases
// occur; word-boundary checks then weed out substring hits like "sum"
// inside "summary".
type Interpreter struct {
	resolver  *sheet.Resolver
	evaluator *formula.Evaluator
	analytics *analytics.Engine
	pivots    *pivot.Engine
	searcher  Searcher
	logger    *slog.Logger

	rules    []Rule
	matcher  *ahocorasick.Matcher
	patterns []string
	owners   [][]int
	boundary []*regexp.Regexp
}

func NewInterpreter(deps Dependencies, logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.Default()
	}
	resolver := deps.Resolver
	if resolver == nil {
		resolver = sheet.NewResolver(sheet.DefaultLimits())
	}
	evaluator := deps.Evaluator
	if evaluator == nil {
		evaluator = formula.NewEvaluator(resolver, logger)
	}
	analyzer := deps.Analytics
	if analyzer == nil {
		analyzer = analytics.NewEngine(analytics.DefaultOptions(), logger)
	}
	pivots := deps.Pivots
	if pivots == nil {
		pivots = pivot.NewEngine(0, logger)
	}
	i := &Interpreter{
		resolver:  resolver,
		evaluator: evaluator,
		analytics: analyzer,
		pivots:    pivots,
		searcher:  deps.Searcher,
		logger:    logger,
	}
	i.rules = i.buildRules()
	i.compileTriggers()
	return i
}

// Rules exposes the ordered rule list so precedence can be asserted on
// directly.
func (i *Interpreter) Rules() []Rule {
	out := make([]Rule, len(i.rules))
	copy(out, i.rules)
	return out
}

func (i *Interpreter) compileTriggers() {
	var patterns []string
	var owners [][]int
	var boundary []*regexp.Regexp
	seen := make(map[string]int)
	for idx, r := range i.rules {
		for _, t := range r.Triggers {
			upper := strings.ToUpper(t)
			if at, ok := seen[upper]; ok {
				owners[at] = append(owners[at], idx)
				continue
			}
			seen[upper] = len(patterns)
			patterns = append(patterns, upper)
			owners = append(owners, []int{idx})
			boundary = append(boundary, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(t)+`\b`))
		}
	}
	bytePatterns := make([][]byte, len(patterns))
	for n, p := range patterns {
		bytePatterns[n] = []byte(p)
	}
	i.patterns = patterns
	i.owners = owners
	i.boundary = boundary
	i.matcher = ahocorasick.NewMatcher(bytePatterns)
}

// triggerHits returns, per rule index, whether one of its trigger phrases
// occurs in the input as a whole word or phrase.
func (i *Interpreter) triggerHits(in *Input) map[int]bool {
	hits := make(map[int]bool)
	for _, p := range i.matcher.Match([]byte(strings.ToUpper(in.Normalized))) {
		if p < 0 || p >= len(i.patterns) {
			continue
		}
		if !i.boundary[p].MatchString(in.Normalized) {
			continue
		}
		for _, ruleIdx := range i.owners[p] {
			hits[ruleIdx] = true
		}
	}
	return hits
}

// Interpret classifies and executes one instruction. It never panics; an
// unexpected failure comes back as an unsuccessful Response.
func (i *Interpreter) Interpret(text string, cells sheet.CellCollection) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Error("command interpreter panic", slog.Any("panic", r), slog.String("command", text))
			resp = Response{Success: false, Message: fmt.Sprintf("internal error handling command: %v", r)}
		}
	}()

	in := newInput(text, cells)
	if in.empty() {
		return Response{Success: false, Message: `empty command. Try: "sum A1:A10" or "help"`}
	}

	hits := i.triggerHits(in)
	for idx, rule := range i.rules {
		matched := hits[idx]
		if len(rule.Triggers) == 0 {
			matched = true
		}
		if !matched {
			continue
		}
		if rule.When != nil && !rule.When(in) {
			continue
		}
		r := rule.Handle(in)
		r.Action = rule.Name
		i.logger.Debug("command classified",
			slog.String("action", rule.Name),
			slog.String("category", string(rule.Category)),
			slog.Bool("success", r.Success))
		return r
	}
	return i.unrecognized(in)
}
