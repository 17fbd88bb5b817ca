package command

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const maxSuggestions = 3

// suggest ranks the trigger vocabulary against each word of a command that
// matched no rule and returns examples for the closest rules, best first.
// Catches typos like "vlokup" for "vlookup".
func (i *Interpreter) suggest(in *Input) []string {
	var terms []string
	var owner []int
	for idx, r := range i.rules {
		terms = append(terms, r.Name)
		owner = append(owner, idx)
		for _, t := range r.Triggers {
			terms = append(terms, t)
			owner = append(owner, idx)
		}
	}

	best := make(map[int]int)
	for _, word := range strings.Fields(in.Normalized) {
		if len(word) < 3 {
			continue
		}
		for _, rank := range fuzzy.RankFindNormalizedFold(word, terms) {
			ruleIdx := owner[rank.OriginalIndex]
			if d, ok := best[ruleIdx]; !ok || rank.Distance < d {
				best[ruleIdx] = rank.Distance
			}
		}
	}
	if len(best) == 0 {
		return nil
	}

	type candidate struct {
		ruleIdx  int
		distance int
	}
	cands := make([]candidate, 0, len(best))
	for idx, d := range best {
		cands = append(cands, candidate{ruleIdx: idx, distance: d})
	}
	sort.Slice(cands, func(a, b int) bool {
		if cands[a].distance != cands[b].distance {
			return cands[a].distance < cands[b].distance
		}
		return cands[a].ruleIdx < cands[b].ruleIdx
	})

	out := make([]string, 0, maxSuggestions)
	for _, c := range cands {
		if ex := i.rules[c.ruleIdx].Example; ex != "" {
			out = append(out, ex)
		}
		if len(out) == maxSuggestions {
			break
		}
	}
	return out
}

func (i *Interpreter) unrecognized(in *Input) Response {
	suggestions := i.suggest(in)
	msg := fmt.Sprintf("could not understand %q", in.Raw)
	if len(suggestions) > 0 {
		msg += ". Did you mean: " + strings.Join(suggestions, "; ")
	} else {
		msg += `. Try "help" for the supported commands`
	}
	return Response{Success: false, Message: msg, Suggestions: suggestions}
}
