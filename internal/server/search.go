package server

import (
	"log/slog"
	"sync"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/command"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/search"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// CellSearcher adapts the bleve index to the command interpreter and the
// search endpoint. One scratch index serves every session: each query
// rebuilds it from the cell snapshot it was handed, with a mutex keeping
// the rebuild and the search paired. Sheets are bounded by the cell cap,
// so reindexing per query stays cheap and the index never goes stale.
type CellSearcher struct {
	mu    sync.Mutex
	index *search.Index
}

var _ command.Searcher = (*CellSearcher)(nil)

func NewCellSearcher(logger *slog.Logger) (*CellSearcher, error) {
	ix, err := search.NewIndex(logger)
	if err != nil {
		return nil, err
	}
	return &CellSearcher{index: ix}, nil
}

// Search satisfies command.Searcher for the find command.
func (s *CellSearcher) Search(cells sheet.CellCollection, query string, limit int) ([]command.Match, error) {
	hits, err := s.Hits(cells, query, limit)
	if err != nil {
		return nil, err
	}
	matches := make([]command.Match, 0, len(hits))
	for _, h := range hits {
		matches = append(matches, command.Match{
			Address: h.Address,
			Value:   h.Text,
			Score:   h.Score,
		})
	}
	return matches, nil
}

// Hits runs a query against the given cells and returns the full results.
func (s *CellSearcher) Hits(cells sheet.CellCollection, query string, limit int) ([]search.Hit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.Rebuild(cells); err != nil {
		return nil, err
	}
	return s.index.Search(query, limit)
}

func (s *CellSearcher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}
