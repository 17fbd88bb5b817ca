// Package search maintains a full-text index over cell contents so free-text
// queries like "widget" can resolve to addresses without scanning the grid.
package search

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
)

// CellDocument is one indexed cell. Content combines the display text and
// the formula so a single match query covers both.
type CellDocument struct {
	Address string  `json:"address"`
	Text    string  `json:"text"`
	Formula string  `json:"formula"`
	Kind    string  `json:"kind"`
	Content string  `json:"content"`
	Row     float64 `json:"row"`
	Column  float64 `json:"column"`
}

// Hit is one search result with its relevance score.
type Hit struct {
	Address string  `json:"address"`
	Text    string  `json:"text"`
	Formula string  `json:"formula,omitempty"`
	Kind    string  `json:"kind,omitempty"`
	Score   float64 `json:"score"`
}

// Index wraps an in-memory bleve index over one sheet's cells. Rebuild
// replaces the whole document set; sheets are small enough that full
// reindexing beats incremental bookkeeping.
type Index struct {
	index  bleve.Index
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewIndex(logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create search index: %w", err)
	}
	return &Index{index: idx, logger: logger}, nil
}

// buildIndexMapping maps text fields through the standard analyzer, which
// tokenizes digits as well as words, and identity fields through the
// keyword analyzer.
func buildIndexMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name

	keywordFieldMapping := bleve.NewTextFieldMapping()
	keywordFieldMapping.Analyzer = keyword.Name

	numericFieldMapping := bleve.NewNumericFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("address", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	docMapping.AddFieldMappingsAt("formula", textFieldMapping)
	docMapping.AddFieldMappingsAt("kind", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("content", textFieldMapping)
	docMapping.AddFieldMappingsAt("row", numericFieldMapping)
	docMapping.AddFieldMappingsAt("column", numericFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name
	return indexMapping
}

// Rebuild replaces the indexed documents with the current non-empty cells.
func (ix *Index) Rebuild(cells sheet.CellCollection) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.clearLocked(); err != nil {
		return err
	}

	batch := ix.index.NewBatch()
	count := 0
	for label, cell := range cells {
		if cell.IsEmpty() {
			continue
		}
		addr, err := sheet.ParseAddress(label)
		if err != nil {
			continue
		}
		text := displayText(cell.Value)
		doc := CellDocument{
			Address: label,
			Text:    text,
			Formula: cell.Formula,
			Kind:    string(cell.Kind),
			Content: strings.TrimSpace(text + " " + cell.Formula),
			Row:     float64(addr.Row),
			Column:  float64(addr.Col),
		}
		if err := batch.Index(label, doc); err != nil {
			return fmt.Errorf("failed to index cell %s: %w", label, err)
		}
		count++
	}
	if err := ix.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute index batch: %w", err)
	}
	ix.logger.Debug("search index rebuilt", slog.Int("cells", count))
	return nil
}

// Search runs an analyzed match query with one edit of typo tolerance.
func (ix *Index) Search(query string, limit int) ([]Hit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetFuzziness(1)

	searchRequest := bleve.NewSearchRequest(matchQuery)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := ix.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return convertResults(searchResults), nil
}

// SearchPrefix runs an autocomplete-style prefix query. Prefix queries are
// not analyzed, so the prefix is lowered to line up with indexed terms.
func (ix *Index) SearchPrefix(prefix string, limit int) ([]Hit, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	prefixQuery := bleve.NewPrefixQuery(prefix)

	searchRequest := bleve.NewSearchRequest(prefixQuery)
	searchRequest.Size = limit
	searchRequest.Fields = []string{"*"}

	searchResults, err := ix.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("prefix search failed: %w", err)
	}
	return convertResults(searchResults), nil
}

func convertResults(searchResults *bleve.SearchResult) []Hit {
	hits := make([]Hit, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		h := Hit{Address: hit.ID, Score: hit.Score}
		if text, ok := hit.Fields["text"].(string); ok {
			h.Text = text
		}
		if formula, ok := hit.Fields["formula"].(string); ok {
			h.Formula = formula
		}
		if kind, ok := hit.Fields["kind"].(string); ok {
			h.Kind = kind
		}
		hits = append(hits, h)
	}
	return hits
}

// Count returns the number of indexed cells.
func (ix *Index) Count() (uint64, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.index.DocCount()
}

// Clear removes every document from the index.
func (ix *Index) Clear() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.clearLocked()
}

func (ix *Index) clearLocked() error {
	query := bleve.NewMatchAllQuery()
	searchRequest := bleve.NewSearchRequest(query)
	searchRequest.Size = sheet.DefaultMaxCells

	searchResults, err := ix.index.Search(searchRequest)
	if err != nil {
		return fmt.Errorf("failed to list indexed cells: %w", err)
	}
	batch := ix.index.NewBatch()
	for _, hit := range searchResults.Hits {
		batch.Delete(hit.ID)
	}
	if err := ix.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	return nil
}

// Close releases the index.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.index != nil {
		return ix.index.Close()
	}
	return nil
}

func displayText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return t.Format("2006-01-02")
	case sheet.ErrorValue:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
