package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/command"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
	"github.com/FACorreiaa/smart-sheet-core/internal/ingest"
	"github.com/FACorreiaa/smart-sheet-core/pkg/storage"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("session limit reached")
)

// Session is one uploaded workbook held in memory. Cells is replaced as a
// whole on every mutation, so a collection handed out by the registry stays
// a consistent snapshot no matter what later requests do.
type Session struct {
	ID         uuid.UUID            `json:"id"`
	Name       string               `json:"name"`
	Cells      sheet.CellCollection `json:"-"`
	Info       ingest.LoadInfo      `json:"info"`
	CreatedAt  time.Time            `json:"created_at"`
	LastAccess time.Time            `json:"last_access"`
}

// Registry owns the live sessions. All mutation goes through it; handlers
// only ever see value copies with a snapshot of the cells at access time.
type Registry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	max      int
	resolver *sheet.Resolver
	files    storage.Storage
	logger   *slog.Logger
	now      func() time.Time
}

// NewRegistry builds a registry capped at max live sessions. The storage
// backend is only used to drop a session's uploads when the session goes.
func NewRegistry(max int, resolver *sheet.Resolver, files storage.Storage, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if resolver == nil {
		resolver = sheet.NewResolver(sheet.DefaultLimits())
	}
	return &Registry{
		sessions: make(map[uuid.UUID]*Session),
		max:      max,
		resolver: resolver,
		files:    files,
		logger:   logger,
		now:      time.Now,
	}
}

// Create registers a new session around an ingested workbook.
func (r *Registry) Create(name string, cells sheet.CellCollection, info ingest.LoadInfo) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.max > 0 && len(r.sessions) >= r.max {
		return Session{}, ErrTooManySessions
	}
	now := r.now()
	s := &Session{
		ID:         uuid.New(),
		Name:       name,
		Cells:      cells,
		Info:       info,
		CreatedAt:  now,
		LastAccess: now,
	}
	r.sessions[s.ID] = s
	r.logger.Info("session created",
		slog.String("session_id", s.ID.String()),
		slog.String("name", name),
		slog.Int("cells", info.Cells))
	return *s, nil
}

// Get returns a copy of the session and marks it as touched.
func (r *Registry) Get(id uuid.UUID) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	s.LastAccess = r.now()
	return *s, nil
}

// Apply writes a command's cell updates and formatting into the session.
// The stored collection is cloned, mutated and swapped, never edited in
// place. A nil update value with no formula clears the cell. Formatting
// lands on occupied cells only; empty addresses stay unmaterialized.
func (r *Registry) Apply(id uuid.UUID, updates []command.CellUpdate, format *command.FormatUpdate) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	next := s.Cells.Clone()
	for _, u := range updates {
		if u.Value == nil && u.Formula == "" {
			delete(next, u.Address)
			continue
		}
		cell := sheet.NewCell(u.Value)
		if u.Formula != "" {
			cell.Formula = u.Formula
			cell.Kind = sheet.KindFormula
		}
		if old, exists := next[u.Address]; exists && old.Format != nil {
			cell.Format = old.Format
		}
		next[u.Address] = cell
	}
	if format != nil {
		if err := applyFormat(next, r.resolver, format); err != nil {
			return Session{}, err
		}
	}
	s.Cells = next
	s.Info.Rows, s.Info.Cols = next.Bounds()
	s.Info.Cells = len(next)
	s.LastAccess = r.now()
	return *s, nil
}

func applyFormat(cells sheet.CellCollection, resolver *sheet.Resolver, f *command.FormatUpdate) error {
	addrs, _, err := resolver.ExpandRange(f.Range)
	if err != nil {
		if a, perr := sheet.ParseAddress(f.Range); perr == nil {
			addrs = []sheet.Address{a}
		} else {
			return err
		}
	}
	for _, a := range addrs {
		label := a.Label()
		cell, ok := cells[label]
		if !ok {
			continue
		}
		merged := mergeFormat(cell.Format, f.Format)
		cell.Format = &merged
		cells[label] = cell
	}
	return nil
}

// mergeFormat layers the new directives over what the cell already has, so
// "make it bold" does not wipe an earlier highlight.
func mergeFormat(old *sheet.Format, f sheet.Format) sheet.Format {
	if old == nil {
		return f
	}
	merged := *old
	if f.Background != "" {
		merged.Background = f.Background
	}
	if f.Color != "" {
		merged.Color = f.Color
	}
	if f.Bold {
		merged.Bold = true
	}
	if f.Italic {
		merged.Italic = true
	}
	if f.Alignment != "" {
		merged.Alignment = f.Alignment
	}
	if f.NumberKind != "" {
		merged.NumberKind = f.NumberKind
	}
	return merged
}

// Delete drops a session and its stored uploads.
func (r *Registry) Delete(id uuid.UUID) error {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	r.dropFiles(id)
	r.logger.Info("session deleted", slog.String("session_id", id.String()))
	return nil
}

// Count reports the number of live sessions.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// SweepExpired removes sessions idle for longer than olderThan, along with
// their uploaded files. The cron scheduler calls this on its own goroutine.
func (r *Registry) SweepExpired(olderThan time.Duration) int {
	cutoff := r.now().Add(-olderThan)
	r.mu.Lock()
	var expired []uuid.UUID
	for id, s := range r.sessions {
		if s.LastAccess.Before(cutoff) {
			expired = append(expired, id)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()
	for _, id := range expired {
		r.dropFiles(id)
	}
	return len(expired)
}

func (r *Registry) dropFiles(id uuid.UUID) {
	if r.files == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.files.DeleteAll(ctx, id); err != nil {
		r.logger.Warn("failed to drop session files",
			slog.String("session_id", id.String()),
			slog.Any("error", err))
	}
}
