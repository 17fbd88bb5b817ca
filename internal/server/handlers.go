package server

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/smart-sheet-core/internal/domain/command"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/pivot"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/search"
	"github.com/FACorreiaa/smart-sheet-core/internal/domain/sheet"
	"github.com/FACorreiaa/smart-sheet-core/internal/export"
	"github.com/FACorreiaa/smart-sheet-core/internal/ingest"
)

// multipart parse buffer; anything above spills to disk.
const maxMultipartMemory = 8 << 20

type sessionResponse struct {
	SessionID string          `json:"session_id"`
	Name      string          `json:"name"`
	Info      ingest.LoadInfo `json:"info"`
	CreatedAt time.Time       `json:"created_at"`
}

type cellsResponse struct {
	Cells sheet.CellCollection `json:"cells"`
	Rows  int                  `json:"rows"`
	Cols  int                  `json:"cols"`
	Count int                  `json:"count"`
}

type formulaRequest struct {
	Formula string `json:"formula"`
}

type formulaResponse struct {
	Formula string `json:"formula"`
	Result  any    `json:"result"`
	Error   string `json:"error,omitempty"`
}

type commandRequest struct {
	Command string `json:"command"`
}

type commandResponse struct {
	command.Response
	AppliedCells int              `json:"applied_cells,omitempty"`
	Info         *ingest.LoadInfo `json:"info,omitempty"`
}

type searchResponse struct {
	Query string       `json:"query"`
	Hits  []search.Hit `json:"hits"`
	Count int          `json:"count"`
}

type healthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Uptime   string `json:"uptime"`
}

// sessionFromRequest resolves the path's session ID or writes the error.
func (s *Server) sessionFromRequest(w http.ResponseWriter, r *http.Request) (Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return Session{}, false
	}
	sess, err := s.registry.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return Session{}, false
	}
	return sess, true
}

// handleCreateSession ingests a multipart workbook upload into a new
// session. Sheet selection, delimiter override and metadata-line skipping
// come in as query parameters.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Engine.MaxUploadBytes)
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "expected a multipart file upload")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	q := r.URL.Query()
	opts := ingest.Options{
		Sheet:    q.Get("sheet"),
		MaxCells: s.cfg.Engine.MaxCells,
	}
	if d := q.Get("delimiter"); d != "" {
		opts.Delimiter = []rune(d)[0]
	}
	if skip := q.Get("skip"); skip != "" {
		n, convErr := strconv.Atoi(skip)
		if convErr != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "skip must be a non-negative integer")
			return
		}
		opts.SkipLines = n
	}

	cells, info, err := ingest.NewLoader(opts, s.logger).Load(header.Filename, data)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnknownType):
			writeError(w, http.StatusUnsupportedMediaType, err.Error())
		case errors.Is(err, ingest.ErrEmptyFile):
			writeError(w, http.StatusBadRequest, "file has no data")
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	sess, err := s.registry.Create(header.Filename, cells, *info)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "session limit reached, retry later")
		return
	}

	// Keep the original bytes for re-ingest and audit; the session works
	// off memory either way, so a storage failure only costs the copy.
	if s.files != nil {
		contentType := header.Header.Get("Content-Type")
		if _, err := s.files.Upload(r.Context(), sess.ID, header.Filename, contentType, bytes.NewReader(data)); err != nil {
			s.logger.Warn("failed to store upload",
				slog.String("session_id", sess.ID.String()),
				slog.Any("error", err))
		}
	}

	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: sess.ID.String(),
		Name:      sess.Name,
		Info:      sess.Info,
		CreatedAt: sess.CreatedAt,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	if err := s.registry.Delete(id); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCells returns the session grid, optionally windowed to ?range=.
func (s *Server) handleCells(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	cells := sess.Cells
	if label := r.URL.Query().Get("range"); label != "" {
		rng, err := s.resolver.ParseRange(label)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		cells = cells.Window(rng)
	}
	rows, cols := cells.Bounds()
	writeJSON(w, http.StatusOK, cellsResponse{
		Cells: cells,
		Rows:  rows,
		Cols:  cols,
		Count: len(cells),
	})
}

func (s *Server) handleFormula(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req formulaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Formula) == "" {
		writeError(w, http.StatusBadRequest, "formula is required")
		return
	}

	done := s.observeEngine(r.Context(), "formula", sess.ID)
	result := s.evaluator.Evaluate(req.Formula, sess.Cells)
	done()

	resp := formulaResponse{Formula: req.Formula, Result: result}
	if ev, isErr := result.(sheet.ErrorValue); isErr {
		resp.Error = ev.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCommand interprets one instruction. Mutating commands have their
// cell updates and formatting applied to the session before the response
// goes out, so a follow-up read sees the new state.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var req commandRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		writeError(w, http.StatusBadRequest, "command is required")
		return
	}

	done := s.observeEngine(r.Context(), "command", sess.ID)
	result := s.interpreter.Interpret(req.Command, sess.Cells)
	done()

	resp := commandResponse{Response: result}
	if result.Success && (len(result.CellUpdates) > 0 || result.Formatting != nil) {
		updated, err := s.registry.Apply(sess.ID, result.CellUpdates, result.Formatting)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				writeError(w, http.StatusNotFound, "session not found")
			} else {
				writeError(w, http.StatusUnprocessableEntity, err.Error())
			}
			return
		}
		resp.AppliedCells = len(result.CellUpdates)
		resp.Info = &updated.Info
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	done := s.observeEngine(r.Context(), "analytics", sess.ID)
	report := s.analytics.Analyze(sess.Cells)
	done()
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handlePivot(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	var cfg pivot.Config
	if err := decodeJSON(w, r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	done := s.observeEngine(r.Context(), "pivot", sess.ID)
	result, err := s.pivots.Pivot(sess.Cells, cfg)
	done()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	if s.searcher == nil {
		writeError(w, http.StatusServiceUnavailable, "search is not configured")
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = min(n, 100)
		}
	}

	done := s.observeEngine(r.Context(), "search", sess.ID)
	hits, err := s.searcher.Hits(sess.Cells, query, limit)
	done()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Hits: hits, Count: len(hits)})
}

// handleExport streams the session as a downloadable file. ?what= selects
// grid (raw cells), report (analytics) or pivot (configured through
// rows/columns/values/aggregations query parameters); ?format= selects csv
// or xlsx.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromRequest(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	format := q.Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		writeError(w, http.StatusBadRequest, "format must be csv or xlsx")
		return
	}
	what := q.Get("what")
	if what == "" {
		what = "grid"
	}

	var (
		data []byte
		err  error
	)
	switch what {
	case "grid":
		done := s.observeEngine(r.Context(), "export", sess.ID)
		if format == "xlsx" {
			data, err = export.GridXLSX(sess.Cells)
		} else {
			data, err = export.GridCSV(sess.Cells)
		}
		done()
	case "report":
		done := s.observeEngine(r.Context(), "analytics", sess.ID)
		report := s.analytics.Analyze(sess.Cells)
		done()
		if format == "xlsx" {
			data, err = export.ReportXLSX(report)
		} else {
			data, err = export.ReportCSV(report)
		}
	case "pivot":
		cfg := pivotConfigFromQuery(q)
		done := s.observeEngine(r.Context(), "pivot", sess.ID)
		result, perr := s.pivots.Pivot(sess.Cells, cfg)
		done()
		if perr != nil {
			writeError(w, http.StatusBadRequest, perr.Error())
			return
		}
		if format == "xlsx" {
			data, err = export.PivotXLSX(result)
		} else {
			data, err = export.PivotCSV(result)
		}
	default:
		writeError(w, http.StatusBadRequest, "what must be grid, report or pivot")
		return
	}
	if err != nil {
		s.logger.Error("export failed",
			slog.String("session_id", sess.ID.String()),
			slog.String("what", what),
			slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	filename := exportFilename(sess.Name, what, format)
	if format == "xlsx" {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	} else {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Sessions: s.registry.Count(),
		Uptime:   time.Since(s.started).Round(time.Second).String(),
	})
}

func pivotConfigFromQuery(q url.Values) pivot.Config {
	return pivot.Config{
		Rows:         splitParam(q.Get("rows")),
		Columns:      splitParam(q.Get("columns")),
		Values:       splitParam(q.Get("values")),
		Aggregations: splitParam(q.Get("aggregations")),
	}
}

func splitParam(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func exportFilename(sessionName, what, format string) string {
	base := strings.TrimSuffix(sessionName, filepath.Ext(sessionName))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		base = "sheet"
	}
	return base + "_" + what + "." + format
}
