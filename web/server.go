// ABOUTME: HTTP server exposing stored runs: JSON API plus HTML report pages behind a chi router.
// ABOUTME: Listing reads the SQLite index when available and falls back to a filesystem scan.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/2389-research/spoor/index"
	"github.com/2389-research/spoor/render"
	"github.com/2389-research/spoor/trail"
)

// reportCacheTTL bounds how long a rendered report stays in memory. Runs
// are write-once, so expiry exists for memory pressure, not freshness.
const reportCacheTTL = 15 * time.Minute

// Server serves read-only views of a run store over HTTP.
type Server struct {
	store    *trail.Store
	idx      *index.Index
	renderer *TemplateRenderer
	reports  *render.ReportCache
	router   chi.Router
	addr     string
}

// ServerConfig holds the configuration for the run browser server.
type ServerConfig struct {
	Addr  string       // listen address (default: "127.0.0.1:2399")
	Store *trail.Store // run store; required
	Index *index.Index // optional; listing falls back to a store scan when nil
}

// NewServer creates a Server with the given configuration and sets up
// routing.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:2399"
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("Store must not be nil")
	}
	renderer, err := NewTemplateRenderer()
	if err != nil {
		return nil, fmt.Errorf("initializing templates: %w", err)
	}
	s := &Server{
		store:    cfg.Store,
		idx:      cfg.Index,
		renderer: renderer,
		addr:     cfg.Addr,
	}
	s.reports = render.NewReportCache(s.buildReport, reportCacheTTL)
	s.router = s.buildRouter()
	return s, nil
}

// ServeHTTP delegates to the chi router, satisfying http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ListenAndServe starts the HTTP server on the configured address with
// timeouts to prevent resource exhaustion from slow clients. The server
// closes when ctx is cancelled; that shutdown path returns nil.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	log.Printf("component=web action=listen addr=%s", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// buildRouter constructs the chi router with all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHome)
	r.Get("/health", s.handleHealth)
	r.Get("/runs/{runID}", s.handleRunReport)

	r.Route("/api", func(r chi.Router) {
		r.Get("/runs", s.handleAPIRuns)
		r.Get("/runs/{runID}", s.handleAPIRun)
		r.Get("/runs/{runID}/blocks/{blockName}", s.handleAPIBlock)
	})

	return r
}

// runListItem is the listing shape shared by the JSON API and the HTML
// index page.
type runListItem struct {
	RunID      string `json:"run_id"`
	AppHash    string `json:"app_hash"`
	StartTime  uint64 `json:"start_time"`
	Started    string `json:"started"`
	BlockCount int    `json:"block_count"`
}

// listRuns builds the run listing, preferring the index. Ordering is the
// same either way: start time descending, run ID descending on ties.
func (s *Server) listRuns() ([]runListItem, error) {
	if s.idx != nil {
		rows, err := s.idx.ListRuns()
		if err != nil {
			return nil, err
		}
		items := make([]runListItem, 0, len(rows))
		for _, row := range rows {
			items = append(items, runListItem{
				RunID:      row.RunID,
				AppHash:    row.AppHash,
				StartTime:  row.StartTime,
				Started:    render.FormatStartTime(row.StartTime),
				BlockCount: row.BlockCount,
			})
		}
		return items, nil
	}

	summaries, err := s.store.ListRuns()
	if err != nil {
		return nil, err
	}
	items := make([]runListItem, 0, len(summaries))
	for _, sum := range summaries {
		idents, err := s.store.BlockIdents(sum.RunID)
		if err != nil {
			return nil, err
		}
		items = append(items, runListItem{
			RunID:      sum.RunID,
			AppHash:    sum.Config.AppHash,
			StartTime:  sum.Config.StartTime,
			Started:    render.FormatStartTime(sum.Config.StartTime),
			BlockCount: len(idents),
		})
	}
	return items, nil
}

// handleHome renders the HTML run listing.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	items, err := s.listRuns()
	if err != nil {
		log.Printf("component=web action=list error=%v", err)
		http.Error(w, "failed to list runs", errorStatus(err))
		return
	}
	data := struct {
		Runs []runListItem
	}{Runs: items}
	if err := s.renderer.Render(w, "runs.html", data); err != nil {
		log.Printf("component=web action=render page=runs error=%v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// handleHealth returns a JSON health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAPIRuns returns the run listing as a JSON array.
func (s *Server) handleAPIRuns(w http.ResponseWriter, r *http.Request) {
	items, err := s.listRuns()
	if err != nil {
		apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleAPIRun returns one run's full record, traces included.
func (s *Server) handleAPIRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	run, err := s.store.LoadRunWithTraces(runID)
	if err != nil {
		apiError(w, err)
		return
	}
	doc, err := render.BuildRunDoc(run)
	if err != nil {
		apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleAPIBlock returns a single block's executions without decoding the
// rest of the run.
func (s *Server) handleAPIBlock(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	blockName := chi.URLParam(r, "blockName")
	bt, err := s.store.ReadBlock(runID, blockName)
	if err != nil {
		apiError(w, err)
		return
	}
	doc, err := render.BuildBlockDoc(bt)
	if err != nil {
		apiError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// buildReport loads a run and renders its markdown report. ReportCache
// calls this on a miss.
func (s *Server) buildReport(runID string) (string, error) {
	run, err := s.store.LoadRunWithTraces(runID)
	if err != nil {
		return "", err
	}
	return render.RunMarkdown(run), nil
}

// handleRunReport renders one run as an HTML report page.
func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	markdown, err := s.reports.Report(runID)
	if err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	data := struct {
		RunID    string
		Markdown string
	}{
		RunID:    runID,
		Markdown: markdown,
	}
	if err := s.renderer.Render(w, "run.html", data); err != nil {
		log.Printf("component=web action=render page=run error=%v", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorStatus maps store errors to HTTP status codes.
func errorStatus(err error) int {
	var runNotFound *trail.RunNotFoundError
	var blockNotFound *trail.BlockNotFoundError
	switch {
	case errors.As(err, &runNotFound), errors.As(err, &blockNotFound):
		return http.StatusNotFound
	case errors.Is(err, trail.ErrWorkspaceUninitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// apiError writes a JSON error response. Corrupt-data detail is passed
// through; other internal errors stay generic.
func apiError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		var corrupt *trail.CorruptRunError
		if !errors.As(err, &corrupt) {
			msg = "internal server error"
		}
	}
	writeJSON(w, status, map[string]string{"error": msg})
}
