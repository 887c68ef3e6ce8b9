// Package web serves an analysis over a local JSON API.
package web

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"famtree/internal/analysis"
	"famtree/internal/builder"
	"famtree/internal/model"
	"famtree/internal/report"
)

//go:embed help.md
var helpMD string

// ErrNotLoaded is returned by handlers before the first successful load.
var ErrNotLoaded = errors.New("reports not loaded yet")

const contextRadius = 3

// Option configures a Server.
type Option func(*Server)

func WithLogger(l zerolog.Logger) Option { return func(s *Server) { s.log = l } }
func WithWorkers(n int) Option { return func(s *Server) { s.workers = n } }
func WithAddr(addr string) Option { return func(s *Server) { s.addr = addr } }

// WithDebounce sets how long watch mode waits after the last file event
// before reloading.
func WithDebounce(d time.Duration) Option { return func(s *Server) { s.debounce = d } }

// Server holds the latest build and analysis of one report path.
type Server struct {
	reportPath string
	addr       string
	workers    int
	debounce   time.Duration
	log        zerolog.Logger

	mu      sync.RWMutex
	build   builder.Result
	result  analysis.AnalysisResult
	loadErr error
}

// New returns a server for the reports at path. Nothing is read until
// Reload is called.
func New(path string, opts ...Option) *Server {
	s := &Server{
		reportPath: path,
		addr:       "localhost:8080",
		debounce:   500 * time.Millisecond,
		log:        zerolog.Nop(),
		loadErr:    ErrNotLoaded,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string { return s.addr }

// Reload reads the reports and analyses them again. On failure the previous
// result is kept and the error is reported by the API.
func (s *Server) Reload(ctx context.Context) error {
	build, err := builder.BuildPath(ctx, s.reportPath, builder.WithLogger(s.log))
	if err == nil {
		var res analysis.AnalysisResult
		res, err = analysis.NewAnalyzer(analysis.WithWorkers(s.workers), analysis.WithLogger(s.log)).
			Analyze(ctx, build.Containers)
		if err == nil {
			s.mu.Lock()
			s.build, s.result, s.loadErr = build, res, nil
			s.mu.Unlock()
			s.log.Info().Str("run_id", res.RunID).Int("containers", res.Containers).Msg("reports loaded")
			return nil
		}
	}
	s.mu.Lock()
	s.loadErr = err
	s.mu.Unlock()
	s.log.Error().Err(err).Str("path", s.reportPath).Msg("reload failed")
	return err
}

// Result returns the latest analysis.
func (s *Server) Result() (analysis.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.loadErr
}

func (s *Server) snapshot() (builder.Result, analysis.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.build, s.result, s.loadErr
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/analysis", s.handleAnalysis).Methods(http.MethodGet)
	api.HandleFunc("/families", s.handleFamilies).Methods(http.MethodGet)
	api.HandleFunc("/families/{name}", s.handleFamily).Methods(http.MethodGet)
	api.HandleFunc("/containers", s.handleContainers).Methods(http.MethodGet)
	api.HandleFunc("/report", s.handleReport).Methods(http.MethodGet)
	api.HandleFunc("/diagnostics", s.handleDiagnostics).Methods(http.MethodGet)
	api.HandleFunc("/row-context", s.handleRowContext).Methods(http.MethodGet)
	api.HandleFunc("/help", handleHelp).Methods(http.MethodGet)
	api.HandleFunc("/reload", s.handleReload).Methods(http.MethodPost)

	return router
}

// ListenAndServe serves the API until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("web server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown web server: %w", err)
	}
	return nil
}

// Watch reloads whenever a report file under the report path changes. It
// blocks until ctx is cancelled.
func (s *Server) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	dir, only := watchTarget(s.reportPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	s.log.Info().Str("dir", dir).Msg("watching reports")

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(ev, only) {
				continue
			}
			s.log.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("report changed")
			pending = time.After(s.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn().Err(err).Msg("watch error")
		case <-pending:
			pending = nil
			_ = s.Reload(ctx) // logged; the API reports the error
		}
	}
}

func watchTarget(path string) (dir, only string) {
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		return filepath.Dir(path), filepath.Clean(path)
	}
	return path, ""
}

func relevant(ev fsnotify.Event, only string) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if only != "" {
		return filepath.Clean(ev.Name) == only
	}
	return strings.EqualFold(filepath.Ext(ev.Name), ".csv")
}

type analysisResponse struct {
	analysis.AnalysisResult
	Report        string `json:"report"`
	VerboseReport string `json:"verbose_report"`
	Version       string `json:"version"`
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	_, res, err := s.snapshot()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, newAnalysisResponse(res))
}

func newAnalysisResponse(res analysis.AnalysisResult) analysisResponse {
	return analysisResponse{
		AnalysisResult: res,
		Report:         analysis.GenerateReport(res, false),
		VerboseReport:  analysis.GenerateReport(res, true),
		Version:        model.Version,
	}
}

func (s *Server) handleFamilies(w http.ResponseWriter, r *http.Request) {
	_, res, err := s.snapshot()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, res.Families)
}

func (s *Server) handleFamily(w http.ResponseWriter, r *http.Request) {
	_, res, err := s.snapshot()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	name := mux.Vars(r)["name"]
	f, ok := res.Family(name)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("family %q not found", name))
		return
	}
	respondJSON(w, http.StatusOK, f)
}

func (s *Server) handleContainers(w http.ResponseWriter, r *http.Request) {
	build, _, err := s.snapshot()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, build.Containers)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	_, res, err := s.snapshot()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	verbose, _ := strconv.ParseBool(r.URL.Query().Get("verbose"))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(analysis.GenerateReport(res, verbose)))
}

func (s *Server) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	build, _, err := s.snapshot()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	diags := build.Diagnostics
	if diags == nil {
		diags = []builder.Diagnostic{}
	}
	respondJSON(w, http.StatusOK, diags)
}

// handleRowContext only serves files that were part of the last load.
func (s *Server) handleRowContext(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	lineStr := r.URL.Query().Get("line")
	if file == "" || lineStr == "" {
		respondError(w, http.StatusBadRequest, "file and line are required")
		return
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid line number")
		return
	}

	build, _, err := s.snapshot()
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if !slices.Contains(build.Files, file) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("%s is not a loaded report file", file))
		return
	}
	respondJSON(w, http.StatusOK, report.RowContext(file, line, contextRadius))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if err := s.Reload(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_, res, _ := s.snapshot()
	respondJSON(w, http.StatusOK, newAnalysisResponse(res))
}

func handleHelp(w http.ResponseWriter, r *http.Request) {
	text := strings.ReplaceAll(helpMD, "{{VERSION}}", model.Version)
	w.Header().Set("Content-Type", "text/markdown")
	_, _ = w.Write([]byte(text))
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
