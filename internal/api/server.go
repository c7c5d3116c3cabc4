// Package api serves the detection service over HTTP: run submission
// and inspection, preview endpoints, Excel export, and Prometheus
// metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"topowave/adapters/excel"
	"topowave/app"
	"topowave/domain/core"
	"topowave/domain/run"
	"topowave/internal"
	"topowave/internal/config"

	apperrors "topowave/internal/errors"
)

// Server hosts the HTTP API.
type Server struct {
	router  *chi.Mux
	service *app.DetectionService
	reports *excel.ReportWriter
	cfg     *config.Config
	logger  *internal.Logger
}

// NewServer wires the router.
func NewServer(service *app.DetectionService, cfg *config.Config, logger *internal.Logger) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		service: service,
		reports: excel.NewReportWriter(),
		cfg:     cfg,
		logger:  logger.With("api"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", instrument("/health", s.handleHealth))
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/runs", instrument("/api/runs", s.handleCreateRun))
		r.Get("/runs", instrument("/api/runs", s.handleListRuns))
		r.Get("/runs/report.xlsx", instrument("/api/runs/report.xlsx", s.handleReport))
		r.Get("/runs/{id}", instrument("/api/runs/{id}", s.handleGetRun))
		r.Get("/runs/{id}/report.xlsx", instrument("/api/runs/{id}/report.xlsx", s.handleRunReport))
		r.Get("/preview/embedding", instrument("/api/preview/embedding", s.handleEmbeddingPreview))
		r.Get("/preview/diagram", instrument("/api/preview/diagram", s.handleDiagramPreview))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// runRequest is the POST /api/runs payload. Omitted numeric fields
// fall back to the configured defaults.
type runRequest struct {
	Generator *run.GeneratorConfig `json:"generator,omitempty"`
	Pipeline  *run.PipelineConfig  `json:"pipeline,omitempty"`
	Seed      *int64               `json:"seed,omitempty"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, apperrors.InvalidInput("malformed request body"))
			return
		}
	}

	gen := s.cfg.RunGeneratorConfig()
	if req.Generator != nil {
		gen = *req.Generator
	}
	pipe := s.cfg.RunPipelineConfig()
	if req.Pipeline != nil {
		pipe = *req.Pipeline
	}
	seed := s.cfg.Pipeline.Seed
	if req.Seed != nil {
		seed = *req.Seed
	}

	started := time.Now()
	dr, err := s.service.Execute(r.Context(), gen, pipe, seed)
	if err != nil {
		observeRun("failed", time.Since(started))
		// The run record carries the failure detail when it exists.
		if dr != nil {
			respondJSON(w, http.StatusUnprocessableEntity, dr)
			return
		}
		respondError(w, err)
		return
	}
	observeRun("completed", time.Since(started))
	respondJSON(w, http.StatusCreated, dr)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	runs, err := s.service.ListRuns(r.Context(), limit, offset)
	if err != nil {
		respondError(w, err)
		return
	}
	if runs == nil {
		runs = []*run.DetectionRun{}
	}
	respondJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	dr, err := s.service.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dr)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	runs, err := s.service.ListRuns(r.Context(), 0, 0)
	if err != nil {
		respondError(w, err)
		return
	}

	dir := s.cfg.Paths.ReportDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		respondError(w, err)
		return
	}
	path := filepath.Join(dir, "runs-report.xlsx")
	if err := s.reports.Write(runs, path); err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="runs-report.xlsx"`)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	dr, err := s.service.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}

	dir := s.cfg.Paths.ReportDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		respondError(w, err)
		return
	}
	filename := "run-" + dr.Fingerprint.Short() + ".xlsx"
	path := filepath.Join(dir, filename)
	if err := s.reports.Write([]*run.DetectionRun{dr}, path); err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, path)
}

func (s *Server) handleEmbeddingPreview(w http.ResponseWriter, r *http.Request) {
	seed := int64(queryInt(r, "seed", int(s.cfg.Pipeline.Seed)))
	index := queryInt(r, "index", 0)

	cloud, err := s.service.EmbeddingPreview(r.Context(),
		s.cfg.RunGeneratorConfig(), s.cfg.RunPipelineConfig(), seed, index)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"seed":   seed,
		"index":  index,
		"points": cloud,
	})
}

func (s *Server) handleDiagramPreview(w http.ResponseWriter, r *http.Request) {
	seed := int64(queryInt(r, "seed", int(s.cfg.Pipeline.Seed)))
	index := queryInt(r, "index", 0)

	preview, err := s.service.DiagramPreview(r.Context(),
		s.cfg.RunGeneratorConfig(), s.cfg.RunPipelineConfig(), seed, index)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, preview)
}

// Serve runs the HTTP server until the context is cancelled, then
// shuts down within the configured timeout.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + s.cfg.Server.Port,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening on :%s", s.cfg.Server.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case core.IsNotFoundError(err):
		status = http.StatusNotFound
	case core.IsValidationError(err):
		status = http.StatusBadRequest
	case apperrors.GetCode(err) == apperrors.CodeInvalidInput:
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		status = http.StatusRequestTimeout
	}
	respondJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  apperrors.GetCode(err),
	})
}
