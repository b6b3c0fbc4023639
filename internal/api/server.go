package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/innerlight-hq/distill/internal/library"
	"github.com/innerlight-hq/distill/internal/pipeline"
)

// Pipeline is the orchestrator surface the HTTP layer drives.
type Pipeline interface {
	ProcessSession(ctx context.Context, in pipeline.SessionInput) pipeline.ProcessingResult
	ProcessBatch(ctx context.Context, inputs []pipeline.SessionInput) pipeline.BatchReport
	LibraryStats() library.Stats
}

type Server struct {
	router *chi.Mux
	port   int
	proc   Pipeline
}

func NewServer(port int, proc Pipeline) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router: router,
		port:   port,
		proc:   proc,
	}

	router.Get("/health", s.health)
	router.Get("/api/v1/library/stats", s.libraryStats)
	router.Post("/api/v1/sessions", s.processSession)
	router.Post("/api/v1/batch", s.processBatch)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) libraryStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.proc.LibraryStats())
}

// processSession runs one transcript through the pipeline. Expected failures
// come back as a 200 with Success=false; the result carries the error detail.
func (s *Server) processSession(w http.ResponseWriter, r *http.Request) {
	var in pipeline.SessionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid session input: " + err.Error()})
		return
	}

	res := s.proc.ProcessSession(r.Context(), in)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) processBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sessions []pipeline.SessionInput `json:"sessions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid batch input: " + err.Error()})
		return
	}
	if len(req.Sessions) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "batch requires at least one session"})
		return
	}

	report := s.proc.ProcessBatch(r.Context(), req.Sessions)
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
