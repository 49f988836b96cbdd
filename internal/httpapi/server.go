package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/hamed0406/httpprobe/internal/httpapi/middleware"
	"github.com/hamed0406/httpprobe/internal/repo"
)

// Server exposes a read-only view of a running probe session.
type Server struct {
	Logger  *zap.Logger
	Results repo.LatestReader
	Targets []string
	RunID   string
}

func NewServer(l *zap.Logger, results repo.LatestReader, targets []string, runID string) *Server {
	return &Server{Logger: l, Results: results, Targets: targets, RunID: runID}
}

// Router wires the API. An empty token leaves /api open; rpm <= 0 disables
// rate limiting.
func (s *Server) Router(token string, rpm, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(apimw.RateLimit(rpm, burst))
		r.Use(apimw.RequireToken(token))
		r.Get("/targets", s.handleListTargets)
		r.Get("/results/latest", s.handleLatestResults)
	})

	return r
}

func (s *Server) handleListTargets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"run_id":  s.RunID,
		"targets": s.Targets,
	})
}

func (s *Server) handleLatestResults(w http.ResponseWriter, r *http.Request) {
	recs, err := s.Results.Latest(r.Context())
	if err != nil {
		s.Logger.Warn("latest_results_error", zap.Error(err))
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, recs)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
