package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/sentex/internal/config"
	"github.com/dgallion1/sentex/internal/pipeline"
	"github.com/dgallion1/sentex/internal/segment"
)

// Pipeline is the part of the orchestrator the HTTP layer uses.
type Pipeline interface {
	Submit(job *pipeline.Job) error
	GetJob(id string) *pipeline.Job
	QueueDepth() int
	Host() pipeline.Host
}

// Server is the HTTP API server for sentex.
type Server struct {
	router   chi.Router
	pipeline Pipeline
	stats    *segment.LatencyStats
	backend  string
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. stats may be nil when
// segmenter latency is not recorded.
func NewServer(p Pipeline, stats *segment.LatencyStats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		pipeline: p,
		stats:    stats,
		backend:  cfg.Segmenter,
		log:      log,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.SentexAPIKey, s.log))

		r.Post("/api/extract", s.handleExtract)
		r.Post("/api/extract/upload", s.handleExtractUpload)
		r.Get("/api/extract/{jobID}/status", s.handleExtractStatus)

		r.Get("/api/datasets/{datasetID}/outputs", s.handleListOutputs)
		r.Get("/api/stats/segmenter", s.handleSegmenterStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
