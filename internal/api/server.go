package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgallion1/lessondeck/internal/config"
	"github.com/dgallion1/lessondeck/internal/downloads"
	"github.com/dgallion1/lessondeck/internal/editor"
	"github.com/dgallion1/lessondeck/internal/export"
	"github.com/dgallion1/lessondeck/internal/ledger"
	"github.com/dgallion1/lessondeck/internal/metrics"
	"github.com/dgallion1/lessondeck/internal/pipeline"
	"github.com/dgallion1/lessondeck/internal/render"
)

// Deps are the services the HTTP API exposes. Metrics and Stats are optional.
type Deps struct {
	Editor    *editor.Service
	Downloads *downloads.Area
	Ledger    *ledger.Ledger
	Exports   *pipeline.Orchestrator
	Renderer  *render.Renderer
	Stats     *export.Stats
	Metrics   *metrics.Metrics
}

// Server is the HTTP API server for lessondeck.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
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
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/api/downloads", s.handleListDownloads)
	r.Get("/api/lessons", s.handleListLessons)
	r.Get("/api/lessons/{lessonID}", s.handleGetLesson)
	r.Get("/api/lessons/{lessonID}/slides/{index}/preview.jpg", s.handlePreview)
	r.Get("/api/lessons/{lessonID}/outline.docx", s.handleOutline)
	r.Get("/api/exports/{jobID}", s.handleExportStatus)
	r.Get("/api/exports/{jobID}/file", s.handleExportFile)
	r.Get("/api/ledger", s.handleListLedger)
	r.Get("/api/ledger/{lessonID}", s.handleGetLedger)
	r.Get("/api/stats/export", s.handleExportStats)

	// Mutating endpoints; authenticated when an API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/update-slide", s.handleUpdateSlide)
		r.Post("/api/save-download", s.handleSaveDownload)
		r.Post("/api/exports", s.handleSubmitExport)
		r.Delete("/api/ledger/{lessonID}", s.handleRemoveLedger)
		r.Delete("/api/ledger", s.handleClearLedger)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
