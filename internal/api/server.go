// Package api serves jeep task sessions over HTTP. Every session owns one
// task; edits go through the task gate, are logged to the edit log and answer
// with the gate decision and the new view.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/kiotasks/jeep/internal/eval"
	"github.com/kiotasks/jeep/internal/gate"
	"github.com/kiotasks/jeep/internal/logging"
	"github.com/kiotasks/jeep/internal/store"
	"github.com/kiotasks/jeep/internal/task"
	"github.com/kiotasks/jeep/internal/telemetry"
)

// #region config
// Config wires a server to its collaborators. Reporter and Resolver are the
// host; both may be nil.
type Config struct {
	MaxSessions int
	GateConfig  gate.GateConfig
	// Goals returns the eval goals of a level; nil means the level defaults.
	Goals    func(level int) eval.EvalConfig
	Reporter task.Reporter
	Resolver task.ResourceResolver
	Logger   *slog.Logger
}

// #endregion config

// #region server
// Server handles HTTP requests.
type Server struct {
	store     *store.Store
	sessions  *registry
	config    Config
	logger    *slog.Logger
	validate  *validator.Validate
	startTime time.Time
}

// NewServer creates a server saving solutions and logging edits to st.
func NewServer(st *store.Store, config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if config.Goals == nil {
		config.Goals = func(level int) eval.EvalConfig {
			return eval.DefaultEvalConfig(task.LevelFor(level).Cells)
		}
	}
	return &Server{
		store:     st,
		sessions:  newRegistry(config.MaxSessions),
		config:    config,
		logger:    logger.With("component", "api"),
		validate:  validator.New(),
		startTime: time.Now(),
	}
}

// Routes sets up the HTTP routes with their middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", telemetry.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/parameters", s.handleParameters)
		r.Get("/manifest", s.handleManifest)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/fuel", s.handleFuel)
			r.Post("/move", s.handleMove)
			r.Post("/select", s.handleSelect)
			r.Get("/solution", s.handleGetSolution)
			r.Put("/solution", s.handlePutSolution)
			r.Post("/save", s.handleSave)
		})
	})
	return r
}

// #endregion server

// #region write
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("encode response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, errType, message string) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", message)
	}
	s.writeJSON(w, status, APIError{
		Type:      errType,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// #endregion write

// #region middleware
// requestLogger logs every request with its status and duration.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// #endregion middleware
