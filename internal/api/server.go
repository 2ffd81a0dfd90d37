package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"echocheck/internal/config"
	"echocheck/internal/logging"
	"echocheck/internal/notifications"
	"echocheck/internal/queue"
	"echocheck/internal/users"
	"echocheck/internal/workflow"
)

// ServiceVersion is reported by the health and status endpoints.
const ServiceVersion = "0.1.0"

// Server exposes the Echo-Check HTTP API. All analysis routes are scoped to
// the authenticated user; uploads go onto the queue and are processed
// asynchronously by the workflow manager.
type Server struct {
	cfg      *config.Config
	store    *queue.Store
	users    *users.Store
	tokens   *users.TokenIssuer
	manager  *workflow.Manager
	notifier notifications.Service
	logger   *slog.Logger
	router   chi.Router
	started  time.Time
}

// NewServer wires the API against its backing stores. manager may be nil when
// the pipeline is not running in this process (status reports it as stopped).
func NewServer(cfg *config.Config, store *queue.Store, userStore *users.Store, manager *workflow.Manager, notifier notifications.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	s := &Server{
		cfg:      cfg,
		store:    store,
		users:    userStore,
		tokens:   users.NewTokenIssuer(cfg),
		manager:  manager,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "api"),
		router:   chi.NewRouter(),
		started:  time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.corsMiddleware)

	s.router.Get("/healthz", s.handleHealthz)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Get("/users/me", s.handleCurrentUser)

			r.Post("/analyses", s.handleUpload)
			r.Get("/analyses", s.handleListAnalyses)
			r.Get("/analyses/{id}", s.handleGetAnalysis)
			r.Delete("/analyses/{id}", s.handleDeleteAnalysis)
			r.Get("/analyses/{id}/spectrogram", s.handleSpectrogram)
			r.Get("/analyses/{id}/report", s.handleReport)

			r.Get("/status", s.handleStatus)
		})
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer returns a configured http.Server bound to the configured API
// address. Write timeout stays generous to cover large report downloads.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Paths.APIBind,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       time.Minute,
	}
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "echocheck",
		"version": ServiceVersion,
	})
}
