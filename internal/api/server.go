package api

import (
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/terra-clan/streak-engine/internal/config"
	"github.com/terra-clan/streak-engine/internal/health"
	"github.com/terra-clan/streak-engine/internal/models"
	"github.com/terra-clan/streak-engine/internal/progression"
)

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	engine         progression.Engine
	health         *health.Registry
	authMiddleware *AuthMiddleware
	validate       *validator.Validate
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	engine progression.Engine,
	authMiddleware *AuthMiddleware,
	registry *health.Registry,
) *Server {
	if registry == nil {
		registry = health.NewRegistry()
	}
	s := &Server{
		config:         cfg,
		engine:         engine,
		health:         registry,
		authMiddleware: authMiddleware,
		validate:       newValidator(),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authMiddleware.Authenticate)

		r.Get("/me", s.handleGetProfile)

		r.Route("/challenge", func(r chi.Router) {
			r.Get("/", s.handleGetBoard)
			r.Get("/{id}", s.handleGetChallenge)
		})

		r.Route("/submissions", func(r chi.Router) {
			r.Get("/", s.handleListSubmissions)
			r.Post("/", s.handleSubmit)
		})

		r.Get("/dashboard", s.handleGetDashboard)

		r.Route("/problems", func(r chi.Router) {
			r.Get("/", s.handleListProblems)
			r.Get("/{id}", s.handleGetProblem)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authMiddleware.RequireRole(models.RoleAdmin))

			r.Post("/users", s.handleCreateUser)

			r.Route("/challenges", func(r chi.Router) {
				r.Get("/", s.handleAdminListChallenges)
				r.Post("/", s.handleCreateChallenge)
				r.Patch("/{id}", s.handleUpdateChallenge)
				r.Delete("/{id}", s.handleDeleteChallenge)
			})

			r.Route("/problems", func(r chi.Router) {
				r.Post("/", s.handleCreateProblem)
				r.Delete("/{id}", s.handleDeleteProblem)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}
