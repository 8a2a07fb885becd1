package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jurix/jurix/infrastructure/http/middleware"
	"github.com/jurix/jurix/infrastructure/http/response"
	"github.com/jurix/jurix/infrastructure/service/logger"
	"github.com/jurix/jurix/infrastructure/service/metrics"
)

// Server represents the HTTP server
type Server struct {
	addr          string
	server        *http.Server
	logger        logger.Logger
	metrics       *metrics.Metrics
	slowThreshold time.Duration
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port                 string
	ReadTimeout          time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	ServiceName          string
	Version              string
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
	// SlowRequestThreshold enables performance logging of requests at or above it; zero disables it
	SlowRequestThreshold time.Duration
}

// Dependencies are the collaborators wired into the router.
// RateLimit, Metrics and Gatherer may be nil.
type Dependencies struct {
	Contracts ContractUseCase
	Audit     AuditUseCase
	Auth      AuthUseCase
	AuthMW    *middleware.AuthMiddleware
	RateLimit *middleware.RateLimitMiddleware
	Metrics   *metrics.Metrics
	Gatherer  prometheus.Gatherer
	Logger    logger.Logger
}

// NewServer creates a new HTTP server
func NewServer(config ServerConfig, deps Dependencies) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		addr:          ":" + config.Port,
		logger:        log.WithFields(map[string]interface{}{"component": "http_server"}),
		metrics:       deps.Metrics,
		slowThreshold: config.SlowRequestThreshold,
	}

	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           middleware.CORS(config.CORSAllowedOrigins, config.CORSAllowCredentials)(s.routes(config, deps)),
		ReadTimeout:       config.ReadTimeout,
		ReadHeaderTimeout: config.ReadTimeout,
		WriteTimeout:      config.WriteTimeout,
		IdleTimeout:       config.IdleTimeout,
	}
	return s
}

// Handler exposes the fully wired handler for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) routes(config ServerConfig, deps Dependencies) *mux.Router {
	router := mux.NewRouter()

	router.Use(middleware.CorrelationIDMiddleware)
	router.Use(s.recoveryMiddleware)
	router.Use(s.loggingMiddleware)
	if deps.RateLimit != nil {
		router.Use(deps.RateLimit.RateLimit)
	}

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, http.StatusOK, "Service is healthy", map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   config.ServiceName,
			"version":   config.Version,
		})
	}).Methods("GET")

	if deps.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	authHandler := NewAuthHandler(deps.Auth)
	authHandler.RegisterPublicRoutes(api)

	protected := api.NewRoute().Subrouter()
	protected.Use(deps.AuthMW.RequireAuth)
	authHandler.RegisterRoutes(protected)
	NewContractHandler(deps.Contracts).RegisterRoutes(protected)
	NewAuditHandler(deps.Audit).RegisterRoutes(protected)

	return router
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "Starting HTTP server", map[string]interface{}{"addr": s.addr})
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server", nil)
	return s.server.Shutdown(ctx)
}

// Middleware

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}

		if s.metrics != nil {
			s.metrics.ObserveRequest(r.Method, route, rec.status, elapsed)
		}

		s.logger.Info(r.Context(), "HTTP request", map[string]interface{}{
			"method":      r.Method,
			"route":       route,
			"path":        r.URL.Path,
			"status":      rec.status,
			"remote_ip":   middleware.ClientIP(r),
			"duration_ms": elapsed.Milliseconds(),
		})

		if s.slowThreshold > 0 && elapsed >= s.slowThreshold {
			logger.LogPerformance(r.Context(), s.logger, r.Method+" "+route, elapsed, map[string]interface{}{
				"status": rec.status,
			})
		}
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error(r.Context(), "Panic recovered", fmt.Errorf("%v", rec), map[string]interface{}{
					"path": r.URL.Path,
				})
				response.InternalServerError(w, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
