package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"lumina-hq/polaris/pkg/config"
	"lumina-hq/polaris/pkg/evaluator"
	"lumina-hq/polaris/pkg/registry"
	"lumina-hq/polaris/pkg/rules/lifecycle"
	"lumina-hq/polaris/pkg/telemetry/health"
	"lumina-hq/polaris/pkg/telemetry/logging"
	"lumina-hq/polaris/pkg/telemetry/metrics"
)

// Server is the Polaris HTTP API server. It exposes the rule lifecycle,
// the source registry, and the compliance evaluator over a JSON API,
// plus health probes and Prometheus metrics.
type Server struct {
	config       *config.ServerConfig
	metricsPath  string
	lifecycle    *lifecycle.Service
	registry     *registry.Service
	evaluator    *evaluator.Evaluator
	logger       *logging.Logger
	metrics      *metrics.Collector
	health       *health.Checker
	version      health.VersionInfo
	httpServer   *http.Server
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Option configures the server.
type Option func(*Server)

// WithLogger attaches a logger to the server.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) {
		s.logger = logger.WithComponent("server")
	}
}

// WithMetrics attaches a metrics collector. The collector's registry is
// served at the configured metrics path.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = collector
	}
}

// WithHealthChecker attaches a health checker with pre-registered
// dependency checks.
func WithHealthChecker(checker *health.Checker) Option {
	return func(s *Server) {
		s.health = checker
	}
}

// WithVersion sets the build information served at /version.
func WithVersion(version, commit, buildTime string) Option {
	return func(s *Server) {
		s.version = health.VersionInfo{Version: version, Commit: commit, BuildTime: buildTime}
	}
}

// NewServer creates the API server over the given services.
func NewServer(cfg *config.Config, lc *lifecycle.Service, reg *registry.Service, eval *evaluator.Evaluator, opts ...Option) *Server {
	s := &Server{
		config:       &cfg.Server,
		metricsPath:  cfg.Telemetry.Metrics.Path,
		lifecycle:    lc,
		registry:     reg,
		evaluator:    eval,
		shutdownChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.health == nil {
		s.health = health.New(5 * time.Second)
	}
	if s.metricsPath == "" {
		s.metricsPath = "/metrics"
	}
	return s
}

// Start starts the HTTP server and blocks until shutdown. Shutdown is
// triggered by context cancellation, SIGINT/SIGTERM, or Shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	handler := s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        handler,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		if s.logger != nil {
			s.logger.Info("starting api server", "address", s.config.ListenAddress)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		if s.logger != nil {
			s.logger.Info("context cancelled, initiating shutdown")
		}
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		if s.logger != nil {
			s.logger.Info("received shutdown signal", "signal", sig.String())
		}
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server, waiting up to the
// configured shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		if s.logger != nil {
			s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				if s.logger != nil {
					s.logger.Error("error during server shutdown", "error", err)
				}
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		if s.logger != nil {
			s.logger.Info("api server stopped")
		}
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// setupRoutes configures HTTP routes and the middleware chain.
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.health.LivenessHandler())
	mux.HandleFunc("GET /readyz", s.health.ReadinessHandler())
	mux.HandleFunc("GET /version", health.VersionHandler(s.version.Version, s.version.Commit, s.version.BuildTime))

	if s.metrics != nil {
		mux.Handle("GET "+s.metricsPath, s.metrics.Handler())
	}

	mux.HandleFunc("GET /v1/rulesets/active", s.handleActiveRuleSet)
	mux.HandleFunc("GET /v1/rulesets/history", s.handleRuleSetHistory)
	mux.HandleFunc("GET /v1/rulesets/changelog", s.handleChangeLog)

	mux.HandleFunc("GET /v1/candidates", s.handleListCandidates)
	mux.HandleFunc("GET /v1/candidates/{id}", s.handleGetCandidate)
	mux.HandleFunc("GET /v1/candidates/{id}/diff", s.handleCandidateDiff)
	mux.HandleFunc("POST /v1/candidates/{id}/approve", s.handleApprove)
	mux.HandleFunc("POST /v1/candidates/{id}/reject", s.handleReject)

	mux.HandleFunc("GET /v1/sources", s.handleListSources)
	mux.HandleFunc("POST /v1/sources", s.handleRegisterSource)
	mux.HandleFunc("GET /v1/sources/{id}", s.handleGetSource)
	mux.HandleFunc("GET /v1/sources/{id}/snapshots", s.handleListSnapshots)

	mux.HandleFunc("POST /v1/evaluate", s.handleEvaluate)

	var handler http.Handler = mux
	handler = s.metricsMiddleware(handler)
	handler = s.loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = s.recoveryMiddleware(handler)

	return handler
}
