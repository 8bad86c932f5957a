// Package server wires the extraction pipeline behind an HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/pastq-dev/pastq/internal/api"
	"github.com/pastq-dev/pastq/internal/config"
	"github.com/pastq-dev/pastq/internal/extractor"
	"github.com/pastq-dev/pastq/internal/home"
	"github.com/pastq-dev/pastq/internal/progress"
	"github.com/pastq-dev/pastq/internal/providers"
	"github.com/pastq-dev/pastq/internal/records"
	"github.com/pastq-dev/pastq/internal/server/endpoints"
	"github.com/pastq-dev/pastq/internal/source"
	"github.com/pastq-dev/pastq/internal/svcctx"
)

// Server is the main PastQ HTTP server. It owns the corpus store, the
// progress store, and the extraction orchestrator.
type Server struct {
	httpServer   *http.Server
	configMgr    *config.Manager
	homeDir      *home.Dir
	logger       *slog.Logger
	orchestrator *extractor.Orchestrator
	store        records.Store

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// Home is the pastq home directory
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Home == nil {
		return nil, errors.New("home directory is required")
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}

	s := &Server{
		configMgr: cfg.ConfigManager,
		homeDir:   cfg.Home,
		logger:    cfg.Logger,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All() {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start initializes the stores and orchestrator, then serves HTTP.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.homeDir.EnsureExists(); err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to prepare home directory: %w", err)
	}

	store, err := records.OpenSQLite(s.homeDir.CorpusPath(), s.logger)
	if err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to open corpus store: %w", err)
	}
	s.store = store
	s.logger.Info("corpus store ready", "path", s.homeDir.CorpusPath())

	progressStore := progress.NewFileStore(s.homeDir.JobStatePath())

	cfg := s.configMgr.Get()
	s.orchestrator = extractor.New(
		extractorConfig(cfg),
		store,
		progressStore,
		newModelClient(cfg, s.logger),
		s.openDocument,
		nil,
		s.logger,
	)

	// Hot reload: swap the model client between jobs.
	s.configMgr.OnChange(func(c *config.Config) {
		if err := s.orchestrator.SetClient(newModelClient(c, s.logger)); err != nil {
			s.logger.Warn("config reloaded but a job is running; model settings apply to the next job")
			return
		}
		s.logger.Info("model client reloaded from config", "model", c.Model.Name)
	})
	s.configMgr.WatchConfig()

	// Create services struct for context enrichment
	s.services = &svcctx.Services{
		Orchestrator: s.orchestrator,
		Records:      store,
		ConfigMgr:    s.configMgr,
		Logger:       s.logger,
		Home:         s.homeDir,
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown stops the HTTP server, then the running job (its in-flight page
// completes and the state persists as STOPPED), then closes the store.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.orchestrator != nil {
		if msg, err := s.orchestrator.Stop(); err == nil {
			s.logger.Info("stopping extraction job", "result", msg)
		}
		s.orchestrator.Wait()
	}

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("corpus store close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// openDocument resolves a document name against the home documents
// directory and opens it as a page source.
func (s *Server) openDocument(document string) (source.Source, error) {
	return source.OpenPDF(s.homeDir.DocumentPath(document), s.logger)
}

// withServices enriches request contexts with the service struct.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable if the stores or orchestrator aren't ready.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.orchestrator == nil || s.store == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}

// extractorConfig maps file configuration onto pipeline tunables.
func extractorConfig(cfg *config.Config) extractor.Config {
	return extractor.Config{
		SimilarityThreshold: cfg.Extraction.SimilarityThreshold,
		ConfidenceMargin:    cfg.Extraction.ConfidenceMargin,
		PageDelay:           cfg.Extraction.PageDelay,
		YearMin:             cfg.Extraction.YearMin,
		YearMax:             cfg.Extraction.YearMax,
		ModelOptions: providers.Options{
			Temperature: cfg.Model.Temperature,
			TopP:        cfg.Model.TopP,
			MaxTokens:   cfg.Model.MaxTokens,
		},
	}
}

// newModelClient builds the provider client with env-var references in the
// API key resolved.
func newModelClient(cfg *config.Config, logger *slog.Logger) providers.Client {
	return providers.NewOpenAIClient(providers.Config{
		Model:          cfg.Model.Name,
		BaseURL:        cfg.Model.BaseURL,
		APIKey:         config.ResolveEnvVars(cfg.Model.APIKey),
		RateLimit:      cfg.Model.RateLimit,
		MaxRetries:     cfg.Model.MaxRetries,
		RequestTimeout: cfg.Model.RequestTimeout,
	}, logger)
}
