package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/mealplanner/backend/config"
	"github.com/pageza/mealplanner/backend/internal/api"
	"github.com/pageza/mealplanner/backend/internal/database"
	"github.com/pageza/mealplanner/backend/internal/middleware"
	"github.com/pageza/mealplanner/backend/internal/router"
	"github.com/pageza/mealplanner/backend/internal/service"
)

const (
	memoryStoreSweep   = time.Minute
	memoryStoreMaxKeys = 100_000
	shutdownTimeout    = 10 * time.Second
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
	redis  *redis.Client
	memory *middleware.MemoryStore
}

// New connects to the configured backends, builds the service graph and the router
func New(cfg *config.Config) (*Server, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}

	llm, err := service.NewLLMService(service.LLMConfig{
		APIKey:  cfg.LLMAPIKey,
		APIURL:  cfg.LLMAPIURL,
		Model:   cfg.LLMModel,
		Timeout: cfg.LLMTimeout,
	})
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	s, err := newServer(cfg, db, llm)
	if err != nil {
		closeDB(db)
		return nil, err
	}
	return s, nil
}

func newServer(cfg *config.Config, db *gorm.DB, llm service.Completer) (*Server, error) {
	s := &Server{db: db}

	checks := map[string]router.HealthCheck{
		"database": func(ctx context.Context) error { return database.HealthCheck(ctx, db) },
	}

	var store middleware.RateStore
	if cfg.RateLimitStore == "redis" {
		client, err := database.NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		s.redis = client
		store = middleware.NewRedisStore(client)
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	} else {
		s.memory = middleware.NewMemoryStore(memoryStoreSweep, memoryStoreMaxKeys)
		store = s.memory
	}

	consolidator := service.NewConsolidator(llm, service.CoveragePolicy(cfg.CoveragePolicy))
	generator := service.NewMealPlanGenerator(llm, consolidator)
	services := api.Services{
		Plans:        service.NewPlanStore(db),
		Profiles:     service.NewProfileStore(db),
		Generator:    generator,
		Coordinator:  service.NewModificationCoordinator(service.NewIntentClassifier(llm), generator, consolidator),
		Consolidator: consolidator,
		Assistant:    service.NewAssistant(llm),
		Tokens:       service.NewTokenService(cfg.JWTSecret),
		Limiter: middleware.NewRateLimiter(store, middleware.RateLimitConfig{
			Limit:     cfg.RateLimitRequests,
			Window:    cfg.RateLimitWindow,
			KeyPrefix: "mealplanner:rate_limit",
		}),
	}

	s.router = router.SetupRouter(cfg, services, checks)
	s.http = &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the server is shut down
func (s *Server) Start() error {
	slog.Info("Starting server", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start()
	}()

	select {
	case err := <-errChan:
		s.release()
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully stops the HTTP server and releases its backends
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.http.Shutdown(ctx)
	s.release()
	if err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}

func (s *Server) release() {
	if s.memory != nil {
		s.memory.Close()
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			slog.Warn("Failed to close Redis client", "error", err)
		}
	}
	closeDB(s.db)
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		slog.Warn("Failed to close database", "error", err)
	}
}
