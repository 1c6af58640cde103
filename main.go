package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"entauth/internal/config"
	"entauth/internal/container"
	"entauth/internal/handler"
	"entauth/internal/middleware"
	"entauth/pkg/logger"
)

// Resources holds all resources that need cleanup
type Resources struct {
	container *container.Container
	server    *http.Server
	log       *logger.Logger
	mu        sync.Mutex
	closed    bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error

	r.log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first to stop accepting new requests
	if r.server != nil {
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}

	if r.container != nil {
		if r.container.RedisClient != nil {
			if err := r.container.RedisClient.Close(); err != nil {
				r.log.WithError(err).Error("Failed to close Redis connection")
				errs = append(errs, fmt.Errorf("Redis close: %w", err))
			}
		}
		if r.container.DB != nil {
			r.container.DB.Close()
		}
	}

	if len(errs) > 0 {
		r.log.WithField("error_count", len(errs)).Error("Cleanup completed with errors")
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errs), errs)
	}

	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"port":        cfg.Port,
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
	}).Info("Starting entauth server")

	// Create dependency injection container; signing keys are imported here
	// and a bad key pair fails startup loudly
	ctx := context.Background()
	c, err := container.New(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	// Setup router
	router := setupRouter(c)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	resources := &Resources{
		container: c,
		server:    server,
		log:       log,
	}

	// Setup graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server error occurred")
			serverErrChan <- err
		}
	}()

	// Wait for interrupt signal or server error
	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}

// setupRouter configures and returns the HTTP router
func setupRouter(c *container.Container) *chi.Mux {
	cfg := c.GetConfig()
	log := c.GetLogger()

	r := chi.NewRouter()

	corsConfig := &middleware.CORSConfig{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		ExposedHeaders:   []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           86400,
	}

	r.Use(middleware.CORS(corsConfig, log))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(30 * time.Second))

	healthHandler := handler.NewHealthHandler(c)
	authHandler := handler.NewAuthHandler(c)
	tokenHandler := handler.NewTokenHandler(c)

	// Health check (no auth required)
	r.Get("/health", healthHandler.Check)

	r.Route("/api", func(r chi.Router) {
		// Challenge flow (no auth required; rate limited internally)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/challenge", authHandler.RequestChallenge)
			r.Post("/verify", authHandler.VerifyChallenge)
		})

		// Offline verification surface (no auth required)
		r.Post("/token/verify", tokenHandler.VerifyToken)
		r.Get("/keys/{kind}", tokenHandler.GetPublicKey)

		// Entitlement issuance requires a verified identity token
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(c.Verifier, log))
			r.Post("/entitlement/token", tokenHandler.IssueEntitlement)
		})
	})

	return r
}
