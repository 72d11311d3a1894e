// Package app wires together all dependencies and runs the reviews service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/netz98/app-builder-product-reviews/internal/config"
	"github.com/netz98/app-builder-product-reviews/internal/event"
	handler "github.com/netz98/app-builder-product-reviews/internal/handler/http"
	"github.com/netz98/app-builder-product-reviews/internal/repository"
	"github.com/netz98/app-builder-product-reviews/internal/repository/mongodb"
	"github.com/netz98/app-builder-product-reviews/internal/service"
	"github.com/netz98/app-builder-product-reviews/pkg/health"
	pkgkafka "github.com/netz98/app-builder-product-reviews/pkg/kafka"
	"github.com/netz98/app-builder-product-reviews/pkg/middleware"
	"github.com/netz98/app-builder-product-reviews/pkg/tracing"
)

// App holds the running components of the reviews service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server
	repo       *repository.Repository
	producer   *pkgkafka.Producer
	shutdownTr func(context.Context) error
}

// NewApp creates the application with all dependencies wired.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Tracing first so every later component picks up the global provider.
	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  cfg.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
		Enabled:      cfg.Tracing.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	// Record store over MongoDB with a shared connection cache.
	driver := mongodb.NewDriver(mongodb.Config{
		URIs:       cfg.Store.RegionURIs,
		DefaultURI: cfg.Store.URI,
		Database:   cfg.Store.Database,
	})
	repo := repository.New(driver, repository.NewConnCache(), repository.Config{
		Region:     cfg.Store.Region,
		Collection: cfg.Store.Collection,
		KeepAlive:  true,
	}, logger)

	// Event publishing is optional; without Kafka the service still serves
	// requests, it just emits nothing.
	var (
		producer  *pkgkafka.Producer
		publisher service.EventPublisher = event.Discard{}
	)
	if cfg.Kafka.Enabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.Kafka.Brokers), logger)
		publisher = event.NewProducer(producer, logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.Kafka.Brokers))
	}

	reviewService := service.NewReviewService(repo, publisher, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("store", repo.Ping)
	if cfg.Kafka.Enabled {
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.Kafka.Brokers)
		})
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORS.AllowedOrigins
	corsCfg.Environment = cfg.Environment

	router := handler.NewRouter(handler.RouterConfig{
		ServiceName: cfg.ServiceName,
		Logger:      logger,
		Health:      healthHandler,
		CORS:        corsCfg,
	}, handler.NewReviewHandler(reviewService, logger))

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		repo:       repo,
		producer:   producer,
		shutdownTr: shutdownTracer,
	}, nil
}

// Run starts the HTTP server, blocking until the context is canceled or the
// server fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.repo.Close(shutdownCtx); err != nil {
		a.logger.Error("repository close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.shutdownTr(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
