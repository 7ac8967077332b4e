package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"workshop/internal/domain/auth"
	"workshop/internal/domain/payroll"
	"workshop/internal/domain/reports"
	"workshop/internal/export"
	"workshop/internal/platform/cache"
	"workshop/internal/platform/config"
	"workshop/internal/platform/crypto"
	"workshop/internal/platform/db"
	"workshop/internal/platform/jobs"
	"workshop/internal/platform/metrics"
	"workshop/internal/store"
	"workshop/internal/store/memory"
	"workshop/internal/store/mongo"
	"workshop/internal/store/postgres"
	"workshop/internal/store/sqlite"
	"workshop/internal/transport/http/api"
	authhandler "workshop/internal/transport/http/handlers/auth"
	jobshandler "workshop/internal/transport/http/handlers/jobs"
	payrollhandler "workshop/internal/transport/http/handlers/payroll"
	reportshandler "workshop/internal/transport/http/handlers/reports"
	"workshop/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Backend store.Backend
	Router  http.Handler
	Users   *auth.Service
	Payroll *payroll.Service
	Reports *reports.Service
	Jobs    *jobs.Service
	Metrics *metrics.Collector

	cache  *cache.ReportCache
	logger *zap.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New opens the configured backend, wires every service and starts the
// background workers. Close releases all of it.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config:  cfg,
		Backend: backend,
		Metrics: metrics.New(),
		logger:  logger,
		cancel:  cancel,
	}

	payrollStore := payroll.NewStore(backend)
	app.Users = auth.NewService(auth.NewStore(backend), cfg.JWTSecret, cfg.TokenTTL)

	opts := []reports.Option{
		reports.WithFeed(payrollStore),
		reports.WithRecorder(app.Metrics),
		reports.WithLogger(logger.Named("reports")),
	}
	if cfg.Redis.Addr != "" {
		app.cache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.ReportTTL)
		if err := app.cache.Ping(ctx); err != nil {
			logger.Warn("report cache unreachable, continuing without it", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			app.cache.Close()
			app.cache = nil
		} else {
			opts = append(opts, reports.WithCache(app.cache))
		}
	}
	app.Reports = reports.NewService(payrollStore, opts...)
	app.Payroll = payroll.NewService(payrollStore, payroll.WithOnChange(app.Reports.InvalidateCache))

	if cfg.RunSeed {
		if err := db.Seed(ctx, app.Users, cfg, logger); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	sealer, err := crypto.New(cfg.DataEncryptionKey)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("export sealer: %w", err)
	}
	app.Jobs = jobs.New(app.Reports, cfg.Reports, sealer, app.Metrics, logger.Named("jobs"))
	if err := app.Jobs.Start(bgCtx); err != nil {
		_ = app.Close()
		return nil, err
	}

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.Reports.InvalidateOnChange(bgCtx, backend,
			store.CollectionEmployees, store.CollectionProduction, store.CollectionPayments)
	}()

	app.Router = app.routes()
	return app, nil
}

func openBackend(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Backend, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		return sqlite.New(ctx, cfg.Storage.SQLitePath, logger.Named("sqlite"))
	case config.DriverPostgres:
		return postgres.New(ctx, postgres.Options{
			DatabaseURL:    cfg.Storage.DatabaseURL,
			ConnectTimeout: cfg.Storage.ConnectTimeout,
			RunMigrations:  cfg.RunMigrations,
		}, logger.Named("postgres"))
	case config.DriverMongo:
		return mongo.New(ctx, mongo.Options{
			URI:            cfg.Storage.MongoURI,
			Database:       cfg.Storage.MongoDatabase,
			ConnectTimeout: cfg.Storage.ConnectTimeout,
		}, logger.Named("mongo"))
	}
	return nil, fmt.Errorf("storage driver %q is not supported", cfg.Storage.Driver)
}

func (a *App) routes() http.Handler {
	cfg := a.Config
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(a.logger.Named("http"), a.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret, a.Users))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Backend.Ping(ctx); err != nil {
			http.Error(w, "storage not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if cfg.MetricsEnabled {
		router.With(middleware.RequireAdmin()).Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, a.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
		r.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

		authhandler.NewHandler(a.Users).RegisterRoutes(r)
		payrollhandler.NewHandler(a.Payroll).RegisterRoutes(r)
		reportshandler.NewHandler(
			a.Reports,
			export.NewFormatter(cfg.Reports.CurrencySuffix),
			a.Metrics,
			a.logger.Named("reports"),
		).RegisterRoutes(r)
		jobshandler.NewHandler(a.Jobs).RegisterRoutes(r)
	})

	return router
}

// Run serves until ctx is done, then drains in-flight requests for up to
// ShutdownTimeout.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("workshop server listening", zap.String("addr", a.Config.Addr), zap.String("storage", a.Config.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (a *App) Close() error {
	a.cancel()
	a.wg.Wait()
	if a.cache != nil {
		a.cache.Close()
	}
	return a.Backend.Close()
}
