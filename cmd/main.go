package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/okian/udrf/internal/adapters/http/api"
	"github.com/okian/udrf/internal/adapters/http/swagger"
	"github.com/okian/udrf/internal/adapters/provider"
	"github.com/okian/udrf/internal/adapters/repository"
	app "github.com/okian/udrf/internal/app"
	"github.com/okian/udrf/internal/config"
	"github.com/okian/udrf/pkg/logger"
	"github.com/okian/udrf/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 30 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Use stderr for initialization errors since logger isn't configured yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithFormat(cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, closeDB, err := buildService(ctx, cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to build service", logger.Error(err))
		os.Exit(1)
	}
	defer closeDB()

	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		os.Exit(1)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	handler, err := newHandler(ctx, cfg, svc, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to register routes", logger.Error(err))
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// buildService picks the storage backend from cfg and wires the raw data
// provider and review store into a new service. The returned func closes the
// database, if one was opened.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, func(), error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, nil, err
	}
	rub, err := cfg.BuildRubric()
	if err != nil {
		return nil, nil, err
	}
	driver, err := repository.ParseDriver(cfg.DBDriver)
	if err != nil {
		return nil, nil, err
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithCacheSize(cfg.ScoreCacheSize),
		app.WithMaxRankingRows(cfg.MaxRankingRows),
		app.WithLockPolicy(policy),
		app.WithRubric(rub),
	}

	var fixtures *provider.MemoryProvider
	if cfg.RawDataFile != "" {
		fixtures, err = provider.LoadFixtures(cfg.RawDataFile)
		if err != nil {
			return nil, nil, err
		}
		log.Info(ctx, "loaded raw data fixtures",
			logger.String("file", cfg.RawDataFile), logger.Int("departments", len(fixtures.Records())))
	}

	if driver == repository.DriverMemory {
		if fixtures != nil {
			opts = append(opts, app.WithProvider(fixtures))
		}
		return app.New(opts...), func() {}, nil
	}

	db, err := repository.Open(ctx, driver, cfg.DBDSN)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() { _ = db.Close() }

	store, err := repository.NewSQLStore(ctx, db, repository.WithLogger(log.Named("repository")))
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	prov, err := sqlProvider(ctx, db, fixtures, log)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	opts = append(opts, app.WithReviewStore(store), app.WithProvider(prov))
	log.Info(ctx, "using SQL storage", logger.String("driver", string(driver)))
	return app.New(opts...), closeDB, nil
}

func sqlProvider(ctx context.Context, db *sql.DB, fixtures *provider.MemoryProvider, log logger.Logger) (*provider.SQLProvider, error) {
	prov := provider.NewSQLProvider(db, log.Named("provider"))
	if fixtures == nil {
		return prov, nil
	}
	n, err := prov.Seed(ctx, fixtures)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "seeded raw data", logger.Int("departments", n))
	return prov, nil
}

// newHandler registers the docs and business routes on a chi router.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) (http.Handler, error) {
	r := chi.NewRouter()
	if err := swagger.Register(ctx, r); err != nil {
		return nil, err
	}
	apiServer := api.NewServer(svc, api.NewAuthenticator(cfg.JWTSecret),
		api.WithCORSOrigins(cfg.Origins()...),
		api.WithLogger(log.Named("api")),
	)
	apiServer.Register(ctx, r)
	return r, nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes the gauges derived from service stats.
func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	stats := svc.GetStats(ctx)

	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
	if active, ok := stats["activeWorkers"].(int); ok {
		metrics.UpdateWorkerActiveCount(active)
	}
}
