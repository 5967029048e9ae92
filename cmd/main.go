package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/flencrypto/cfs-platform/internal/adapters/auth"
	"github.com/flencrypto/cfs-platform/internal/adapters/cache"
	"github.com/flencrypto/cfs-platform/internal/adapters/http/api"
	"github.com/flencrypto/cfs-platform/internal/adapters/http/swagger"
	"github.com/flencrypto/cfs-platform/internal/adapters/repository"
	"github.com/flencrypto/cfs-platform/internal/adapters/repository/fallback"
	"github.com/flencrypto/cfs-platform/internal/adapters/repository/postgres"
	"github.com/flencrypto/cfs-platform/internal/adapters/scheduler"
	service "github.com/flencrypto/cfs-platform/internal/app"
	"github.com/flencrypto/cfs-platform/internal/config"
	"github.com/flencrypto/cfs-platform/pkg/logger"
	"github.com/flencrypto/cfs-platform/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 15 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

var errNoDatabase = errors.New("database_url is not set")

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		// Use fmt for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	application, err := build(ctx, cfg, loggerInstance)
	if err != nil {
		loggerInstance.Error(ctx, "failed to build application", logger.Error(err))
		return
	}
	defer application.close(context.Background())

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           application.handler,
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

// application holds the wired components and what must be released on exit.
type application struct {
	handler http.Handler
	service *service.Service
	facade  *repository.Facade
	sweeper *scheduler.Sweeper
	log     logger.Logger
	closers []func() error
}

// build wires the store, cache, controller, sweeper and router from cfg. A
// database that cannot be reached is not fatal: the facade starts in
// fallback mode and serves the static dataset read-only.
func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*application, error) {
	a := &application{log: log}

	primary, err := openStore(ctx, cfg, log)
	var store repository.Store = fallback.New()
	if err == nil {
		store = primary
		a.closers = append(a.closers, primary.Close)
	}
	a.facade = repository.NewFacade(store, fallback.New(), repository.WithLogger(log.Named("repository")))
	if err != nil {
		a.facade.MarkUnavailable(ctx, err)
	}

	sports := sportCache(ctx, cfg, log)
	if closer, ok := sports.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}

	verifier, err := auth.NewVerifier(cfg.AuthSecret, cfg.AuthIssuer)
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	if cfg.AuthSecret == config.DefaultAuthSecret {
		log.Warn(ctx, "using the development auth secret; set CFS_AUTH_SECRET in production")
	}

	a.service = service.New(a.facade,
		service.WithLogger(log.Named("service")),
		service.WithSportCache(sports),
	)

	if cfg.LockSweepEnabled {
		a.sweeper, err = scheduler.New(a.service,
			scheduler.WithSchedule(cfg.LockSweepSchedule),
			scheduler.WithLogger(log.Named("sweeper")),
		)
		if err != nil {
			a.close(ctx)
			return nil, err
		}
		a.sweeper.Start(ctx)
	}

	a.handler = api.NewServer(a.service,
		api.WithVerifier(verifier),
		api.WithLogger(log.Named("http")),
		api.WithRateLimiter(api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)),
		api.WithRequestTimeout(cfg.RequestTimeout()),
		api.WithCORSOrigins(cfg.CORSOrigins),
		api.WithMount(func(r chi.Router) { swagger.Register(ctx, r) }),
	).Handler()
	return a, nil
}

// openStore connects to PostgreSQL and applies the embedded migrations.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (*postgres.Store, error) {
	if cfg.DatabaseURL == "" {
		log.Warn(ctx, "no database configured; serving fallback data")
		return nil, errNoDatabase
	}
	store, err := postgres.Open(ctx, cfg.DatabaseURL,
		postgres.WithPool(cfg.DBMaxOpenConns, cfg.DBMaxIdleConns),
		postgres.WithConnectTimeout(cfg.DBConnectTimeout()),
		postgres.WithLogger(log.Named("postgres")),
	)
	if err != nil {
		log.Error(ctx, "database unavailable; serving fallback data", logger.Error(err))
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		log.Error(ctx, "database migration failed; serving fallback data", logger.Error(err))
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// redisSportCache closes the client it wraps.
type redisSportCache struct {
	*cache.Redis
	close func() error
}

func (c redisSportCache) Close() error { return c.close() }

// sportCache returns the Redis catalog cache when redis_url is set and
// reachable, and a no-op cache otherwise.
func sportCache(ctx context.Context, cfg *config.Config, log logger.Logger) cache.SportCache {
	if cfg.RedisURL == "" {
		return cache.Nop{}
	}
	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn(ctx, "redis unavailable; sport cache disabled", logger.Error(err))
		return cache.Nop{}
	}
	log.Info(ctx, "connected to redis")
	return redisSportCache{Redis: cache.NewRedis(client, cfg.SportsCacheTTL()), close: client.Close}
}

// close stops the sweeper and releases connections in reverse order.
func (a *application) close(ctx context.Context) {
	if a.sweeper != nil {
		stopCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		if err := a.sweeper.Shutdown(stopCtx); err != nil {
			a.log.Warn(ctx, "lock sweeper did not stop cleanly", logger.Error(err))
		}
		cancel()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn(ctx, "close failed", logger.Error(err))
		}
	}
	a.closers = nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval) // Update every 10 seconds
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
