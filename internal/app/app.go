package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/kreedentials/store/internal/auth"
	"github.com/kreedentials/store/internal/catalog"
	"github.com/kreedentials/store/internal/config"
	"github.com/kreedentials/store/internal/event"
	handler "github.com/kreedentials/store/internal/handler/http"
	"github.com/kreedentials/store/internal/repository"
	"github.com/kreedentials/store/internal/repository/memory"
	"github.com/kreedentials/store/internal/repository/postgres"
	redisrepo "github.com/kreedentials/store/internal/repository/redis"
	"github.com/kreedentials/store/internal/service"
	"github.com/kreedentials/store/pkg/database"
	"github.com/kreedentials/store/pkg/health"
	pkgkafka "github.com/kreedentials/store/pkg/kafka"
	"github.com/kreedentials/store/pkg/middleware"
	"github.com/kreedentials/store/pkg/tracing"
)

const serviceName = "store"

// App wires together all dependencies and runs the store service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	rdb            *redis.Client
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	janitors       []*memory.SessionRepository
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.closeBackends()
		}
	}()

	// Initialize OpenTelemetry tracing.
	a.tracerShutdown, err = tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded",
		slog.Int("products", cat.Len()),
		slog.String("source", catalogSource(cfg)),
	)

	healthHandler := health.NewHandler()
	slowQuery := time.Duration(cfg.SlowQueryThresholdMs) * time.Millisecond

	// Anonymous sessions always live in process memory.
	anonymous := memory.NewSessionRepository()
	a.janitors = append(a.janitors, anonymous)

	var (
		persistent repository.SessionRepository
		blocklist  repository.TokenBlocklist
		accounts   repository.AccountRepository
	)

	// Session store and token blocklist.
	if cfg.NeedsRedis() {
		a.rdb, err = database.NewRedisClient(ctx, cfg.Redis(), logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("connected to Redis",
			slog.String("addr", cfg.Redis().Addr()),
			slog.Int("db", cfg.RedisDB),
		)
		healthHandler.Register("redis", func(ctx context.Context) error {
			return a.rdb.Ping(ctx).Err()
		})

		persistent = redisrepo.NewSessionRepository(a.rdb, cfg.SessionTTL, database.QueryTracer{
			SlowThreshold: slowQuery,
			Logger:        logger,
		})
		blocklist = redisrepo.NewTokenBlocklist(a.rdb)
	} else {
		sessions := memory.NewSessionRepository()
		a.janitors = append(a.janitors, sessions)
		persistent = sessions
		blocklist = memory.NewTokenBlocklist()
	}

	// Account store.
	if cfg.NeedsPostgres() {
		a.pool, err = database.NewPostgresPool(ctx, cfg.Postgres(), logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.Int("port", cfg.PostgresPort),
			slog.String("database", cfg.PostgresDB),
		)
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, a.pool, serviceName); err != nil {
			logger.Warn("register pool metrics", slog.String("error", err.Error()))
		}

		// Run database migrations.
		if err := database.RunMigrations(ctx, a.pool, postgres.Migrations(), logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")

		healthHandler.Register("postgres", func(ctx context.Context) error {
			return a.pool.Ping(ctx)
		})
		accounts = postgres.NewAccountRepository(a.pool, database.QueryTracer{
			SlowThreshold: slowQuery,
			Logger:        logger,
		})
	} else {
		accounts = memory.NewAccountRepository()
	}

	// Event publishing.
	var publisher event.Publisher
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
		healthHandler.Register("kafka", a.producer.Ping)
		publisher = event.NewProducer(a.producer, logger)
	} else {
		logger.Info("kafka disabled, store events are not published")
	}

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry)
	authService := service.NewAuthService(accounts, blocklist, jwtManager, logger)
	storefrontService := service.NewStorefrontService(cat, anonymous, persistent, publisher, service.StorefrontConfig{
		SessionTTL:       cfg.SessionTTL,
		DefaultFavorites: cfg.DefaultFavorites,
	}, logger)

	// HTTP router.
	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins
	cors.Environment = cfg.Environment

	router := handler.NewRouter(storefrontService, authService, healthHandler, logger, handler.RouterConfig{
		RequestTimeout:  cfg.RequestTimeout,
		CatalogCacheTTL: cfg.CatalogCacheTTL,
		AuthRateLimit:   cfg.AuthRateLimit,
		AuthRateBurst:   cfg.AuthRateBurst,
		CORS:            cors,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Run starts the HTTP server and the session janitors and blocks until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	janitorCtx, stopJanitors := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	for _, repo := range a.janitors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			repo.RunJanitor(janitorCtx, a.cfg.SessionSweepInterval)
		}()
	}
	defer func() {
		stopJanitors()
		wg.Wait()
	}()

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
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

// Shutdown gracefully stops all components in order: the HTTP server drains
// first, then pending spans are flushed, then the backends are closed.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	errs = append(errs, a.closeBackends()...)

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeBackends closes whichever of Kafka, Redis and PostgreSQL were opened.
func (a *App) closeBackends() []error {
	var errs []error
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errs
}

func loadCatalog(cfg *config.Config) (*catalog.Catalog, error) {
	if cfg.CatalogFile == "" {
		return catalog.Seed(), nil
	}
	cat, err := catalog.LoadFile(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

func catalogSource(cfg *config.Config) string {
	if cfg.CatalogFile == "" {
		return "seed"
	}
	return cfg.CatalogFile
}
