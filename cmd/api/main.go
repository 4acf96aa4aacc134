// Package main is the entry point for the enrollment service API.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: business rules for accounts, courses and enrollments
// - Application: use case orchestration (Commands/Queries)
// - Infrastructure: PostgreSQL persistence, Redis cache, event bus
// - Interface: HTTP endpoints behind the gateway
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coursedesk/enrollment-hub/config"
	"github.com/coursedesk/enrollment-hub/internal/application/command"
	"github.com/coursedesk/enrollment-hub/internal/application/query"
	"github.com/coursedesk/enrollment-hub/internal/domain/course"
	"github.com/coursedesk/enrollment-hub/internal/domain/shared"
	"github.com/coursedesk/enrollment-hub/internal/infrastructure/messaging"
	"github.com/coursedesk/enrollment-hub/internal/infrastructure/persistence/postgres"
	"github.com/coursedesk/enrollment-hub/internal/infrastructure/persistence/redis"
	httpserver "github.com/coursedesk/enrollment-hub/internal/interface/http"
	"github.com/coursedesk/enrollment-hub/internal/interface/http/handlers"
	"github.com/coursedesk/enrollment-hub/pkg/logger"
	"github.com/coursedesk/enrollment-hub/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting enrollment service",
		logger.String("env", string(cfg.App.Environment)),
		logger.Bool("debug", cfg.App.Debug),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. DATABASE CONNECTION (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")

	dbCfg := postgres.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	dbCfg.MaxConns = cfg.Database.MaxConns
	dbCfg.MinConns = cfg.Database.MinConns
	dbCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
	dbCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime

	var dbConn *postgres.Connection
	err = retry.StartupRetrier().Do(ctx, func(ctx context.Context) error {
		var connErr error
		dbConn, connErr = postgres.Connect(ctx, dbCfg)
		return connErr
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRATIONS
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.Migrate {
		log.Info("running database migrations...")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		applied, err := migrator.GetAppliedMigrations(ctx)
		if err != nil {
			log.Warn("failed to get migration status", logger.Err(err))
		} else {
			log.Info("migrations completed", logger.Int("applied", len(applied)))
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, caching disabled", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	accountRepo := postgres.NewAccountRepository(dbConn)
	courseRepo := postgres.NewCourseRepository(dbConn)
	enrollmentRepo := postgres.NewEnrollmentRepository(dbConn)
	uow := postgres.NewUnitOfWork(dbConn)

	var catalog course.Catalog = courseRepo
	if redisCache != nil && cfg.Features.CatalogCache {
		catalog = redis.NewCachedCatalog(courseRepo, redisCache)
		log.Info("course catalog cache enabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus...")
	eventBusConfig := messaging.DefaultInMemoryEventBusConfig()
	eventBusConfig.AsyncMode = cfg.Features.AsyncEvents
	eventBus := messaging.NewInMemoryEventBus(eventBusConfig)
	defer func() {
		log.Info("closing event bus...")
		_ = eventBus.Close()
	}()

	// Audit every domain event.
	auditLog := log.With(logger.Component("events"))
	if err := eventBus.SubscribeAll(func(e shared.Event) {
		auditLog.Info("domain event",
			logger.String("event_type", string(e.EventType())),
			logger.String("aggregate_id", e.AggregateID()),
			logger.Any("payload", e.Payload()),
		)
	}); err != nil {
		return fmt.Errorf("failed to subscribe audit handler: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")
	enrollCmd := command.NewEnrollHandler(catalog, accountRepo, enrollmentRepo, uow, eventBus)
	reviewCmd := command.NewReviewHandler(uow, eventBus)
	rechargeCmd := command.NewRechargeHandler(accountRepo, eventBus)
	listQuery := query.NewListEnrollmentsHandler(enrollmentRepo)
	balanceQuery := query.NewGetBalanceHandler(accountRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	healthChecker := handlers.NewCompositeHealthChecker(cfg.App.Version)
	healthChecker.AddCheck("database", handlers.NewDatabaseCheck(dbConn))
	if redisCache != nil {
		healthChecker.AddCheck("redis", handlers.NewCacheCheck(redisCache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.EnableCORS = cfg.HTTP.EnableCORS
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	serverCfg.APIKeyHeader = cfg.Auth.APIKeyHeader
	serverCfg.APIKeyHashes = cfg.Auth.APIKeyHashes

	server := httpserver.NewServer(serverCfg, httpserver.Dependencies{
		EnrollHandler:          enrollCmd,
		ReviewHandler:          reviewCmd,
		RechargeHandler:        rechargeCmd,
		ListEnrollmentsHandler: listQuery,
		GetBalanceHandler:      balanceQuery,
		Logger:                 log,
		HealthChecker:          healthChecker,
	})

	serverErr := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 11. GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown failed", logger.Err(err))
		return err
	}

	log.Info("shutdown complete")
	return nil
}

// setupLogger builds the application logger from configuration.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.Observability.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts)
}
