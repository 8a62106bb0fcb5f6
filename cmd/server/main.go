// Package main - punto de entrada del servidor del PEM Payments Hub.
//
// El servidor expone la API REST del motor de conciliación de pagos de los
// programas de empleo subsidiado: carga y conciliación de archivos de pago,
// tablero de elegibilidad, historial de lotes y administración del padrón.
//
// La arquitectura sigue Clean Architecture y DDD:
// - Domain: lógica de negocio pura, sin dependencias externas
// - Application: orquestación de casos de uso (Commands/Queries)
// - Infrastructure: repositorios, almacén de documentos, caché, eventos
// - Interface: API HTTP
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pem-hub/pem-payments-hub/config"
	"github.com/pem-hub/pem-payments-hub/internal/application/command"
	"github.com/pem-hub/pem-payments-hub/internal/application/query"
	"github.com/pem-hub/pem-payments-hub/internal/domain/pricing"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
	"github.com/pem-hub/pem-payments-hub/internal/infrastructure/messaging"
	"github.com/pem-hub/pem-payments-hub/internal/infrastructure/persistence/postgres"
	"github.com/pem-hub/pem-payments-hub/internal/infrastructure/persistence/redis"
	"github.com/pem-hub/pem-payments-hub/internal/infrastructure/scheduler"
	"github.com/pem-hub/pem-payments-hub/internal/infrastructure/scheduler/jobs"
	httpserver "github.com/pem-hub/pem-payments-hub/internal/interface/http"
	"github.com/pem-hub/pem-payments-hub/pkg/logger"
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
	// 1. CONFIGURACIÓN
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	log.Info("starting PEM Payments Hub",
		logger.String("env", string(cfg.App.Environment)),
		logger.Bool("debug", cfg.App.Debug),
		logger.String("timezone", cfg.App.Timezone),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ALMACÉN DE DOCUMENTOS (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database...")
	var dbConn *postgres.Connection
	if cfg.Database.URL != "" {
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	} else {
		pgCfg := postgres.DefaultConfig()
		pgCfg.Host = cfg.Database.Host
		pgCfg.Port = cfg.Database.Port
		pgCfg.Database = cfg.Database.Name
		pgCfg.User = cfg.Database.User
		pgCfg.Password = cfg.Database.Password
		pgCfg.SSLMode = cfg.Database.SSLMode
		pgCfg.MaxConns = int32(cfg.Database.MaxOpenConns)
		pgCfg.MinConns = int32(cfg.Database.MaxIdleConns)
		pgCfg.MaxConnLifetime = cfg.Database.ConnMaxLifetime
		pgCfg.MaxConnIdleTime = cfg.Database.ConnMaxIdleTime
		dbConn, err = postgres.NewConnection(ctx, pgCfg)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection...")
		dbConn.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 4. MIGRACIONES
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("running database migrations...")
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("migrations completed")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. REDIS (opcional)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var snapshotCache query.SnapshotCache
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
			log.Warn("failed to connect to Redis, snapshot caching disabled", logger.Err(err))
		} else {
			defer redisCache.Close()
			// Un corte de Redis degrada a lecturas directas del almacén
			snapshotCache = redis.NewGuardedSnapshotCache(redis.NewEligibilityCache(redisCache), log)
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. REPOSITORIOS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories...")
	participantRepo := postgres.NewParticipantRepository(dbConn)
	pricingRepo := postgres.NewPricingRepository(dbConn)
	paymentRepo := postgres.NewPaymentRepository(dbConn)
	noveltyRepo := postgres.NewNoveltyRepository(dbConn)
	uploadRepo := postgres.NewUploadRepository(dbConn)
	batchWriter := postgres.NewBatchCommitter(dbConn, cfg.Reconciliation.MaxBatchOps)

	resolver := pricing.NewResolver(pricingRepo)
	if err := resolver.Refresh(ctx); err != nil {
		log.Warn("could not warm pricing resolver", logger.Err(err))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. EVENT BUS Y AUDITORÍA
	// ─────────────────────────────────────────────────────────────────────────
	busCfg := messaging.DefaultConfig()
	busCfg.Logger = log
	eventBus := messaging.NewEventBus(busCfg)
	defer eventBus.Close()

	eventBus.SubscribeAll(messaging.NewAuditLogger(log))
	if snapshotCache != nil {
		// Toda conciliación o cambio de padrón invalida el tablero cacheado
		eventBus.SubscribeAll(newSnapshotInvalidator(snapshotCache, log))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. CAPA DE APLICACIÓN
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer...")
	runReconciliation := command.NewRunReconciliationHandler(
		participantRepo, paymentRepo, resolver, batchWriter, eventBus, log)
	reverseUpload := command.NewReverseUploadHandler(
		uploadRepo, paymentRepo, noveltyRepo, batchWriter, eventBus, log)
	enrollParticipant := command.NewEnrollParticipantHandler(participantRepo, eventBus, log)
	deactivate := command.NewDeactivateParticipantHandler(participantRepo, noveltyRepo, eventBus, log)
	configurations := command.NewCreateConfigurationHandler(pricingRepo, resolver, eventBus, log)

	getEligibility := query.NewGetEligibilityHandler(
		participantRepo, snapshotCache, cfg.Reconciliation.SnapshotTTL, log)
	getUploadHistory := query.NewGetUploadHistoryHandler(uploadRepo)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. TAREAS PROGRAMADAS
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(scheduler.Config{
		Logger:   log,
		Timezone: cfg.App.Location,
	})
	if err := sched.Register(
		jobs.NewRefreshPricingJob(resolver, log),
		scheduler.NewIntervalSchedule(15*time.Minute),
	); err != nil {
		return fmt.Errorf("register refresh_pricing job: %w", err)
	}
	if snapshotCache != nil {
		// Antes de la apertura de oficinas en Buenos Aires
		if err := sched.Register(
			jobs.NewWarmEligibilityJob(getEligibility, log),
			scheduler.NewDailySchedule(7, 30, cfg.App.Location),
		); err != nil {
			return fmt.Errorf("register warm_eligibility job: %w", err)
		}
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("scheduler start failed: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. SERVIDOR HTTP
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpserver.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.MaxUploadBytes = cfg.HTTP.MaxUploadBytes
	serverCfg.EnableCORS = cfg.HTTP.EnableCORS
	serverCfg.AllowedOrigins = cfg.HTTP.AllowedOrigins
	serverCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	server := httpserver.NewServer(serverCfg, httpserver.Dependencies{
		RunReconciliation: runReconciliation,
		ReverseUpload:     reverseUpload,
		EnrollParticipant: enrollParticipant,
		Deactivate:        deactivate,
		Configurations:    configurations,
		GetEligibility:    getEligibility,
		GetUploadHistory:  getUploadHistory,
		Participants:      participantRepo,
		Logger:            log,
		HealthChecker:     &healthChecker{db: dbConn, cache: redisCache},
	})

	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 11. APAGADO CONTROLADO
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	if err := sched.Stop(); err != nil {
		log.Warn("scheduler stop failed", logger.Err(err))
	}

	log.Info("shutdown complete")
	return nil
}

// setupLogger builds the root logger from config.
func setupLogger(cfg *config.Config) *logger.Logger {
	opts := logger.DefaultOptions()
	opts.Level = logger.ParseLevel(cfg.App.LogLevel)
	if cfg.App.Debug {
		opts.Level = logger.LevelDebug
	}
	return logger.New(opts).With(
		logger.String("app", cfg.App.Name),
		logger.String("version", cfg.App.Version),
	)
}

// snapshotInvalidator drops cached dashboard snapshots after any mutation
// of the registry or the payment ledger.
type snapshotInvalidator struct {
	cache query.SnapshotCache
	log   *logger.Logger
}

func newSnapshotInvalidator(cache query.SnapshotCache, log *logger.Logger) *snapshotInvalidator {
	return &snapshotInvalidator{cache: cache, log: log.With(logger.Component("snapshot-invalidator"))}
}

func (s *snapshotInvalidator) Handle(event shared.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("snapshot invalidation failed",
			logger.F("event_type", string(event.EventType())),
			logger.Err(err))
	}
	return nil
}

// healthChecker adapts the infrastructure connections for /health.
type healthChecker struct {
	db    *postgres.Connection
	cache *redis.Cache
}

func (h *healthChecker) CheckStore(ctx context.Context) error {
	return h.db.Ping(ctx)
}

func (h *healthChecker) CheckCache(ctx context.Context) error {
	if h.cache == nil {
		return nil
	}
	return h.cache.Ping(ctx)
}
