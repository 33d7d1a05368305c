package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	_ "github.com/lotledger/backend/docs"
	fulfillmentapp "github.com/lotledger/backend/internal/application/fulfillment"
	inventoryapp "github.com/lotledger/backend/internal/application/inventory"
	"github.com/lotledger/backend/internal/domain/fulfillment"
	"github.com/lotledger/backend/internal/domain/inventory"
	"github.com/lotledger/backend/internal/infrastructure/cache"
	"github.com/lotledger/backend/internal/infrastructure/config"
	"github.com/lotledger/backend/internal/infrastructure/event"
	"github.com/lotledger/backend/internal/infrastructure/lock"
	"github.com/lotledger/backend/internal/infrastructure/logger"
	"github.com/lotledger/backend/internal/infrastructure/persistence"
	"github.com/lotledger/backend/internal/infrastructure/rowstore"
	"github.com/lotledger/backend/internal/infrastructure/scheduler"
	"github.com/lotledger/backend/internal/infrastructure/telemetry"
	"github.com/lotledger/backend/internal/interfaces/http/handler"
	"github.com/lotledger/backend/internal/interfaces/http/middleware"
	"github.com/lotledger/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Lot Ledger API
//	@version		1.0
//	@description	Inventory lots, the movement ledger and order fulfillment over a row-addressed store
//	@BasePath		/api/v1

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Bootstrap logger, replaced once the log exporter is up
	logCfg := logger.FromAppConfig(cfg.App, cfg.Log)
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	// Telemetry
	telemetryCfg := telemetry.ConfigFrom(cfg.Telemetry)
	telemetryCfg.ServiceVersion = version
	telemetryCfg.Environment = cfg.App.Env
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if loggerProvider.IsEnabled() {
		log, err = logger.New(logCfg, loggerProvider.Core(logCfg.ZapLevel()))
		if err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}

	// Continuous profiling
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfigFrom(cfg.Profiling), log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && cfg.Profiling.SpanProfiles {
		tracerProvider.EnableSpanProfiles()
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting lot ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("store", cfg.Store.Backend),
		zap.String("version", version),
	)

	// Row store
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open row store", zap.Error(err))
	}
	defer closeStore()

	schema := rowstore.SchemaFromConfig(cfg.Schema)
	if cfg.Store.CreateTables {
		if err := ensureTables(ctx, store, schema); err != nil {
			log.Fatal("Failed to create tables", zap.Error(err))
		}
	}

	// Repositories
	lotRepo, err := persistence.NewRowLotRepository(store, schema)
	if err != nil {
		log.Fatal("Failed to map lots table", zap.Error(err))
	}
	movementRepo, err := persistence.NewRowMovementRepository(store, schema)
	if err != nil {
		log.Fatal("Failed to map movements table", zap.Error(err))
	}
	lineRepo, err := persistence.NewRowOrderLineRepository(store, schema)
	if err != nil {
		log.Fatal("Failed to map order lines table", zap.Error(err))
	}
	cuttingRepo, err := persistence.NewRowCuttingOrderRepository(store, schema)
	if err != nil {
		log.Fatal("Failed to map cutting order tables", zap.Error(err))
	}
	transitionWriter := persistence.NewRowTransitionWriter(store, schema, log)

	// Redis backs distributed locks and idempotency keys when configured
	var redisClient *redis.Client
	if cfg.Lock.Backend == "redis" || (cfg.Idempotency.Enabled && cfg.Idempotency.Backend == "redis") {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable", zap.Error(err))
			redisClient = nil
		} else {
			defer func() {
				_ = redisClient.Close()
			}()
		}
	}

	locker, err := lock.NewLocker(cfg.Lock, redisClient, log)
	if err != nil {
		log.Fatal("Failed to initialize locker", zap.Error(err))
	}

	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Idempotency,
		cache.WithLogger(log),
		cache.WithRedisClient(redisClient),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	if idempotencyStore != nil {
		defer func() {
			_ = idempotencyStore.Close()
		}()
	}

	policy, err := fulfillment.ParseReservationPolicy(cfg.Fulfillment.ReservationPolicy)
	if err != nil {
		log.Fatal("Invalid reservation policy", zap.Error(err))
	}

	// Event bus
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewJournalHandler(log))
	ledgerMetrics, err := telemetry.NewLedgerMetricsFrom(meterProvider)
	if err != nil {
		log.Fatal("Failed to create ledger metrics", zap.Error(err))
	}
	eventBus.Subscribe(ledgerMetrics)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services share one projection so either side's appends are visible to both
	projection := inventory.NewBalanceProjection()

	inventoryService := inventoryapp.NewInventoryService(lotRepo, movementRepo, lineRepo, projection, locker, log)
	inventoryService.SetReservationPolicy(policy)
	inventoryService.SetIdempotencyStore(idempotencyStore, cfg.Idempotency.TTL)
	inventoryService.SetEventPublisher(eventBus)
	inventoryService.SetLedgerMetrics(ledgerMetrics)

	fulfillmentService := fulfillmentapp.NewFulfillmentService(lotRepo, movementRepo, lineRepo, cuttingRepo, transitionWriter, projection, locker, log)
	fulfillmentService.SetIdempotencyStore(idempotencyStore, cfg.Idempotency.TTL)
	fulfillmentService.SetEventPublisher(eventBus)
	fulfillmentService.SetLedgerMetrics(ledgerMetrics)

	if _, err := inventoryService.RebuildProjection(ctx); err != nil {
		log.Warn("Initial projection build failed, it will be built on first use", zap.Error(err))
	}

	// Periodic projection rebuild picks up ledger rows edited in place
	var (
		sched   *scheduler.Scheduler
		trigger *scheduler.IntervalTrigger
	)
	if cfg.Projection.RefreshInterval > 0 {
		sched = scheduler.New(scheduler.DefaultConfig(), log)
		if err := sched.Start(ctx); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		trigger, err = scheduler.NewIntervalTrigger("projection_refresh", cfg.Projection.RefreshInterval, func(ctx context.Context) error {
			var err error
			telemetry.WithProfilingLabels(ctx, map[string]string{telemetry.ProfilingLabelOperation: "projection_refresh"}, func(ctx context.Context) {
				_, err = inventoryService.RebuildProjection(ctx)
			})
			return err
		}, sched, log)
		if err != nil {
			log.Fatal("Failed to create projection refresh trigger", zap.Error(err))
		}
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start projection refresh", zap.Error(err))
		}
	}

	// HTTP handlers
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version)
	systemHandler.AddCheck("store", func(ctx context.Context) error {
		ts, err := schema.Table(rowstore.TableLots)
		if err != nil {
			return err
		}
		_, err = store.ReadAll(ctx, ts.Name)
		return err
	})
	if redisClient != nil {
		systemHandler.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := router.NewEngine(router.EngineConfig{
		HTTP:      cfg.HTTP,
		Logger:    log,
		Tracing:   middleware.TracingConfig{ServiceName: telemetryCfg.ServiceName, Enabled: tracerProvider.IsEnabled()},
		Metrics:   middleware.HTTPMetricsConfig{MeterProvider: meterProvider, Enabled: meterProvider.IsEnabled()},
		Profiling: middleware.ProfilingConfig{Enabled: profiler.IsEnabled()},
	})
	router.Mount(engine, router.Handlers{
		Inventory:   handler.NewInventoryHandler(inventoryService),
		Fulfillment: handler.NewFulfillmentHandler(fulfillmentService),
		System:      systemHandler,
	}, router.WithAPIVersion("v1"), router.WithSwagger(middleware.SwaggerConfig{
		Enabled:    cfg.HTTP.SwaggerEnabled,
		AllowedIPs: cfg.HTTP.SwaggerAllowedIPs,
	}))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if trigger != nil {
		if err := trigger.Stop(shutdownCtx); err != nil {
			log.Warn("Projection refresh did not stop", zap.Error(err))
		}
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.Warn("Scheduler did not stop", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not stop", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler did not stop", zap.Error(err))
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracerProvider.Shutdown,
		"meter":  meterProvider.Shutdown,
		"logger": loggerProvider.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// openStore opens the configured row store backend and returns its closer
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (rowstore.Store, func(), error) {
	switch cfg.Store.Backend {
	case "memory":
		log.Warn("Using in-memory row store, data is lost on exit")
		return rowstore.NewMemoryStore(), func() {}, nil

	case "workbook":
		wb, err := rowstore.OpenWorkbook(cfg.Store.WorkbookPath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Workbook opened", zap.String("path", cfg.Store.WorkbookPath))
		return wb, func() {
			if err := wb.Close(); err != nil {
				log.Error("Error closing workbook", zap.Error(err))
			}
		}, nil

	case "sql":
		gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
			logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
			logger.WithFullStatements(cfg.Telemetry.DBLogFullSQL),
		)
		db, err := persistence.OpenDatabase(ctx, cfg.Database, persistence.WithGormLogger(gormLog))
		if err != nil {
			return nil, nil, err
		}
		plugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfigFrom(cfg.Telemetry, cfg.Database.Driver), log)
		if err := plugin.Register(db.DB); err != nil {
			log.Warn("Database tracing not installed", zap.Error(err))
		}
		sqlStore := rowstore.NewSQLStore(db.DB)
		if cfg.Store.CreateTables {
			if err := sqlStore.AutoMigrate(ctx); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))
		return sqlStore, func() {
			if err := db.Close(); err != nil {
				log.Error("Error closing database", zap.Error(err))
			}
		}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// ensureTables creates every mapped table the store is missing
func ensureTables(ctx context.Context, store rowstore.Store, schema rowstore.Schema) error {
	creator, ok := store.(rowstore.TableCreator)
	if !ok {
		return nil
	}
	for _, logical := range []string{
		rowstore.TableLots,
		rowstore.TableMovements,
		rowstore.TableOrderLines,
		rowstore.TableCuttingOrders,
		rowstore.TableCuttingItems,
	} {
		ts, err := schema.Table(logical)
		if err != nil {
			return err
		}
		if err := creator.EnsureTable(ctx, ts.Name, ts.Headers()); err != nil {
			return err
		}
	}
	return nil
}
