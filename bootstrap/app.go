package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"contact-indexer/config"
	"contact-indexer/consumer"
	"contact-indexer/domain"
	"contact-indexer/driver"
	"contact-indexer/gateway"
	"contact-indexer/logger"
	"contact-indexer/monitor"
	"contact-indexer/usecase"
	appOtel "contact-indexer/utils/otel"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// App holds all components of the contact-indexer service.
type App struct {
	echoServer    *echo.Echo
	pool          *pgxpool.Pool
	redisConsumer *consumer.Consumer
	otelShutdown  appOtel.ShutdownFunc
}

// Run initializes all components and starts the service.
// It blocks until ctx is cancelled, then performs graceful shutdown.
func Run(ctx context.Context) error {
	// ── OpenTelemetry ──
	otelCfg := appOtel.ConfigFromEnv()
	otelShutdown, err := appOtel.InitProvider(ctx, otelCfg)
	if err != nil {
		fmt.Printf("Failed to initialize OpenTelemetry: %v\n", err)
		otelCfg.Enabled = false
		otelShutdown = func(context.Context) error { return nil }
	}

	// ── Logger ──
	logger.InitWithOTel(otelCfg.Enabled)
	logger.Logger.Info("Starting contact-indexer",
		"service", otelCfg.ServiceName,
		"otel_enabled", otelCfg.Enabled,
	)

	// ── Load config ──
	appCfg, err := config.Load()
	if err != nil {
		logger.Logger.Error("Failed to load config", "err", err)
		return err
	}

	// ── Drivers (infrastructure layer) ──
	pool, err := initDatabasePool(ctx, appCfg)
	if err != nil {
		logger.Logger.Error("Failed to connect to database", "err", err)
		return err
	}

	searchDriver, err := initSearchDriver(appCfg, pool)
	if err != nil {
		logger.Logger.Error("Failed to initialize search driver", "err", err)
		pool.Close()
		return err
	}

	// ── Gateways (anti-corruption layer) ──
	recordRepo := gateway.NewRecordRepositoryGateway(driver.NewDatabaseDriver(pool))
	searchBackend := gateway.NewSearchBackendGateway(searchDriver, appCfg.Search.Timeout)

	for _, cfg := range []domain.SearchIndexConfig{domain.CardIndexConfig(), domain.CompanyIndexConfig()} {
		if err := searchBackend.EnsureIndex(ctx, cfg); err != nil {
			logger.Logger.Error("Failed to ensure search index", "index", cfg.IndexName, "err", err)
			pool.Close()
			return err
		}
	}

	// ── Use cases (application layer) ──
	searchMonitor := monitor.New()
	searchUsecase := usecase.NewSearchDocumentsUsecase(searchBackend, searchMonitor)
	suggestUsecase := usecase.NewSuggestValuesUsecase(searchBackend)
	indexUsecase := usecase.NewIndexDocumentsUsecase(searchBackend, recordRepo, config.ReindexLimit)
	healthUsecase := usecase.NewHealthUsecase(searchBackend, searchMonitor)

	// ── Redis Streams Consumer ──
	var redisConsumer *consumer.Consumer
	consumerCfg := consumer.ConfigFromEnv()
	if consumerCfg.Enabled {
		eventHandler := consumer.NewContactEventHandler(indexUsecase, logger.Logger)
		redisConsumer, err = consumer.NewConsumer(consumerCfg, eventHandler, logger.Logger)
		if err != nil {
			logger.Logger.Error("Failed to create Redis Streams consumer", "err", err)
		} else {
			if err := redisConsumer.Start(ctx); err != nil {
				logger.Logger.Error("Failed to start Redis Streams consumer", "err", err)
			} else {
				logger.Logger.Info("Redis Streams consumer started",
					"stream", consumerCfg.StreamKey,
					"group", consumerCfg.GroupName,
				)
			}
		}
	} else {
		logger.Logger.Info("Redis Streams consumer disabled")
	}

	// ── Server ──
	app := &App{
		echoServer:    newEchoServer(searchUsecase, suggestUsecase, indexUsecase, healthUsecase, appCfg, otelCfg),
		pool:          pool,
		redisConsumer: redisConsumer,
		otelShutdown:  otelShutdown,
	}

	go func() {
		logger.Logger.Info("http listen", "addr", appCfg.HTTP.Addr, "search_backend", appCfg.Search.Backend)
		if err := app.echoServer.Start(appCfg.HTTP.Addr); err != nil && err != http.ErrServerClosed {
			logger.Logger.Error("http", "err", err)
		}
	}()

	// ── Wait for shutdown signal ──
	<-ctx.Done()
	app.shutdown()
	return nil
}

// shutdown performs graceful shutdown of all components.
func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.echoServer.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("http shutdown error", "err", err)
	}
	if a.redisConsumer != nil {
		a.redisConsumer.Stop()
	}
	if a.pool != nil {
		a.pool.Close()
	}

	otelCtx, otelCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer otelCancel()
	if err := a.otelShutdown(otelCtx); err != nil {
		fmt.Printf("Failed to shutdown OpenTelemetry: %v\n", err)
	}
}
