package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"contact-indexer/config"
	"contact-indexer/driver"
	"contact-indexer/gateway"
	"contact-indexer/logger"

	"github.com/cenkalti/backoff/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meilisearch/meilisearch-go"
)

// initDatabasePool connects to the primary store, retrying with exponential
// backoff until the deadline so the service survives a database that comes up
// after it does.
func initDatabasePool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 30 * time.Second

	connString := cfg.Database.GetDatabaseConnectionString()
	for {
		pool, err := driver.NewDatabasePool(connectCtx, connString)
		if err == nil {
			logger.Logger.Info("Connected to database", "host", cfg.Database.Host)
			return pool, nil
		}

		delay := bo.NextBackOff()
		logger.Logger.Warn("Database not ready, retrying", "err", err, "retry_in", delay)
		select {
		case <-time.After(delay):
		case <-connectCtx.Done():
			return nil, fmt.Errorf("database connect: %w", err)
		}
	}
}

// initSearchDriver builds the configured search backend. The Postgres backend
// shares the primary store's pool.
func initSearchDriver(cfg *config.Config, pool *pgxpool.Pool) (gateway.SearchDriver, error) {
	switch cfg.Search.Backend {
	case config.BackendPostgres:
		logger.Logger.Info("Using Postgres tsvector search backend")
		return driver.NewPostgresSearchDriver(pool), nil
	case config.BackendMeilisearch:
		client, err := initMeilisearchClient(cfg)
		if err != nil {
			return nil, err
		}
		return driver.NewMeilisearchDriver(client), nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.Search.Backend)
	}
}

// initMeilisearchClient initializes the Meilisearch client with retry logic.
func initMeilisearchClient(cfg *config.Config) (meilisearch.ServiceManager, error) {
	const maxRetries = 5
	const retryDelay = 5 * time.Second

	apiKey := cfg.Meilisearch.APIKey
	// _FILE suffix supports Docker secrets
	if keyFile := os.Getenv("MEILISEARCH_API_KEY_FILE"); keyFile != "" {
		if content, err := os.ReadFile(keyFile); err == nil {
			apiKey = strings.TrimSpace(string(content))
		}
	}

	logger.Logger.Info("Connecting to Meilisearch", "host", cfg.Meilisearch.Host)

	var client meilisearch.ServiceManager

	for i := range maxRetries {
		client = driver.NewMeilisearchClient(cfg.Meilisearch.Host, apiKey)

		if _, healthErr := client.Health(); healthErr != nil {
			logger.Logger.Warn("Meilisearch not ready, retrying", "attempt", i+1, "max", maxRetries, "err", healthErr)
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf("failed to connect to Meilisearch after %d attempts: %w", maxRetries, healthErr)
		}

		logger.Logger.Info("Connected to Meilisearch successfully")
		break
	}

	return client, nil
}
