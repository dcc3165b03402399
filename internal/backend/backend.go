// Package backend assembles the table store from configuration: one concrete
// backend wrapped in the retry and cache decorators, with optional AMQP
// cache-invalidation broadcasts between processes.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"ledgerbook/internal/amqp"
	"ledgerbook/internal/config"
	"ledgerbook/internal/store"
	"ledgerbook/internal/store/csvfile"
	"ledgerbook/internal/store/gsheets"
	"ledgerbook/internal/store/memory"
	"ledgerbook/internal/store/sqlitestore"
)

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// BuildStore creates the configured backend and layers retry and caching on
// top. The returned cleanup is never nil.
func BuildStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.Cached, CleanupFunc, error) {
	base, cleanup, err := buildBase(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if cleanup == nil {
		cleanup = func() error { return nil }
	}

	cached := store.WithCache(store.WithRetry(base), cfg.CacheTTL)
	prev := cleanup
	cleanup = func() error {
		cached.Close()
		return prev()
	}

	if cfg.AMQPURL != "" {
		cleanup = wireInvalidation(ctx, cfg, logger, cached, cleanup)
	}

	return cached, cleanup, nil
}

func buildBase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.TableStore, CleanupFunc, error) {
	switch cfg.DataBackend {
	case "memory":
		logger.Info("Initialized memory backend")
		return memory.New(), nil, nil

	case "file":
		st, err := csvfile.New(cfg.DataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize file backend: %w", err)
		}
		logger.Info("Initialized file backend", "data_dir", cfg.DataDir)
		return st, nil, nil

	case "sheets":
		creds := []byte(cfg.GoogleCredentialsJSON)
		if cfg.GoogleCredentialsFile != "" {
			b, err := os.ReadFile(cfg.GoogleCredentialsFile)
			if err != nil {
				return nil, nil, fmt.Errorf("read Google credentials file: %w", err)
			}
			creds = b
		}
		cli, err := gsheets.New(ctx, cfg.GoogleSpreadsheetID, creds)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize sheets backend: %w", err)
		}
		logger.Info("Initialized Google Sheets backend", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		return cli, nil, nil

	case "sqlite":
		st, err := sqlitestore.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return st, st.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}

// wireInvalidation connects the cache to the AMQP exchange: local writes are
// broadcast to peers, peer writes purge the local cache. A broker failure is
// logged and the process runs without broadcasts.
func wireInvalidation(ctx context.Context, cfg *config.Config, logger *slog.Logger, cached *store.Cached, cleanup CleanupFunc) CleanupFunc {
	origin := uuid.NewString()
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, origin)
	if err != nil {
		logger.Warn("Failed to initialize AMQP client, continuing without cache broadcasts", "error", err)
		return cleanup
	}
	logger.Info("Initialized AMQP cache invalidation", "exchange", cfg.AMQPExchange, "origin", origin)

	cached.OnMutation(func(table, op string) {
		if err := client.PublishTableChanged(ctx, table, op); err != nil {
			slog.WarnContext(ctx, "Failed to broadcast table change", "table", table, "op", op, "error", err)
		}
	})

	go func() {
		err := client.ConsumeTableChanged(ctx, func(msg *amqp.TableChangedMessage) {
			slog.DebugContext(ctx, "Peer table change, purging cache", "table", msg.Table, "op", msg.Op, "origin", msg.Origin)
			cached.Refresh()
		})
		if err != nil && ctx.Err() == nil {
			slog.WarnContext(ctx, "Table-change consumer stopped", "error", err)
		}
	}()

	prev := cleanup
	return func() error {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", "error", err)
		}
		return prev()
	}
}
