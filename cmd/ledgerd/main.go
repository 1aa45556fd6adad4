package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cloud.google.com/go/firestore"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/visao360/ledger/internal/audit"
	"github.com/visao360/ledger/internal/config"
	"github.com/visao360/ledger/internal/ledger"
	"github.com/visao360/ledger/internal/local"
	"github.com/visao360/ledger/internal/logger"
	"github.com/visao360/ledger/internal/remote"
	"github.com/visao360/ledger/internal/retry"
	syncengine "github.com/visao360/ledger/internal/sync"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New()
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(lvl)
	}

	if cfg.OperatorID == "" {
		return fmt.Errorf("LEDGER_OPERATOR_ID is required")
	}

	ctx := context.Background()

	cache, err := local.Open(cfg.SQLitePath)
	if err != nil {
		return fmt.Errorf("opening local cache: %w", err)
	}
	defer cache.Close()

	var (
		rem remote.Store
		rec audit.Recorder = audit.NewLogRecorder(log)
	)
	switch cfg.Backend {
	case config.BackendMemory:
		log.Info().Msg("using in-memory remote store for local development")
		rem = remote.NewMemoryStore()
	case config.BackendFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProject)
		if err != nil {
			return fmt.Errorf("creating firestore client: %w", err)
		}
		defer client.Close()
		rem = remote.NewFirestoreStore(client)
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		defer pool.Close()
		pg, err := remote.NewPostgresStore(ctx, pool)
		if err != nil {
			return fmt.Errorf("preparing postgres store: %w", err)
		}
		rem = pg
		pgRec, err := audit.NewPostgresRecorder(ctx, pool)
		if err != nil {
			return fmt.Errorf("preparing audit table: %w", err)
		}
		rec = pgRec
	}

	led := ledger.New()
	engine := syncengine.New(led, rem, cache, rec,
		syncengine.WithLogger(log),
		syncengine.WithDebounce(cfg.Debounce),
		syncengine.WithRetryConfig(retry.Config{
			MaxRetries:    cfg.MaxRetries,
			InitialDelay:  cfg.RetryDelay,
			Timeout:       cfg.RetryTimeout,
			OperationName: "remote",
		}),
	)
	defer engine.Close()

	engine.OnStatusChange(func(s syncengine.Status, err error) {
		evt := log.Info()
		if err != nil {
			evt = log.Warn().Err(err)
		}
		evt.Str("status", string(s)).Msg("sync status changed")
	})

	if err := engine.SetOperator(ctx, cfg.OperatorID); err != nil {
		return fmt.Errorf("binding operator: %w", err)
	}
	log.Info().
		Str("operator_id", cfg.OperatorID).
		Str("backend", string(cfg.Backend)).
		Msg("ledgerd running")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down, flushing pending writes")
	engine.Flush()
	return nil
}
