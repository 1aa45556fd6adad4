//go:build ignore
// +build ignore

// seed-data populates the configured remote backend with demo principals so
// impersonation and multi-device sync can be exercised locally.
//
// Usage:
//
//	LEDGER_BACKEND=postgres LEDGER_POSTGRES_DSN=... go run scripts/seed-data.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/visao360/ledger/internal/config"
	"github.com/visao360/ledger/internal/logger"
	"github.com/visao360/ledger/internal/model"
	"github.com/visao360/ledger/internal/remote"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "seed-data: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New()
	ctx := context.Background()

	var rem remote.Store
	switch cfg.Backend {
	case config.BackendFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProject)
		if err != nil {
			return err
		}
		defer client.Close()
		rem = remote.NewFirestoreStore(client)
	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()
		rem, err = remote.NewPostgresStore(ctx, pool)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("seeding needs a durable backend, got %q", cfg.Backend)
	}

	for _, principalID := range []string{"demo-alice", "demo-bob"} {
		state := demoState(principalID)
		if err := rem.Upsert(ctx, principalID, state); err != nil {
			return fmt.Errorf("seeding %s: %w", principalID, err)
		}
		log.Info().
			Str("principal_id", principalID).
			Int("transactions", len(state.Transactions)).
			Msg("seeded demo principal")
	}
	return nil
}

func demoState(principalID string) model.GlobalState {
	s := model.DefaultState()
	s.Accounts[0].Balance = 3250.40
	s.UserProfile.Name = principalID

	today := time.Now()
	for i := 0; i < 6; i++ {
		date := today.AddDate(0, 0, -i*5).Format("2006-01-02")
		s.Transactions = append(s.Transactions, model.Transaction{
			ID:          fmt.Sprintf("%s-tx-%d", principalID, i),
			AccountID:   s.Accounts[0].ID,
			Description: fmt.Sprintf("Compra #%d", i+1),
			Value:       49.90 + float64(i)*10,
			Date:        date,
			Type:        model.TransactionExpense,
			CategoryID:  "cat-food",
		})
	}
	s.Transactions = append(s.Transactions, model.Transaction{
		ID:          principalID + "-salary",
		AccountID:   s.Accounts[0].ID,
		Description: "Salário",
		Value:       5200,
		Date:        today.Format("2006-01-02"),
		Type:        model.TransactionIncome,
		CategoryID:  "cat-salary",
	})
	s.LastUpdated = today.UnixMilli()
	return s
}
