package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/visao360/ledger/internal/model"
)

const notifyChannel = "user_data_changes"

// user_data is the one logical table the engine replicates against; the
// trigger-free pg_notify call after each upsert carries the principal id so
// subscribers can re-fetch only their own row.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS user_data (
    user_id      TEXT PRIMARY KEY,
    content      JSONB NOT NULL,
    last_updated BIGINT NOT NULL DEFAULT 0
);`

// PostgresStore implements Store on a Postgres user_data table, using
// LISTEN/NOTIFY as the realtime push channel.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed remote store and ensures the
// schema exists.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("ensure user_data schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, principalID string, state model.GlobalState) error {
	data, err := model.EncodeState(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO user_data (user_id, content, last_updated)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET content = EXCLUDED.content, last_updated = EXCLUDED.last_updated`,
		principalID, data, state.LastUpdated)
	if err != nil {
		return fmt.Errorf("upsert user_data row %s: %w", principalID, err)
	}
	if _, err := s.pool.Exec(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, principalID); err != nil {
		return fmt.Errorf("notify %s: %w", notifyChannel, err)
	}
	return nil
}

func (s *PostgresStore) Fetch(ctx context.Context, principalID string) (model.GlobalState, error) {
	var data []byte
	var lastUpdated int64
	err := s.pool.QueryRow(ctx,
		`SELECT content, last_updated FROM user_data WHERE user_id = $1`,
		principalID).Scan(&data, &lastUpdated)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.GlobalState{}, ErrNotFound
	}
	if err != nil {
		return model.GlobalState{}, fmt.Errorf("fetch user_data row %s: %w", principalID, err)
	}
	state, err := model.DecodeState(data)
	if err != nil {
		return model.GlobalState{}, fmt.Errorf("decode state content: %w", err)
	}
	if lastUpdated > state.LastUpdated {
		state.LastUpdated = lastUpdated
	}
	return state, nil
}

func (s *PostgresStore) FetchAll(ctx context.Context) ([]Row, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT user_id, content, last_updated FROM user_data ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list user_data: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var id string
		var data []byte
		var lastUpdated int64
		if err := rows.Scan(&id, &data, &lastUpdated); err != nil {
			return nil, fmt.Errorf("scan user_data row: %w", err)
		}
		state, err := model.DecodeState(data)
		if err != nil {
			continue
		}
		if lastUpdated > state.LastUpdated {
			state.LastUpdated = lastUpdated
		}
		out = append(out, Row{PrincipalID: id, State: state, LastUpdated: state.LastUpdated})
	}
	return out, rows.Err()
}

func (s *PostgresStore) Subscribe(ctx context.Context, principalID string) (<-chan model.GlobalState, func(), error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquire listen connection: %w", err)
	}
	if _, err := conn.Exec(ctx, `LISTEN `+notifyChannel); err != nil {
		conn.Release()
		return nil, nil, fmt.Errorf("listen %s: %w", notifyChannel, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan model.GlobalState, 8)
	var once sync.Once
	stop := func() {
		once.Do(cancel)
	}

	go func() {
		defer close(ch)
		defer conn.Release()
		for {
			n, err := conn.Conn().WaitForNotification(subCtx)
			if err != nil {
				return
			}
			if n.Payload != principalID {
				continue
			}
			state, err := s.Fetch(subCtx, principalID)
			if err != nil {
				continue
			}
			select {
			case ch <- state:
			case <-subCtx.Done():
				return
			}
		}
	}()
	return ch, stop, nil
}
