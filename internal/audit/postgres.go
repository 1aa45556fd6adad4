package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_log (
    id           BIGSERIAL PRIMARY KEY,
    principal_id TEXT NOT NULL,
    operator_id  TEXT NOT NULL,
    action_type  TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    metadata     JSONB,
    created_at   BIGINT NOT NULL
);`

// PostgresRecorder appends entries to an audit_log table. Rows are only ever
// inserted, never updated or deleted.
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder creates the recorder and ensures the table exists.
func NewPostgresRecorder(ctx context.Context, pool *pgxpool.Pool) (*PostgresRecorder, error) {
	if _, err := pool.Exec(ctx, auditSchema); err != nil {
		return nil, fmt.Errorf("ensure audit_log schema: %w", err)
	}
	return &PostgresRecorder{pool: pool}, nil
}

func (r *PostgresRecorder) Record(ctx context.Context, e Entry) error {
	var metadata []byte
	if e.Metadata != nil {
		var err error
		metadata, err = json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encode audit metadata: %w", err)
		}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (principal_id, operator_id, action_type, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.PrincipalID, e.OperatorID, string(e.Action), e.Description, metadata, e.Timestamp)
	if err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}
