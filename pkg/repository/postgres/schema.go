package postgres

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/utils/logging"
)

// schemaLockID serializes concurrent Migrate calls across processes
const schemaLockID int64 = 0x61637469

// schema statements are existence guarded and safe to re-run. The ALTERs
// upgrade tables created by earlier deployments in place.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS actions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		owner TEXT NOT NULL,
		component TEXT NOT NULL,
		priority TEXT NOT NULL,
		status TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		resolution_notes TEXT
	)`,
	`ALTER TABLE actions ADD COLUMN IF NOT EXISTS resolved_at TIMESTAMPTZ`,
	`ALTER TABLE actions ADD COLUMN IF NOT EXISTS closed_at TIMESTAMPTZ`,
	`ALTER TABLE actions ADD COLUMN IF NOT EXISTS version BIGINT NOT NULL DEFAULT 1`,
	`CREATE INDEX IF NOT EXISTS actions_status_idx ON actions (status)`,

	`CREATE TABLE IF NOT EXISTS evidence (
		id TEXT PRIMARY KEY,
		action_id TEXT NOT NULL REFERENCES actions(id) ON DELETE CASCADE,
		filename TEXT NOT NULL,
		s3_key TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`ALTER TABLE evidence ADD COLUMN IF NOT EXISTS content_type TEXT`,
	`ALTER TABLE evidence ADD COLUMN IF NOT EXISTS size_bytes BIGINT`,
	`CREATE UNIQUE INDEX IF NOT EXISTS evidence_s3_key_idx ON evidence (s3_key)`,
	`CREATE INDEX IF NOT EXISTS evidence_action_idx ON evidence (action_id, created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS audit_events (
		seq BIGSERIAL,
		id TEXT PRIMARY KEY,
		action_id TEXT NOT NULL REFERENCES actions(id) ON DELETE CASCADE,
		event_type TEXT NOT NULL,
		from_status TEXT,
		to_status TEXT,
		actor TEXT NOT NULL,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS audit_events_action_idx ON audit_events (action_id, created_at, seq)`,
}

// Migrate applies the schema. Concurrent callers wait on an advisory lock.
func (p *Postgres) Migrate(ctx context.Context) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to begin schema transaction")
	}
	defer func() {
		// no-op after commit
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", schemaLockID); err != nil {
		return goerr.Wrap(err, "failed to acquire schema lock")
	}

	for i, stmt := range schema {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return goerr.Wrap(err, "failed to apply schema", goerr.V("statement", i))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return goerr.Wrap(err, "failed to commit schema")
	}

	logging.From(ctx).Info("postgres schema ready", "statements", len(schema))
	return nil
}

// SchemaStatements returns the statements applied by Migrate, in order
func SchemaStatements() []string {
	return append([]string(nil), schema...)
}
