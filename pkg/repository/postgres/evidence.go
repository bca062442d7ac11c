package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

const evidenceColumns = `id, action_id, filename, s3_key, content_type, size_bytes, created_by, created_at`

type evidenceRepository struct {
	db *Postgres
}

func scanEvidence(row pgx.Row) (*model.Evidence, error) {
	var (
		e            model.Evidence
		id, actionID string
		contentType  *string
		uploadedAt   time.Time
	)
	if err := row.Scan(&id, &actionID, &e.Filename, &e.StorageKey, &contentType, &e.SizeBytes, &e.UploadedBy, &uploadedAt); err != nil {
		return nil, err
	}
	e.ID = types.EvidenceID(id)
	e.ActionID = types.ActionID(actionID)
	if contentType != nil {
		e.ContentType = *contentType
	}
	e.UploadedAt = uploadedAt.UTC()
	return &e, nil
}

func (r *evidenceRepository) Create(ctx context.Context, evidence *model.Evidence) (*model.Evidence, error) {
	var contentType *string
	if evidence.ContentType != "" {
		contentType = &evidence.ContentType
	}

	row := r.db.conn(ctx).QueryRow(ctx, `
		INSERT INTO evidence (`+evidenceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+evidenceColumns,
		evidence.ID.String(), evidence.ActionID.String(), evidence.Filename, evidence.StorageKey,
		contentType, evidence.SizeBytes, evidence.UploadedBy, evidence.UploadedAt,
	)

	created, err := scanEvidence(row)
	switch {
	case err == nil:
		return created, nil
	case isPgError(err, pgForeignKeyViolation):
		return nil, goerr.Wrap(interfaces.ErrNotFound, "action not found", goerr.V("action_id", evidence.ActionID))
	case isPgError(err, pgUniqueViolation):
		return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "storage key already recorded", goerr.V("storage_key", evidence.StorageKey), goerr.V("cause", err.Error()))
	default:
		return nil, goerr.Wrap(err, "failed to insert evidence", goerr.V("action_id", evidence.ActionID))
	}
}

func (r *evidenceRepository) ListByAction(ctx context.Context, actionID types.ActionID) ([]*model.Evidence, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `
		SELECT `+evidenceColumns+` FROM evidence
		WHERE action_id = $1
		ORDER BY created_at DESC, id DESC`, actionID.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list evidence", goerr.V("action_id", actionID))
	}
	defer rows.Close()

	result := make([]*model.Evidence, 0)
	for rows.Next() {
		e, err := scanEvidence(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan evidence", goerr.V("action_id", actionID))
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate evidence", goerr.V("action_id", actionID))
	}
	return result, nil
}
