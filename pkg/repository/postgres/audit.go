package postgres

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

type auditRepository struct {
	db *Postgres
}

func statusText(s *types.ActionStatus) *string {
	if s == nil {
		return nil
	}
	v := s.String()
	return &v
}

func parseStatus(s *string) *types.ActionStatus {
	if s == nil {
		return nil
	}
	return types.ActionStatus(*s).Ptr()
}

func (r *auditRepository) Append(ctx context.Context, event *model.AuditEvent) error {
	_, err := r.db.conn(ctx).Exec(ctx, `
		INSERT INTO audit_events (id, action_id, event_type, from_status, to_status, actor, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID.String(), event.ActionID.String(), event.EventType.String(),
		statusText(event.FromStatus), statusText(event.ToStatus), event.Actor, event.Notes, event.CreatedAt,
	)
	if isPgError(err, pgForeignKeyViolation) {
		return goerr.Wrap(interfaces.ErrNotFound, "action not found", goerr.V("action_id", event.ActionID))
	}
	if err != nil {
		return goerr.Wrap(err, "failed to append audit event", goerr.V("action_id", event.ActionID))
	}
	return nil
}

func (r *auditRepository) ListByAction(ctx context.Context, actionID types.ActionID) ([]*model.AuditEvent, error) {
	rows, err := r.db.conn(ctx).Query(ctx, `
		SELECT id, action_id, event_type, from_status, to_status, actor, notes, created_at
		FROM audit_events
		WHERE action_id = $1
		ORDER BY created_at ASC, seq ASC`, actionID.String())
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list audit events", goerr.V("action_id", actionID))
	}
	defer rows.Close()

	result := make([]*model.AuditEvent, 0)
	for rows.Next() {
		var (
			e                    model.AuditEvent
			id, aid, eventType   string
			fromStatus, toStatus *string
			createdAt            time.Time
		)
		if err := rows.Scan(&id, &aid, &eventType, &fromStatus, &toStatus, &e.Actor, &e.Notes, &createdAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan audit event", goerr.V("action_id", actionID))
		}
		e.ID = types.AuditEventID(id)
		e.ActionID = types.ActionID(aid)
		e.EventType = types.AuditEventType(eventType)
		e.FromStatus = parseStatus(fromStatus)
		e.ToStatus = parseStatus(toStatus)
		e.CreatedAt = createdAt.UTC()
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate audit events", goerr.V("action_id", actionID))
	}
	return result, nil
}
