package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

type auditRepository struct {
	store *store
}

func (r *auditRepository) Append(ctx context.Context, event *model.AuditEvent) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.actions[event.ActionID]; !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "action not found", goerr.V("action_id", event.ActionID))
	}

	r.store.audit[event.ActionID] = append(r.store.audit[event.ActionID], event.Clone())
	return nil
}

func (r *auditRepository) ListByAction(ctx context.Context, actionID types.ActionID) ([]*model.AuditEvent, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows := r.store.audit[actionID]
	result := make([]*model.AuditEvent, len(rows))
	for i, e := range rows {
		result[i] = e.Clone()
	}
	return result, nil
}
