package memory

import (
	"context"
	"slices"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

type evidenceRepository struct {
	store *store
}

func (r *evidenceRepository) Create(ctx context.Context, evidence *model.Evidence) (*model.Evidence, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.actions[evidence.ActionID]; !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "action not found", goerr.V("action_id", evidence.ActionID))
	}
	for _, rows := range r.store.evidence {
		for _, e := range rows {
			if e.StorageKey == evidence.StorageKey {
				return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "storage key already recorded", goerr.V("storage_key", evidence.StorageKey))
			}
		}
	}

	created := evidence.Clone()
	r.store.evidence[created.ActionID] = append(r.store.evidence[created.ActionID], created)
	return created.Clone(), nil
}

func (r *evidenceRepository) ListByAction(ctx context.Context, actionID types.ActionID) ([]*model.Evidence, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows := r.store.evidence[actionID]
	result := make([]*model.Evidence, 0, len(rows))
	// newest first; later inserts win ties
	for i := len(rows) - 1; i >= 0; i-- {
		result = append(result, rows[i].Clone())
	}
	slices.SortStableFunc(result, func(a, b *model.Evidence) int {
		return b.UploadedAt.Compare(a.UploadedAt)
	})
	return result, nil
}
