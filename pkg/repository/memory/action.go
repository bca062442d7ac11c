package memory

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

type actionRepository struct {
	store *store
}

func (r *actionRepository) Create(ctx context.Context, action *model.Action) (*model.Action, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.actions[action.ID]; exists {
		return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "action already exists", goerr.V("id", action.ID))
	}

	created := action.Clone()
	created.Version = 1
	r.store.actions[created.ID] = created
	return created.Clone(), nil
}

func (r *actionRepository) Get(ctx context.Context, id types.ActionID) (*model.Action, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	action, exists := r.store.actions[id]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "action not found", goerr.V("id", id))
	}
	return action.Clone(), nil
}

func (r *actionRepository) List(ctx context.Context, filter model.ActionFilter) ([]*model.Action, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	actions := make([]*model.Action, 0, len(r.store.actions))
	for _, action := range r.store.actions {
		if filter.Match(action) {
			actions = append(actions, action.Clone())
		}
	}

	model.SortActions(actions)
	return actions, nil
}

func (r *actionRepository) Update(ctx context.Context, action *model.Action) (*model.Action, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, exists := r.store.actions[action.ID]
	if !exists {
		return nil, goerr.Wrap(interfaces.ErrNotFound, "action not found", goerr.V("id", action.ID))
	}
	if existing.Version != action.Version {
		return nil, goerr.Wrap(interfaces.ErrVersionConflict, "action was modified concurrently",
			goerr.V("id", action.ID),
			goerr.V("expected_version", action.Version),
			goerr.V("stored_version", existing.Version),
		)
	}

	updated := action.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.CreatedBy = existing.CreatedBy
	updated.Version = existing.Version + 1
	r.store.actions[updated.ID] = updated
	return updated.Clone(), nil
}

func (r *actionRepository) Delete(ctx context.Context, id types.ActionID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.actions[id]; !exists {
		return goerr.Wrap(interfaces.ErrNotFound, "action not found", goerr.V("id", id))
	}

	delete(r.store.actions, id)
	delete(r.store.evidence, id)
	delete(r.store.audit, id)
	return nil
}
