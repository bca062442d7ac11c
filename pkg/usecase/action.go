package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/model/auth"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
	"github.com/secmon-lab/actiontracker/pkg/utils/errutil"
	"github.com/secmon-lab/actiontracker/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// evidenceCleanupLimit bounds concurrent object deletions after an action is deleted
const evidenceCleanupLimit = 8

type ActionUseCase struct {
	uc *UseCases
}

// CreateActionInput carries the fields of a new action. Status is optional and
// defaults to Open.
type CreateActionInput struct {
	Title           string
	Description     string
	Owner           string
	Component       string
	Priority        string
	Status          string
	ResolutionNotes string
}

// UpdateActionInput carries a partial update. Nil fields are left untouched.
type UpdateActionInput struct {
	Title           *string
	Description     *string
	Owner           *string
	Component       *string
	Priority        *string
	Status          *string
	ResolutionNotes *string
}

// IsEmpty reports whether no field is present
func (in UpdateActionInput) IsEmpty() bool {
	return in.Title == nil && in.Description == nil && in.Owner == nil && in.Component == nil &&
		in.Priority == nil && in.Status == nil && in.ResolutionNotes == nil
}

func allowedPriorities() []string {
	priorities := types.AllPriorities()
	out := make([]string, len(priorities))
	for i, p := range priorities {
		out[i] = p.String()
	}
	return out
}

func parsePriority(raw string) (types.Priority, error) {
	p, err := types.ParsePriority(raw)
	if err != nil {
		return "", goerr.Wrap(ErrValidation, "invalid priority",
			goerr.V("priority", raw),
			goerr.V(AllowedKey, allowedPriorities()))
	}
	return p, nil
}

func (uc *ActionUseCase) checkOwner(owner string) error {
	if !uc.uc.policy.OwnerAllowed(owner) {
		return goerr.Wrap(ErrValidation, "owner is not in the allow-list",
			goerr.V("owner", owner),
			goerr.V(AllowedKey, uc.uc.policy.Owners))
	}
	return nil
}

func (uc *ActionUseCase) checkComponent(component string) error {
	if !uc.uc.policy.ComponentAllowed(component) {
		return goerr.Wrap(ErrValidation, "component is not in the allow-list",
			goerr.V("component", component),
			goerr.V(AllowedKey, uc.uc.policy.Components))
	}
	return nil
}

func (uc *ActionUseCase) Create(ctx context.Context, identity auth.Identity, in CreateActionInput) (*model.Action, error) {
	if err := RequireIdentity(identity); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	owner := strings.TrimSpace(in.Owner)
	component := strings.TrimSpace(in.Component)
	priority := strings.TrimSpace(in.Priority)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"title", title},
		{"description", description},
		{"owner", owner},
		{"component", component},
		{"priority", priority},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, goerr.Wrap(ErrValidation, "missing required fields", goerr.V(RequiredKey, missing))
	}

	p, err := parsePriority(priority)
	if err != nil {
		return nil, err
	}
	if err := uc.checkOwner(owner); err != nil {
		return nil, err
	}
	if err := uc.checkComponent(component); err != nil {
		return nil, err
	}

	now := uc.uc.now()
	action := &model.Action{
		ID:          types.NewActionID(),
		Title:       title,
		Description: description,
		Owner:       owner,
		Component:   component,
		Priority:    p,
		Status:      types.ActionStatusOpen,
		CreatedBy:   identity.User,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if strings.TrimSpace(in.Status) != "" {
		next, err := uc.uc.Workflow.transition(identity, action, in.Status, in.ResolutionNotes, now)
		if err != nil {
			return nil, err
		}
		action = next
	}

	event := model.NewAuditEvent(action.ID, types.AuditEventCreated, identity.Actor(), now).
		WithTransition(nil, action.Status)
	if action.Status == types.ActionStatusResolved && action.ResolutionNotes != nil {
		event.WithNotes(*action.ResolutionNotes)
	}

	var created *model.Action
	err = uc.uc.repo.RunInTx(ctx, func(ctx context.Context) error {
		a, err := uc.uc.repo.Action().Create(ctx, action)
		if err != nil {
			return err
		}
		if err := uc.uc.repo.Audit().Append(ctx, event); err != nil {
			return err
		}
		created = a
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError(err, "failed to create action", action.ID)
	}

	logging.From(ctx).Info("action created",
		"action_id", created.ID,
		"priority", created.Priority,
		"status", created.Status,
		"actor", identity.Actor(),
	)

	if uc.uc.notifier != nil {
		if err := uc.uc.notifier.NotifyActionCreated(ctx, created); err != nil {
			errutil.Handle(ctx, err, "failed to notify action creation")
		}
	}

	return created, nil
}

func (uc *ActionUseCase) Get(ctx context.Context, id types.ActionID) (*model.Action, error) {
	return uc.uc.getAction(ctx, id)
}

// List returns actions matching filter. Closed actions are only returned when
// filter.Status asks for them.
func (uc *ActionUseCase) List(ctx context.Context, filter model.ActionFilter) ([]*model.Action, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	actions, err := uc.uc.repo.Action().List(ctx, filter)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list actions")
	}
	return actions, nil
}

func (uc *ActionUseCase) Update(ctx context.Context, identity auth.Identity, id types.ActionID, in UpdateActionInput) (*model.Action, error) {
	if err := RequireIdentity(identity); err != nil {
		return nil, err
	}

	current, err := uc.uc.getAction(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, goerr.Wrap(ErrConflict, "action is closed",
			goerr.V(ActionIDKey, id),
			goerr.V(StatusKey, current.Status))
	}
	if in.IsEmpty() {
		return nil, goerr.Wrap(ErrValidation, "no updates provided", goerr.V(ActionIDKey, id))
	}

	now := uc.uc.now()
	next := current.Clone()
	var changed []string

	for _, f := range []struct {
		name  string
		value *string
		dst   *string
	}{
		{"title", in.Title, &next.Title},
		{"description", in.Description, &next.Description},
		{"owner", in.Owner, &next.Owner},
		{"component", in.Component, &next.Component},
	} {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if v == "" {
			return nil, goerr.Wrap(ErrValidation, f.name+" cannot be empty", goerr.V(ActionIDKey, id))
		}
		*f.dst = v
		changed = append(changed, f.name)
	}

	if in.Owner != nil {
		if err := uc.checkOwner(next.Owner); err != nil {
			return nil, err
		}
	}
	if in.Component != nil {
		if err := uc.checkComponent(next.Component); err != nil {
			return nil, err
		}
	}
	if in.Priority != nil {
		p, err := parsePriority(*in.Priority)
		if err != nil {
			return nil, err
		}
		next.Priority = p
		changed = append(changed, "priority")
	}

	if in.ResolutionNotes != nil && in.Status == nil {
		if notes := strings.TrimSpace(*in.ResolutionNotes); notes != "" {
			next.ResolutionNotes = &notes
		} else {
			next.ResolutionNotes = nil
		}
		changed = append(changed, "resolution_notes")
	}
	next.UpdatedAt = now

	var event *model.AuditEvent
	if in.Status != nil {
		var notes string
		if in.ResolutionNotes != nil {
			notes = *in.ResolutionNotes
		}
		moved, err := uc.uc.Workflow.transition(identity, next, *in.Status, notes, now)
		if err != nil {
			return nil, err
		}
		next = moved
		event = statusChangedEvent(current, next, identity.Actor())
	} else {
		event = model.NewAuditEvent(id, types.AuditEventUpdated, identity.Actor(), now).
			WithTransition(current.Status.Ptr(), current.Status).
			WithNotes("changed: " + strings.Join(changed, ", "))
	}

	saved, err := uc.uc.saveAction(ctx, next, event)
	if err != nil {
		return nil, err
	}

	if in.Status != nil {
		uc.uc.afterStatusChange(ctx, current.Status, saved, identity.Actor())
	}
	return saved, nil
}

// Delete removes an action together with its evidence and audit rows, then
// removes the stored evidence objects. Object removal failures are logged
// and do not fail the call.
func (uc *ActionUseCase) Delete(ctx context.Context, identity auth.Identity, id types.ActionID) error {
	if err := RequireIdentity(identity); err != nil {
		return err
	}
	if !uc.uc.policy.AllowDelete {
		return goerr.Wrap(ErrForbidden, "deleting actions is disabled", goerr.V(ActionIDKey, id))
	}
	if !identity.Role.CanDelete() {
		return goerr.Wrap(ErrForbidden, "only admin can delete",
			goerr.V(ActionIDKey, id),
			goerr.V(RoleKey, identity.Role))
	}

	evidence, err := uc.uc.repo.Evidence().ListByAction(ctx, id)
	if err != nil {
		return goerr.Wrap(err, "failed to list evidence", goerr.V(ActionIDKey, id))
	}

	if err := uc.uc.repo.Action().Delete(ctx, id); err != nil {
		return mapRepositoryError(err, "failed to delete action", id)
	}

	logging.From(ctx).Info("action deleted",
		"action_id", id,
		"evidence", len(evidence),
		"actor", identity.Actor(),
	)

	if uc.uc.storage == nil || len(evidence) == 0 {
		return nil
	}

	var eg errgroup.Group
	eg.SetLimit(evidenceCleanupLimit)
	for _, e := range evidence {
		key := e.StorageKey
		eg.Go(func() error {
			if err := uc.uc.storage.Delete(ctx, key); err != nil {
				errutil.Handle(ctx, goerr.Wrap(err, "failed to delete evidence object",
					goerr.V(ActionIDKey, id), goerr.V("key", key)), "evidence cleanup")
			}
			return nil
		})
	}
	_ = eg.Wait()

	return nil
}
