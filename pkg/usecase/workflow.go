package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/model/auth"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
	"github.com/secmon-lab/actiontracker/pkg/utils/errutil"
	"github.com/secmon-lab/actiontracker/pkg/utils/logging"
)

// WorkflowUseCase moves actions through the status lifecycle
type WorkflowUseCase struct {
	uc *UseCases
}

func allowedStatuses() []string {
	statuses := types.AllActionStatuses()
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = s.String()
	}
	return out
}

// transition checks the lifecycle rules for moving current to rawTo and
// returns an updated copy of current. The first failing rule wins:
//  1. a Closed action never changes
//  2. the target status must be one of the known statuses
//  3. Resolved requires non-blank notes
//  4. only lead and admin may close
//  5. under CloseRequiresResolved, only a Resolved action may close
func (w *WorkflowUseCase) transition(identity auth.Identity, current *model.Action, rawTo, notes string, now time.Time) (*model.Action, error) {
	if current.Status.IsTerminal() {
		return nil, goerr.Wrap(ErrConflict, "action is closed",
			goerr.V(ActionIDKey, current.ID),
			goerr.V(StatusKey, current.Status))
	}

	to, err := types.ParseActionStatus(rawTo)
	if err != nil {
		return nil, goerr.Wrap(ErrValidation, "invalid status",
			goerr.V(StatusKey, rawTo),
			goerr.V(AllowedKey, allowedStatuses()))
	}

	notes = strings.TrimSpace(notes)
	if to == types.ActionStatusResolved && notes == "" {
		return nil, goerr.Wrap(ErrValidation, "resolution_notes required when resolving",
			goerr.V(ActionIDKey, current.ID))
	}

	if to == types.ActionStatusClosed && !identity.Role.CanClose() {
		return nil, goerr.Wrap(ErrForbidden, "only lead or admin can close",
			goerr.V(ActionIDKey, current.ID),
			goerr.V(RoleKey, identity.Role))
	}

	if to == types.ActionStatusClosed && w.uc.policy.CloseRequiresResolved && current.Status != types.ActionStatusResolved {
		return nil, goerr.Wrap(ErrConflict, "only a resolved action can be closed",
			goerr.V(ActionIDKey, current.ID),
			goerr.V(StatusKey, current.Status))
	}

	next := current.Clone()
	next.Status = to
	next.UpdatedAt = now

	switch to {
	case types.ActionStatusResolved:
		next.ResolutionNotes = &notes
		if next.ResolvedAt == nil {
			next.ResolvedAt = &now
		}
	case types.ActionStatusClosed:
		if next.ClosedAt == nil {
			next.ClosedAt = &now
		}
	}

	return next, nil
}

// statusChangedEvent builds the audit row for a transition. Notes are only
// recorded when resolving.
func statusChangedEvent(from, next *model.Action, actor string) *model.AuditEvent {
	ev := model.NewAuditEvent(next.ID, types.AuditEventStatusChanged, actor, next.UpdatedAt).
		WithTransition(from.Status.Ptr(), next.Status)
	if next.Status == types.ActionStatusResolved && next.ResolutionNotes != nil {
		ev.WithNotes(*next.ResolutionNotes)
	}
	return ev
}

// ChangeStatus applies a status transition on behalf of identity and records
// it in the audit log
func (w *WorkflowUseCase) ChangeStatus(ctx context.Context, identity auth.Identity, id types.ActionID, toStatus, notes string) (*model.Action, error) {
	if err := RequireIdentity(identity); err != nil {
		return nil, err
	}

	current, err := w.uc.getAction(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := w.transition(identity, current, toStatus, notes, w.uc.now())
	if err != nil {
		return nil, err
	}

	saved, err := w.uc.saveAction(ctx, next, statusChangedEvent(current, next, identity.Actor()))
	if err != nil {
		return nil, err
	}

	w.uc.afterStatusChange(ctx, current.Status, saved, identity.Actor())
	return saved, nil
}

// saveAction writes action with a compare-and-swap on its version and appends
// event in the same repository transaction
func (uc *UseCases) saveAction(ctx context.Context, action *model.Action, event *model.AuditEvent) (*model.Action, error) {
	var saved *model.Action
	err := uc.repo.RunInTx(ctx, func(ctx context.Context) error {
		updated, err := uc.repo.Action().Update(ctx, action)
		if err != nil {
			return err
		}
		if err := uc.repo.Audit().Append(ctx, event); err != nil {
			return err
		}
		saved = updated
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError(err, "failed to save action", action.ID)
	}
	return saved, nil
}

// afterStatusChange records metrics and sends the best-effort notification
func (uc *UseCases) afterStatusChange(ctx context.Context, from types.ActionStatus, action *model.Action, actor string) {
	uc.metrics.IncrementTransition(from, action.Status)
	logging.From(ctx).Info("action status changed",
		"action_id", action.ID,
		"from", from,
		"to", action.Status,
		"actor", actor,
	)

	if uc.notifier == nil || from == action.Status {
		return
	}
	if err := uc.notifier.NotifyStatusChanged(ctx, action, from, actor); err != nil {
		errutil.Handle(ctx, err, "failed to notify status change")
	}
}

func (uc *UseCases) getAction(ctx context.Context, id types.ActionID) (*model.Action, error) {
	action, err := uc.repo.Action().Get(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, "failed to get action", id)
	}
	return action, nil
}

// mapRepositoryError translates repository sentinels into use case sentinels
func mapRepositoryError(err error, msg string, id types.ActionID) error {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrActionNotFound), errors.Is(err, ErrStorage):
		return err
	case errors.Is(err, interfaces.ErrNotFound):
		return goerr.Wrap(ErrActionNotFound, "action not found", goerr.V(ActionIDKey, id))
	case errors.Is(err, interfaces.ErrVersionConflict):
		return goerr.Wrap(ErrConflict, "action was modified concurrently, reload and retry", goerr.V(ActionIDKey, id))
	case errors.Is(err, interfaces.ErrAlreadyExists):
		return goerr.Wrap(ErrConflict, "record already exists", goerr.V(ActionIDKey, id), goerr.V(DetailKey, err.Error()))
	default:
		return goerr.Wrap(err, msg, goerr.V(ActionIDKey, id))
	}
}

// RequireIdentity fails with ErrUnauthenticated when identity names no caller
func RequireIdentity(identity auth.Identity) error {
	if !identity.IsAuthenticated() {
		return goerr.Wrap(ErrUnauthenticated, "missing identity header",
			goerr.V(RequiredKey, []string{IdentityHeader}))
	}
	return nil
}
