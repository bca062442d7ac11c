package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/model/auth"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
	"github.com/secmon-lab/actiontracker/pkg/usecase"
)

func TestWorkflow_Scenario(t *testing.T) {
	uc, repo := newUseCases(t)
	ctx := context.Background()

	a, err := uc.Action.Create(ctx, alice, validInput())
	gt.NoError(t, err).Required()
	gt.Value(t, a.Status).Equal(types.ActionStatusOpen)

	_, err = uc.Workflow.ChangeStatus(ctx, alice, a.ID, "Resolved", "")
	gt.Error(t, err).Is(usecase.ErrValidation)

	resolved, err := uc.Workflow.ChangeStatus(ctx, alice, a.ID, "Resolved", "restarted service")
	gt.NoError(t, err).Required()
	gt.Value(t, resolved.Status).Equal(types.ActionStatusResolved)
	gt.Value(t, resolved.ResolvedAt).NotNil()
	gt.Value(t, *resolved.ResolutionNotes).Equal("restarted service")

	_, err = uc.Workflow.ChangeStatus(ctx, alice, a.ID, "Closed", "")
	gt.Error(t, err).Is(usecase.ErrForbidden)

	closed, err := uc.Workflow.ChangeStatus(ctx, leader, a.ID, "Closed", "")
	gt.NoError(t, err).Required()
	gt.Value(t, closed.Status).Equal(types.ActionStatusClosed)
	gt.Value(t, closed.ClosedAt).NotNil()

	for _, to := range []string{"Open", "In Progress", "Blocked", "Resolved", "Closed", "bogus"} {
		_, err = uc.Workflow.ChangeStatus(ctx, admin, a.ID, to, "notes")
		gt.Error(t, err).Is(usecase.ErrConflict)
	}

	events, err := repo.Audit().ListByAction(ctx, a.ID)
	gt.NoError(t, err).Required()
	gt.Array(t, events).Length(3).Required()
	gt.Value(t, events[0].EventType).Equal(types.AuditEventCreated)
	gt.Value(t, events[1].EventType).Equal(types.AuditEventStatusChanged)
	gt.Value(t, *events[1].FromStatus).Equal(types.ActionStatusOpen)
	gt.Value(t, *events[1].ToStatus).Equal(types.ActionStatusResolved)
	gt.Value(t, *events[1].Notes).Equal("restarted service")
	gt.Value(t, *events[2].FromStatus).Equal(types.ActionStatusResolved)
	gt.Value(t, *events[2].ToStatus).Equal(types.ActionStatusClosed)
	gt.Value(t, events[2].Notes).Nil()
	gt.Value(t, events[2].Actor).Equal("lena")
}

func TestWorkflow_ResolveRequiresNotes(t *testing.T) {
	for _, who := range []auth.Identity{alice, leader, admin} {
		for _, notes := range []string{"", "   ", "\t\n"} {
			uc, _ := newUseCases(t)
			a := createAction(t, uc, validInput())

			_, err := uc.Workflow.ChangeStatus(context.Background(), who, a.ID, "Resolved", notes)
			gt.Error(t, err).Is(usecase.ErrValidation)
		}
	}
}

func TestWorkflow_Close(t *testing.T) {
	t.Run("member is forbidden from any status", func(t *testing.T) {
		for _, from := range []types.ActionStatus{types.ActionStatusOpen, types.ActionStatusInProgress, types.ActionStatusBlocked, types.ActionStatusResolved} {
			uc, _ := newUseCases(t)
			a := createAction(t, uc, validInput())
			if from != types.ActionStatusOpen {
				moveTo(t, uc, a.ID, from)
			}

			_, err := uc.Workflow.ChangeStatus(context.Background(), alice, a.ID, "Closed", "")
			gt.Error(t, err).Is(usecase.ErrForbidden)
		}
	})

	t.Run("lead and admin close resolved action once", func(t *testing.T) {
		for _, who := range []auth.Identity{leader, admin} {
			uc, _ := newUseCases(t)
			ctx := context.Background()
			a := createAction(t, uc, validInput())
			moveTo(t, uc, a.ID, types.ActionStatusResolved)

			closed, err := uc.Workflow.ChangeStatus(ctx, who, a.ID, "Closed", "")
			gt.NoError(t, err).Required()
			gt.Value(t, closed.ClosedAt).NotNil()
			closedAt := *closed.ClosedAt

			_, err = uc.Workflow.ChangeStatus(ctx, who, a.ID, "Closed", "")
			gt.Error(t, err).Is(usecase.ErrConflict)

			stored, err := uc.Action.Get(ctx, a.ID)
			gt.NoError(t, err).Required()
			gt.Bool(t, stored.ClosedAt.Equal(closedAt)).True()
		}
	})

	t.Run("closing before resolved is a conflict", func(t *testing.T) {
		uc, _ := newUseCases(t)
		a := createAction(t, uc, validInput())
		moveTo(t, uc, a.ID, types.ActionStatusBlocked)

		_, err := uc.Workflow.ChangeStatus(context.Background(), leader, a.ID, "Closed", "")
		gt.Error(t, err).Is(usecase.ErrConflict)
	})

	t.Run("policy can allow closing from any status", func(t *testing.T) {
		policy := model.DefaultPolicy()
		policy.CloseRequiresResolved = false
		uc, _ := newUseCases(t, usecase.WithPolicy(policy))
		a := createAction(t, uc, validInput())

		closed, err := uc.Workflow.ChangeStatus(context.Background(), leader, a.ID, "Closed", "")
		gt.NoError(t, err).Required()
		gt.Value(t, closed.ClosedAt).NotNil()
		gt.Value(t, closed.ResolvedAt).Nil()
	})
}

func TestWorkflow_RuleOrder(t *testing.T) {
	t.Run("closed wins over invalid status", func(t *testing.T) {
		uc, _ := newUseCases(t)
		a := createAction(t, uc, validInput())
		moveTo(t, uc, a.ID, types.ActionStatusClosed)

		_, err := uc.Workflow.ChangeStatus(context.Background(), alice, a.ID, "bogus", "")
		gt.Error(t, err).Is(usecase.ErrConflict)
	})

	t.Run("invalid status carries allowed values", func(t *testing.T) {
		uc, _ := newUseCases(t)
		a := createAction(t, uc, validInput())

		_, err := uc.Workflow.ChangeStatus(context.Background(), alice, a.ID, "Done", "")
		gt.Error(t, err).Is(usecase.ErrValidation)
		gt.Value(t, errValues(err)[usecase.AllowedKey]).Equal([]string{"Open", "In Progress", "Blocked", "Resolved", "Closed"})
	})

	t.Run("forbidden wins over close-requires-resolved", func(t *testing.T) {
		uc, _ := newUseCases(t)
		a := createAction(t, uc, validInput())

		_, err := uc.Workflow.ChangeStatus(context.Background(), alice, a.ID, "Closed", "")
		gt.Error(t, err).Is(usecase.ErrForbidden)
	})
}

func TestWorkflow_ResolvedAtSetOnce(t *testing.T) {
	uc, _ := newUseCases(t)
	ctx := context.Background()
	a := createAction(t, uc, validInput())

	first, err := uc.Workflow.ChangeStatus(ctx, alice, a.ID, "Resolved", "first fix")
	gt.NoError(t, err).Required()
	resolvedAt := *first.ResolvedAt

	_, err = uc.Workflow.ChangeStatus(ctx, alice, a.ID, "In Progress", "")
	gt.NoError(t, err).Required()

	second, err := uc.Workflow.ChangeStatus(ctx, alice, a.ID, "Resolved", "second fix")
	gt.NoError(t, err).Required()
	gt.Bool(t, second.ResolvedAt.Equal(resolvedAt)).True()
	gt.Value(t, *second.ResolutionNotes).Equal("second fix")
}

func TestWorkflow_Errors(t *testing.T) {
	t.Run("requires identity", func(t *testing.T) {
		uc, _ := newUseCases(t)
		a := createAction(t, uc, validInput())

		_, err := uc.Workflow.ChangeStatus(context.Background(), nobody, a.ID, "Blocked", "")
		gt.Error(t, err).Is(usecase.ErrUnauthenticated)
	})

	t.Run("unknown action", func(t *testing.T) {
		uc, _ := newUseCases(t)
		_, err := uc.Workflow.ChangeStatus(context.Background(), alice, types.NewActionID(), "Blocked", "")
		gt.Error(t, err).Is(usecase.ErrActionNotFound)
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		uc, repo := newUseCases(t)
		ctx := context.Background()
		a := createAction(t, uc, validInput())

		stale, err := repo.Action().Get(ctx, a.ID)
		gt.NoError(t, err).Required()

		_, err = uc.Workflow.ChangeStatus(ctx, alice, a.ID, "Blocked", "")
		gt.NoError(t, err).Required()

		stale.Status = types.ActionStatusInProgress
		ev := model.NewAuditEvent(a.ID, types.AuditEventStatusChanged, "alice", stale.UpdatedAt)
		_, err = usecase.SaveAction(uc, ctx, stale, ev)
		gt.Error(t, err).Is(usecase.ErrConflict)

		stored, err := uc.Action.Get(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, stored.Status).Equal(types.ActionStatusBlocked)
	})
}

func TestWorkflow_NotifiesAndCounts(t *testing.T) {
	n := &recordingNotifier{}
	uc, _ := newUseCases(t, usecase.WithNotifier(n))
	a := createAction(t, uc, validInput())

	_, err := uc.Workflow.ChangeStatus(context.Background(), alice, a.ID, "In Progress", "")
	gt.NoError(t, err).Required()

	gt.Array(t, n.sent).Length(2).Required()
	gt.Value(t, n.sent[1]).Equal(notification{
		kind:   "status",
		action: a.ID,
		from:   types.ActionStatusOpen,
		to:     types.ActionStatusInProgress,
		actor:  "alice",
	})
}

var _ interfaces.Notifier = &recordingNotifier{}
