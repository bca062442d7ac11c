package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

func runAuditRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("ListByAction returns events in order", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := baseTime()

		a, err := repo.Action().Create(ctx, newAction(uniqueOwner(), types.PriorityP1, types.ActionStatusOpen, now))
		gt.NoError(t, err).Required()

		created := model.NewAuditEvent(a.ID, types.AuditEventCreated, "alice", now).
			WithTransition(nil, types.ActionStatusOpen)
		resolved := model.NewAuditEvent(a.ID, types.AuditEventStatusChanged, "bob", now.Add(time.Second)).
			WithTransition(types.ActionStatusOpen.Ptr(), types.ActionStatusResolved).
			WithNotes("restarted service")

		gt.NoError(t, repo.Audit().Append(ctx, created)).Required()
		gt.NoError(t, repo.Audit().Append(ctx, resolved)).Required()

		events, err := repo.Audit().ListByAction(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, events).Length(2).Required()

		gt.Value(t, events[0].ID).Equal(created.ID)
		gt.Value(t, events[0].EventType).Equal(types.AuditEventCreated)
		gt.Value(t, events[0].FromStatus).Nil()
		gt.Value(t, *events[0].ToStatus).Equal(types.ActionStatusOpen)
		gt.Value(t, events[0].Notes).Nil()

		gt.Value(t, events[1].EventType).Equal(types.AuditEventStatusChanged)
		gt.Value(t, events[1].Actor).Equal("bob")
		gt.Value(t, *events[1].FromStatus).Equal(types.ActionStatusOpen)
		gt.Value(t, *events[1].ToStatus).Equal(types.ActionStatusResolved)
		gt.Value(t, *events[1].Notes).Equal("restarted service")
	})

	t.Run("Append for missing action returns not found", func(t *testing.T) {
		repo := newRepo(t)
		ev := model.NewAuditEvent(types.NewActionID(), types.AuditEventUpdated, "alice", baseTime())
		gt.Error(t, repo.Audit().Append(context.Background(), ev)).Is(interfaces.ErrNotFound)
	})
}

func runTxTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("RunInTx returns error from callback", func(t *testing.T) {
		repo := newRepo(t)
		sentinel := errors.New("abort")

		err := repo.RunInTx(context.Background(), func(ctx context.Context) error {
			return sentinel
		})
		gt.Error(t, err).Is(sentinel)
	})

	t.Run("RunInTx commits writes", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		a := newAction(uniqueOwner(), types.PriorityP1, types.ActionStatusOpen, baseTime())

		err := repo.RunInTx(ctx, func(ctx context.Context) error {
			if _, err := repo.Action().Create(ctx, a); err != nil {
				return err
			}
			return repo.Audit().Append(ctx, model.NewAuditEvent(a.ID, types.AuditEventCreated, "alice", a.CreatedAt).
				WithTransition(nil, a.Status))
		})
		gt.NoError(t, err).Required()

		events, err := repo.Audit().ListByAction(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, events).Length(1)
	})

	t.Run("Ping", func(t *testing.T) {
		gt.NoError(t, newRepo(t).Ping(context.Background()))
	})
}
