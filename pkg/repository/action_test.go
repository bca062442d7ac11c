package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

func runActionRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create and Get round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a := newAction(uniqueOwner(), types.PriorityP1, types.ActionStatusOpen, baseTime())
		created, err := repo.Action().Create(ctx, a)
		gt.NoError(t, err).Required()
		gt.Value(t, created.ID).Equal(a.ID)
		gt.Value(t, created.Version).Equal(int64(1))

		got, err := repo.Action().Get(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal(a.Title)
		gt.Value(t, got.Status).Equal(types.ActionStatusOpen)
		gt.Value(t, got.Priority).Equal(types.PriorityP1)
		gt.Bool(t, got.CreatedAt.Equal(a.CreatedAt)).True()
		gt.Bool(t, got.UpdatedAt.Equal(got.CreatedAt)).True()
		gt.Value(t, got.ResolutionNotes).Nil()
		gt.Value(t, got.ClosedAt).Nil()
	})

	t.Run("Create with existing ID fails", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		a := newAction(uniqueOwner(), types.PriorityP3, types.ActionStatusOpen, baseTime())
		_, err := repo.Action().Create(ctx, a)
		gt.NoError(t, err).Required()

		_, err = repo.Action().Create(ctx, a)
		gt.Error(t, err).Is(interfaces.ErrAlreadyExists)
	})

	t.Run("Get returns not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Action().Get(context.Background(), types.NewActionID())
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("Update increments version and keeps creation fields", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Action().Create(ctx, newAction(uniqueOwner(), types.PriorityP2, types.ActionStatusOpen, baseTime()))
		gt.NoError(t, err).Required()

		notes := "restarted service"
		resolvedAt := created.CreatedAt.Add(time.Minute)
		change := created.Clone()
		change.Status = types.ActionStatusResolved
		change.ResolutionNotes = &notes
		change.ResolvedAt = &resolvedAt
		change.UpdatedAt = resolvedAt
		change.CreatedBy = "mallory"

		updated, err := repo.Action().Update(ctx, change)
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Version).Equal(int64(2))
		gt.Value(t, updated.Status).Equal(types.ActionStatusResolved)
		gt.Value(t, updated.CreatedBy).Equal("alice")

		got, err := repo.Action().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, *got.ResolutionNotes).Equal(notes)
		gt.Bool(t, got.ResolvedAt.Equal(resolvedAt)).True()
		gt.Value(t, got.Version).Equal(int64(2))
	})

	t.Run("Update with stale version conflicts", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.Action().Create(ctx, newAction(uniqueOwner(), types.PriorityP2, types.ActionStatusOpen, baseTime()))
		gt.NoError(t, err).Required()

		first := created.Clone()
		first.Title = "first writer"
		_, err = repo.Action().Update(ctx, first)
		gt.NoError(t, err).Required()

		second := created.Clone()
		second.Title = "second writer"
		_, err = repo.Action().Update(ctx, second)
		gt.Error(t, err).Is(interfaces.ErrVersionConflict)

		got, err := repo.Action().Get(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Title).Equal("first writer")
	})

	t.Run("Update of missing action returns not found", func(t *testing.T) {
		repo := newRepo(t)
		a := newAction(uniqueOwner(), types.PriorityP1, types.ActionStatusOpen, baseTime())
		a.Version = 1
		_, err := repo.Action().Update(context.Background(), a)
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("List excludes closed unless requested", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		owner := uniqueOwner()
		now := baseTime()

		open, err := repo.Action().Create(ctx, newAction(owner, types.PriorityP1, types.ActionStatusOpen, now))
		gt.NoError(t, err).Required()
		closed, err := repo.Action().Create(ctx, newAction(owner, types.PriorityP1, types.ActionStatusClosed, now))
		gt.NoError(t, err).Required()

		defaultView, err := repo.Action().List(ctx, model.ActionFilter{Owner: owner})
		gt.NoError(t, err).Required()
		gt.Array(t, defaultView).Length(1)
		gt.Value(t, defaultView[0].ID).Equal(open.ID)

		closedView, err := repo.Action().List(ctx, model.ActionFilter{Owner: owner, Status: types.ActionStatusClosed})
		gt.NoError(t, err).Required()
		gt.Array(t, closedView).Length(1)
		gt.Value(t, closedView[0].ID).Equal(closed.ID)
	})

	t.Run("List sorts by priority then most recently updated", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		owner := uniqueOwner()
		now := baseTime()

		p3 := newAction(owner, types.PriorityP3, types.ActionStatusOpen, now.Add(2*time.Hour))
		p1Old := newAction(owner, types.PriorityP1, types.ActionStatusBlocked, now)
		p1New := newAction(owner, types.PriorityP1, types.ActionStatusInProgress, now.Add(time.Hour))
		p2 := newAction(owner, types.PriorityP2, types.ActionStatusResolved, now)
		for _, a := range []*model.Action{p3, p1Old, p1New, p2} {
			_, err := repo.Action().Create(ctx, a)
			gt.NoError(t, err).Required()
		}

		got, err := repo.Action().List(ctx, model.ActionFilter{Owner: owner})
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(4).Required()
		gt.Value(t, got[0].ID).Equal(p1New.ID)
		gt.Value(t, got[1].ID).Equal(p1Old.ID)
		gt.Value(t, got[2].ID).Equal(p2.ID)
		gt.Value(t, got[3].ID).Equal(p3.ID)
	})

	t.Run("List applies equality filters and query", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		owner := uniqueOwner()
		now := baseTime()

		rds := newAction(owner, types.PriorityP1, types.ActionStatusOpen, now)
		rds.Title = "Rotate RDS credentials"
		eks := newAction(owner, types.PriorityP2, types.ActionStatusOpen, now)
		eks.Component = "EKS"
		eks.Title = "Patch node group"
		eks.Description = "CVE in 100% of kubelets"
		for _, a := range []*model.Action{rds, eks} {
			_, err := repo.Action().Create(ctx, a)
			gt.NoError(t, err).Required()
		}

		byComponent, err := repo.Action().List(ctx, model.ActionFilter{Owner: owner, Component: "EKS"})
		gt.NoError(t, err).Required()
		gt.Array(t, byComponent).Length(1)
		gt.Value(t, byComponent[0].ID).Equal(eks.ID)

		byPriority, err := repo.Action().List(ctx, model.ActionFilter{Owner: owner, Priority: types.PriorityP1})
		gt.NoError(t, err).Required()
		gt.Array(t, byPriority).Length(1)
		gt.Value(t, byPriority[0].ID).Equal(rds.ID)

		byQuery, err := repo.Action().List(ctx, model.ActionFilter{Owner: owner, Query: "rotate rds"})
		gt.NoError(t, err).Required()
		gt.Array(t, byQuery).Length(1)
		gt.Value(t, byQuery[0].ID).Equal(rds.ID)

		// wildcard characters in the query are literal
		byPercent, err := repo.Action().List(ctx, model.ActionFilter{Owner: owner, Query: "100%"})
		gt.NoError(t, err).Required()
		gt.Array(t, byPercent).Length(1)
		gt.Value(t, byPercent[0].ID).Equal(eks.ID)

		none, err := repo.Action().List(ctx, model.ActionFilter{Owner: owner, Query: "network"})
		gt.NoError(t, err).Required()
		gt.Array(t, none).Length(0)
	})

	t.Run("Delete cascades evidence and audit rows", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := baseTime()

		a, err := repo.Action().Create(ctx, newAction(uniqueOwner(), types.PriorityP1, types.ActionStatusOpen, now))
		gt.NoError(t, err).Required()

		_, err = repo.Evidence().Create(ctx, &model.Evidence{
			ID:         types.NewEvidenceID(),
			ActionID:   a.ID,
			Filename:   "log.txt",
			StorageKey: model.InlineEvidenceKey("evidence", a.ID, types.NewEvidenceID(), "log.txt"),
			UploadedBy: "alice",
			UploadedAt: now,
		})
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.Audit().Append(ctx, model.NewAuditEvent(a.ID, types.AuditEventCreated, "alice", now).
			WithTransition(nil, types.ActionStatusOpen))).Required()

		gt.NoError(t, repo.Action().Delete(ctx, a.ID)).Required()

		_, err = repo.Action().Get(ctx, a.ID)
		gt.Error(t, err).Is(interfaces.ErrNotFound)

		evidence, err := repo.Evidence().ListByAction(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, evidence).Length(0)

		events, err := repo.Audit().ListByAction(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, events).Length(0)
	})

	t.Run("Delete of missing action returns not found", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Action().Delete(context.Background(), types.NewActionID())
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})
}
