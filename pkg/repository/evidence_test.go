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

func runEvidenceRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	newEvidence := func(actionID types.ActionID, name string, at time.Time) *model.Evidence {
		id := types.NewEvidenceID()
		size := int64(42)
		return &model.Evidence{
			ID:          id,
			ActionID:    actionID,
			Filename:    name,
			StorageKey:  model.InlineEvidenceKey("evidence", actionID, id, name),
			ContentType: model.DefaultEvidenceContentType,
			SizeBytes:   &size,
			UploadedBy:  "alice",
			UploadedAt:  at,
		}
	}

	t.Run("ListByAction returns newest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := baseTime()

		a, err := repo.Action().Create(ctx, newAction(uniqueOwner(), types.PriorityP1, types.ActionStatusOpen, now))
		gt.NoError(t, err).Required()

		older := newEvidence(a.ID, "before.png", now)
		newer := newEvidence(a.ID, "after.png", now.Add(time.Minute))
		for _, e := range []*model.Evidence{older, newer} {
			_, err := repo.Evidence().Create(ctx, e)
			gt.NoError(t, err).Required()
		}

		got, err := repo.Evidence().ListByAction(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(2).Required()
		gt.Value(t, got[0].ID).Equal(newer.ID)
		gt.Value(t, got[1].ID).Equal(older.ID)
		gt.Value(t, got[0].StorageKey).Equal(newer.StorageKey)
		gt.Value(t, got[0].ContentType).Equal(model.DefaultEvidenceContentType)
		gt.Value(t, *got[0].SizeBytes).Equal(int64(42))
	})

	t.Run("Create keeps optional fields empty", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := baseTime()

		a, err := repo.Action().Create(ctx, newAction(uniqueOwner(), types.PriorityP1, types.ActionStatusOpen, now))
		gt.NoError(t, err).Required()

		e := newEvidence(a.ID, "notes.txt", now)
		e.SizeBytes = nil
		e.ContentType = ""
		_, err = repo.Evidence().Create(ctx, e)
		gt.NoError(t, err).Required()

		got, err := repo.Evidence().ListByAction(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(1).Required()
		gt.Value(t, got[0].SizeBytes).Nil()
		gt.Value(t, got[0].ContentType).Equal("")
	})

	t.Run("Create for missing action returns not found", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Evidence().Create(context.Background(), newEvidence(types.NewActionID(), "x.txt", baseTime()))
		gt.Error(t, err).Is(interfaces.ErrNotFound)
	})

	t.Run("duplicate storage key fails", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		now := baseTime()

		a, err := repo.Action().Create(ctx, newAction(uniqueOwner(), types.PriorityP1, types.ActionStatusOpen, now))
		gt.NoError(t, err).Required()

		first := newEvidence(a.ID, "scan.pdf", now)
		_, err = repo.Evidence().Create(ctx, first)
		gt.NoError(t, err).Required()

		second := newEvidence(a.ID, "scan.pdf", now.Add(time.Second))
		second.StorageKey = first.StorageKey
		_, err = repo.Evidence().Create(ctx, second)
		gt.Error(t, err).Is(interfaces.ErrAlreadyExists)

		got, err := repo.Evidence().ListByAction(ctx, a.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(1).Required()
		gt.Value(t, got[0].ID).Equal(first.ID)
	})

	t.Run("ListByAction for unknown action is empty", func(t *testing.T) {
		repo := newRepo(t)
		got, err := repo.Evidence().ListByAction(context.Background(), types.NewActionID())
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(0)
	})
}
