package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type actionRepository struct {
	client *firestore.Client
	names  *collections
}

func (r *actionRepository) actions() *firestore.CollectionRef {
	return r.client.Collection(r.names.name(ActionsCollection))
}

func (r *actionRepository) Create(ctx context.Context, action *model.Action) (*model.Action, error) {
	created := action.Clone()
	created.Version = 1

	if _, err := r.actions().Doc(created.ID.String()).Create(ctx, created); err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "action already exists", goerr.V("id", action.ID), goerr.V("cause", err.Error()))
		}
		return nil, goerr.Wrap(err, "failed to create action", goerr.V("id", action.ID))
	}

	return created, nil
}

func (r *actionRepository) Get(ctx context.Context, id types.ActionID) (*model.Action, error) {
	docSnap, err := r.actions().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(interfaces.ErrNotFound, "action not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get action", goerr.V("id", id))
	}

	var a model.Action
	if err := docSnap.DataTo(&a); err != nil {
		return nil, goerr.Wrap(err, "failed to decode action", goerr.V("id", id))
	}
	return &a, nil
}

// List narrows by status in the query and applies the remaining filters in
// process, so no composite index is needed.
func (r *actionRepository) List(ctx context.Context, filter model.ActionFilter) ([]*model.Action, error) {
	query := r.actions().Query
	if filter.Status != "" {
		query = query.Where("Status", "==", filter.Status.String())
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	actions := make([]*model.Action, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate actions")
		}

		var a model.Action
		if err := docSnap.DataTo(&a); err != nil {
			return nil, goerr.Wrap(err, "failed to decode action", goerr.V("doc_id", docSnap.Ref.ID))
		}
		if filter.Match(&a) {
			actions = append(actions, &a)
		}
	}

	model.SortActions(actions)
	return actions, nil
}

func (r *actionRepository) Update(ctx context.Context, action *model.Action) (*model.Action, error) {
	docRef := r.actions().Doc(action.ID.String())

	var updated *model.Action
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "action not found", goerr.V("id", action.ID))
			}
			return goerr.Wrap(err, "failed to get action", goerr.V("id", action.ID))
		}

		var existing model.Action
		if err := docSnap.DataTo(&existing); err != nil {
			return goerr.Wrap(err, "failed to decode action", goerr.V("id", action.ID))
		}
		if existing.Version != action.Version {
			return goerr.Wrap(interfaces.ErrVersionConflict, "action was modified concurrently",
				goerr.V("id", action.ID),
				goerr.V("expected_version", action.Version),
				goerr.V("stored_version", existing.Version),
			)
		}

		updated = action.Clone()
		updated.CreatedAt = existing.CreatedAt
		updated.CreatedBy = existing.CreatedBy
		updated.Version = existing.Version + 1
		return tx.Set(docRef, updated)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *actionRepository) Delete(ctx context.Context, id types.ActionID) error {
	docRef := r.actions().Doc(id.String())

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(interfaces.ErrNotFound, "action not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to check action existence", goerr.V("id", id))
	}

	bulkWriter := r.client.BulkWriter(ctx)
	for _, base := range []string{EvidenceCollection, AuditCollection} {
		iter := r.client.Collection(r.names.name(base)).Where("ActionID", "==", id.String()).Documents(ctx)
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				iter.Stop()
				bulkWriter.End()
				return goerr.Wrap(err, "failed to iterate dependent documents", goerr.V("id", id), goerr.V("collection", base))
			}
			if _, err := bulkWriter.Delete(doc.Ref); err != nil {
				iter.Stop()
				bulkWriter.End()
				return goerr.Wrap(err, "failed to delete dependent document", goerr.V("id", id), goerr.V("collection", base))
			}
		}
		iter.Stop()
	}

	if _, err := bulkWriter.Delete(docRef); err != nil {
		bulkWriter.End()
		return goerr.Wrap(err, "failed to delete action", goerr.V("id", id))
	}
	bulkWriter.End()

	return nil
}
