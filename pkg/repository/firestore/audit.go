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

type auditRepository struct {
	client *firestore.Client
	names  *collections
}

func (r *auditRepository) Append(ctx context.Context, event *model.AuditEvent) error {
	actionRef := r.client.Collection(r.names.name(ActionsCollection)).Doc(event.ActionID.String())
	docRef := r.client.Collection(r.names.name(AuditCollection)).Doc(event.ID.String())

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(actionRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "action not found", goerr.V("action_id", event.ActionID))
			}
			return goerr.Wrap(err, "failed to get action", goerr.V("action_id", event.ActionID))
		}
		return tx.Create(docRef, event)
	})
	if err != nil {
		return goerr.Wrap(err, "failed to append audit event", goerr.V("action_id", event.ActionID))
	}
	return nil
}

func (r *auditRepository) ListByAction(ctx context.Context, actionID types.ActionID) ([]*model.AuditEvent, error) {
	iter := r.client.Collection(r.names.name(AuditCollection)).
		Where("ActionID", "==", actionID.String()).
		OrderBy("CreatedAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	result := make([]*model.AuditEvent, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate audit events", goerr.V("action_id", actionID))
		}

		var e model.AuditEvent
		if err := docSnap.DataTo(&e); err != nil {
			return nil, goerr.Wrap(err, "failed to decode audit event", goerr.V("doc_id", docSnap.Ref.ID))
		}
		result = append(result, &e)
	}

	return result, nil
}
