package firestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type evidenceRepository struct {
	client *firestore.Client
	names  *collections
}

// evidenceDocID derives the document ID from the storage key so that
// Firestore itself rejects a second row for the same object.
func evidenceDocID(storageKey string) string {
	sum := sha256.Sum256([]byte(storageKey))
	return hex.EncodeToString(sum[:])
}

func (r *evidenceRepository) Create(ctx context.Context, evidence *model.Evidence) (*model.Evidence, error) {
	actionRef := r.client.Collection(r.names.name(ActionsCollection)).Doc(evidence.ActionID.String())
	docRef := r.client.Collection(r.names.name(EvidenceCollection)).Doc(evidenceDocID(evidence.StorageKey))
	created := evidence.Clone()

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(actionRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(interfaces.ErrNotFound, "action not found", goerr.V("action_id", evidence.ActionID))
			}
			return goerr.Wrap(err, "failed to get action", goerr.V("action_id", evidence.ActionID))
		}
		return tx.Create(docRef, created)
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(interfaces.ErrAlreadyExists, "storage key already recorded", goerr.V("storage_key", evidence.StorageKey), goerr.V("cause", err.Error()))
		}
		return nil, goerr.Wrap(err, "failed to create evidence", goerr.V("action_id", evidence.ActionID))
	}

	return created, nil
}

func (r *evidenceRepository) ListByAction(ctx context.Context, actionID types.ActionID) ([]*model.Evidence, error) {
	iter := r.client.Collection(r.names.name(EvidenceCollection)).
		Where("ActionID", "==", actionID.String()).
		OrderBy("UploadedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	result := make([]*model.Evidence, 0)
	for {
		docSnap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate evidence", goerr.V("action_id", actionID))
		}

		var e model.Evidence
		if err := docSnap.DataTo(&e); err != nil {
			return nil, goerr.Wrap(err, "failed to decode evidence", goerr.V("doc_id", docSnap.Ref.ID))
		}
		result = append(result, &e)
	}

	return result, nil
}
