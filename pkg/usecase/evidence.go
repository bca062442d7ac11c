package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/model/auth"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
	"github.com/secmon-lab/actiontracker/pkg/utils/errutil"
	"github.com/secmon-lab/actiontracker/pkg/utils/logging"
)

// Evidence protocols, used as metric labels
const (
	EvidenceProtocolInline  = "inline"
	EvidenceProtocolPresign = "presign"
)

type EvidenceUseCase struct {
	uc *UseCases
}

// PresignedUpload is a direct upload slot handed to a client
type PresignedUpload struct {
	UploadURL  string
	StorageKey string
	ExpiresIn  time.Duration
}

// ConfirmEvidenceInput records an object uploaded through a presigned URL
type ConfirmEvidenceInput struct {
	Filename    string
	StorageKey  string
	ContentType string
	SizeBytes   *int64
}

func (uc *EvidenceUseCase) List(ctx context.Context, actionID types.ActionID) ([]*model.Evidence, error) {
	evidence, err := uc.uc.repo.Evidence().ListByAction(ctx, actionID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list evidence", goerr.V(ActionIDKey, actionID))
	}
	return evidence, nil
}

// attachable loads the action evidence will be attached to. Attaching evidence
// updates the action, so a Closed action is rejected.
func (uc *EvidenceUseCase) attachable(ctx context.Context, actionID types.ActionID) (*model.Action, error) {
	action, err := uc.uc.getAction(ctx, actionID)
	if err != nil {
		return nil, err
	}
	if action.Status.IsTerminal() {
		return nil, goerr.Wrap(ErrConflict, "cannot attach evidence to a closed action",
			goerr.V(ActionIDKey, actionID))
	}
	return action, nil
}

func (uc *EvidenceUseCase) requireStorage() error {
	if uc.uc.storage == nil {
		return goerr.Wrap(ErrStorageUnavailable, "evidence storage not configured")
	}
	return nil
}

// UploadInline decodes a base64 payload, stores it and records it as evidence
func (uc *EvidenceUseCase) UploadInline(ctx context.Context, identity auth.Identity, actionID types.ActionID, filename, contentBase64 string) (*model.Evidence, error) {
	if err := RequireIdentity(identity); err != nil {
		return nil, err
	}
	if err := uc.requireStorage(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(filename) == "" || contentBase64 == "" {
		return nil, goerr.Wrap(ErrValidation, "filename and content_base64 required",
			goerr.V(RequiredKey, []string{"filename", "content_base64"}))
	}

	// the decoder skips line breaks, which strict input does not allow
	if strings.ContainsAny(contentBase64, "\r\n") {
		return nil, goerr.Wrap(ErrValidation, "invalid base64", goerr.V(DetailKey, "line breaks are not allowed"))
	}
	data, err := base64.StdEncoding.Strict().DecodeString(contentBase64)
	if err != nil {
		return nil, goerr.Wrap(ErrValidation, "invalid base64", goerr.V(DetailKey, err.Error()))
	}
	if len(data) > model.MaxInlineEvidenceBytes {
		return nil, goerr.Wrap(ErrValidation, "file too large (max 5MB)",
			goerr.V("size_bytes", len(data)),
			goerr.V("max_bytes", model.MaxInlineEvidenceBytes))
	}

	action, err := uc.attachable(ctx, actionID)
	if err != nil {
		return nil, err
	}

	name := model.SanitizeFilename(filename)
	evidenceID := types.NewEvidenceID()
	key := model.InlineEvidenceKey(uc.uc.evidencePrefix, actionID, evidenceID, name)

	if err := uc.uc.storage.Put(ctx, key, model.DefaultEvidenceContentType, data); err != nil {
		return nil, goerr.Wrap(ErrStorage, "failed to store evidence",
			goerr.V(ActionIDKey, actionID),
			goerr.V("key", key),
			goerr.V(DetailKey, err.Error()))
	}

	size := int64(len(data))
	evidence := &model.Evidence{
		ID:          evidenceID,
		ActionID:    actionID,
		Filename:    name,
		StorageKey:  key,
		ContentType: model.DefaultEvidenceContentType,
		SizeBytes:   &size,
		UploadedBy:  identity.User,
		UploadedAt:  uc.uc.now(),
	}

	created, err := uc.attach(ctx, identity, action, evidence)
	if err != nil {
		if delErr := uc.uc.storage.Delete(ctx, key); delErr != nil {
			errutil.Handle(ctx, delErr, "failed to remove orphaned evidence object")
		}
		return nil, err
	}

	uc.uc.metrics.IncrementEvidence(EvidenceProtocolInline)
	return created, nil
}

// Presign issues a PUT URL under actions/{actionID}/ valid for model.PresignTTL
func (uc *EvidenceUseCase) Presign(ctx context.Context, identity auth.Identity, actionID types.ActionID, filename, contentType string) (*PresignedUpload, error) {
	if err := RequireIdentity(identity); err != nil {
		return nil, err
	}
	if err := uc.requireStorage(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(filename) == "" {
		return nil, goerr.Wrap(ErrValidation, "filename required", goerr.V(RequiredKey, []string{"filename"}))
	}

	if _, err := uc.attachable(ctx, actionID); err != nil {
		return nil, err
	}

	key := model.PresignEvidenceKey(actionID, uuid.NewString(), model.SanitizeFilename(filename))
	url, err := uc.uc.storage.PresignPut(ctx, key, strings.TrimSpace(contentType), model.PresignTTL)
	if err != nil {
		return nil, goerr.Wrap(ErrStorage, "failed to presign upload",
			goerr.V(ActionIDKey, actionID),
			goerr.V("key", key),
			goerr.V(DetailKey, err.Error()))
	}

	return &PresignedUpload{
		UploadURL:  url,
		StorageKey: key,
		ExpiresIn:  model.PresignTTL,
	}, nil
}

// Confirm records an object uploaded through a presigned URL. When object
// storage is configured the object must exist, and missing size or content
// type are taken from it.
func (uc *EvidenceUseCase) Confirm(ctx context.Context, identity auth.Identity, actionID types.ActionID, in ConfirmEvidenceInput) (*model.Evidence, error) {
	if err := RequireIdentity(identity); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Filename) == "" || in.StorageKey == "" {
		return nil, goerr.Wrap(ErrValidation, "filename and s3_key required",
			goerr.V(RequiredKey, []string{"filename", "s3_key"}))
	}
	if !model.OwnsPresignedKey(actionID, in.StorageKey) {
		return nil, goerr.Wrap(ErrValidation, "s3_key does not belong to this action",
			goerr.V(ActionIDKey, actionID),
			goerr.V("key", in.StorageKey))
	}
	if in.SizeBytes != nil && *in.SizeBytes < 0 {
		return nil, goerr.Wrap(ErrValidation, "size_bytes must be >= 0", goerr.V("size_bytes", *in.SizeBytes))
	}

	action, err := uc.attachable(ctx, actionID)
	if err != nil {
		return nil, err
	}

	evidence := &model.Evidence{
		ID:          types.NewEvidenceID(),
		ActionID:    actionID,
		Filename:    model.SanitizeFilename(in.Filename),
		StorageKey:  in.StorageKey,
		ContentType: strings.TrimSpace(in.ContentType),
		SizeBytes:   in.SizeBytes,
		UploadedBy:  identity.User,
		UploadedAt:  uc.uc.now(),
	}

	if uc.uc.storage != nil {
		info, err := uc.uc.storage.Stat(ctx, in.StorageKey)
		switch {
		case errors.Is(err, interfaces.ErrObjectNotFound):
			return nil, goerr.Wrap(ErrValidation, "object has not been uploaded", goerr.V("key", in.StorageKey))
		case err != nil:
			return nil, goerr.Wrap(ErrStorage, "failed to stat evidence object",
				goerr.V("key", in.StorageKey),
				goerr.V(DetailKey, err.Error()))
		}
		if evidence.SizeBytes == nil {
			evidence.SizeBytes = &info.Size
		}
		if evidence.ContentType == "" {
			evidence.ContentType = info.ContentType
		}
	}

	created, err := uc.attach(ctx, identity, action, evidence)
	if err != nil {
		return nil, err
	}

	uc.uc.metrics.IncrementEvidence(EvidenceProtocolPresign)
	return created, nil
}

// attach touches the action, inserts evidence and appends evidence_attached
// in one repository transaction. The version-checked update runs first so a
// concurrent edit leaves no evidence row behind on backends without rollback.
func (uc *EvidenceUseCase) attach(ctx context.Context, identity auth.Identity, action *model.Action, evidence *model.Evidence) (*model.Evidence, error) {
	touched := action.Clone()
	touched.UpdatedAt = evidence.UploadedAt

	event := model.NewAuditEvent(action.ID, types.AuditEventEvidenceAttached, identity.Actor(), evidence.UploadedAt).
		WithTransition(action.Status.Ptr(), action.Status).
		WithNotes(evidence.Filename)

	var created *model.Evidence
	err := uc.uc.repo.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := uc.uc.repo.Action().Update(ctx, touched); err != nil {
			return err
		}
		e, err := uc.uc.repo.Evidence().Create(ctx, evidence)
		if err != nil {
			return err
		}
		if err := uc.uc.repo.Audit().Append(ctx, event); err != nil {
			return err
		}
		created = e
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError(err, "failed to record evidence", action.ID)
	}

	logging.From(ctx).Info("evidence attached",
		"action_id", action.ID,
		"evidence_id", created.ID,
		"key", created.StorageKey,
		"actor", identity.Actor(),
	)
	return created, nil
}
