package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

type AuditUseCase struct {
	uc *UseCases
}

// List returns the audit trail of an action, oldest first
func (uc *AuditUseCase) List(ctx context.Context, actionID types.ActionID) ([]*model.AuditEvent, error) {
	events, err := uc.uc.repo.Audit().ListByAction(ctx, actionID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list audit events", goerr.V(ActionIDKey, actionID))
	}
	return events, nil
}
