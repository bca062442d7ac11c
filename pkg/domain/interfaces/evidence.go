package interfaces

import (
	"context"

	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

// EvidenceRepository stores evidence metadata
type EvidenceRepository interface {
	Create(ctx context.Context, evidence *model.Evidence) (*model.Evidence, error)

	// ListByAction returns evidence for an action, newest first
	ListByAction(ctx context.Context, actionID types.ActionID) ([]*model.Evidence, error)
}
