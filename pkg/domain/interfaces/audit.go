package interfaces

import (
	"context"

	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

// AuditRepository is the append-only audit log
type AuditRepository interface {
	Append(ctx context.Context, event *model.AuditEvent) error

	// ListByAction returns events for an action, oldest first
	ListByAction(ctx context.Context, actionID types.ActionID) ([]*model.AuditEvent, error)
}
