package interfaces

import (
	"context"

	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

// Notifier announces action changes to people outside the service
type Notifier interface {
	NotifyActionCreated(ctx context.Context, action *model.Action) error
	NotifyStatusChanged(ctx context.Context, action *model.Action, from types.ActionStatus, actor string) error
}
