package interfaces

import (
	"context"

	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
)

// ActionRepository defines the interface for Action data access
type ActionRepository interface {
	// Create stores a new action. ID and timestamps must already be set; Version is set to 1.
	Create(ctx context.Context, action *model.Action) (*model.Action, error)

	// Get retrieves an action by ID. ErrNotFound is wrapped when it does not exist.
	Get(ctx context.Context, id types.ActionID) (*model.Action, error)

	// List returns actions matching filter in model.CompareActions order
	List(ctx context.Context, filter model.ActionFilter) ([]*model.Action, error)

	// Update replaces the stored action if its stored Version equals action.Version,
	// and returns the stored copy with Version incremented. ErrVersionConflict is
	// wrapped when the versions differ.
	Update(ctx context.Context, action *model.Action) (*model.Action, error)

	// Delete removes an action with its evidence and audit rows
	Delete(ctx context.Context, id types.ActionID) error
}
