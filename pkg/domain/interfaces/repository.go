package interfaces

import (
	"context"
)

// Repository defines the interface for data persistence
type Repository interface {
	Action() ActionRepository
	Evidence() EvidenceRepository
	Audit() AuditRepository

	// RunInTx runs fn so that writes made through ctx commit or fail together
	// where the backend supports transactions. An error from fn aborts the
	// transaction and is returned as is.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Ping checks that the datastore is reachable
	Ping(ctx context.Context) error

	Close() error
}
