package repository_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
	"github.com/secmon-lab/actiontracker/pkg/repository/firestore"
	"github.com/secmon-lab/actiontracker/pkg/repository/memory"
	"github.com/secmon-lab/actiontracker/pkg/repository/postgres"
)

// backends returns the repository constructors available in this environment
func backends(t *testing.T) map[string]func(t *testing.T) interfaces.Repository {
	t.Helper()

	result := map[string]func(t *testing.T) interfaces.Repository{
		"Memory": func(t *testing.T) interfaces.Repository {
			return memory.New()
		},
	}

	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		result["Postgres"] = func(t *testing.T) interfaces.Repository {
			return newPostgres(t, dsn)
		}
	}

	if projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID"); projectID != "" {
		databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
		result["Firestore"] = func(t *testing.T) interfaces.Repository {
			repo, err := firestore.New(context.Background(), projectID, databaseID,
				firestore.WithCollectionPrefix("test_"+uuid.NewString()[:8]),
			)
			gt.NoError(t, err).Required()
			t.Cleanup(func() { _ = repo.Close() })
			return repo
		}
	}

	return result
}

func newPostgres(t *testing.T, dsn string) interfaces.Repository {
	t.Helper()
	ctx := context.Background()

	repo, err := postgres.Open(ctx, dsn)
	gt.NoError(t, err).Required()
	t.Cleanup(func() { _ = repo.Close() })

	gt.NoError(t, repo.Migrate(ctx)).Required()
	return repo
}

func runAll(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Run("Action", func(t *testing.T) { runActionRepositoryTest(t, newRepo) })
	t.Run("Evidence", func(t *testing.T) { runEvidenceRepositoryTest(t, newRepo) })
	t.Run("Audit", func(t *testing.T) { runAuditRepositoryTest(t, newRepo) })
	t.Run("Tx", func(t *testing.T) { runTxTest(t, newRepo) })
}

func TestRepository(t *testing.T) {
	for name, newRepo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			runAll(t, newRepo)
		})
	}
}

// newAction builds an action owned by a unique owner so list assertions are
// isolated from rows left by other tests on shared databases.
func newAction(owner string, priority types.Priority, status types.ActionStatus, updatedAt time.Time) *model.Action {
	return &model.Action{
		ID:          types.NewActionID(),
		Title:       "Disk full on db-1",
		Description: "Volume usage above 95%",
		Owner:       owner,
		Component:   "RDS",
		Priority:    priority,
		Status:      status,
		CreatedBy:   "alice",
		CreatedAt:   updatedAt,
		UpdatedAt:   updatedAt,
	}
}

func uniqueOwner() string {
	return "owner-" + uuid.NewString()
}

func baseTime() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
