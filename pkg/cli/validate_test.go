package cli_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/actiontracker/pkg/cli"
	"github.com/secmon-lab/actiontracker/pkg/cli/config"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "policy.toml")
	err := os.WriteFile(configPath, []byte(content), 0o600)
	gt.NoError(t, err).Required()
	return configPath
}

func TestRun_ValidateCommand_ValidConfig(t *testing.T) {
	configPath := writePolicy(t, `
[policy]
enforce_owner_allow_list = true
close_requires_resolved = true

owners = ["alice", "bob"]
components = ["RDS", "EKS"]
`)

	// Run validate command with only config (no DB check)
	err := cli.Run(context.Background(), []string{"actiontracker", "validate", "--config", configPath}, "test")
	gt.NoError(t, err)
}

func TestRun_ValidateCommand_InvalidConfig(t *testing.T) {
	// Invalid: owner listed twice
	configPath := writePolicy(t, `
[policy]
owners = ["alice", "alice"]
`)

	err := cli.Run(context.Background(), []string{"actiontracker", "validate", "--config", configPath}, "test")
	gt.Value(t, err).NotNil()
}

func TestRun_ValidateCommand_MissingConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nonexistent.toml")

	err := cli.Run(context.Background(), []string{"actiontracker", "validate", "--config", configPath}, "test")
	gt.Value(t, err).NotNil()
}

func TestRun_ValidateCommand_FlagsOnly(t *testing.T) {
	err := cli.Run(context.Background(), []string{
		"actiontracker", "validate",
		"--owner", "alice",
		"--owner", "bob",
		"--component", "RDS",
	}, "test")
	gt.NoError(t, err)
}

func TestRun_ValidateCommand_DBCheckWithMemory(t *testing.T) {
	configPath := writePolicy(t, `
[policy]
owners = ["alice"]
`)

	// Run validate with --check-db and memory backend (empty DB, should pass)
	err := cli.Run(context.Background(), []string{
		"actiontracker", "validate",
		"--config", configPath,
		"--check-db",
		"--repository-backend", "memory",
	}, "test")
	gt.NoError(t, err)
}

func TestRun_ValidateCommand_DBCheckWithUnknownBackend(t *testing.T) {
	err := cli.Run(context.Background(), []string{
		"actiontracker", "validate",
		"--check-db",
		"--repository-backend", "mysql",
	}, "test")
	gt.Value(t, err).NotNil()
}

func TestRun_MigrateCommand_PostgresDryRun(t *testing.T) {
	err := cli.Run(context.Background(), []string{
		"actiontracker", "migrate",
		"--repository-backend", "postgres",
		"--dry-run",
	}, "test")
	gt.NoError(t, err)
}

func TestRun_MigrateCommand_Memory(t *testing.T) {
	err := cli.Run(context.Background(), []string{
		"actiontracker", "migrate",
		"--repository-backend", "memory",
	}, "test")
	gt.NoError(t, err)
}

func TestRun_MigrateCommand_FirestoreRequiresProject(t *testing.T) {
	err := cli.Run(context.Background(), []string{
		"actiontracker", "migrate",
		"--repository-backend", "firestore",
		"--dry-run",
	}, "test")
	gt.Error(t, err).Is(config.ErrMissingSettings)
}

func TestRun_MigrateCommand_FirestoreDryRun(t *testing.T) {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID is not set")
	}

	args := []string{
		"actiontracker", "migrate",
		"--repository-backend", "firestore",
		"--firestore-project-id", projectID,
		"--firestore-collection-prefix", "dryrun",
		"--dry-run",
	}
	if databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID"); databaseID != "" {
		args = append(args, "--firestore-database-id", databaseID)
	}
	gt.NoError(t, cli.Run(context.Background(), args, "test"))
}
