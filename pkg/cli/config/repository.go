package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/repository/firestore"
	"github.com/secmon-lab/actiontracker/pkg/repository/memory"
	"github.com/secmon-lab/actiontracker/pkg/repository/postgres"
	"github.com/secmon-lab/actiontracker/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Repository backends
const (
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
	BackendMemory    = "memory"
)

// Repository holds CLI flags for repository backend configuration
type Repository struct {
	backend string

	dbHost      string
	dbPort      int
	dbName      string
	dbUser      string
	dbPassword  string
	dbSSLMode   string
	autoMigrate bool

	projectID        string
	databaseID       string
	collectionPrefix string
}

// Flags returns CLI flags for repository configuration
func (r *Repository) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "repository-backend",
			Usage:       "Repository backend type (postgres, firestore or memory)",
			Category:    "Repository",
			Value:       BackendPostgres,
			Sources:     cli.EnvVars("ACTIONTRACKER_REPOSITORY_BACKEND"),
			Destination: &r.backend,
		},
		&cli.StringFlag{
			Name:        "db-host",
			Usage:       "PostgreSQL host",
			Category:    "Repository",
			Sources:     cli.EnvVars("ACTIONTRACKER_DB_HOST", "DB_HOST"),
			Destination: &r.dbHost,
		},
		&cli.IntFlag{
			Name:        "db-port",
			Usage:       "PostgreSQL port",
			Category:    "Repository",
			Value:       5432,
			Sources:     cli.EnvVars("ACTIONTRACKER_DB_PORT", "DB_PORT"),
			Destination: &r.dbPort,
		},
		&cli.StringFlag{
			Name:        "db-name",
			Usage:       "PostgreSQL database name",
			Category:    "Repository",
			Sources:     cli.EnvVars("ACTIONTRACKER_DB_NAME", "DB_NAME"),
			Destination: &r.dbName,
		},
		&cli.StringFlag{
			Name:        "db-user",
			Usage:       "PostgreSQL user",
			Category:    "Repository",
			Sources:     cli.EnvVars("ACTIONTRACKER_DB_USER", "DB_USER"),
			Destination: &r.dbUser,
		},
		&cli.StringFlag{
			Name:        "db-password",
			Usage:       "PostgreSQL password",
			Category:    "Repository",
			Sources:     cli.EnvVars("ACTIONTRACKER_DB_PASSWORD", "DB_PASSWORD"),
			Destination: &r.dbPassword,
		},
		&cli.StringFlag{
			Name:        "db-sslmode",
			Usage:       "PostgreSQL sslmode (disable, require, verify-full, ...)",
			Category:    "Repository",
			Sources:     cli.EnvVars("ACTIONTRACKER_DB_SSLMODE", "DB_SSLMODE"),
			Destination: &r.dbSSLMode,
		},
		&cli.BoolFlag{
			Name:        "db-auto-migrate",
			Usage:       "Apply the PostgreSQL schema when the first connection succeeds",
			Category:    "Repository",
			Value:       true,
			Sources:     cli.EnvVars("ACTIONTRACKER_DB_AUTO_MIGRATE"),
			Destination: &r.autoMigrate,
		},
		&cli.StringFlag{
			Name:        "firestore-project-id",
			Usage:       "Firestore Project ID (required when using firestore backend)",
			Category:    "Repository",
			Sources:     cli.EnvVars("ACTIONTRACKER_FIRESTORE_PROJECT_ID"),
			Destination: &r.projectID,
		},
		&cli.StringFlag{
			Name:        "firestore-database-id",
			Usage:       "Firestore Database ID",
			Category:    "Repository",
			Sources:     cli.EnvVars("ACTIONTRACKER_FIRESTORE_DATABASE_ID"),
			Destination: &r.databaseID,
		},
		&cli.StringFlag{
			Name:        "firestore-collection-prefix",
			Usage:       "Prefix for Firestore collection names",
			Category:    "Repository",
			Sources:     cli.EnvVars("ACTIONTRACKER_FIRESTORE_COLLECTION_PREFIX"),
			Destination: &r.collectionPrefix,
		},
	}
}

func (r Repository) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("backend", r.backend),
		slog.String("db_host", r.dbHost),
		slog.Int("db_port", r.dbPort),
		slog.String("db_name", r.dbName),
		slog.String("db_user", r.dbUser),
		slog.Int("db_password.len", len(r.dbPassword)),
		slog.String("firestore_project_id", r.projectID),
		slog.String("firestore_database_id", r.databaseID),
	)
}

// Backend returns the configured backend type
func (r *Repository) Backend() string {
	return r.backend
}

// ProjectID returns the Firestore project ID
func (r *Repository) ProjectID() string {
	return r.projectID
}

// DatabaseID returns the Firestore database ID
func (r *Repository) DatabaseID() string {
	return r.databaseID
}

// CollectionPrefix returns the Firestore collection prefix
func (r *Repository) CollectionPrefix() string {
	return r.collectionPrefix
}

// MissingKeys lists the environment variables that the selected backend needs
// but that are unset.
func (r *Repository) MissingKeys() []string {
	var missing []string
	switch r.backend {
	case BackendPostgres:
		for _, kv := range []struct {
			key   string
			value string
		}{
			{"DB_HOST", r.dbHost},
			{"DB_NAME", r.dbName},
			{"DB_USER", r.dbUser},
			{"DB_PASSWORD", r.dbPassword},
		} {
			if kv.value == "" {
				missing = append(missing, kv.key)
			}
		}
	case BackendFirestore:
		if r.projectID == "" {
			missing = append(missing, "ACTIONTRACKER_FIRESTORE_PROJECT_ID")
		}
	}
	return missing
}

// Validate checks the backend name
func (r *Repository) Validate() error {
	switch r.backend {
	case BackendPostgres, BackendFirestore, BackendMemory:
		return nil
	default:
		return goerr.Wrap(ErrUnknownBackend, "invalid repository backend", goerr.V(BackendKey, r.backend))
	}
}

func (r *Repository) postgresConfig() postgres.Config {
	return postgres.Config{
		Host:     r.dbHost,
		Port:     r.dbPort,
		Database: r.dbName,
		User:     r.dbUser,
		Password: r.dbPassword,
		SSLMode:  r.dbSSLMode,
	}
}

// OpenPostgres connects to PostgreSQL and checks the connection
func (r *Repository) OpenPostgres(ctx context.Context) (*postgres.Postgres, error) {
	if missing := r.MissingKeys(); len(missing) > 0 {
		return nil, goerr.Wrap(ErrMissingSettings, "postgres settings are incomplete", goerr.V(MissingKey, missing))
	}

	repo, err := postgres.New(ctx, r.postgresConfig())
	if err != nil {
		return nil, err
	}
	if err := repo.Ping(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}
	return repo, nil
}

// Open initializes a repository for the configured backend. The caller is
// responsible for calling Close() on the returned repository.
func (r *Repository) Open(ctx context.Context) (interfaces.Repository, error) {
	switch r.backend {
	case BackendPostgres:
		repo, err := r.OpenPostgres(ctx)
		if err != nil {
			return nil, err
		}
		if r.autoMigrate {
			if err := repo.Migrate(ctx); err != nil {
				_ = repo.Close()
				return nil, goerr.Wrap(err, "failed to apply postgres schema")
			}
		}
		logging.Default().Info("Using PostgreSQL repository",
			"host", r.dbHost,
			"database", r.dbName,
		)
		return repo, nil

	case BackendFirestore:
		if r.projectID == "" {
			return nil, goerr.Wrap(ErrMissingSettings, "firestore-project-id is required when using firestore backend")
		}
		repo, err := firestore.New(ctx, r.projectID, r.databaseID, firestore.WithCollectionPrefix(r.collectionPrefix))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize firestore repository")
		}
		logging.Default().Info("Using Firestore repository",
			"project_id", r.projectID,
			"database_id", r.databaseID,
		)
		return repo, nil

	case BackendMemory:
		logging.Default().Info("Using in-memory repository (development mode)")
		return memory.New(), nil

	default:
		return nil, goerr.Wrap(ErrUnknownBackend, "invalid repository backend", goerr.V(BackendKey, r.backend))
	}
}
