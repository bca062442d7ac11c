package cli

import (
	"context"

	gcpfirestore "cloud.google.com/go/firestore"
	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/cli/config"
	"github.com/secmon-lab/actiontracker/pkg/repository/firestore"
	"github.com/secmon-lab/actiontracker/pkg/repository/postgres"
	"github.com/secmon-lab/actiontracker/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "dry-run",
			Usage:       "Preview changes without applying",
			Destination: &dryRun,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Apply the PostgreSQL schema or Firestore indexes",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()
			logger.Info("Migrate configuration",
				"repository", repoCfg,
				"dryRun", dryRun)

			switch repoCfg.Backend() {
			case config.BackendPostgres:
				return migratePostgres(ctx, &repoCfg, dryRun)
			case config.BackendFirestore:
				return migrateFirestore(ctx, &repoCfg, dryRun)
			case config.BackendMemory:
				logger.Info("Memory backend has no schema, nothing to migrate")
				return nil
			default:
				return repoCfg.Validate()
			}
		},
	}
}

func migratePostgres(ctx context.Context, repoCfg *config.Repository, dryRun bool) error {
	logger := logging.Default()

	if dryRun {
		logger.Info("Dry run mode - previewing schema statements")
		for i, stmt := range postgres.SchemaStatements() {
			logger.Info("Schema statement", "index", i, "sql", stmt)
		}
		return nil
	}

	repo, err := repoCfg.OpenPostgres(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to connect to postgres")
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close repository", "error", err.Error())
		}
	}()

	logger.Info("Applying schema")
	if err := repo.Migrate(ctx); err != nil {
		return goerr.Wrap(err, "failed to apply schema")
	}
	logger.Info("Schema applied successfully")
	return nil
}

func migrateFirestore(ctx context.Context, repoCfg *config.Repository, dryRun bool) error {
	logger := logging.Default()

	if repoCfg.ProjectID() == "" {
		return goerr.Wrap(config.ErrMissingSettings, "firestore-project-id is required for migration")
	}

	indexConfig := getIndexConfig(repoCfg.CollectionPrefix())

	opts := []fireconf.Option{
		fireconf.WithLogger(logger),
		fireconf.WithDryRun(dryRun),
	}
	databaseID := repoCfg.DatabaseID()
	if databaseID == "" {
		databaseID = gcpfirestore.DefaultDatabaseID
	}
	client, err := fireconf.New(ctx, repoCfg.ProjectID(), databaseID, indexConfig, opts...)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client")
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close fireconf client", "error", err.Error())
		}
	}()

	if dryRun {
		logger.Info("Dry run mode - previewing changes")
	} else {
		logger.Info("Applying migrations")
	}
	if err := client.Migrate(ctx); err != nil {
		return goerr.Wrap(err, "failed to apply migrations", goerr.V("dry_run", dryRun))
	}
	if dryRun {
		logger.Info("Dry run completed")
		return nil
	}
	logger.Info("Migrations applied successfully")
	return nil
}

// getIndexConfig returns the composite indexes behind the evidence and audit
// listings. Field paths follow the stored document field names.
func getIndexConfig(prefix string) *fireconf.Config {
	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: firestore.CollectionName(prefix, firestore.EvidenceCollection),
				Indexes: []fireconf.Index{
					// Evidence.ListByAction: ActionID ASC, UploadedAt DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "ActionID", Order: fireconf.OrderAscending},
							{Path: "UploadedAt", Order: fireconf.OrderDescending},
						},
					},
				},
			},
			{
				Name: firestore.CollectionName(prefix, firestore.AuditCollection),
				Indexes: []fireconf.Index{
					// Audit.ListByAction: ActionID ASC, CreatedAt ASC
					{
						Fields: []fireconf.IndexField{
							{Path: "ActionID", Order: fireconf.OrderAscending},
							{Path: "CreatedAt", Order: fireconf.OrderAscending},
						},
					},
				},
			},
		},
	}
}
