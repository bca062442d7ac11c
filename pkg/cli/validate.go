package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/cli/config"
	"github.com/secmon-lab/actiontracker/pkg/usecase"
	"github.com/secmon-lab/actiontracker/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdValidate() *cli.Command {
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var checkDB bool

	var flags []cli.Flag
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, &cli.BoolFlag{
		Name:        "check-db",
		Usage:       "Connect to the datastore and check stored actions against the policy",
		Destination: &checkDB,
	})

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the policy configuration and optionally check DB consistency",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			// Step 1: Load and validate the policy
			policy, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "configuration validation failed")
			}

			logger.Info("Configuration validation passed",
				"config", appCfg.Path(),
				"owners", len(policy.Owners),
				"components", len(policy.Components),
				"close_requires_resolved", policy.CloseRequiresResolved,
				"allow_delete", policy.AllowDelete,
			)

			// Step 2: Optionally run the DB consistency check
			if !checkDB {
				logger.Info("--check-db not set, skipping DB consistency check")
				return nil
			}

			if err := repoCfg.Validate(); err != nil {
				return err
			}
			repo, err := repoCfg.Open(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			if err := repo.Ping(ctx); err != nil {
				return goerr.Wrap(err, "datastore is not reachable")
			}

			uc := usecase.New(repo, usecase.WithPolicy(policy))
			result, err := uc.ValidateDB(ctx)
			if err != nil {
				return goerr.Wrap(err, "DB consistency check failed")
			}

			if result.HasIssues() {
				for _, issue := range result.Issues {
					logger.Warn("DB consistency issue found",
						"action_id", issue.ActionID,
						"field", issue.Field,
						"message", issue.Message,
						"actual", issue.Actual,
					)
				}

				return fmt.Errorf("DB consistency check found %d issue(s) in %d action(s)", len(result.Issues), result.Checked)
			}

			logger.Info("DB consistency check passed", "checked", result.Checked)
			return nil
		},
	}
}
