package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/cli/config"
	httpctrl "github.com/secmon-lab/actiontracker/pkg/controller/http"
	"github.com/secmon-lab/actiontracker/pkg/service/metrics"
	"github.com/secmon-lab/actiontracker/pkg/usecase"
	"github.com/secmon-lab/actiontracker/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

func cmdServe() *cli.Command {
	var addr string
	var port string
	var baseURL string
	var appCfg config.AppConfig
	var repoCfg config.Repository
	var storageCfg config.Storage
	var slackCfg config.Slack

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("ACTIONTRACKER_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "port",
			Usage:       "HTTP port, used when --addr is not set",
			Sources:     cli.EnvVars("APP_PORT"),
			Destination: &port,
		},
		&cli.StringFlag{
			Name:        "base-url",
			Usage:       "Base URL of the UI, used for links in notifications (e.g., https://actions.example.com)",
			Sources:     cli.EnvVars("ACTIONTRACKER_BASE_URL"),
			Destination: &baseURL,
		},
	}

	// Add shared config flags
	flags = append(flags, appCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)
	flags = append(flags, storageCfg.Flags()...)
	flags = append(flags, slackCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			if port != "" && !c.IsSet("addr") {
				addr = ":" + port
			}

			policy, err := appCfg.Configure()
			if err != nil {
				return goerr.Wrap(err, "failed to load policy")
			}
			if err := repoCfg.Validate(); err != nil {
				return err
			}

			store, closeStorage, err := storageCfg.Configure(ctx)
			if err != nil {
				return err
			}
			defer closeStorage()

			notifier, err := slackCfg.Configure(baseURL)
			if err != nil {
				return err
			}

			m := metrics.New()

			ucOpts := []usecase.Option{
				usecase.WithPolicy(policy),
				usecase.WithEvidencePrefix(storageCfg.Prefix()),
				usecase.WithMetrics(m),
			}
			if store != nil {
				ucOpts = append(ucOpts, usecase.WithStorage(store))
			}
			if notifier != nil {
				ucOpts = append(ucOpts, usecase.WithNotifier(notifier))
				logger.Info("Slack notifications enabled")
			}

			// Missing settings do not stop the server; /health reports them and
			// API calls fail as not ready until they are provided.
			missing := append(repoCfg.MissingKeys(), storageCfg.MissingKeys()...)
			if len(missing) > 0 {
				logger.Warn("Required settings are missing", "missing_env", missing)
			}

			provider := usecase.NewProvider(repoCfg.Open, ucOpts...)
			defer func() {
				if err := provider.Close(); err != nil {
					logger.Error("failed to close repository", "error", err.Error())
				}
			}()

			httpHandler, err := httpctrl.New(provider,
				httpctrl.WithPolicy(policy),
				httpctrl.WithMetrics(m),
				httpctrl.WithMissingConfig(missing),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create http server")
			}
			server := &http.Server{
				Addr:              addr,
				Handler:           httpHandler,
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server",
					"addr", addr,
					"policy", appCfg,
					"repository", repoCfg,
					"storage", storageCfg,
					"slack", slackCfg,
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			// Warm up the datastore connection so the first request does not pay for it
			go func() {
				if _, err := provider.UseCases(ctx); err != nil {
					logger.Warn("Datastore is not ready yet", "error", err)
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logger.Info("Server shutdown completed")
				return nil
			}
		},
	}
}
