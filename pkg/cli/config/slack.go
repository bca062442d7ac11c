package config

import (
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/service/slack"
	"github.com/urfave/cli/v3"
)

type Slack struct {
	botToken  string
	channelID string
}

func (x *Slack) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-bot-token",
			Usage:       "Slack Bot User OAuth Token for action notifications",
			Category:    "Slack",
			Destination: &x.botToken,
			Sources:     cli.EnvVars("ACTIONTRACKER_SLACK_BOT_TOKEN"),
		},
		&cli.StringFlag{
			Name:        "slack-channel",
			Usage:       "Slack channel ID that receives action notifications",
			Category:    "Slack",
			Destination: &x.channelID,
			Sources:     cli.EnvVars("ACTIONTRACKER_SLACK_CHANNEL"),
		},
	}
}

func (x Slack) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("bot-token.len", len(x.botToken)),
		slog.String("channel", x.channelID),
	)
}

// IsConfigured reports whether notifications are enabled
func (x *Slack) IsConfigured() bool {
	return x.botToken != ""
}

// Configure returns a notifier, or nil when no bot token is set. baseURL is
// used for links back to the UI.
func (x *Slack) Configure(baseURL string) (interfaces.Notifier, error) {
	if x.botToken == "" {
		return nil, nil
	}
	if x.channelID == "" {
		return nil, goerr.New("--slack-channel is required with --slack-bot-token")
	}

	notifier, err := slack.New(x.botToken, x.channelID, slack.WithBaseURL(baseURL))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize slack notifier")
	}
	return notifier, nil
}
