package slack

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
	"github.com/slack-go/slack"
)

// Notifier posts action lifecycle messages to a single Slack channel
type Notifier struct {
	api       *slack.Client
	channelID string
	baseURL   string
}

var _ interfaces.Notifier = &Notifier{}

// Option is a functional option for Notifier configuration
type Option func(*notifierConfig)

type notifierConfig struct {
	apiURL  string
	baseURL string
}

// WithAPIURL overrides the Slack Web API endpoint
func WithAPIURL(url string) Option {
	return func(c *notifierConfig) {
		c.apiURL = url
	}
}

// WithBaseURL sets the public URL of the tracker, used for links in messages
func WithBaseURL(url string) Option {
	return func(c *notifierConfig) {
		c.baseURL = url
	}
}

// New creates a Notifier with the provided bot token and channel
func New(token, channelID string, opts ...Option) (*Notifier, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if channelID == "" {
		return nil, goerr.New("Slack channel ID is required")
	}

	var cfg notifierConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	var apiOpts []slack.Option
	if cfg.apiURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(cfg.apiURL))
	}

	return &Notifier{
		api:       slack.New(token, apiOpts...),
		channelID: channelID,
		baseURL:   cfg.baseURL,
	}, nil
}

func (n *Notifier) NotifyActionCreated(ctx context.Context, action *model.Action) error {
	blocks := buildCreatedBlocks(action, n.actionURL(action))
	fallback := fmt.Sprintf("Action created: [%s] %s", action.Priority, action.Title)
	return n.post(ctx, action, blocks, fallback)
}

func (n *Notifier) NotifyStatusChanged(ctx context.Context, action *model.Action, from types.ActionStatus, actor string) error {
	blocks := buildStatusChangedBlocks(action, from, actor, n.actionURL(action))
	fallback := fmt.Sprintf("Action %s: %s -> %s", action.Title, from, action.Status)
	return n.post(ctx, action, blocks, fallback)
}

func (n *Notifier) post(ctx context.Context, action *model.Action, blocks []slack.Block, fallback string) error {
	_, _, err := n.api.PostMessageContext(ctx, n.channelID,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(fallback, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post Slack message",
			goerr.V("channel_id", n.channelID),
			goerr.V("action_id", action.ID))
	}
	return nil
}

func (n *Notifier) actionURL(action *model.Action) string {
	if n.baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/actions/%s", n.baseURL, action.ID)
}
