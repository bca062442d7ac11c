package slack

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
	"github.com/slack-go/slack"
)

const (
	// maxHeaderBytes is the Slack limit for plain text in a header block
	maxHeaderBytes = 150
	// maxSectionBytes is the Slack limit for text in a section block
	maxSectionBytes = 3000
)

func statusEmoji(s types.ActionStatus) string {
	switch s {
	case types.ActionStatusOpen:
		return ":white_circle:"
	case types.ActionStatusInProgress:
		return ":large_blue_circle:"
	case types.ActionStatusBlocked:
		return ":red_circle:"
	case types.ActionStatusResolved:
		return ":large_green_circle:"
	case types.ActionStatusClosed:
		return ":black_circle:"
	default:
		return ":grey_question:"
	}
}

func buildCreatedBlocks(action *model.Action, actionURL string) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(
			slack.NewTextBlockObject(slack.PlainTextType,
				truncateToMaxBytes(fmt.Sprintf("[%s] %s", action.Priority, action.Title), maxHeaderBytes), true, false),
		),
	}

	if action.Description != "" {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, truncateToMaxBytes(action.Description, maxSectionBytes), false, false),
			nil, nil,
		))
	}

	return append(blocks, contextBlock(action, actionURL,
		fmt.Sprintf("Created by %s", action.CreatedBy)))
}

func buildStatusChangedBlocks(action *model.Action, from types.ActionStatus, actor, actionURL string) []slack.Block {
	text := fmt.Sprintf("%s *%s*\n%s → %s %s",
		statusEmoji(action.Status), action.Title, from, statusEmoji(action.Status), action.Status)

	blocks := []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, truncateToMaxBytes(text, maxSectionBytes), false, false),
			nil, nil,
		),
	}

	if action.Status == types.ActionStatusResolved && action.ResolutionNotes != nil {
		blocks = append(blocks, slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType,
				truncateToMaxBytes("*Resolution:* "+*action.ResolutionNotes, maxSectionBytes), false, false),
			nil, nil,
		))
	}

	return append(blocks, contextBlock(action, actionURL, fmt.Sprintf("Changed by %s", actor)))
}

func contextBlock(action *model.Action, actionURL, by string) slack.Block {
	parts := []string{
		fmt.Sprintf("Owner: %s", action.Owner),
		fmt.Sprintf("Component: %s", action.Component),
		fmt.Sprintf("Status: %s", action.Status),
		by,
	}
	if actionURL != "" {
		parts = append(parts, fmt.Sprintf(":link: <%s|Link>", actionURL))
	}

	return slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType, strings.Join(parts, "  |  "), false, false),
	)
}

// truncateToMaxBytes cuts s to at most max bytes without splitting a UTF-8
// sequence, appending an ellipsis when truncated
func truncateToMaxBytes(s string, max int) string {
	if len(s) <= max {
		return s
	}

	const ellipsis = "…"
	limit := max - len(ellipsis)
	if limit <= 0 {
		return ""
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + ellipsis
}
