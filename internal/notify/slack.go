package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// Slack posts announcements to a fixed channel with the Web API.
type Slack struct {
	client  *slack.Client
	channel string
	logger  *zap.Logger
}

// NewSlack creates the Slack notifier. token is the bot token (xoxb-...).
func NewSlack(token, channel string, logger *zap.Logger) *Slack {
	return &Slack{
		client:  slack.New(token),
		channel: channel,
		logger:  logger,
	}
}

func (s *Slack) Platform() string { return "slack" }

// Announce posts the text to the configured channel.
func (s *Slack) Announce(ctx context.Context, text string) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channel,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return fmt.Errorf("slack send: %w", err)
	}
	s.logger.Debug("Slack announcement sent", zap.String("channel", s.channel))
	return nil
}
