package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Discord posts announcements to a fixed channel over the bot REST API. No
// gateway websocket is opened, sending does not need one.
type Discord struct {
	session   *discordgo.Session
	channelID string
	logger    *zap.Logger
}

// NewDiscord creates the Discord notifier.
func NewDiscord(token, channelID string, logger *zap.Logger) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	return &Discord{session: session, channelID: channelID, logger: logger}, nil
}

func (d *Discord) Platform() string { return "discord" }

// Announce posts the text to the configured channel.
func (d *Discord) Announce(_ context.Context, text string) error {
	if _, err := d.session.ChannelMessageSend(d.channelID, text); err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	d.logger.Debug("Discord announcement sent", zap.String("channel", d.channelID))
	return nil
}
