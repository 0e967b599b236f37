package commands

import (
	"context"
	"regexp"

	"go.uber.org/zap"

	"github.com/justmike1/slackops/blocks"
)

var (
	greetingPattern = regexp.MustCompile(`(?i)\b(hi|hello|hey|hoi|jo|yo|hallo)\b`)
	helpPattern     = regexp.MustCompile(`(?i)\b(help|support)\b`)
)

// HandleMessage answers greetings and help requests posted where the bot can
// read them. Both replies are sent when a message matches both.
func (c *Controller) HandleMessage(channelID, userID, text string) {
	log := c.requestLogger("message", userID, channelID)
	defer recoverPanic(log)

	ctx := context.Background()
	if greetingPattern.MatchString(text) {
		c.post(ctx, log, channelID, c.messages.Format("greeting", "user", userID))
	}
	if helpPattern.MatchString(text) {
		c.post(ctx, log, channelID, c.messages.Format("help", "command", c.opts.SlashCommand))
	}
}

// HandleAppHome publishes the Home tab for userID.
func (c *Controller) HandleAppHome(userID string) {
	log := c.requestLogger("app_home_opened", userID, "")
	defer recoverPanic(log)

	view := blocks.HomeView(
		c.messages.Format("home_title"),
		c.messages.Format("home_body"),
		c.messages.Format("home_usage", "command", c.opts.SlashCommand),
	)
	if err := c.slack.PublishView(context.Background(), userID, view); err != nil {
		log.Error("failed to publish home view", zap.Error(err))
		return
	}
	log.Debug("home view published")
}

func (c *Controller) post(ctx context.Context, log *zap.Logger, channelID, text string) {
	if _, err := c.slack.PostMessage(ctx, channelID, text); err != nil {
		log.Error("failed to post message", zap.Error(err))
	}
}
