package slack

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

type Client struct {
	api *slack.Client
}

func NewClient(botToken string, opts ...slack.Option) *Client {
	return &Client{api: slack.New(botToken, opts...)}
}

// Response is a reply sent through an interaction's response_url.
type Response struct {
	Text   string
	Blocks []slack.Block
	// Replace overwrites the message the interaction came from.
	Replace bool
	// Ephemeral shows the reply to the invoking user only.
	Ephemeral bool
}

// Respond posts resp to the response_url Slack handed out with a command or
// block action.
func (c *Client) Respond(ctx context.Context, responseURL string, resp Response) error {
	msg := &slack.WebhookMessage{
		Text:            resp.Text,
		ReplaceOriginal: resp.Replace,
		ResponseType:    slack.ResponseTypeInChannel,
	}
	if resp.Ephemeral {
		msg.ResponseType = slack.ResponseTypeEphemeral
	}
	if len(resp.Blocks) > 0 {
		msg.Blocks = &slack.Blocks{BlockSet: resp.Blocks}
	}

	if err := slack.PostWebhookContext(ctx, responseURL, msg); err != nil {
		return fmt.Errorf("failed to post to response_url: %w", err)
	}
	return nil
}

func (c *Client) OpenView(ctx context.Context, triggerID string, view slack.ModalViewRequest) error {
	if _, err := c.api.OpenViewContext(ctx, triggerID, view); err != nil {
		return fmt.Errorf("failed to open view: %w", err)
	}
	return nil
}

func (c *Client) PostMessage(ctx context.Context, channelID, text string) (string, error) {
	_, ts, err := c.api.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		return "", fmt.Errorf("failed to post message: %w", err)
	}
	return ts, nil
}

// PublishView replaces the App Home tab userID sees.
func (c *Client) PublishView(ctx context.Context, userID string, view slack.HomeTabViewRequest) error {
	_, err := c.api.PublishViewContext(ctx, slack.PublishViewContextRequest{UserID: userID, View: view})
	if err != nil {
		return fmt.Errorf("failed to publish home view for %s: %w", userID, err)
	}
	return nil
}

// SendDirectMessage opens (or reuses) the IM channel with userID and posts
// text into it.
func (c *Client) SendDirectMessage(ctx context.Context, userID, text string) error {
	channel, _, _, err := c.api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users:    []string{userID},
		ReturnIM: true,
	})
	if err != nil {
		return fmt.Errorf("failed to open conversation with %s: %w", userID, err)
	}

	if _, err := c.PostMessage(ctx, channel.ID, text); err != nil {
		return err
	}
	return nil
}

// GetBotUserID returns the Slack user ID of the bot token.
func (c *Client) GetBotUserID(ctx context.Context) (string, error) {
	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to call auth.test: %w", err)
	}
	return resp.UserID, nil
}
