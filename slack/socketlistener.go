package slack

import (
	"context"
	"sync/atomic"

	slacklib "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
)

// SocketListener connects to Slack via Socket Mode (outbound WebSocket) and
// hands commands, interactions and messages to the same callbacks the HTTP
// handler uses. No inbound URL configuration is needed.
type SocketListener struct {
	smClient   *socketmode.Client
	botUserID  string
	callbacks  Callbacks
	logger     *zap.Logger
	connected  atomic.Bool
	eventCount atomic.Int64
}

// NewSocketListener creates a Socket Mode listener.
// appToken is the Slack app-level token (xapp-...) with connections:write scope.
// botUserID is the bot's own Slack user ID (used to ignore self-messages).
func NewSocketListener(appToken, botToken, botUserID string, callbacks Callbacks, logger *zap.Logger) *SocketListener {
	api := slacklib.New(botToken, slacklib.OptionAppLevelToken(appToken))

	return &SocketListener{
		smClient:  socketmode.New(api),
		botUserID: botUserID,
		callbacks: callbacks,
		logger:    logger.Named("socket-mode"),
	}
}

// Start connects to Slack and blocks until ctx is cancelled or the
// connection fails for good. It reconnects automatically on disconnection.
func (sl *SocketListener) Start(ctx context.Context) error {
	go sl.handleEvents()

	sl.logger.Info("connecting to Slack")
	return sl.smClient.RunContext(ctx)
}

func (sl *SocketListener) handleEvents() {
	for evt := range sl.smClient.Events {
		sl.eventCount.Add(1)
		sl.handleEvent(evt)
	}
	sl.logger.Info("event channel closed, listener stopped")
}

func (sl *SocketListener) ack(evt socketmode.Event, payload ...interface{}) {
	if evt.Request != nil {
		sl.smClient.Ack(*evt.Request, payload...)
	}
}

func (sl *SocketListener) handleEvent(evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		if sl.connected.Load() {
			sl.logger.Info("reconnecting")
		}

	case socketmode.EventTypeConnected:
		if !sl.connected.Swap(true) {
			sl.logger.Info("connected", zap.Int64("events_processed", sl.eventCount.Load()))
		}

	case socketmode.EventTypeConnectionError:
		sl.connected.Store(false)
		sl.logger.Warn("connection error, will retry")

	case socketmode.EventTypeHello:
		sl.logger.Debug("received hello from Slack")

	case socketmode.EventTypeEventsAPI:
		// Acknowledge first so Slack does not retry.
		sl.ack(evt)
		event, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			sl.logger.Warn("unexpected EventsAPI payload", zap.String("data_type", typeName(evt.Data)))
			return
		}
		if event.Type != slackevents.CallbackEvent {
			return
		}
		dispatchInnerEvent(event, sl.botUserID, sl.callbacks, sl.logger)

	case socketmode.EventTypeInteractive:
		sl.ack(evt)
		cb, ok := evt.Data.(slacklib.InteractionCallback)
		if !ok {
			sl.logger.Warn("unexpected interactive payload", zap.String("data_type", typeName(evt.Data)))
			return
		}
		if sl.callbacks.OnInteraction != nil {
			go sl.callbacks.OnInteraction(cb)
		}

	case socketmode.EventTypeSlashCommand:
		cmd, ok := evt.Data.(slacklib.SlashCommand)
		if !ok {
			sl.ack(evt)
			sl.logger.Warn("unexpected slash command payload", zap.String("data_type", typeName(evt.Data)))
			return
		}
		sl.ack(evt, map[string]interface{}{"text": AckText})

		sl.logger.Debug("slash command",
			zap.String("command", cmd.Command),
			zap.String("channel", cmd.ChannelID),
			zap.String("user", cmd.UserID))

		if sl.callbacks.OnCommand != nil {
			go sl.callbacks.OnCommand(cmd)
		}

	default:
		sl.logger.Debug("unhandled event type", zap.String("type", string(evt.Type)))
		sl.ack(evt)
	}
}
