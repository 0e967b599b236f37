package slack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	slacklib "github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"go.uber.org/zap"
)

// CommandFunc is called with a verified slash command.
type CommandFunc func(cmd slacklib.SlashCommand)

// InteractionFunc is called with a verified block action or view submission.
type InteractionFunc func(cb slacklib.InteractionCallback)

// MessageFunc is called for plain user messages the bot can see.
type MessageFunc func(channelID, userID, text string)

// AppHomeFunc is called when a user opens the bot's Home tab.
type AppHomeFunc func(userID string)

// Callbacks bundles what the transports hand events to. Every callback runs
// in its own goroutine after Slack has been acknowledged. Nil callbacks are
// skipped.
type Callbacks struct {
	OnCommand     CommandFunc
	OnInteraction InteractionFunc
	OnMessage     MessageFunc
	OnAppHome     AppHomeFunc
}

// AckText is returned to Slack for slash commands; the real answer follows
// through the response_url.
const AckText = "Processing your request..."

const (
	maxBodyBytes = 1 << 20
	homeTab      = "home"
)

type Handler struct {
	signingSecret string
	botUserID     string
	callbacks     Callbacks
	logger        *zap.Logger
}

func NewHandler(signingSecret, botUserID string, callbacks Callbacks, logger *zap.Logger) *Handler {
	return &Handler{
		signingSecret: signingSecret,
		botUserID:     botUserID,
		callbacks:     callbacks,
		logger:        logger,
	}
}

// verifiedBody reads the request body while feeding it through the Slack
// signature verifier. It writes the error response itself and returns
// false when the request must not be processed.
func (h *Handler) verifiedBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}

	verifier, err := slacklib.NewSecretsVerifier(r.Header, h.signingSecret)
	if err != nil {
		h.logger.Warn("failed to create secrets verifier", zap.Error(err))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	body, err := io.ReadAll(io.TeeReader(io.LimitReader(r.Body, maxBodyBytes), &verifier))
	if err != nil {
		h.logger.Warn("failed to read request body", zap.Error(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return nil, false
	}

	if err := verifier.Ensure(); err != nil {
		h.logger.Warn("signature verification failed", zap.Error(err))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	return body, true
}

// Commands serves slash command requests.
func (h *Handler) Commands(w http.ResponseWriter, r *http.Request) {
	body, ok := h.verifiedBody(w, r)
	if !ok {
		return
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	cmd, err := slacklib.SlashCommandParse(r)
	if err != nil {
		h.logger.Warn("failed to parse slash command", zap.Error(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(AckText))

	h.logger.Debug("slash command received",
		zap.String("command", cmd.Command),
		zap.String("channel", cmd.ChannelID),
		zap.String("user", cmd.UserID))

	if h.callbacks.OnCommand != nil {
		go h.callbacks.OnCommand(cmd)
	}
}

// Interactions serves block actions and view submissions.
func (h *Handler) Interactions(w http.ResponseWriter, r *http.Request) {
	body, ok := h.verifiedBody(w, r)
	if !ok {
		return
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var cb slacklib.InteractionCallback
	if err := json.Unmarshal([]byte(form.Get("payload")), &cb); err != nil {
		h.logger.Warn("failed to decode interaction payload", zap.Error(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	// An empty 200 closes a submitted modal.
	w.WriteHeader(http.StatusOK)

	h.logger.Debug("interaction received",
		zap.String("type", string(cb.Type)),
		zap.String("user", cb.User.ID))

	if h.callbacks.OnInteraction != nil {
		go h.callbacks.OnInteraction(cb)
	}
}

// Events serves the Events API endpoint, including its URL verification
// handshake.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	body, ok := h.verifiedBody(w, r)
	if !ok {
		return
	}

	event, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		h.logger.Warn("failed to parse event", zap.Error(err))
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case slackevents.URLVerification:
		var challenge slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &challenge); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(challenge.Challenge))

	case slackevents.CallbackEvent:
		w.WriteHeader(http.StatusOK)
		dispatchInnerEvent(event, h.botUserID, h.callbacks, h.logger)

	default:
		w.WriteHeader(http.StatusOK)
	}
}

// dispatchInnerEvent routes a callback event to the message callback.
// Shared by the HTTP and Socket Mode transports.
func dispatchInnerEvent(event slackevents.EventsAPIEvent, botUserID string, callbacks Callbacks, logger *zap.Logger) {
	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.MessageEvent:
		if !isUserMessage(ev, botUserID) {
			return
		}
		if callbacks.OnMessage != nil {
			go callbacks.OnMessage(ev.Channel, ev.User, ev.Text)
		}
	case *slackevents.AppHomeOpenedEvent:
		// The Messages tab fires the same event.
		if ev.User == "" || (ev.Tab != "" && ev.Tab != homeTab) {
			return
		}
		if callbacks.OnAppHome != nil {
			go callbacks.OnAppHome(ev.User)
		}
	default:
		logger.Debug("unhandled inner event", zap.String("type", event.InnerEvent.Type))
	}
}

// isUserMessage filters out edits, joins, bot posts and the bot's own
// messages.
func isUserMessage(ev *slackevents.MessageEvent, botUserID string) bool {
	if ev.SubType != "" || ev.BotID != "" || ev.User == "" {
		return false
	}
	return botUserID == "" || ev.User != botUserID
}

func typeName(v interface{}) string {
	return fmt.Sprintf("%T", v)
}
