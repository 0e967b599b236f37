package slack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespond(t *testing.T) {
	t.Parallel()

	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := NewClient("xoxb-test")
	err := c.Respond(context.Background(), srv.URL, Response{
		Text:    "3 repositories",
		Blocks:  []slack.Block{slack.NewDividerBlock()},
		Replace: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "3 repositories", got["text"])
	assert.Equal(t, true, got["replace_original"])
	assert.Equal(t, slack.ResponseTypeInChannel, got["response_type"])
	assert.Len(t, got["blocks"], 1)
}

func TestRespond_Ephemeral(t *testing.T) {
	t.Parallel()

	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	c := NewClient("xoxb-test")
	require.NoError(t, c.Respond(context.Background(), srv.URL, Response{Text: "usage", Ephemeral: true}))
	assert.Equal(t, slack.ResponseTypeEphemeral, got["response_type"])

	got = nil
	require.NoError(t, c.Respond(context.Background(), srv.URL, Response{Text: "usage", Ephemeral: true, Replace: true}))
	assert.Equal(t, slack.ResponseTypeEphemeral, got["response_type"], "replacing keeps the reply private")
	assert.Equal(t, true, got["replace_original"])
}

func TestRespond_Error(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := NewClient("xoxb-test").Respond(context.Background(), srv.URL, Response{Text: "x"})
	require.Error(t, err)
}

func TestSendDirectMessage(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	calls := map[string]string{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		mu.Lock()
		defer mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/conversations.open":
			calls["users"] = r.FormValue("users")
			_, _ = w.Write([]byte(`{"ok":true,"channel":{"id":"D123"}}`))
		case "/chat.postMessage":
			calls["channel"] = r.FormValue("channel")
			calls["text"] = r.FormValue("text")
			_, _ = w.Write([]byte(`{"ok":true,"channel":"D123","ts":"1700000000.000100"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient("xoxb-test", slack.OptionAPIURL(srv.URL+"/"))
	require.NoError(t, c.SendDirectMessage(context.Background(), "U1", "starting"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "U1", calls["users"])
	assert.Equal(t, "D123", calls["channel"])
	assert.Equal(t, "starting", calls["text"])
}

func TestSendDirectMessage_OpenFails(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":false,"error":"user_not_found"}`))
	}))
	defer srv.Close()

	c := NewClient("xoxb-test", slack.OptionAPIURL(srv.URL+"/"))
	err := c.SendDirectMessage(context.Background(), "U404", "starting")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_not_found")
}

func TestPublishView(t *testing.T) {
	t.Parallel()

	var got struct {
		UserID string `json:"user_id"`
		View   struct {
			Type       string            `json:"type"`
			CallbackID string            `json:"callback_id"`
			Blocks     []json.RawMessage `json:"blocks"`
		} `json:"view"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/views.publish", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"view":{"id":"V1","type":"home"}}`))
	}))
	defer srv.Close()

	view := slack.HomeTabViewRequest{
		Type:       slack.VTHomeTab,
		CallbackID: "home_view",
		Blocks:     slack.Blocks{BlockSet: []slack.Block{slack.NewDividerBlock()}},
	}
	c := NewClient("xoxb-test", slack.OptionAPIURL(srv.URL+"/"))
	require.NoError(t, c.PublishView(context.Background(), "U5", view))

	assert.Equal(t, "U5", got.UserID)
	assert.Equal(t, "home", got.View.Type)
	assert.Equal(t, "home_view", got.View.CallbackID)
	assert.Len(t, got.View.Blocks, 1)
}
