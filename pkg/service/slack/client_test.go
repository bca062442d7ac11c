package slack_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/actiontracker/pkg/domain/model"
	"github.com/secmon-lab/actiontracker/pkg/domain/types"
	"github.com/secmon-lab/actiontracker/pkg/service/slack"
)

type postedMessage struct {
	channel string
	text    string
	blocks  string
}

func newSlackServer(t *testing.T, ok bool) (*httptest.Server, *[]postedMessage) {
	t.Helper()
	var mu sync.Mutex
	var posted []postedMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.NoError(t, r.ParseForm()).Required()
		gt.S(t, r.URL.Path).Equal("/chat.postMessage")

		mu.Lock()
		posted = append(posted, postedMessage{
			channel: r.PostForm.Get("channel"),
			text:    r.PostForm.Get("text"),
			blocks:  r.PostForm.Get("blocks"),
		})
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "channel_not_found"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": r.PostForm.Get("channel"), "ts": "1700000000.000100"})
	}))
	t.Cleanup(srv.Close)
	return srv, &posted
}

func testAction() *model.Action {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &model.Action{
		ID:          "a-1",
		Title:       "Rotate TLS certificate",
		Description: "cert for edge-lb expires soon",
		Owner:       "alice",
		Component:   "edge-lb",
		Priority:    types.PriorityP1,
		Status:      types.ActionStatusOpen,
		CreatedBy:   "alice",
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
}

func TestNew(t *testing.T) {
	t.Run("returns error when token is empty", func(t *testing.T) {
		_, err := slack.New("", "C123")
		gt.Value(t, err).NotNil()
	})

	t.Run("returns error when channel is empty", func(t *testing.T) {
		_, err := slack.New("xoxb-test", "")
		gt.Value(t, err).NotNil()
	})

	t.Run("creates notifier when token and channel are provided", func(t *testing.T) {
		n, err := slack.New("xoxb-test", "C123")
		gt.NoError(t, err).Required()
		gt.Value(t, n).NotNil()
	})
}

func TestNotifyActionCreated(t *testing.T) {
	srv, posted := newSlackServer(t, true)
	n, err := slack.New("xoxb-test", "C123",
		slack.WithAPIURL(srv.URL+"/"),
		slack.WithBaseURL("https://tracker.example.com"))
	gt.NoError(t, err).Required()

	gt.NoError(t, n.NotifyActionCreated(context.Background(), testAction())).Required()

	gt.Array(t, *posted).Length(1).Required()
	msg := (*posted)[0]
	gt.S(t, msg.channel).Equal("C123")
	gt.S(t, msg.text).Contains("Rotate TLS certificate")
	gt.S(t, msg.blocks).Contains("[P1] Rotate TLS certificate")
	gt.S(t, msg.blocks).Contains("https://tracker.example.com/actions/a-1")
}

func TestNotifyStatusChanged(t *testing.T) {
	srv, posted := newSlackServer(t, true)
	n, err := slack.New("xoxb-test", "C123", slack.WithAPIURL(srv.URL+"/"))
	gt.NoError(t, err).Required()

	action := testAction()
	action.Status = types.ActionStatusResolved
	notes := "renewed via ACME"
	action.ResolutionNotes = &notes

	gt.NoError(t, n.NotifyStatusChanged(context.Background(), action, types.ActionStatusInProgress, "bob")).Required()

	gt.Array(t, *posted).Length(1).Required()
	msg := (*posted)[0]
	gt.S(t, msg.text).Contains("In Progress -> Resolved")
	gt.S(t, msg.blocks).Contains("renewed via ACME")
	gt.S(t, msg.blocks).Contains("Changed by bob")
}

func TestNotify_APIError(t *testing.T) {
	srv, _ := newSlackServer(t, false)
	n, err := slack.New("xoxb-test", "C404", slack.WithAPIURL(srv.URL+"/"))
	gt.NoError(t, err).Required()

	err = n.NotifyActionCreated(context.Background(), testAction())
	gt.Value(t, err).NotNil()
	gt.S(t, err.Error()).Contains("channel_not_found")
}

func TestBlocksAreValidJSON(t *testing.T) {
	blocks := slack.BuildCreatedBlocks(testAction(), "")
	raw, err := json.Marshal(blocks)
	gt.NoError(t, err).Required()

	var decoded []map[string]any
	gt.NoError(t, json.Unmarshal(raw, &decoded)).Required()
	gt.Array(t, decoded).Length(3)
	gt.Value(t, decoded[0]["type"]).Equal("header")

	q := url.Values{}
	q.Set("blocks", string(raw))
	gt.S(t, q.Encode()).NotEqual("")
}

func TestTruncateToMaxBytes(t *testing.T) {
	t.Run("short string untouched", func(t *testing.T) {
		gt.S(t, slack.TruncateToMaxBytes("abc", 10)).Equal("abc")
	})

	t.Run("ascii truncated with ellipsis", func(t *testing.T) {
		got := slack.TruncateToMaxBytes("abcdefghij", 8)
		gt.S(t, got).Equal("abcde…")
		gt.Bool(t, len(got) <= 8).True()
	})

	t.Run("multibyte not split", func(t *testing.T) {
		got := slack.TruncateToMaxBytes("ああああ", 8)
		gt.S(t, got).Equal("あ…")
	})
}
