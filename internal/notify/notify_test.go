package notify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dgnsrekt/matchcast/internal/fetch"
)

type captured struct {
	path, title, priority, tags, auth, body string
}

func ntfyServer(t *testing.T, status int) (*httptest.Server, <-chan captured) {
	t.Helper()
	ch := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ch <- captured{
			path:     r.URL.Path,
			title:    r.Header.Get("Title"),
			priority: r.Header.Get("Priority"),
			tags:     r.Header.Get("Tags"),
			auth:     r.Header.Get("Authorization"),
			body:     string(body),
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func TestSendFetchComplete(t *testing.T) {
	srv, ch := ntfyServer(t, http.StatusOK)
	cfg := &Config{Enabled: true, Server: srv.URL + "/", Topic: "replays", Priority: "default", Tags: "tv", Token: "tk_123"}
	client := NewClient(cfg, zaptest.NewLogger(t))

	result := &fetch.BatchResult{Match: "final", Steps: 12, Total: 4, Success: 4, Skipped: 1}
	require.NoError(t, client.SendFetchComplete(context.Background(), result, 3*time.Second))

	got := <-ch
	assert.Equal(t, "/replays", got.path)
	assert.Equal(t, "Replay Fetched: final", got.title)
	assert.Equal(t, "default", got.priority)
	assert.Equal(t, "tv,white_check_mark", got.tags)
	assert.Equal(t, "Bearer tk_123", got.auth)
	assert.Contains(t, got.body, "Steps: 12")
	assert.Contains(t, got.body, "Downloaded: 3")
}

func TestSendFetchFailed(t *testing.T) {
	srv, ch := ntfyServer(t, http.StatusOK)
	cfg := &Config{Enabled: true, Server: srv.URL, Topic: "replays", Priority: "low", Tags: "tv"}
	client := NewClient(cfg, zaptest.NewLogger(t))

	result := &fetch.BatchResult{
		Match:    "final",
		Total:    6,
		NotFound: 5,
		Errors:   []string{"final/0.json: a", "final/5.json: b", "final/10.json: c", "final/15.json: d", "final/20.json: e"},
	}
	require.NoError(t, client.SendFetchFailed(context.Background(), result, time.Second, fetch.ErrIncomplete))

	got := <-ch
	assert.Equal(t, "Replay Fetch Failed: final", got.title)
	assert.Equal(t, "high", got.priority)
	assert.Empty(t, got.auth)
	assert.Contains(t, got.body, "Error: replay incomplete")
	assert.Contains(t, got.body, "final/10.json: c")
	assert.NotContains(t, got.body, "final/15.json")
	assert.Contains(t, got.body, "... and 2 more errors")
}

func TestSendPlaybackFinished(t *testing.T) {
	srv, ch := ntfyServer(t, http.StatusOK)
	cfg := &Config{Enabled: true, Server: srv.URL, Topic: "replays", Priority: "default", Tags: "tv"}
	client := NewClient(cfg, zaptest.NewLogger(t))

	require.NoError(t, client.SendPlaybackFinished(context.Background(), "final", 40, 3, 20*time.Second))

	got := <-ch
	assert.Equal(t, "Broadcast Finished: final", got.title)
	assert.Equal(t, "tv,checkered_flag", got.tags)
	assert.Equal(t, "Steps: 40\nViewers at end: 3\nDuration: 20s", got.body)
}

func TestSend_ErrorStatus(t *testing.T) {
	srv, _ := ntfyServer(t, http.StatusForbidden)
	cfg := &Config{Enabled: true, Server: srv.URL, Topic: "replays", Priority: "default", Tags: "tv"}
	client := NewClient(cfg, zaptest.NewLogger(t))

	err := client.SendPlaybackFinished(context.Background(), "final", 1, 0, time.Second)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "403"), err.Error())
}

func TestNew_DisabledIsNoop(t *testing.T) {
	n := New(&Config{Enabled: false}, zaptest.NewLogger(t))
	_, ok := n.(*NoopNotifier)
	require.True(t, ok, "expected NoopNotifier, got %T", n)

	assert.NoError(t, n.SendFetchFailed(context.Background(), &fetch.BatchResult{}, 0, errors.New("x")))
	assert.NoError(t, n.SendPlaybackFinished(context.Background(), "final", 0, 0, 0))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, (&Config{}).Validate())
	assert.Error(t, (&Config{Enabled: true, Priority: "default"}).Validate())
	assert.Error(t, (&Config{Enabled: true, Topic: "replays", Priority: "loud"}).Validate())
	assert.NoError(t, (&Config{Enabled: true, Topic: "replays", Priority: "urgent"}).Validate())
}
