package sse

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dgnsrekt/matchcast/internal/hub"
	"github.com/dgnsrekt/matchcast/internal/playback"
	"github.com/dgnsrekt/matchcast/internal/replay"
)

type event struct {
	name string
	id   string
	data string
}

func readEvent(t *testing.T, r *bufio.Reader) event {
	t.Helper()
	var ev event
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			return ev
		}
		switch {
		case strings.HasPrefix(line, "event: "):
			ev.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "id: "):
			ev.id = strings.TrimPrefix(line, "id: ")
		case strings.HasPrefix(line, "data: "):
			ev.data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestHandler_StreamsFrames(t *testing.T) {
	dynamic := make([]json.RawMessage, 4)
	for i := range dynamic {
		dynamic[i] = json.RawMessage(fmt.Sprintf("{\n  \"step\": %d\n}", i))
	}
	dataset := replay.New("sse-test", json.RawMessage(`{"steps":4}`), dynamic)

	logger := zaptest.NewLogger(t)
	cursor := playback.NewCursor(1)
	h := hub.New(dataset, cursor, nil, logger)

	srv := httptest.NewServer(NewHandler(h, logger))
	defer srv.Close()
	defer h.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	r := bufio.NewReader(resp.Body)

	ev := readEvent(t, r)
	assert.Equal(t, event{name: "static", id: "1", data: `{"steps":4}`}, ev)

	ev = readEvent(t, r)
	assert.Equal(t, event{name: "step", id: "1", data: `{"step":1}`}, ev)

	cursor.Advance()
	ev = readEvent(t, r)
	assert.Equal(t, event{name: "step", id: "2", data: `{"step":2}`}, ev)

	require.Eventually(t, func() bool { return h.Count() == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	require.Eventually(t, func() bool { return h.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestFormatEvent(t *testing.T) {
	var buf bytes.Buffer
	err := formatEvent(&buf, hub.Message{Kind: hub.KindStep, Step: 12, Payload: json.RawMessage("{\"a\": [1,\n 2]}")})
	require.NoError(t, err)
	assert.Equal(t, "event: step\nid: 12\ndata: {\"a\":[1,2]}\n\n", buf.String())
}

func TestFormatEvent_InvalidPayload(t *testing.T) {
	var buf bytes.Buffer
	err := formatEvent(&buf, hub.Message{Kind: hub.KindStep, Step: 1, Payload: json.RawMessage(`{broken`)})
	assert.Error(t, err)
}
