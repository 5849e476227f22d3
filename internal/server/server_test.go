package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dgnsrekt/matchcast/api"
	"github.com/dgnsrekt/matchcast/internal/api/generated"
	"github.com/dgnsrekt/matchcast/internal/hub"
	"github.com/dgnsrekt/matchcast/internal/metrics"
	"github.com/dgnsrekt/matchcast/internal/playback"
	"github.com/dgnsrekt/matchcast/internal/replay"
	"github.com/dgnsrekt/matchcast/internal/sse"
	"github.com/dgnsrekt/matchcast/internal/ws"
)

type testEnv struct {
	server *httptest.Server
	cursor *playback.Cursor
	hub    *hub.Hub
}

func newTestEnv(t *testing.T, wwwDir string) *testEnv {
	t.Helper()
	logger := zaptest.NewLogger(t)

	dynamic := make([]json.RawMessage, 6)
	for i := range dynamic {
		dynamic[i] = json.RawMessage(fmt.Sprintf(`{"step":%d}`, i))
	}
	dataset := replay.New("semi-final", json.RawMessage(`{"steps":6}`), dynamic)

	m := metrics.New()
	m.SetStepCount(dataset.StepCount())
	cursor := playback.NewCursor(2)
	h := hub.New(dataset, cursor, m, logger)
	pacer := playback.NewPacer(cursor, dataset.StepCount(), h.FirstAttach(), playback.Options{Interval: time.Hour, Gated: true}, m, logger)

	encoder, err := ws.NewEncoder()
	require.NoError(t, err)

	router, err := NewRouter(Routes{
		Server:  NewServer(dataset, cursor, pacer, h, true, logger),
		Monitor: ws.NewHandler(h, encoder, logger),
		Events:  sse.NewHandler(h, logger),
		Metrics: m.Handler(),
		WWWDir:  wwwDir,
	}, logger)
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		h.Close()
		srv.Close()
		encoder.Close()
	})
	return &testEnv{server: srv, cursor: cursor, hub: h}
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "")

	resp, body := get(t, env.server.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, body)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, "")

	resp, body := get(t, env.server.URL+"/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var status generated.StatusResponse
	require.NoError(t, json.Unmarshal([]byte(body), &status))
	assert.Equal(t, "semi-final", status.Match)
	assert.Equal(t, 2, status.Step)
	assert.Equal(t, 6, status.StepCount)
	assert.Equal(t, generated.Idle, status.State)
	assert.Equal(t, generated.Gated, status.Mode)
	assert.NotNil(t, status.Subscribers)
	assert.Empty(t, status.Subscribers)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, "")

	resp, body := get(t, env.server.URL+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "matchcast_step_count 6")
}

func TestNegotiateEndpoint(t *testing.T) {
	env := newTestEnv(t, "")

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/negotiate", nil)
	require.NoError(t, err)
	req.Header.Set("X-Forwarded-Proto", "https")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var neg generated.NegotiateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&neg))

	host := strings.TrimPrefix(env.server.URL, "http://")
	assert.Equal(t, "semi-final", neg.Match)
	assert.Equal(t, "wss://"+host+"/live/monitor", neg.Urls.Monitor)
	assert.Equal(t, "https://"+host+"/live/events", neg.Urls.Events)
	assert.Equal(t, "https://"+host+"/status", neg.Urls.Status)
	assert.Equal(t, []string{ws.ProtocolJSON, ws.ProtocolProtobuf}, neg.Subprotocols)
}

func TestOpenAPIDocument(t *testing.T) {
	env := newTestEnv(t, "")

	resp, body := get(t, env.server.URL+"/openapi.yaml")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
	assert.Equal(t, string(api.OpenAPISpec), body)

	resp, body = get(t, env.server.URL+"/docs")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `url: "/openapi.yaml"`)
}

func TestEmbeddedSpecMatchesRoutes(t *testing.T) {
	swagger, err := generated.GetSwagger()
	require.NoError(t, err)

	for _, path := range []string{"/health", "/status", "/negotiate"} {
		item := swagger.Paths.Value(path)
		require.NotNil(t, item, path)
		assert.NotNil(t, item.Get, path)
	}
	assert.Contains(t, swagger.Components.Schemas, "StatusResponse")
}

func TestAPIRejectsUnsupportedMethod(t *testing.T) {
	env := newTestEnv(t, "")

	resp, err := http.Post(env.server.URL+"/status", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, "")

	req, err := http.NewRequest(http.MethodOptions, env.server.URL+"/status", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "GET, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>monitor</h1>"), 0600))

	env := newTestEnv(t, dir)

	resp, body := get(t, env.server.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "<h1>monitor</h1>", body)

	resp, _ = get(t, env.server.URL+"/missing.js")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNoStaticFilesWithoutWWWDir(t *testing.T) {
	env := newTestEnv(t, "")

	resp, _ := get(t, env.server.URL+"/")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMonitorThroughRouter(t *testing.T) {
	env := newTestEnv(t, "")

	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/live/monitor"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, static, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"steps":6}`, string(static))

	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"step":2}`, string(frame))

	require.Eventually(t, func() bool { return env.hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	_, body := get(t, env.server.URL+"/status")
	var status generated.StatusResponse
	require.NoError(t, json.Unmarshal([]byte(body), &status))
	require.Len(t, status.Subscribers, 1)
	assert.Equal(t, generated.Ws, status.Subscribers[0].Transport)
	assert.Equal(t, 2, status.Subscribers[0].JoinStep)
}

func TestEventsThroughRouter(t *testing.T) {
	env := newTestEnv(t, "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.server.URL+"/live/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: static\n", line)
}
