// Package sse serves the replay over Server-Sent Events for viewers that
// cannot hold a websocket open.
package sse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dgnsrekt/matchcast/internal/hub"
)

// Handler streams hub frames as text/event-stream.
type Handler struct {
	hub    *hub.Hub
	logger *zap.Logger
}

// NewHandler creates an SSE handler backed by h.
func NewHandler(h *hub.Hub, logger *zap.Logger) *Handler {
	return &Handler{hub: h, logger: logger}
}

// stream is one SSE viewer. It implements hub.Sender.
type stream struct {
	mu      sync.Mutex
	writer  http.ResponseWriter
	flusher http.Flusher
	buf     bytes.Buffer
}

var _ hub.Sender = (*stream)(nil)

// ServeHTTP handles GET /live/events. It blocks until the viewer leaves.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	id := uuid.New().String()
	err := h.hub.Serve(r.Context(), hub.Subscription{
		ID:        id,
		Transport: "sse",
		Remote:    r.RemoteAddr,
		Sender:    &stream{writer: w, flusher: flusher},
	})
	if err != nil && !errors.Is(err, hub.ErrClosed) {
		h.logger.Debug("sse viewer dropped", zap.String("subscriber", id), zap.Error(err))
	}
}

// Send writes one event and flushes it.
func (s *stream) Send(ctx context.Context, msg hub.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf.Reset()
	if err := formatEvent(&s.buf, msg); err != nil {
		return err
	}
	if _, err := s.writer.Write(s.buf.Bytes()); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// formatEvent writes msg as a single SSE event. The payload is compacted
// because a data field cannot span lines.
func formatEvent(buf *bytes.Buffer, msg hub.Message) error {
	fmt.Fprintf(buf, "event: %s\nid: %d\ndata: ", msg.Kind, msg.Step)
	if err := json.Compact(buf, msg.Payload); err != nil {
		return fmt.Errorf("compact %s payload: %w", msg.Kind, err)
	}
	buf.WriteString("\n\n")
	return nil
}
