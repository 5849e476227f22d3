package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dgnsrekt/matchcast/internal/hub"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Viewers only ever send control frames.
	maxMessageSize = 4 * 1024
)

// Subprotocols a viewer may request.
const (
	ProtocolJSON     = "json"
	ProtocolProtobuf = "protobuf.zstd.v1"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // The monitor may be hosted elsewhere
}

// Handler upgrades /live/monitor requests and hands each connection to the
// hub for the rest of its life.
type Handler struct {
	hub     *hub.Hub
	encoder *Encoder
	logger  *zap.Logger
}

// NewHandler creates a websocket handler backed by h.
func NewHandler(h *hub.Hub, encoder *Encoder, logger *zap.Logger) *Handler {
	return &Handler{hub: h, encoder: encoder, logger: logger}
}

// Client is one websocket viewer. It implements hub.Sender.
type Client struct {
	conn     *websocket.Conn
	connID   string
	protocol string
	encoder  *Encoder
	logger   *zap.Logger

	writeMu sync.Mutex
}

var _ hub.Sender = (*Client)(nil)

// ServeHTTP handles the websocket upgrade and blocks until the viewer leaves.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	protocol, responseHeader := negotiateSubprotocol(r)

	h.logger.Debug("websocket subprotocol negotiated",
		zap.String("protocol", protocol),
		zap.Strings("requested", websocket.Subprotocols(r)),
	)

	conn, err := upgrader.Upgrade(w, r, responseHeader)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		conn:     conn,
		connID:   uuid.New().String(),
		protocol: protocol,
		encoder:  h.encoder,
		logger:   h.logger,
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go client.readPump(cancel)
	go client.pingPump(ctx)

	err = h.hub.Serve(ctx, hub.Subscription{
		ID:        client.connID,
		Transport: "ws",
		Remote:    r.RemoteAddr,
		Sender:    client,
	})
	if err != nil && !errors.Is(err, hub.ErrClosed) {
		h.logger.Debug("websocket viewer dropped",
			zap.String("connID", client.connID),
			zap.Error(err),
		)
	}

	client.close()
}

// Send writes one frame. Writes are serialized; each gets its own deadline.
func (c *Client) Send(ctx context.Context, msg hub.Message) error {
	msgType, data, err := c.encoder.Encode(c.protocol, msg)
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	c.conn.SetWriteDeadline(deadline)
	return c.conn.WriteMessage(msgType, data)
}

// readPump drains the connection so control frames are processed, and
// cancels the viewer's context once the peer goes away.
func (c *Client) readPump(cancel context.CancelFunc) {
	defer cancel()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error",
					zap.String("connID", c.connID),
					zap.Error(err),
				)
			}
			return
		}
	}
}

// pingPump keeps idle connections alive, e.g. after playback has finished.
func (c *Client) pingPump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *Client) close() {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.conn.Close()
}

// negotiateSubprotocol picks the first supported protocol the viewer asked
// for. Viewers that ask for nothing get JSON, like the original monitor.
func negotiateSubprotocol(r *http.Request) (string, http.Header) {
	for _, proto := range websocket.Subprotocols(r) {
		switch proto {
		case ProtocolProtobuf, ProtocolJSON:
			return proto, http.Header{"Sec-WebSocket-Protocol": {proto}}
		}
	}
	return ProtocolJSON, nil
}
