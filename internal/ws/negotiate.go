package ws

import (
	"fmt"
	"net/http"
)

// Endpoints are the absolute URLs of the live routes as a viewer sees them.
type Endpoints struct {
	Monitor string
	Events  string
	Status  string
}

// EndpointsFor builds the live route URLs from the request host so they
// work behind a port mapping or a TLS-terminating proxy.
func EndpointsFor(r *http.Request) Endpoints {
	wsScheme, httpScheme := "ws", "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		wsScheme, httpScheme = "wss", "https"
	}

	return Endpoints{
		Monitor: fmt.Sprintf("%s://%s/live/monitor", wsScheme, r.Host),
		Events:  fmt.Sprintf("%s://%s/live/events", httpScheme, r.Host),
		Status:  fmt.Sprintf("%s://%s/status", httpScheme, r.Host),
	}
}

// Subprotocols lists the accepted websocket subprotocols in preference order.
func Subprotocols() []string {
	return []string{ProtocolJSON, ProtocolProtobuf}
}
