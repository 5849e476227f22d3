package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind distinguishes the two frames a viewer ever receives.
type Kind string

const (
	KindStatic Kind = "static"
	KindStep   Kind = "step"
)

// Message is one frame for one viewer. Payload is the recorded JSON, passed
// through unchanged; framing and encoding belong to the transport.
type Message struct {
	Kind    Kind
	Step    int
	Payload json.RawMessage
}

// Sender pushes frames to a single viewer. Send blocks until the transport
// has accepted the frame or failed; an error means the viewer is gone.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Subscription describes a viewer attaching through some transport.
type Subscription struct {
	ID        string
	Transport string
	Remote    string
	Sender    Sender
}

// ErrClosed is returned by Serve once the hub has been shut down.
var ErrClosed = errors.New("hub closed")

// DeliveryError reports a failed send. It only ever concerns one viewer.
type DeliveryError struct {
	Subscriber string
	Step       int
	Kind       Kind
	Err        error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s frame for step %d to %s: %v", e.Kind, e.Step, e.Subscriber, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
