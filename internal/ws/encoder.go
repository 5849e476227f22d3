package ws

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dgnsrekt/matchcast/internal/hub"
)

// Encoder converts hub frames to websocket wire format.
//
// JSON viewers get the recorded payload verbatim in a text frame. Protobuf
// viewers get a google.protobuf.Struct envelope {kind, step, payload},
// serialized and compressed with zstd, in a binary frame. payload is the
// recorded JSON text as a string value, so numbers keep their exact digits.
type Encoder struct {
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder

	// Every viewer is sent the same latest step, so remembering the last
	// encoded frame avoids re-encoding it once per connection.
	mu        sync.Mutex
	static    []byte
	lastStep  int
	lastFrame []byte
}

// NewEncoder creates a new Encoder with Zstd compression.
func NewEncoder() (*Encoder, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Encoder{zstdEncoder: enc, zstdDecoder: dec, lastStep: -1}, nil
}

// Encode returns the websocket message type and bytes for msg.
func (e *Encoder) Encode(protocol string, msg hub.Message) (int, []byte, error) {
	if protocol != ProtocolProtobuf {
		return websocket.TextMessage, msg.Payload, nil
	}

	e.mu.Lock()
	if msg.Kind == hub.KindStatic && e.static != nil {
		frame := e.static
		e.mu.Unlock()
		return websocket.BinaryMessage, frame, nil
	}
	if msg.Kind == hub.KindStep && msg.Step == e.lastStep {
		frame := e.lastFrame
		e.mu.Unlock()
		return websocket.BinaryMessage, frame, nil
	}
	e.mu.Unlock()

	frame, err := e.encodeProtobuf(msg)
	if err != nil {
		return 0, nil, err
	}

	e.mu.Lock()
	if msg.Kind == hub.KindStatic {
		e.static = frame
	} else if msg.Step > e.lastStep {
		e.lastStep, e.lastFrame = msg.Step, frame
	}
	e.mu.Unlock()

	return websocket.BinaryMessage, frame, nil
}

func (e *Encoder) encodeProtobuf(msg hub.Message) ([]byte, error) {
	if !json.Valid(msg.Payload) {
		return nil, fmt.Errorf("%s payload is not valid JSON", msg.Kind)
	}

	envelope := &structpb.Struct{
		Fields: map[string]*structpb.Value{
			"kind":    structpb.NewStringValue(string(msg.Kind)),
			"step":    structpb.NewNumberValue(float64(msg.Step)),
			"payload": structpb.NewStringValue(string(msg.Payload)),
		},
	}

	pbData, err := proto.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal protobuf: %w", err)
	}

	return e.zstdEncoder.EncodeAll(pbData, nil), nil
}

// Decode reverses the protobuf encoding. Viewers written in Go, and the
// tests, use it to read binary frames.
func (e *Encoder) Decode(frame []byte) (hub.Message, error) {
	pbData, err := e.zstdDecoder.DecodeAll(frame, nil)
	if err != nil {
		return hub.Message{}, fmt.Errorf("decompress frame: %w", err)
	}

	var envelope structpb.Struct
	if err := proto.Unmarshal(pbData, &envelope); err != nil {
		return hub.Message{}, fmt.Errorf("unmarshal protobuf: %w", err)
	}

	fields := envelope.GetFields()
	return hub.Message{
		Kind:    hub.Kind(fields["kind"].GetStringValue()),
		Step:    int(fields["step"].GetNumberValue()),
		Payload: json.RawMessage(fields["payload"].GetStringValue()),
	}, nil
}

// Close releases encoder resources.
func (e *Encoder) Close() {
	if e.zstdEncoder != nil {
		e.zstdEncoder.Close()
	}
	if e.zstdDecoder != nil {
		e.zstdDecoder.Close()
	}
}
