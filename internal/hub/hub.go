package hub

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/matchcast/internal/metrics"
	"github.com/dgnsrekt/matchcast/internal/playback"
	"github.com/dgnsrekt/matchcast/internal/replay"
)

// Hub fans the shared cursor out to every attached viewer. Each viewer is
// served by its own goroutine (the caller of Serve), so a slow or broken
// connection never holds up the others or the Pacer.
type Hub struct {
	dataset *replay.Dataset
	cursor  *playback.Cursor
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu     sync.RWMutex
	subs   map[string]*subscriber
	closed bool

	firstAttach chan struct{}
	firstOnce   sync.Once
}

type subscriber struct {
	id          string
	transport   string
	remote      string
	joinStep    int
	connectedAt time.Time
	last        atomic.Int64
	cancel      context.CancelFunc
}

// SubscriberInfo is a read-only view of an attached viewer.
type SubscriberInfo struct {
	ID            string    `json:"id"`
	Transport     string    `json:"transport"`
	Remote        string    `json:"remote"`
	JoinStep      int       `json:"join_step"`
	LastDelivered int       `json:"last_delivered"`
	ConnectedAt   time.Time `json:"connected_at"`
}

// New creates a hub reading frames from dataset and steps from cursor.
func New(dataset *replay.Dataset, cursor *playback.Cursor, m *metrics.Metrics, logger *zap.Logger) *Hub {
	return &Hub{
		dataset:     dataset,
		cursor:      cursor,
		metrics:     m,
		logger:      logger,
		subs:        make(map[string]*subscriber),
		firstAttach: make(chan struct{}),
	}
}

// FirstAttach is closed when the first viewer attaches. Gated playback waits
// on it.
func (h *Hub) FirstAttach() <-chan struct{} {
	return h.firstAttach
}

// Serve attaches a viewer and streams frames to it until ctx is cancelled,
// the hub is closed, or a send fails. The static payload and the frame for
// the current step are always sent first. After that, each wake-up delivers
// only the newest step, so a viewer that fell behind skips straight to the
// present instead of draining a backlog.
//
// Cancellation (the viewer went away) returns nil. A failed send returns a
// *DeliveryError.
func (h *Hub) Serve(ctx context.Context, sub Subscription) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, err := h.attach(sub, cancel)
	if err != nil {
		return err
	}
	defer h.detach(s)

	if err := h.deliver(ctx, s, sub.Sender, KindStatic, s.joinStep); err != nil {
		return err
	}
	if h.dataset.StepCount() == 0 {
		<-ctx.Done()
		return nil
	}
	if err := h.deliver(ctx, s, sub.Sender, KindStep, s.joinStep); err != nil {
		return err
	}

	last := s.joinStep
	for {
		step, err := h.cursor.Wait(ctx, last)
		if errors.Is(err, playback.ErrFinished) {
			// Playback is over; keep the viewer on the final frame until it
			// leaves.
			<-ctx.Done()
			return nil
		}
		if err != nil {
			return nil
		}

		if err := h.deliver(ctx, s, sub.Sender, KindStep, step); err != nil {
			return err
		}
		last = step
	}
}

// Count returns the number of attached viewers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Subscribers lists attached viewers, oldest first.
func (h *Hub) Subscribers() []SubscriberInfo {
	h.mu.RLock()
	infos := make([]SubscriberInfo, 0, len(h.subs))
	for _, s := range h.subs {
		infos = append(infos, SubscriberInfo{
			ID:            s.id,
			Transport:     s.transport,
			Remote:        s.remote,
			JoinStep:      s.joinStep,
			LastDelivered: int(s.last.Load()),
			ConnectedAt:   s.connectedAt,
		})
	}
	h.mu.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ConnectedAt.Before(infos[j].ConnectedAt)
	})
	return infos
}

// Close detaches every viewer and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for _, s := range h.subs {
		s.cancel()
	}
	h.logger.Info("hub closed", zap.Int("subscribers", len(h.subs)))
}

func (h *Hub) attach(sub Subscription, cancel context.CancelFunc) (*subscriber, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}

	s := &subscriber{
		id:          sub.ID,
		transport:   sub.Transport,
		remote:      sub.Remote,
		joinStep:    h.cursor.Current(),
		connectedAt: time.Now(),
		cancel:      cancel,
	}
	s.last.Store(int64(s.joinStep))
	h.subs[s.id] = s
	count := len(h.subs)
	h.mu.Unlock()

	h.firstOnce.Do(func() { close(h.firstAttach) })
	h.metrics.SubscriberAttached()

	h.logger.Info("subscriber attached",
		zap.String("subscriber", s.id),
		zap.String("transport", s.transport),
		zap.String("remote", s.remote),
		zap.Int("joinStep", s.joinStep),
		zap.Int("subscribers", count),
	)
	return s, nil
}

func (h *Hub) detach(s *subscriber) {
	h.mu.Lock()
	if current, ok := h.subs[s.id]; ok && current == s {
		delete(h.subs, s.id)
	}
	count := len(h.subs)
	h.mu.Unlock()

	h.metrics.SubscriberDetached()
	h.logger.Info("subscriber detached",
		zap.String("subscriber", s.id),
		zap.Int64("lastDelivered", s.last.Load()),
		zap.Int("subscribers", count),
	)
}

func (h *Hub) deliver(ctx context.Context, s *subscriber, sender Sender, kind Kind, step int) error {
	msg := Message{Kind: kind, Step: step, Payload: h.dataset.Static()}
	if kind == KindStep {
		payload, err := h.dataset.Snapshot(step)
		if err != nil {
			return err
		}
		msg.Payload = payload
	}

	if err := sender.Send(ctx, msg); err != nil {
		if ctx.Err() != nil {
			// Detached mid-send; not a delivery failure.
			return nil
		}
		h.metrics.DeliveryFailed()
		h.logger.Warn("dropping subscriber after failed send",
			zap.String("subscriber", s.id),
			zap.String("kind", string(kind)),
			zap.Int("step", step),
			zap.Error(err),
		)
		return &DeliveryError{Subscriber: s.id, Step: step, Kind: kind, Err: err}
	}

	s.last.Store(int64(step))
	h.metrics.FrameSent(string(kind))
	return nil
}
