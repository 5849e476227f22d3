package playback

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// State is the Pacer's lifecycle position.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Observer receives pacer progress. *metrics.Metrics satisfies it.
type Observer interface {
	SetStep(step int)
	SetState(state int)
}

// Options configures pacing.
type Options struct {
	// StartDelay is waited once before the first advance. In gated mode the
	// delay starts counting when the gate opens.
	StartDelay time.Duration

	// Interval between two consecutive advances. Must be positive.
	Interval time.Duration

	// Gated makes the Pacer wait for the gate channel to close before
	// starting its delay.
	Gated bool

	// OnFinish, when set, is called once after the last step is published.
	OnFinish func(steps int)
}

// Pacer advances a Cursor once per interval until the last step of the match
// has been published.
type Pacer struct {
	cursor    *Cursor
	stepCount int
	gate      <-chan struct{}
	opts      Options
	observer  Observer
	logger    *zap.Logger
	state     atomic.Int32
}

// NewPacer creates a Pacer for a match of stepCount steps. gate is only
// consulted when opts.Gated is set; a nil gate never opens.
func NewPacer(cursor *Cursor, stepCount int, gate <-chan struct{}, opts Options, observer Observer, logger *zap.Logger) *Pacer {
	return &Pacer{
		cursor:    cursor,
		stepCount: stepCount,
		gate:      gate,
		opts:      opts,
		observer:  observer,
		logger:    logger,
	}
}

// State returns the current lifecycle state.
func (p *Pacer) State() State {
	return State(p.state.Load())
}

// Run drives playback. Call in a goroutine. It returns nil once the match is
// done, or ctx.Err() if cancelled earlier.
func (p *Pacer) Run(ctx context.Context) error {
	last := p.stepCount - 1
	p.observe(p.cursor.Current())

	if p.cursor.Current() >= last {
		p.logger.Info("nothing to play",
			zap.Int("steps", p.stepCount),
			zap.Int("startStep", p.cursor.Current()),
		)
		p.finish()
		return nil
	}

	if p.opts.Gated {
		p.logger.Info("waiting for first subscriber")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.gate:
		}
	}

	if p.opts.StartDelay > 0 {
		p.logger.Info("playback starting after delay", zap.Duration("delay", p.opts.StartDelay))
		timer := time.NewTimer(p.opts.StartDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	p.setState(StateRunning)
	p.logger.Info("playback started",
		zap.Int("startStep", p.cursor.Current()),
		zap.Int("steps", p.stepCount),
		zap.Duration("interval", p.opts.Interval),
	)

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pacer stopping", zap.Int("step", p.cursor.Current()))
			return ctx.Err()

		case <-ticker.C:
			step := p.cursor.Advance()
			p.observe(step)
			p.logger.Debug("step", zap.Int("step", step), zap.Int("last", last))

			if step >= last {
				p.finish()
				return nil
			}
		}
	}
}

func (p *Pacer) finish() {
	p.cursor.Finish()
	p.setState(StateDone)
	p.logger.Info("playback done", zap.Int("step", p.cursor.Current()))
	if p.opts.OnFinish != nil {
		p.opts.OnFinish(p.stepCount)
	}
}

func (p *Pacer) setState(s State) {
	p.state.Store(int32(s))
	if p.observer != nil {
		p.observer.SetState(int(s))
	}
}

func (p *Pacer) observe(step int) {
	if p.observer != nil {
		p.observer.SetStep(step)
	}
}
