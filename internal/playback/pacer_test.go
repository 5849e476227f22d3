package playback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stepRecord struct {
	step int
	at   time.Time
}

// recorder captures every step the pacer reports, in order.
type recorder struct {
	mu     sync.Mutex
	steps  []stepRecord
	states []int
}

func (r *recorder) SetStep(step int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, stepRecord{step: step, at: time.Now()})
}

func (r *recorder) SetState(state int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

// increments drops the initial observation made before any advance.
func (r *recorder) increments() []stepRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.steps) == 0 {
		return nil
	}
	return append([]stepRecord(nil), r.steps[1:]...)
}

func runPacer(t *testing.T, p *Pacer) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()
	return done
}

func waitDone(t *testing.T, done <-chan error, timeout time.Duration) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(timeout):
		t.Fatal("pacer did not finish in time")
	}
}

func TestPacer_ImmediateMode(t *testing.T) {
	cursor := NewCursor(0)
	rec := &recorder{}
	p := NewPacer(cursor, 2, nil, Options{Interval: 100 * time.Millisecond}, rec, zaptest.NewLogger(t))

	start := time.Now()
	done := runPacer(t, p)

	v, err := cursor.Wait(context.Background(), 0)
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.Equal(t, 1, v)
	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
	assert.Less(t, elapsed, 400*time.Millisecond, "step 1 should arrive about one interval after start")

	waitDone(t, done, time.Second)
	assert.Equal(t, StateDone, p.State())
}

func TestPacer_TerminationCount(t *testing.T) {
	tests := []struct {
		name      string
		steps     int
		start     int
		wantIncs  int
		wantFinal int
	}{
		{"from zero", 6, 0, 5, 5},
		{"resume mid match", 6, 2, 3, 5},
		{"single step", 1, 0, 0, 0},
		{"start on last step", 3, 2, 0, 2},
		{"empty match", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor := NewCursor(tt.start)
			rec := &recorder{}
			finished := 0
			opts := Options{
				Interval: 5 * time.Millisecond,
				OnFinish: func(int) { finished++ },
			}
			p := NewPacer(cursor, tt.steps, nil, opts, rec, zaptest.NewLogger(t))

			waitDone(t, runPacer(t, p), 2*time.Second)

			assert.Len(t, rec.increments(), tt.wantIncs)
			assert.Equal(t, tt.wantFinal, cursor.Current())
			assert.True(t, cursor.Finished())
			assert.Equal(t, StateDone, p.State())
			assert.Equal(t, 1, finished)
		})
	}
}

func TestPacer_StepsStrictlyIncrease(t *testing.T) {
	cursor := NewCursor(0)
	rec := &recorder{}
	p := NewPacer(cursor, 20, nil, Options{Interval: 2 * time.Millisecond}, rec, zaptest.NewLogger(t))

	waitDone(t, runPacer(t, p), 2*time.Second)

	incs := rec.increments()
	require.Len(t, incs, 19)
	prev := 0
	for _, r := range incs {
		assert.Equal(t, prev+1, r.step, "pacer never skips or repeats a step")
		prev = r.step
	}
	assert.LessOrEqual(t, cursor.Current(), 19)
}

func TestPacer_GatedMode(t *testing.T) {
	const delay = 200 * time.Millisecond

	cursor := NewCursor(0)
	rec := &recorder{}
	gate := make(chan struct{})
	opts := Options{StartDelay: delay, Interval: 10 * time.Millisecond, Gated: true}
	p := NewPacer(cursor, 3, gate, opts, rec, zaptest.NewLogger(t))

	done := runPacer(t, p)

	// Nothing moves while nobody is watching, no matter how long we wait.
	time.Sleep(2 * delay)
	assert.Empty(t, rec.increments())
	assert.Equal(t, StateIdle, p.State())
	assert.Equal(t, 0, cursor.Current())

	opened := time.Now()
	close(gate)

	waitDone(t, done, 2*time.Second)

	incs := rec.increments()
	require.Len(t, incs, 2)
	assert.Equal(t, 1, incs[0].step)
	assert.GreaterOrEqual(t, incs[0].at.Sub(opened), delay)
	assert.Equal(t, 2, cursor.Current())
}

func TestPacer_ImmediateModeIgnoresGate(t *testing.T) {
	cursor := NewCursor(0)
	gate := make(chan struct{}) // never closed
	p := NewPacer(cursor, 3, gate, Options{Interval: 5 * time.Millisecond}, nil, zaptest.NewLogger(t))

	waitDone(t, runPacer(t, p), time.Second)
	assert.Equal(t, 2, cursor.Current())
}

func TestPacer_CancelWhileGated(t *testing.T) {
	cursor := NewCursor(0)
	p := NewPacer(cursor, 10, make(chan struct{}), Options{Interval: time.Millisecond, Gated: true}, nil, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("pacer ignored cancellation")
	}
	assert.False(t, cursor.Finished())
}

func TestPacer_CancelWhileRunning(t *testing.T) {
	cursor := NewCursor(0)
	p := NewPacer(cursor, 1000, nil, Options{Interval: time.Millisecond}, nil, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	_, err := cursor.Wait(context.Background(), 2)
	require.NoError(t, err)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("pacer ignored cancellation")
	}
	assert.Equal(t, StateRunning, p.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "running", StateRunning.String())
	assert.Equal(t, "done", StateDone.String())
}
