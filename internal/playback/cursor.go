package playback

import (
	"context"
	"errors"
	"sync"
)

// ErrFinished is returned by Wait when playback is over and no step newer
// than the caller's will ever be published.
var ErrFinished = errors.New("playback finished")

// Cursor is the shared "current step" of a broadcast. The Pacer is its only
// writer; any number of goroutines may read or Wait on it.
//
// Every change closes the current changed channel and installs a fresh one,
// so all waiters wake at once and re-read the latest value.
type Cursor struct {
	mu       sync.RWMutex
	current  int
	finished bool
	changed  chan struct{}
}

// NewCursor creates a cursor positioned at start.
func NewCursor(start int) *Cursor {
	return &Cursor{
		current: start,
		changed: make(chan struct{}),
	}
}

// Current returns the step being broadcast.
func (c *Cursor) Current() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Finished reports whether playback has reached its terminal state.
func (c *Cursor) Finished() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.finished
}

// Advance moves the cursor forward by exactly one step and wakes all waiters.
// It returns the new value. Advancing a finished cursor is a no-op.
func (c *Cursor) Advance() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished {
		return c.current
	}
	c.current++
	c.publishLocked()
	return c.current
}

// Finish freezes the cursor. Waiters that are already up to date receive
// ErrFinished.
func (c *Cursor) Finish() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished {
		return
	}
	c.finished = true
	c.publishLocked()
}

// Wait blocks until the cursor holds a value greater than after and returns
// that value. Intermediate values are never reported: if the cursor moved
// several steps while the caller was busy, only the newest one is returned.
func (c *Cursor) Wait(ctx context.Context, after int) (int, error) {
	for {
		c.mu.RLock()
		current, finished, changed := c.current, c.finished, c.changed
		c.mu.RUnlock()

		if current > after {
			return current, nil
		}
		if finished {
			return current, ErrFinished
		}

		select {
		case <-ctx.Done():
			return current, ctx.Err()
		case <-changed:
		}
	}
}

func (c *Cursor) publishLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}
