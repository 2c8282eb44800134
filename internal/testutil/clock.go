// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"sync"

	"github.com/fluxsocial/socialdna/internal/model"
)

// DefaultStart is the first timestamp a DeterministicClock returns.
const DefaultStart model.Timestamp = 1_700_000_000_000

// DeterministicClock returns strictly increasing timestamps, one step apart.
//
// Unlike clock.Monotonic it can be reset, so a test scenario replays with
// identical created_at values.
//
// Thread-safety: all methods are safe for concurrent use.
type DeterministicClock struct {
	mu    sync.Mutex
	start model.Timestamp
	step  model.Timestamp
	next  model.Timestamp
}

// NewDeterministicClock returns a clock starting at DefaultStart with a 1ms step.
func NewDeterministicClock() *DeterministicClock {
	return NewDeterministicClockAt(DefaultStart, 1)
}

// NewDeterministicClockAt returns a clock starting at start, advancing by step.
func NewDeterministicClockAt(start, step model.Timestamp) *DeterministicClock {
	return &DeterministicClock{start: start, step: step, next: start}
}

// Now returns the next timestamp.
func (c *DeterministicClock) Now() model.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next += c.step
	return now
}

// Advance moves the clock forward by d without returning a value.
func (c *DeterministicClock) Advance(d model.Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next += d
}

// Peek returns what the next Now call will return.
func (c *DeterministicClock) Peek() model.Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Reset rewinds the clock to its start.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next = c.start
}
