// Package clock stamps entries with created_at timestamps.
package clock

import (
	"sync/atomic"
	"time"

	"github.com/fluxsocial/socialdna/internal/model"
)

// Clock supplies entry timestamps.
type Clock interface {
	Now() model.Timestamp
}

// Monotonic is a wall clock that never goes backwards within a process.
// A wall-clock step backwards repeats the last value instead.
//
// Thread-safety: Monotonic is safe for concurrent use.
type Monotonic struct {
	last atomic.Int64
	now  func() time.Time
}

// NewMonotonic returns a Monotonic over time.Now.
func NewMonotonic() *Monotonic {
	return &Monotonic{now: time.Now}
}

// NewMonotonicFrom returns a Monotonic over a custom time source.
func NewMonotonicFrom(now func() time.Time) *Monotonic {
	return &Monotonic{now: now}
}

// Now returns max(previous, wall clock) in unix milliseconds.
func (c *Monotonic) Now() model.Timestamp {
	wall := c.now().UnixMilli()
	for {
		prev := c.last.Load()
		if wall <= prev {
			return model.Timestamp(prev)
		}
		if c.last.CompareAndSwap(prev, wall) {
			return model.Timestamp(wall)
		}
	}
}
