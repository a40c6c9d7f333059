// Package clock provides the monotonic time source for response-time
// measurement.
//
// All response-time arithmetic in predlab runs on fractional-millisecond
// readings from a Clock. Wall-clock time appears only in human-readable
// record metadata; it is never subtracted from a Clock reading.
package clock

import (
	"sync"
	"time"
)

// Millis is an instant or duration in fractional milliseconds.
type Millis = float64

// Clock yields monotonically non-decreasing timestamps in fractional
// milliseconds. Two immediately successive readings may be equal.
type Clock interface {
	Now() Millis
}

// Monotonic reads the process monotonic clock, anchored at construction.
// Go's time package carries a monotonic reading in every time.Time, so the
// value is immune to wall-clock adjustments.
type Monotonic struct {
	base time.Time
}

// NewMonotonic returns a Monotonic clock anchored at the current instant.
func NewMonotonic() *Monotonic {
	return &Monotonic{base: time.Now()}
}

// Now returns fractional milliseconds elapsed since the clock was created.
func (m *Monotonic) Now() Millis {
	return float64(time.Since(m.base).Nanoseconds()) / 1e6
}

// Manual is a hand-advanced clock for tests.
type Manual struct {
	mu  sync.Mutex
	now Millis
}

// NewManual returns a Manual clock starting at the given reading.
func NewManual(start Millis) *Manual {
	return &Manual{now: start}
}

// Now returns the current manual reading.
func (m *Manual) Now() Millis {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d milliseconds. Negative advances are
// ignored so the clock stays monotone.
func (m *Manual) Advance(d Millis) {
	if d < 0 {
		return
	}
	m.mu.Lock()
	m.now += d
	m.mu.Unlock()
}
