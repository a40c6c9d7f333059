// Package timing stamps "word became visible" and "participant began
// responding" against the monotonic clock and reconciles the pair into a
// single response time per prediction opportunity.
//
// The two stamps are produced by independently scheduled callbacks
// (render-commit acknowledgment, input focus, first keystroke, and a backup
// timer) that may fire in any relative order. Each stamp is written at most
// once per armed opportunity: later attempts are no-ops, so whichever
// trigger fires first is authoritative regardless of source. A single
// misordered stamp corrupts a scientific measurement instead of crashing,
// which is why every write here is guarded rather than trusted.
package timing

import (
	"sync"

	"predlab/internal/clock"
	"predlab/internal/logging"
)

// Outcome is the reconciled result of one prediction opportunity.
type Outcome struct {
	// ResponseMs is max(0, input start - display commit). Zero when either
	// stamp is missing or the raw difference was negative.
	ResponseMs clock.Millis

	// DisplayMs and InputMs are the raw stamps. A missing stamp is
	// exported as zero so a timing gap stays distinguishable downstream.
	DisplayMs clock.Millis
	InputMs   clock.Millis

	// Gap marks an opportunity that completed without both stamps.
	Gap bool

	// Anomaly marks an inverted pair: both stamps exist but input start
	// preceded display commit. The raw negative interval is clamped to 0.
	Anomaly bool
}

// Capture owns the single in-flight timing sample. It is the only mutable
// resource touched by multiple event sources, so every method serializes on
// the capture mutex.
type Capture struct {
	mu  sync.Mutex
	clk clock.Clock
	log *logging.Logger

	armed bool
	seq   uint64

	display    clock.Millis
	displaySet bool
	input      clock.Millis
	inputSet   bool
}

// New creates a Capture using clk as its sole time source.
func New(clk clock.Clock, log *logging.Logger) *Capture {
	if log == nil {
		log = logging.Default()
	}
	return &Capture{clk: clk, log: log.WithComponent("timing")}
}

// Arm resets the sample to fully unset and begins a new prediction
// opportunity. It returns the opportunity sequence number, which callers
// use to discard stale timer callbacks. Arm must run before the
// opportunity's content becomes visible to the participant.
func (c *Capture) Arm() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.armed = true
	c.display, c.displaySet = 0, false
	c.input, c.inputSet = 0, false
	return c.seq
}

// Seq returns the sequence number of the current opportunity.
func (c *Capture) Seq() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// RecordDisplayCommitted stamps the display time iff it is unset and an
// opportunity is armed. Callers must invoke this only after the rendering
// surface has durably committed the new word sequence to the screen, not
// merely after requesting a render. Returns true when this call wrote the
// stamp.
func (c *Capture) RecordDisplayCommitted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.armed || c.displaySet {
		return false
	}
	c.display = c.clk.Now()
	c.displaySet = true
	return true
}

// RecordInputStarted stamps the input-start time iff it is unset and an
// opportunity is armed. It is triggered by whichever fires first among
// focus gained, first keystroke, and the post-commit backup timer; the
// iff-unset guard is what makes the multiple trigger paths safe. Returns
// true when this call wrote the stamp.
func (c *Capture) RecordInputStarted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.armed || c.inputSet {
		return false
	}
	c.input = c.clk.Now()
	c.inputSet = true
	return true
}

// Reconcile closes the current opportunity and returns its Outcome.
// Missing stamps yield a timing gap; an inverted pair yields an ordering
// anomaly with the response clamped to zero. Both degraded cases are
// logged, never fatal. After Reconcile the capture is disarmed until the
// next Arm.
func (c *Capture) Reconcile() Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := Outcome{}
	if c.displaySet {
		out.DisplayMs = c.display
	}
	if c.inputSet {
		out.InputMs = c.input
	}

	switch {
	case !c.displaySet || !c.inputSet:
		out.Gap = true
		c.log.Warn("timing gap: opportunity completed without both stamps",
			"seq", c.seq,
			"display_set", c.displaySet,
			"input_set", c.inputSet)
	case c.input < c.display:
		// Input recorded "before" display: a commit-wait protocol
		// violation upstream. Clamp, flag, keep the record.
		out.Anomaly = true
		c.log.Warn("ordering anomaly: input start precedes display commit",
			"seq", c.seq,
			"display_ms", c.display,
			"input_ms", c.input,
			"raw_interval_ms", c.input-c.display)
	default:
		out.ResponseMs = c.input - c.display
	}

	c.armed = false
	return out
}
