package engine

import (
	"sort"
	"sync"
	"time"
)

// Scheduler schedules the engine's delayed callbacks (settle delay, input
// backup, auto-advance, inter-step pause). All delays are scheduled
// callbacks, never busy-waits; nothing in the engine blocks.
type Scheduler interface {
	// After runs fn once d has elapsed and returns a cancel function.
	After(d time.Duration, fn func()) (cancel func())
}

// TimerScheduler is the production Scheduler backed by time.AfterFunc.
type TimerScheduler struct{}

// NewTimerScheduler returns the production scheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{}
}

// After implements Scheduler.
func (*TimerScheduler) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// ManualScheduler is a deterministic Scheduler for tests: time only moves
// when Advance is called, and due callbacks fire in deadline order on the
// caller's goroutine.
type ManualScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	nextID  int
	pending []*manualTimer
}

type manualTimer struct {
	id       int
	deadline time.Duration
	fn       func()
	stopped  bool
}

// NewManualScheduler returns an empty manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// After implements Scheduler.
func (s *ManualScheduler) After(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	t := &manualTimer{id: s.nextID, deadline: s.now + d, fn: fn}
	s.pending = append(s.pending, t)
	return func() {
		s.mu.Lock()
		t.stopped = true
		s.mu.Unlock()
	}
}

// Advance moves virtual time forward by d, firing every due callback in
// deadline order (ties break by scheduling order). Callbacks may schedule
// further timers; those fire too if they fall within the advanced window.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	s.mu.Unlock()

	for {
		t := s.popDue(target)
		if t == nil {
			break
		}
		t.fn()
	}

	s.mu.Lock()
	s.now = target
	s.mu.Unlock()
}

func (s *ManualScheduler) popDue(target time.Duration) *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	sort.SliceStable(s.pending, func(i, j int) bool {
		if s.pending[i].deadline != s.pending[j].deadline {
			return s.pending[i].deadline < s.pending[j].deadline
		}
		return s.pending[i].id < s.pending[j].id
	})

	for i, t := range s.pending {
		if t.stopped {
			continue
		}
		if t.deadline > target {
			break
		}
		s.pending = append(s.pending[:i:i], s.pending[i+1:]...)
		if t.deadline > s.now {
			s.now = t.deadline
		}
		return t
	}

	// Drop stopped timers that are due.
	kept := s.pending[:0]
	for _, t := range s.pending {
		if !(t.stopped && t.deadline <= target) {
			kept = append(kept, t)
		}
	}
	s.pending = kept
	return nil
}
