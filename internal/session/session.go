// Package session holds participant identity and run metadata for one
// experiment run.
//
// A Session is created once per run and passed explicitly into each
// component that needs identity fields; there are no ambient globals. It is
// destroyed with the process and never persisted across runs.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"predlab/internal/clock"
)

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("session already started")

// Demographics holds the participant fields captured before start.
// Label is the operator-assigned participant code; everything else is
// optional unless intake policy requires it.
type Demographics struct {
	Label          string `json:"label"`
	Age            int    `json:"age,omitempty"`
	Sex            string `json:"sex,omitempty"`
	Handedness     string `json:"handedness,omitempty"`
	NativeLanguage string `json:"native_language,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// Session is the singleton context for one experiment run.
type Session struct {
	mu sync.Mutex

	// ID is generated once and stable for the run. It combines the
	// wall-clock run timestamp with a random component so concurrent
	// runs on shared storage cannot collide.
	ID string

	// Participant holds the validated demographics.
	Participant Demographics

	// Seed is per-run random key material for ledger sealing.
	Seed [32]byte

	// CreatedAt is wall-clock creation time, used only for human-readable
	// metadata and export filenames.
	CreatedAt time.Time

	startMs clock.Millis
	started bool
}

// New creates a Session for the given participant.
func New(d Demographics) (*Session, error) {
	var randPart [4]byte
	if _, err := rand.Read(randPart[:]); err != nil {
		return nil, fmt.Errorf("generate participant id: %w", err)
	}

	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("generate run seed: %w", err)
	}

	now := time.Now()
	return &Session{
		ID:          fmt.Sprintf("%s-%s-%s", sanitizeLabel(d.Label), now.Format("20060102T150405"), hex.EncodeToString(randPart[:])),
		Participant: d,
		Seed:        seed,
		CreatedAt:   now,
	}, nil
}

// Start records the experiment start instant on the monotonic clock.
// It fails if the session was already started.
func (s *Session) Start(clk clock.Clock) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrAlreadyStarted
	}
	s.startMs = clk.Now()
	s.started = true
	return nil
}

// Started reports whether the run has begun.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// StartMillis returns the monotonic experiment start reading. Zero before
// Start.
func (s *Session) StartMillis() clock.Millis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startMs
}

// sanitizeLabel keeps participant labels filename-safe. An empty label
// becomes "P000" so the ID format stays stable.
func sanitizeLabel(label string) string {
	if label == "" {
		return "P000"
	}
	out := make([]rune, 0, len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
