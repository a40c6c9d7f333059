//go:build !linux

// Package inhibit keeps the display awake for the duration of a run.
// Only implemented for Linux desktops; elsewhere it is a no-op.
package inhibit

import "predlab/internal/logging"

// Inhibitor is inert on this platform.
type Inhibitor struct{}

// Acquire is a no-op on this platform.
func Acquire(reason string, log *logging.Logger) *Inhibitor {
	return &Inhibitor{}
}

// Release is a no-op on this platform.
func (i *Inhibitor) Release() {}
