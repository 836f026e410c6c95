// Package scan provides scan sessions: the server-side state machines
// that turn camera decode events, keyboard-wedge keystrokes, and manual
// entry into validated device-ID candidates for a draft.
package scan

import "time"

// Config holds per-session timing thresholds.
type Config struct {
	// CameraRepeatWindow drops a repeat of the immediately-previous
	// camera code arriving within this window (decoder bounce).
	CameraRepeatWindow time.Duration

	// WedgeGapThreshold resets the keystroke buffer when the inter-key
	// gap exceeds it (human typing vs. scanner burst).
	WedgeGapThreshold time.Duration

	// SessionIdleTimeout tears down sessions without activity.
	SessionIdleTimeout time.Duration
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		CameraRepeatWindow: 500 * time.Millisecond,
		WedgeGapThreshold:  120 * time.Millisecond,
		SessionIdleTimeout: 5 * time.Minute,
	}
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return realClock{} }
