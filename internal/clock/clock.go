// Package clock abstracts the current time so that expiry logic can be
// exercised deterministically in tests.  All times are UTC.
package clock

import "time"

// Clock supplies the current instant to components that compare
// against reservation expiries.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a Clock backed by time.Now in UTC.
func NewSystem() Clock { return systemClock{} }

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Fixed is a Clock pinned to a single instant.  Tests can advance it
// between calls by replacing the value.
type Fixed struct {
	Instant time.Time
}

// NewFixed returns a Clock that always reports t (normalised to UTC).
func NewFixed(t time.Time) *Fixed { return &Fixed{Instant: t.UTC()} }

func (f *Fixed) Now() time.Time { return f.Instant }

// Advance moves the fixed instant forward by d.
func (f *Fixed) Advance(d time.Duration) { f.Instant = f.Instant.Add(d) }
