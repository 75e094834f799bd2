// Package clock abstracts time for replay scheduling so playback can be
// driven deterministically in tests.
package clock

import (
	"context"
	"sync"
	"time"
)

// Clock supplies the current time and a cancelable sleep. Every suspension
// point in the replay path goes through a Clock so pause and stop behave
// uniformly.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// System is the wall clock.
type System struct{}

// NewSystem returns the wall clock.
func NewSystem() *System {
	return &System{}
}

// Now returns the current wall time.
func (*System) Now() time.Time {
	return time.Now()
}

// Sleep blocks for d or until ctx is canceled, whichever comes first.
// Non-positive durations return immediately, still observing cancellation.
func (*System) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Manual is a test clock. Sleep returns immediately, advancing the fake time
// by the requested duration and recording it for later assertions.
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

// NewManual returns a manual clock starting at the given instant.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Now returns the fake current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Sleep advances the fake clock by d without blocking. A canceled context
// still wins, matching the system clock's contract.
func (m *Manual) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	m.now = m.now.Add(d)
	m.sleeps = append(m.sleeps, d)
	return nil
}

// Advance moves the fake clock forward without recording a sleep.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Sleeps returns a copy of every duration requested so far.
func (m *Manual) Sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.sleeps))
	copy(out, m.sleeps)
	return out
}

// TotalSlept sums every recorded sleep.
func (m *Manual) TotalSlept() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total time.Duration
	for _, d := range m.sleeps {
		total += d
	}
	return total
}
