package reconcile

import "time"

// Clock abstracts the engine's suspension points so retry and verification
// behavior is testable without real delays. Production code uses
// SystemClock; tests inject a fake that records sleeps.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for the given duration.
	Sleep(d time.Duration)
}

// SystemClock is the wall-clock implementation of Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time        { return time.Now() }
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }
