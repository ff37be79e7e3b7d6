// internal/game/clock.go
//
// Injected time sources. The engine stamps game completion and the session
// schedules the wrong-reveal window through these, so tests control both.

package game

import "time"

// Clock supplies the current time for completion stamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock, in UTC.
func SystemClock() Clock { return systemClock{} }

// WrongRevealWindow is how long a missed submission stays highlighted before
// the selection clears and input is accepted again.
const WrongRevealWindow = 450 * time.Millisecond

// CancelFunc stops a scheduled callback from firing. Calling it after the
// callback ran, or calling it twice, is harmless.
type CancelFunc func()

// Scheduler runs one deferred callback. The production implementation wraps
// time.AfterFunc; tests substitute a hand-driven one so the reveal window is
// deterministic.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) CancelFunc
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// TimerScheduler returns the real-time Scheduler.
func TimerScheduler() Scheduler { return timerScheduler{} }
