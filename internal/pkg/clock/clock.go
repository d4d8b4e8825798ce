package clock

import "time"

// Clock abstracts time for the timer-driven parts of the companion
// (request expiry, credential disclosure windows) so tests can drive
// them deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the stoppable handle returned by AfterFunc.
type Timer interface {
	Stop() bool
}

// Real is the wall-clock implementation used outside tests.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
