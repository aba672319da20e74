package executor

import "time"

// SetClock overrides the cache clock so tests can advance time.
func SetClock(e *Executor, fn func() time.Time) {
	e.clock = fn
}
