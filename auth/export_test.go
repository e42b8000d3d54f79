package auth

import "time"

// SetClock replaces the sweeper's clock and timer source.
func (sw *Sweeper) SetClock(now func() time.Time, after func(time.Duration) <-chan time.Time) {
	sw.now = now
	sw.after = after
}
