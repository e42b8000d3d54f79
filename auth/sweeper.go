package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// NextRun returns the first hour:minute (in now's location) strictly after now.
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Sweeper runs Service.SweepExpired once a day at a fixed time.
type Sweeper struct {
	service *Service
	hour    int
	minute  int
	now     func() time.Time
	after   func(time.Duration) <-chan time.Time
}

func NewSweeper(service *Service, hour, minute int) *Sweeper {
	return &Sweeper{
		service: service,
		hour:    hour,
		minute:  minute,
		now:     time.Now,
		after:   time.After,
	}
}

// Run blocks until ctx is cancelled. A failed sweep is logged and retried
// at the next scheduled time.
func (sw *Sweeper) Run(ctx context.Context) {
	for {
		next := NextRun(sw.now(), sw.hour, sw.minute)
		log.Debug().Time("next_run", next).Msg("Expiry sweep scheduled")

		select {
		case <-ctx.Done():
			return
		case <-sw.after(next.Sub(sw.now())):
		}

		pkceRemoved, sessionsRemoved, err := sw.service.SweepExpired(ctx)
		if err != nil {
			log.Err(err).Msg("Expiry sweep failed")
			continue
		}
		log.Info().
			Int64("pkce_removed", pkceRemoved).
			Int64("sessions_removed", sessionsRemoved).
			Msg("Expiry sweep finished")
	}
}
