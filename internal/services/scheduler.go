package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"journeyinbox/internal/models"
)

// Dispatcher is what the scheduler runs once a day.
type Dispatcher interface {
	Dispatch(ctx context.Context, today time.Time) *DispatchReport
}

// Scheduler runs the dispatcher every day at a fixed hour in a time zone.
type Scheduler struct {
	dispatcher Dispatcher
	loc        *time.Location
	hour       int
	now        func() time.Time
	log        zerolog.Logger
}

func NewScheduler(dispatcher Dispatcher, loc *time.Location, hour int, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		dispatcher: dispatcher,
		loc:        loc,
		hour:       hour,
		now:        time.Now,
		log:        log.With().Str("service", "Scheduler").Logger(),
	}
}

// Start runs the schedule in the background until ctx is canceled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Scheduler) run(ctx context.Context) {
	for {
		next := NextRun(s.now(), s.loc, s.hour)
		s.log.Info().Time("next_run", next).Msg("Waiting for next prompt run")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		s.RunOnce(ctx)
	}
}

// RunOnce dispatches prompts for the current local date.
func (s *Scheduler) RunOnce(ctx context.Context) *DispatchReport {
	today := models.LocalDate(s.now(), s.loc)
	return s.dispatcher.Dispatch(ctx, today)
}

// NextRun is the first instant after now at hour:00 local time in loc.
func NextRun(now time.Time, loc *time.Location, hour int) time.Time {
	local := now.In(loc)
	y, m, d := local.Date()
	next := time.Date(y, m, d, hour, 0, 0, 0, loc)
	if !next.After(local) {
		next = time.Date(y, m, d+1, hour, 0, 0, 0, loc)
	}
	return next
}
