package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// BookingSweeper is implemented by service.BookingService
type BookingSweeper interface {
	MarkExpiredBookings(ctx context.Context) (int, error)
}

// BookingExpirationJob expires stale PENDING bookings once a day at a fixed wall-clock time
type BookingExpirationJob struct {
	runner       *runner
	hour, minute int
	now          func() time.Time
	done         chan struct{}
	stopOnce     sync.Once
}

// NewBookingExpirationJob parses at as HH:MM in local time
func NewBookingExpirationJob(sweeper BookingSweeper, at string) (*BookingExpirationJob, error) {
	hour, minute, err := parseClock(at)
	if err != nil {
		return nil, err
	}
	return &BookingExpirationJob{
		runner: &runner{name: "booking_expiration", sweep: sweeper.MarkExpiredBookings},
		hour:   hour,
		minute: minute,
		now:    time.Now,
		done:   make(chan struct{}),
	}, nil
}

func (j *BookingExpirationJob) Start(ctx context.Context) {
	slog.Info("Starting booking expiration job", "run_at", fmt.Sprintf("%02d:%02d", j.hour, j.minute))

	j.runner.wg.Add(1)
	go func() {
		defer j.runner.wg.Done()
		for {
			next := nextRun(j.now(), j.hour, j.minute)
			timer := time.NewTimer(next.Sub(j.now()))

			select {
			case <-timer.C:
				j.runner.spawn(ctx)
			case <-j.done:
				timer.Stop()
				slog.Info("Booking expiration job stopped")
				return
			case <-ctx.Done():
				timer.Stop()
				slog.Info("Booking expiration job stopped", "reason", ctx.Err())
				return
			}
		}
	}()
}

// Stop returns once the schedule loop and any sweep in progress have finished
func (j *BookingExpirationJob) Stop() {
	j.stopOnce.Do(func() { close(j.done) })
	j.runner.wait()
}

// nextRun returns the first hour:minute strictly after now
func nextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func parseClock(v string) (int, int, error) {
	t, err := time.Parse("15:04", v)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid sweep time %q, expected HH:MM: %w", v, err)
	}
	return t.Hour(), t.Minute(), nil
}
