package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// PaymentSweeper is implemented by service.PaymentService
type PaymentSweeper interface {
	MarkExpiredPayments(ctx context.Context) (int, error)
}

// PaymentExpirationJob reconciles PENDING payments against the provider on a fixed interval
type PaymentExpirationJob struct {
	runner   *runner
	interval time.Duration
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func NewPaymentExpirationJob(sweeper PaymentSweeper, interval time.Duration) (*PaymentExpirationJob, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid payment sweep interval %s", interval)
	}
	return &PaymentExpirationJob{
		runner:   &runner{name: "payment_expiration", sweep: sweeper.MarkExpiredPayments},
		interval: interval,
		done:     make(chan struct{}),
	}, nil
}

func (j *PaymentExpirationJob) Start(ctx context.Context) {
	slog.Info("Starting payment expiration job", "check_interval", j.interval.String())

	j.ticker = time.NewTicker(j.interval)

	j.runner.wg.Add(1)
	go func() {
		defer j.runner.wg.Done()
		for {
			select {
			case <-j.ticker.C:
				j.runner.spawn(ctx)
			case <-j.done:
				slog.Info("Payment expiration job stopped")
				return
			case <-ctx.Done():
				slog.Info("Payment expiration job stopped", "reason", ctx.Err())
				return
			}
		}
	}()
}

// Stop waits for a sweep in progress, see BookingExpirationJob.Stop
func (j *PaymentExpirationJob) Stop() {
	j.stopOnce.Do(func() {
		if j.ticker != nil {
			j.ticker.Stop()
		}
		close(j.done)
	})
	j.runner.wait()
}
