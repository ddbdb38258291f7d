package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextRun(t *testing.T) {
	loc := time.UTC

	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{"later today", time.Date(2025, 5, 20, 10, 0, 0, 0, loc), time.Date(2025, 5, 20, 23, 50, 0, 0, loc)},
		{"exactly at run time", time.Date(2025, 5, 20, 23, 50, 0, 0, loc), time.Date(2025, 5, 21, 23, 50, 0, 0, loc)},
		{"after run time", time.Date(2025, 5, 20, 23, 55, 0, 0, loc), time.Date(2025, 5, 21, 23, 50, 0, 0, loc)},
		{"month rollover", time.Date(2025, 5, 31, 23, 59, 0, 0, loc), time.Date(2025, 6, 1, 23, 50, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextRun(tt.now, 23, 50))
		})
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := parseClock("23:50")
	require.NoError(t, err)
	assert.Equal(t, 23, h)
	assert.Equal(t, 50, m)

	for _, bad := range []string{"", "25:00", "noon", "23:5x"} {
		_, _, err := parseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestRunnerSkipsOverlappingRuns(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var calls atomic.Int32

	r := &runner{name: "test", sweep: func(ctx context.Context) (int, error) {
		calls.Add(1)
		close(entered)
		<-release
		return 1, nil
	}}

	finished := make(chan bool)
	go func() { finished <- r.run(context.Background()) }()
	<-entered

	assert.False(t, r.run(context.Background()), "second run must be skipped while the first is in progress")

	close(release)
	assert.True(t, <-finished)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRunnerSwallowsErrorsAndPanics(t *testing.T) {
	failing := &runner{name: "failing", sweep: func(context.Context) (int, error) {
		return 0, errors.New("db down")
	}}
	assert.True(t, failing.run(context.Background()))
	assert.True(t, failing.run(context.Background()), "a failed run must not block the next one")

	panicking := &runner{name: "panicking", sweep: func(context.Context) (int, error) {
		panic("boom")
	}}
	assert.NotPanics(t, func() { panicking.run(context.Background()) })
	assert.False(t, panicking.running.Load())
}

type countingSweeper struct {
	calls atomic.Int32
}

func (s *countingSweeper) MarkExpiredPayments(context.Context) (int, error) {
	s.calls.Add(1)
	return 0, nil
}

func (s *countingSweeper) MarkExpiredBookings(context.Context) (int, error) {
	s.calls.Add(1)
	return 0, nil
}

func TestPaymentExpirationJobTicks(t *testing.T) {
	sweeper := &countingSweeper{}
	job, err := NewPaymentExpirationJob(sweeper, 10*time.Millisecond)
	require.NoError(t, err)

	job.Start(context.Background())
	assert.Eventually(t, func() bool { return sweeper.calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	job.Stop()
	job.Stop()
}

func TestNewPaymentExpirationJobRejectsZeroInterval(t *testing.T) {
	_, err := NewPaymentExpirationJob(&countingSweeper{}, 0)
	assert.Error(t, err)
}

func TestBookingExpirationJobStops(t *testing.T) {
	sweeper := &countingSweeper{}
	job, err := NewBookingExpirationJob(sweeper, "23:50")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job.Start(ctx)
	job.Stop()
	job.Stop()
	assert.Zero(t, sweeper.calls.Load())

	_, err = NewBookingExpirationJob(sweeper, "late evening")
	assert.Error(t, err)
}

type blockingSweeper struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
	done    atomic.Bool
}

func (s *blockingSweeper) MarkExpiredPayments(context.Context) (int, error) {
	s.once.Do(func() { close(s.entered) })
	<-s.release
	s.done.Store(true)
	return 1, nil
}

func TestStopWaitsForSweepInProgress(t *testing.T) {
	sweeper := &blockingSweeper{entered: make(chan struct{}), release: make(chan struct{})}
	job, err := NewPaymentExpirationJob(sweeper, 5*time.Millisecond)
	require.NoError(t, err)

	job.Start(context.Background())
	<-sweeper.entered

	stopped := make(chan struct{})
	go func() {
		job.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a sweep was still writing")
	case <-time.After(50 * time.Millisecond):
	}

	close(sweeper.release)
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the sweep finished")
	}
	assert.True(t, sweeper.done.Load())
}
