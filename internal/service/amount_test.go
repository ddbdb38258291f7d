package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "homerent/internal/errors"
	"homerent/internal/models"
)

func TestNightsBetween(t *testing.T) {
	tests := []struct {
		name    string
		in, out time.Time
		want    int64
	}{
		{"four nights", mustDate("2025-06-01"), mustDate("2025-06-05"), 4},
		{"same day", mustDate("2025-06-01"), mustDate("2025-06-01"), 0},
		{"inverted", mustDate("2025-06-05"), mustDate("2025-06-01"), 0},
		{"across month", mustDate("2025-01-30"), mustDate("2025-02-02"), 3},
		{"time of day ignored", time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC), time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NightsBetween(tt.in, tt.out))
		})
	}
}

func TestTotalAmount(t *testing.T) {
	rate := decimal.RequireFromString("89.99")

	got := TotalAmount(rate, mustDate("2025-06-01"), mustDate("2025-06-04"))
	assert.True(t, decimal.RequireFromString("269.97").Equal(got), got.String())

	assert.True(t, TotalAmount(rate, mustDate("2025-06-01"), mustDate("2025-06-01")).IsZero())
}

func TestIsAvailable(t *testing.T) {
	store := newMemStore()
	checker := NewAvailabilityChecker(accommodationStore{store}, bookingStore{store})
	a := store.addAccommodation(2, 90)
	none := store.addAccommodation(0, 90)
	store.addBooking(a.ID, 1, "2025-06-01", "2025-06-05", models.BookingPending)

	ok, err := checker.IsAvailable(context.Background(), a.ID, mustDate("2025-06-03"), mustDate("2025-06-07"))
	require.NoError(t, err)
	assert.True(t, ok)

	store.addBooking(a.ID, 2, "2025-06-04", "2025-06-06", models.BookingConfirmed)
	ok, err = checker.IsAvailable(context.Background(), a.ID, mustDate("2025-06-03"), mustDate("2025-06-07"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = checker.IsAvailable(context.Background(), none.ID, mustDate("2025-06-03"), mustDate("2025-06-07"))
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = checker.IsAvailable(context.Background(), 999, mustDate("2025-06-03"), mustDate("2025-06-07"))
	assert.True(t, errs.IsNotFound(err))
}
