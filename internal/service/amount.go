package service

import (
	"time"

	"github.com/shopspring/decimal"
)

// NightsBetween counts whole calendar days between the UTC dates of checkin and checkout.
// Non-positive spans yield 0.
func NightsBetween(checkin, checkout time.Time) int64 {
	in := truncateToDate(checkin)
	out := truncateToDate(checkout)
	if !out.After(in) {
		return 0
	}
	return int64(out.Sub(in) / (24 * time.Hour))
}

// TotalAmount = dailyRate * nights
func TotalAmount(dailyRate decimal.Decimal, checkin, checkout time.Time) decimal.Decimal {
	return dailyRate.Mul(decimal.NewFromInt(NightsBetween(checkin, checkout)))
}

func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
