package service

import (
	"context"
	"fmt"
	"time"

	errs "homerent/internal/errors"
)

// AvailabilityChecker решает, осталась ли свободная вместимость на даты
type AvailabilityChecker struct {
	accommodations AccommodationStore
	bookings       BookingStore
}

func NewAvailabilityChecker(accommodations AccommodationStore, bookings BookingStore) *AvailabilityChecker {
	return &AvailabilityChecker{accommodations: accommodations, bookings: bookings}
}

// IsAvailable reports whether fewer bookings than the accommodation's capacity overlap [checkin, checkout].
// Cancelled and expired bookings do not count.
func (c *AvailabilityChecker) IsAvailable(ctx context.Context, accommodationID int64, checkin, checkout time.Time) (bool, error) {
	accommodation, err := c.accommodations.GetByID(ctx, accommodationID)
	if err != nil {
		return false, fmt.Errorf("failed to get accommodation: %w", err)
	}
	if accommodation == nil {
		return false, errs.NotFoundError{Resource: "accommodation", Key: accommodationID}
	}

	overlapping, err := c.bookings.CountOverlapping(ctx, accommodationID, checkin, checkout)
	if err != nil {
		return false, fmt.Errorf("failed to count overlapping bookings: %w", err)
	}

	return accommodation.Availability-1 >= overlapping, nil
}
