package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	errs "homerent/internal/errors"
	"homerent/internal/logger"
	"homerent/internal/metrics"
	"homerent/internal/models"
	"homerent/internal/repository"
)

type BookingService struct {
	bookings       BookingStore
	payments       PaymentStore
	accommodations AccommodationStore
	availability   *AvailabilityChecker
	checkout       CheckoutProvider
	notifier       Notifier
	now            func() time.Time
}

func NewBookingService(bookings BookingStore, payments PaymentStore, accommodations AccommodationStore, checkout CheckoutProvider, notifier Notifier) *BookingService {
	return &BookingService{
		bookings:       bookings,
		payments:       payments,
		accommodations: accommodations,
		availability:   NewAvailabilityChecker(accommodations, bookings),
		checkout:       checkout,
		notifier:       notifier,
		now:            time.Now,
	}
}

func (s *BookingService) Create(ctx context.Context, actor models.Identity, req *models.CreateBookingRequest) (booking *models.Booking, err error) {
	ctx, span := startSpan(ctx, "BookingService.Create")
	defer func() { endSpan(span, err) }()

	checkin, checkout, err := parseStay(req.CheckinDate, req.CheckoutDate)
	if err != nil {
		return nil, err
	}

	pending, err := s.payments.HasPendingForUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending payments: %w", err)
	}
	if pending {
		return nil, errs.AccessDeniedError{Msg: "you have a pending payment to pay first"}
	}

	available, err := s.availability.IsAvailable(ctx, req.AccommodationID, checkin, checkout)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, errs.AccessDeniedError{Msg: "this accommodation is not available"}
	}

	booking = &models.Booking{
		CheckinDate:     checkin,
		CheckoutDate:    checkout,
		AccommodationID: req.AccommodationID,
		UserID:          actor.UserID,
		Status:          models.BookingPending,
	}

	// повторная проверка вместимости под блокировкой строки объекта
	err = s.bookings.CreateIfAvailable(ctx, booking)
	switch {
	case errors.Is(err, repository.ErrNoCapacity):
		return nil, errs.AccessDeniedError{Msg: "this accommodation is not available"}
	case errors.Is(err, repository.ErrAccommodationNotFound):
		return nil, errs.NotFoundError{Resource: "accommodation", Key: req.AccommodationID}
	case err != nil:
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	metrics.BookingTransition(string(models.BookingPending))
	logger.WithContext(ctx).Info("Booking created",
		"booking_id", booking.ID, "accommodation_id", booking.AccommodationID,
		"checkin", req.CheckinDate, "checkout", req.CheckoutDate)

	s.notifier.Notify(ctx, models.EventBookingCreated, models.BookingCreatedEvent{
		BookingID:       booking.ID,
		AccommodationID: booking.AccommodationID,
		UserID:          booking.UserID,
		CheckinDate:     req.CheckinDate,
		CheckoutDate:    req.CheckoutDate,
		Status:          string(booking.Status),
		Timestamp:       s.now(),
	})

	return booking, nil
}

func (s *BookingService) get(ctx context.Context, id int64) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, errs.NotFoundError{Resource: "booking", Key: id}
	}
	return booking, nil
}

var errBookingChanged = errs.InvalidStateError{Msg: "booking status changed concurrently, retry"}

// releasePayment voids the booking's PENDING payment once the booking is terminal
func (s *BookingService) releasePayment(ctx context.Context, bookingID int64) {
	payment, err := s.payments.GetByBookingID(ctx, bookingID)
	if err != nil {
		logger.WithContext(ctx).Error("Failed to get payment of released booking", "booking_id", bookingID, "error", err)
		return
	}
	if payment == nil || payment.Status != models.PaymentPending {
		return
	}
	voidPayment(ctx, s.payments, s.checkout, s.notifier, payment, s.now())
}

// Cancel is idempotent for an already cancelled booking: nothing is written or notified
func (s *BookingService) Cancel(ctx context.Context, actor models.Identity, id int64) (booking *models.Booking, err error) {
	ctx, span := startSpan(ctx, "BookingService.Cancel")
	defer func() { endSpan(span, err) }()

	booking, err = s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingExpired {
		return nil, errs.InvalidStateError{Msg: "can't cancel expired booking"}
	}
	if err := requireBookingAccess(actor, booking); err != nil {
		return nil, err
	}
	if booking.Status == models.BookingCanceled {
		return booking, nil
	}

	previous := booking.Status
	booking.Status = models.BookingCanceled
	if err := s.bookings.Update(ctx, booking, previous); err != nil {
		if !errors.Is(err, repository.ErrStatusChanged) {
			return nil, fmt.Errorf("failed to cancel booking: %w", err)
		}
		// параллельная отмена уже всё сделала
		if current, getErr := s.get(ctx, id); getErr == nil && current.Status == models.BookingCanceled {
			return current, nil
		}
		return nil, errBookingChanged
	}

	metrics.BookingTransition(string(models.BookingCanceled))
	logger.WithContext(ctx).Info("Booking cancelled", "booking_id", booking.ID, "cancelled_by", actor.UserID)

	now := s.now()
	s.notifier.Notify(ctx, models.EventAccommodationReleased, models.AccommodationReleasedEvent{
		AccommodationID: booking.AccommodationID,
		BookingID:       booking.ID,
		Reason:          "booking cancelled",
		Timestamp:       now,
	})
	s.notifier.Notify(ctx, models.EventBookingCancelled, models.BookingCancelledEvent{
		BookingID:       booking.ID,
		AccommodationID: booking.AccommodationID,
		CancelledBy:     actor.UserID,
		Timestamp:       now,
	})
	s.releasePayment(ctx, booking.ID)

	return booking, nil
}

// UpdateStatus is an administrative override: any status except from CANCELED
func (s *BookingService) UpdateStatus(ctx context.Context, actor models.Identity, id int64, status models.BookingStatus) (booking *models.Booking, err error) {
	ctx, span := startSpan(ctx, "BookingService.UpdateStatus")
	defer func() { endSpan(span, err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, errs.ValidationError{Field: "status", Msg: fmt.Sprintf("unknown booking status %q", status)}
	}

	booking, err = s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if booking.Status == models.BookingCanceled {
		return nil, errs.AccessDeniedError{Msg: "this booking is cancelled"}
	}

	previous := booking.Status
	booking.Status = status
	if err := s.bookings.Update(ctx, booking, previous); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, errBookingChanged
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	metrics.BookingTransition(string(status))
	logger.WithContext(ctx).Info("Booking status overridden",
		"booking_id", booking.ID, "from", previous, "to", status)

	if status.Terminal() && !previous.Terminal() {
		s.notifier.Notify(ctx, models.EventAccommodationReleased, models.AccommodationReleasedEvent{
			AccommodationID: booking.AccommodationID,
			BookingID:       booking.ID,
			Reason:          "status set to " + string(status),
			Timestamp:       s.now(),
		})
		s.releasePayment(ctx, booking.ID)
	}

	return booking, nil
}

// UpdateDetails overwrites dates and accommodation without re-checking availability
func (s *BookingService) UpdateDetails(ctx context.Context, actor models.Identity, id int64, req *models.UpdateBookingRequest) (booking *models.Booking, err error) {
	ctx, span := startSpan(ctx, "BookingService.UpdateDetails")
	defer func() { endSpan(span, err) }()

	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	checkin, checkout, err := parseStay(req.CheckinDate, req.CheckoutDate)
	if err != nil {
		return nil, err
	}

	booking, err = s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	accommodation, err := s.accommodations.GetByID(ctx, req.AccommodationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get accommodation: %w", err)
	}
	if accommodation == nil {
		return nil, errs.NotFoundError{Resource: "accommodation", Key: req.AccommodationID}
	}

	booking.CheckinDate = checkin
	booking.CheckoutDate = checkout
	booking.AccommodationID = req.AccommodationID
	if err := s.bookings.Update(ctx, booking, booking.Status); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, errBookingChanged
		}
		return nil, fmt.Errorf("failed to update booking: %w", err)
	}

	logger.WithContext(ctx).Info("Booking details updated",
		"booking_id", booking.ID, "accommodation_id", booking.AccommodationID,
		"checkin", req.CheckinDate, "checkout", req.CheckoutDate)

	return booking, nil
}

// GetDetails returns the booking joined with its accommodation, for the owner or an admin
func (s *BookingService) GetDetails(ctx context.Context, actor models.Identity, id int64) (*models.Booking, error) {
	booking, err := s.bookings.GetWithAccommodation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil {
		return nil, errs.NotFoundError{Resource: "booking", Key: id}
	}
	if err := requireBookingAccess(actor, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// Confirm marks a booking CONFIRMED once a checkout session exists for it
func (s *BookingService) Confirm(ctx context.Context, id int64) error {
	booking, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status.Terminal() {
		return errs.InvalidStateError{Msg: fmt.Sprintf("can't confirm %s booking", booking.Status)}
	}
	if booking.Status == models.BookingConfirmed {
		return nil
	}

	previous := booking.Status
	booking.Status = models.BookingConfirmed
	if err := s.bookings.Update(ctx, booking, previous); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return errBookingChanged
		}
		return fmt.Errorf("failed to confirm booking: %w", err)
	}

	metrics.BookingTransition(string(models.BookingConfirmed))
	logger.WithContext(ctx).Info("Booking confirmed", "booking_id", booking.ID)
	return nil
}

func (s *BookingService) CountTotalAmount(ctx context.Context, id int64) (decimal.Decimal, error) {
	booking, err := s.bookings.GetWithAccommodation(ctx, id)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get booking: %w", err)
	}
	if booking == nil || booking.Accommodation == nil {
		return decimal.Zero, errs.NotFoundError{Resource: "booking", Key: id}
	}
	return TotalAmount(booking.Accommodation.DailyRate, booking.CheckinDate, booking.CheckoutDate), nil
}

func (s *BookingService) ListMine(ctx context.Context, actor models.Identity, page models.Page) ([]models.Booking, error) {
	bookings, err := s.bookings.ListByUser(ctx, actor.UserID, nil, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

// Search lists a user's bookings filtered by status (admin only)
func (s *BookingService) Search(ctx context.Context, actor models.Identity, userID int64, statuses []models.BookingStatus, page models.Page) ([]models.Booking, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	bookings, err := s.bookings.ListByUser(ctx, userID, statuses, page)
	if err != nil {
		return nil, fmt.Errorf("failed to search bookings: %w", err)
	}
	return bookings, nil
}

// MarkExpiredBookings expires every PENDING booking whose check-in date is before tomorrow.
// Returns the number of bookings expired.
func (s *BookingService) MarkExpiredBookings(ctx context.Context) (expired int, err error) {
	ctx, span := startSpan(ctx, "BookingService.MarkExpiredBookings")
	defer func() { endSpan(span, err) }()

	now := s.now()
	tomorrow := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	stale, err := s.bookings.FindPendingBefore(ctx, tomorrow)
	if err != nil {
		return 0, fmt.Errorf("failed to find stale bookings: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	byID := make(map[int64]models.Booking, len(stale))
	ids := make([]int64, 0, len(stale))
	for _, b := range stale {
		byID[b.ID] = b
		ids = append(ids, b.ID)
	}

	updated, err := s.bookings.TransitionStatuses(ctx, ids, models.BookingPending, models.BookingExpired)
	if err != nil {
		return 0, fmt.Errorf("failed to expire bookings: %w", err)
	}

	for _, id := range updated {
		b := byID[id]
		metrics.BookingTransition(string(models.BookingExpired))
		s.notifier.Notify(ctx, models.EventAccommodationReleased, models.AccommodationReleasedEvent{
			AccommodationID: b.AccommodationID,
			BookingID:       b.ID,
			Reason:          "booking expired",
			Timestamp:       now,
		})
	}

	return len(updated), nil
}
