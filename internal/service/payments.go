package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "homerent/internal/errors"
	"homerent/internal/external"
	"homerent/internal/logger"
	"homerent/internal/metrics"
	"homerent/internal/models"
	"homerent/internal/receipt"
	"homerent/internal/repository"
)

type PaymentService struct {
	payments PaymentStore
	ledger   BookingLedger
	checkout CheckoutProvider
	notifier Notifier
	currency string
	now      func() time.Time
}

func NewPaymentService(payments PaymentStore, ledger BookingLedger, checkout CheckoutProvider, notifier Notifier, currency string) *PaymentService {
	return &PaymentService{
		payments: payments,
		ledger:   ledger,
		checkout: checkout,
		notifier: notifier,
		currency: currency,
		now:      time.Now,
	}
}

func sessionDescription(bookingID int64) string {
	return fmt.Sprintf("Booking #%d", bookingID)
}

var errPaymentChanged = errs.PaymentConflictError{Msg: "payment status changed concurrently, retry"}

// voidPayment expires the provider session of a PENDING payment, then cancels the payment.
// When the provider refuses (session already paid, provider down) the payment stays PENDING
// and is settled by Success or the expiry sweep.
func voidPayment(ctx context.Context, payments PaymentStore, checkout CheckoutProvider, notifier Notifier, payment *models.Payment, now time.Time) bool {
	log := logger.WithContext(ctx)

	if err := checkout.ExpireSession(ctx, payment.SessionID); err != nil {
		log.Warn("Failed to expire checkout session",
			"payment_id", payment.ID, "session_id", payment.SessionID, "error", err)
		return false
	}

	updated, err := payments.TransitionStatuses(ctx, []int64{payment.ID}, models.PaymentPending, models.PaymentCanceled)
	if err != nil {
		log.Error("Failed to cancel payment", "payment_id", payment.ID, "error", err)
		return false
	}
	if len(updated) == 0 {
		return false
	}

	metrics.PaymentTransition(string(models.PaymentCanceled))
	log.Info("Payment voided", "payment_id", payment.ID, "booking_id", payment.BookingID, "session_id", payment.SessionID)

	notifier.Notify(ctx, models.EventPaymentCancelled, models.PaymentCancelledEvent{
		PaymentID: payment.ID,
		BookingID: payment.BookingID,
		SessionID: payment.SessionID,
		Timestamp: now,
	})
	return true
}

// Create opens a checkout session for the booking and records a PENDING payment
func (s *PaymentService) Create(ctx context.Context, actor models.Identity, bookingID int64) (payment *models.Payment, err error) {
	ctx, span := startSpan(ctx, "PaymentService.Create")
	defer func() { endSpan(span, err) }()

	existing, err := s.payments.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if existing != nil {
		return nil, errs.PaymentConflictError{Msg: "payment already exists"}
	}

	booking, err := s.ledger.GetDetails(ctx, actor, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status.Terminal() {
		return nil, errs.InvalidStateError{Msg: fmt.Sprintf("can't pay for %s booking", booking.Status)}
	}

	amount, err := s.ledger.CountTotalAmount(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	session, err := s.checkout.CreateSession(ctx, amount, sessionDescription(bookingID))
	if err != nil {
		return nil, errs.PaymentProviderError{Op: "create session", Err: err}
	}

	payment = &models.Payment{
		BookingID:  bookingID,
		Status:     models.PaymentPending,
		SessionID:  session.ID,
		SessionURL: session.URL,
		Amount:     amount,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrPaymentExists) {
			return nil, errs.PaymentConflictError{Msg: "payment already exists"}
		}
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	if err := s.ledger.Confirm(ctx, bookingID); err != nil {
		// иначе висящий PENDING платёж блокирует новые брони пользователя
		voidPayment(ctx, s.payments, s.checkout, s.notifier, payment, s.now())
		return nil, err
	}

	metrics.PaymentTransition(string(models.PaymentPending))
	logger.WithContext(ctx).Info("Payment created",
		"payment_id", payment.ID, "booking_id", bookingID,
		"session_id", payment.SessionID, "amount", amount.String())

	return payment, nil
}

func (s *PaymentService) bySession(ctx context.Context, sessionID string) (*models.Payment, error) {
	payment, err := s.payments.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		return nil, errs.NotFoundError{Resource: "payment with session", Key: sessionID}
	}
	return payment, nil
}

// Success is the provider's success redirect. The session must be complete on the provider side.
func (s *PaymentService) Success(ctx context.Context, sessionID string) (payment *models.Payment, err error) {
	ctx, span := startSpan(ctx, "PaymentService.Success")
	defer func() { endSpan(span, err) }()

	payment, err = s.bySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	switch payment.Status {
	case models.PaymentCanceled:
		return nil, errs.PaymentConflictError{Msg: "payment already cancelled"}
	case models.PaymentPaid:
		return nil, errs.PaymentConflictError{Msg: "payment already paid"}
	}

	session, err := s.checkout.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, errs.PaymentProviderError{Op: "retrieve session", Err: err}
	}
	if session.Status != external.SessionComplete {
		return nil, errs.PaymentConflictError{Msg: "payment not paid"}
	}

	previous := payment.Status
	payment.Status = models.PaymentPaid
	if err := s.payments.Update(ctx, payment, previous); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, errPaymentChanged
		}
		return nil, fmt.Errorf("failed to mark payment paid: %w", err)
	}

	metrics.PaymentTransition(string(models.PaymentPaid))
	logger.WithContext(ctx).Info("Payment succeeded",
		"payment_id", payment.ID, "booking_id", payment.BookingID, "session_id", sessionID)

	s.notifier.Notify(ctx, models.EventPaymentSucceeded, models.PaymentSucceededEvent{
		PaymentID: payment.ID,
		BookingID: payment.BookingID,
		SessionID: payment.SessionID,
		Amount:    payment.Amount,
		Timestamp: s.now(),
	})

	return payment, nil
}

// Cancel is the provider's cancel redirect; only an open session can be cancelled
func (s *PaymentService) Cancel(ctx context.Context, sessionID string) (payment *models.Payment, err error) {
	ctx, span := startSpan(ctx, "PaymentService.Cancel")
	defer func() { endSpan(span, err) }()

	session, err := s.checkout.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, errs.PaymentProviderError{Op: "retrieve session", Err: err}
	}
	if session.Status != external.SessionOpen {
		return nil, errs.PaymentConflictError{Msg: "payment session not open"}
	}

	payment, err = s.bySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	previous := payment.Status
	payment.Status = models.PaymentCanceled
	if err := s.payments.Update(ctx, payment, previous); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, errPaymentChanged
		}
		return nil, fmt.Errorf("failed to cancel payment: %w", err)
	}

	metrics.PaymentTransition(string(models.PaymentCanceled))
	logger.WithContext(ctx).Info("Payment cancelled",
		"payment_id", payment.ID, "booking_id", payment.BookingID, "session_id", sessionID)

	s.notifier.Notify(ctx, models.EventPaymentCancelled, models.PaymentCancelledEvent{
		PaymentID: payment.ID,
		BookingID: payment.BookingID,
		SessionID: payment.SessionID,
		Timestamp: s.now(),
	})

	return payment, nil
}

// closeSession makes sure an old session can't be paid once the payment points elsewhere
func (s *PaymentService) closeSession(ctx context.Context, sessionID string) error {
	session, err := s.checkout.RetrieveSession(ctx, sessionID)
	if err != nil {
		return errs.PaymentProviderError{Op: "retrieve session", Err: err}
	}
	switch session.Status {
	case external.SessionComplete:
		return errs.PaymentConflictError{Msg: "previous session already paid"}
	case external.SessionOpen:
		if err := s.checkout.ExpireSession(ctx, sessionID); err != nil {
			return errs.PaymentProviderError{Op: "expire session", Err: err}
		}
	}
	return nil
}

// Renew opens a fresh session for any payment that is not PAID. A previous session that is
// still open is expired first.
func (s *PaymentService) Renew(ctx context.Context, actor models.Identity, paymentID int64) (payment *models.Payment, err error) {
	ctx, span := startSpan(ctx, "PaymentService.Renew")
	defer func() { endSpan(span, err) }()

	payment, err = s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		return nil, errs.PaymentConflictError{Msg: fmt.Sprintf("payment %d doesn't exist", paymentID)}
	}
	if _, err := s.ledger.GetDetails(ctx, actor, payment.BookingID); err != nil {
		return nil, err
	}
	switch payment.Status {
	case models.PaymentPaid:
		return nil, errs.PaymentConflictError{Msg: "payment already paid"}
	case models.PaymentPending, models.PaymentCanceled:
		if err := s.closeSession(ctx, payment.SessionID); err != nil {
			return nil, err
		}
	}

	session, err := s.checkout.CreateSession(ctx, payment.Amount, sessionDescription(payment.BookingID))
	if err != nil {
		return nil, errs.PaymentProviderError{Op: "create session", Err: err}
	}

	oldSession, previous := payment.SessionID, payment.Status
	payment.SessionID = session.ID
	payment.SessionURL = session.URL
	payment.Status = models.PaymentPending
	if err := s.payments.Update(ctx, payment, previous); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, errPaymentChanged
		}
		return nil, fmt.Errorf("failed to renew payment: %w", err)
	}

	metrics.PaymentTransition(string(models.PaymentPending))
	logger.WithContext(ctx).Info("Payment session renewed",
		"payment_id", payment.ID, "booking_id", payment.BookingID,
		"old_session_id", oldSession, "session_id", payment.SessionID)

	return payment, nil
}

// MarkExpiredPayments moves PENDING payments whose provider session expired to EXPIRED.
// Provider failures leave the item PENDING until the next run.
func (s *PaymentService) MarkExpiredPayments(ctx context.Context) (expired int, err error) {
	ctx, span := startSpan(ctx, "PaymentService.MarkExpiredPayments")
	defer func() { endSpan(span, err) }()

	pending, err := s.payments.FindByStatus(ctx, models.PaymentPending)
	if err != nil {
		return 0, fmt.Errorf("failed to find pending payments: %w", err)
	}

	log := logger.WithContext(ctx)
	ids := make([]int64, 0)
	for _, p := range pending {
		session, err := s.checkout.RetrieveSession(ctx, p.SessionID)
		if err != nil {
			log.Error("Failed to retrieve checkout session",
				"payment_id", p.ID, "session_id", p.SessionID, "error", err)
			continue
		}
		if session.Status == external.SessionExpired {
			ids = append(ids, p.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	updated, err := s.payments.TransitionStatuses(ctx, ids, models.PaymentPending, models.PaymentExpired)
	if err != nil {
		return 0, fmt.Errorf("failed to expire payments: %w", err)
	}
	for range updated {
		metrics.PaymentTransition(string(models.PaymentExpired))
	}

	return len(updated), nil
}

func (s *PaymentService) ListByUser(ctx context.Context, actor models.Identity, userID int64, page models.Page) ([]models.Payment, error) {
	if err := requireSelfOrAdmin(actor, userID); err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByUser(ctx, userID, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// Receipt renders a PDF receipt for a PAID payment
func (s *PaymentService) Receipt(ctx context.Context, actor models.Identity, paymentID int64) ([]byte, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	if payment == nil {
		return nil, errs.NotFoundError{Resource: "payment", Key: paymentID}
	}

	booking, err := s.ledger.GetDetails(ctx, actor, payment.BookingID)
	if err != nil {
		return nil, err
	}
	if payment.Status != models.PaymentPaid {
		return nil, errs.PaymentConflictError{Msg: "payment not paid"}
	}

	data := receipt.Data{
		PaymentID:    payment.ID,
		BookingID:    payment.BookingID,
		SessionID:    payment.SessionID,
		Amount:       payment.Amount,
		Currency:     s.currency,
		Nights:       NightsBetween(booking.CheckinDate, booking.CheckoutDate),
		CheckinDate:  booking.CheckinDate,
		CheckoutDate: booking.CheckoutDate,
		IssuedAt:     s.now(),
	}
	if a := booking.Accommodation; a != nil {
		data.DailyRate = a.DailyRate
		data.Accommodation = fmt.Sprintf("%s, %s, %s", a.Type, a.Address.City, a.Address.Country)
	}

	return receipt.Render(data)
}
