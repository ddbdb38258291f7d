package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// NATS notification subjects
const (
	EventBookingCreated        = "booking.created"
	EventBookingCancelled      = "booking.cancelled"
	EventAccommodationReleased = "accommodation.released"
	EventAccommodationCreated  = "accommodation.created"
	EventPaymentSucceeded      = "payment.succeeded"
	EventPaymentCancelled      = "payment.cancelled"
)

// NotificationSubjects lists every subject the consumers service listens on
var NotificationSubjects = []string{
	EventBookingCreated,
	EventBookingCancelled,
	EventAccommodationReleased,
	EventAccommodationCreated,
	EventPaymentSucceeded,
	EventPaymentCancelled,
}

// BookingCreatedEvent is published after a booking row is written
type BookingCreatedEvent struct {
	BookingID       int64     `json:"booking_id"`
	AccommodationID int64     `json:"accommodation_id"`
	UserID          int64     `json:"user_id"`
	CheckinDate     string    `json:"checkin_date"`
	CheckoutDate    string    `json:"checkout_date"`
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
}

// BookingCancelledEvent represents a booking cancellation event
type BookingCancelledEvent struct {
	BookingID       int64     `json:"booking_id"`
	AccommodationID int64     `json:"accommodation_id"`
	CancelledBy     int64     `json:"cancelled_by"`
	Timestamp       time.Time `json:"timestamp"`
}

// AccommodationReleasedEvent is published whenever a booking stops holding capacity
type AccommodationReleasedEvent struct {
	AccommodationID int64     `json:"accommodation_id"`
	BookingID       int64     `json:"booking_id"`
	Reason          string    `json:"reason"`
	Timestamp       time.Time `json:"timestamp"`
}

// AccommodationCreatedEvent represents a newly listed accommodation
type AccommodationCreatedEvent struct {
	AccommodationID int64           `json:"accommodation_id"`
	Type            string          `json:"type"`
	City            string          `json:"city"`
	DailyRate       decimal.Decimal `json:"daily_rate"`
	Availability    int             `json:"availability"`
	Timestamp       time.Time       `json:"timestamp"`
}

// PaymentSucceededEvent represents a successful checkout
type PaymentSucceededEvent struct {
	PaymentID int64           `json:"payment_id"`
	BookingID int64           `json:"booking_id"`
	SessionID string          `json:"session_id"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp time.Time       `json:"timestamp"`
}

// PaymentCancelledEvent represents a checkout abandoned by the customer
type PaymentCancelledEvent struct {
	PaymentID int64     `json:"payment_id"`
	BookingID int64     `json:"booking_id"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}
