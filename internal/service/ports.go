package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"homerent/internal/external"
	"homerent/internal/models"
)

// Хранилища, которые сервисы используют; реализации лежат в internal/repository

type AccommodationStore interface {
	Create(ctx context.Context, a *models.Accommodation) error
	GetByID(ctx context.Context, id int64) (*models.Accommodation, error)
	GetByIDs(ctx context.Context, ids []int64) ([]models.Accommodation, error)
	List(ctx context.Context, page models.Page) ([]models.Accommodation, error)
	Update(ctx context.Context, a *models.Accommodation) (bool, error)
	SoftDelete(ctx context.Context, id int64) (bool, error)
}

type BookingStore interface {
	CountOverlapping(ctx context.Context, accommodationID int64, checkin, checkout time.Time) (int, error)
	CreateIfAvailable(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id int64) (*models.Booking, error)
	GetWithAccommodation(ctx context.Context, id int64) (*models.Booking, error)
	ListByUser(ctx context.Context, userID int64, statuses []models.BookingStatus, page models.Page) ([]models.Booking, error)
	FindPendingBefore(ctx context.Context, before time.Time) ([]models.Booking, error)
	Update(ctx context.Context, booking *models.Booking, expected models.BookingStatus) error
	TransitionStatuses(ctx context.Context, ids []int64, from, to models.BookingStatus) ([]int64, error)
}

type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id int64) (*models.Payment, error)
	GetBySessionID(ctx context.Context, sessionID string) (*models.Payment, error)
	GetByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error)
	HasPendingForUser(ctx context.Context, userID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64, page models.Page) ([]models.Payment, error)
	FindByStatus(ctx context.Context, status models.PaymentStatus) ([]models.Payment, error)
	Update(ctx context.Context, payment *models.Payment, expected models.PaymentStatus) error
	TransitionStatuses(ctx context.Context, ids []int64, from, to models.PaymentStatus) ([]int64, error)
}

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	UpdateRole(ctx context.Context, id int64, role models.Role) (bool, error)
	UpdateProfile(ctx context.Context, user *models.User) (bool, error)
}

// CheckoutProvider opens and inspects hosted checkout sessions
type CheckoutProvider interface {
	CreateSession(ctx context.Context, amount decimal.Decimal, description string) (*external.Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*external.Session, error)
	ExpireSession(ctx context.Context, sessionID string) error
}

// Notifier is fire-and-forget: it never blocks the caller and never reports failure
type Notifier interface {
	Notify(ctx context.Context, event string, payload any)
}

// AccommodationIndex is the full-text search side of accommodations
type AccommodationIndex interface {
	Index(ctx context.Context, a *models.Accommodation) error
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, q models.AccommodationSearchQuery, page models.Page) ([]int64, error)
}

// BookingLedger is what the payment state machine needs from the booking state machine
type BookingLedger interface {
	GetDetails(ctx context.Context, actor models.Identity, bookingID int64) (*models.Booking, error)
	CountTotalAmount(ctx context.Context, bookingID int64) (decimal.Decimal, error)
	Confirm(ctx context.Context, bookingID int64) error
}
