package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// User represents a user in the system
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Role         Role      `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// Address is stored inline in the accommodations table
type Address struct {
	Street     string   `json:"street" db:"street"`
	City       string   `json:"city" db:"city"`
	Country    string   `json:"country" db:"country"`
	State      *string  `json:"state,omitempty" db:"state"`
	PostalCode *string  `json:"postal_code,omitempty" db:"postal_code"`
	Latitude   *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude  *float64 `json:"longitude,omitempty" db:"longitude"`
}

// Accommodation represents a rentable unit with a fixed number of concurrently bookable instances
type Accommodation struct {
	ID           int64             `json:"id" db:"id"`
	Type         AccommodationType `json:"type" db:"type"`
	Size         string            `json:"size" db:"size"`
	Address      Address           `json:"address"`
	Amenities    pq.StringArray    `json:"amenities" db:"amenities"`
	DailyRate    decimal.Decimal   `json:"daily_rate" db:"daily_rate"`
	Availability int               `json:"availability" db:"availability"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at" db:"updated_at"`
}

// Booking represents a user's reservation of an accommodation for a date range
type Booking struct {
	ID              int64          `json:"id" db:"id"`
	CheckinDate     time.Time      `json:"checkin_date" db:"checkin_date"`
	CheckoutDate    time.Time      `json:"checkout_date" db:"checkout_date"`
	AccommodationID int64          `json:"accommodation_id" db:"accommodation_id"`
	UserID          int64          `json:"user_id" db:"user_id"`
	Status          BookingStatus  `json:"status" db:"status"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
	Accommodation   *Accommodation `json:"accommodation,omitempty"` // Not from bookings table, joined on demand
}

// OwnedBy reports whether the booking was requested by the given user
func (b *Booking) OwnedBy(userID int64) bool {
	return b.UserID == userID
}

// Payment is the one checkout transaction associated with a single booking
type Payment struct {
	ID         int64           `json:"id" db:"id"`
	BookingID  int64           `json:"booking_id" db:"booking_id"`
	Status     PaymentStatus   `json:"status" db:"status"`
	SessionID  string          `json:"session_id" db:"session_id"`
	SessionURL string          `json:"session_url" db:"session_url"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// Identity is the authenticated caller of a core operation
type Identity struct {
	UserID int64
	Role   Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// CanAccess reports whether the identity owns the booking or administers the system
func (i Identity) CanAccess(b *Booking) bool {
	return b.OwnedBy(i.UserID) || i.IsAdmin()
}

// Page is a zero-based page request
type Page struct {
	Number int
	Size   int
}

func (p Page) Offset() int {
	return p.Number * p.Size
}
