package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"homerent/internal/database"
	"homerent/internal/models"
)

type BookingRepository struct {
	db *database.DB
}

func NewBookingRepository(db *database.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `id, checkin_date, checkout_date, accommodation_id, user_id, status, created_at, updated_at`

// bookings that still hold capacity
const holdsCapacity = `status NOT IN ('CANCELED', 'EXPIRED')`

func scanBooking(row rowScanner, b *models.Booking) error {
	return row.Scan(
		&b.ID,
		&b.CheckinDate,
		&b.CheckoutDate,
		&b.AccommodationID,
		&b.UserID,
		&b.Status,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
}

func scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	defer rows.Close()

	var bookings []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := scanBooking(rows, &b); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// CountOverlapping считает бронирования, пересекающиеся с [checkin, checkout] включительно
func (r *BookingRepository) CountOverlapping(ctx context.Context, accommodationID int64, checkin, checkout time.Time) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE accommodation_id = $1 AND checkin_date <= $2::date AND checkout_date >= $3::date AND ` + holdsCapacity

	err := r.db.QueryRowContext(ctx, query, accommodationID, checkout, checkin).Scan(&count)
	return count, err
}

// CreateIfAvailable inserts a PENDING booking while holding a row lock on the accommodation,
// so concurrent creates for the same accommodation are serialized against the capacity check
func (r *BookingRepository) CreateIfAvailable(ctx context.Context, booking *models.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var availability int
	lockQuery := `SELECT availability FROM accommodations WHERE id = $1 AND is_deleted = FALSE FOR UPDATE`
	err = tx.QueryRowContext(ctx, lockQuery, booking.AccommodationID).Scan(&availability)
	if err == sql.ErrNoRows {
		return ErrAccommodationNotFound
	}
	if err != nil {
		return err
	}

	var overlapping int
	countQuery := `
		SELECT COUNT(*)
		FROM bookings
		WHERE accommodation_id = $1 AND checkin_date <= $2::date AND checkout_date >= $3::date AND ` + holdsCapacity
	err = tx.QueryRowContext(ctx, countQuery, booking.AccommodationID, booking.CheckoutDate, booking.CheckinDate).Scan(&overlapping)
	if err != nil {
		return err
	}

	if availability-1 < overlapping {
		return ErrNoCapacity
	}

	insertQuery := `
		INSERT INTO bookings (checkin_date, checkout_date, accommodation_id, user_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, insertQuery,
		booking.CheckinDate,
		booking.CheckoutDate,
		booking.AccommodationID,
		booking.UserID,
		booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*models.Booking, error) {
	booking := &models.Booking{}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	err := scanBooking(r.db.QueryRowContext(ctx, query, id), booking)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// GetWithAccommodation returns the booking joined with its accommodation
func (r *BookingRepository) GetWithAccommodation(ctx context.Context, id int64) (*models.Booking, error) {
	booking := &models.Booking{Accommodation: &models.Accommodation{}}
	a := booking.Accommodation
	query := `
		SELECT b.id, b.checkin_date, b.checkout_date, b.accommodation_id, b.user_id, b.status,
		       b.created_at, b.updated_at,
		       a.id, a.type, a.size, a.street, a.city, a.country, a.state, a.postal_code,
		       a.latitude, a.longitude, a.amenities, a.daily_rate, a.availability,
		       a.created_at, a.updated_at
		FROM bookings b
		JOIN accommodations a ON a.id = b.accommodation_id
		WHERE b.id = $1`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&booking.ID,
		&booking.CheckinDate,
		&booking.CheckoutDate,
		&booking.AccommodationID,
		&booking.UserID,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&a.ID,
		&a.Type,
		&a.Size,
		&a.Address.Street,
		&a.Address.City,
		&a.Address.Country,
		&a.Address.State,
		&a.Address.PostalCode,
		&a.Address.Latitude,
		&a.Address.Longitude,
		&a.Amenities,
		&a.DailyRate,
		&a.Availability,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// ListByUser returns the user's bookings, optionally filtered by status
func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, statuses []models.BookingStatus, page models.Page) ([]models.Booking, error) {
	args := []any{userID}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1`

	if len(statuses) > 0 {
		values := make([]string, len(statuses))
		for i, s := range statuses {
			values[i] = string(s)
		}
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(values))
	}

	query += fmt.Sprintf(" ORDER BY checkin_date DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, page.Size, page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

// FindPendingBefore returns PENDING bookings whose check-in date is strictly before the given date
func (r *BookingRepository) FindPendingBefore(ctx context.Context, before time.Time) ([]models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE status = $1 AND checkin_date < $2::date
		ORDER BY id`

	rows, err := r.db.QueryWithRetry(ctx, query, models.BookingPending, before)
	if err != nil {
		return nil, err
	}
	return scanBookings(rows)
}

// Update writes the booking only if its status is still expected; otherwise ErrStatusChanged
func (r *BookingRepository) Update(ctx context.Context, booking *models.Booking, expected models.BookingStatus) error {
	query := `
		UPDATE bookings
		SET checkin_date = $1, checkout_date = $2, accommodation_id = $3, status = $4, updated_at = NOW()
		WHERE id = $5 AND status = $6
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		booking.CheckinDate,
		booking.CheckoutDate,
		booking.AccommodationID,
		booking.Status,
		booking.ID,
		expected,
	).Scan(&booking.UpdatedAt)
	if err == sql.ErrNoRows {
		return ErrStatusChanged
	}
	return err
}

// TransitionStatuses moves the given bookings from one status to another in a single transaction.
// Rows that left the `from` status concurrently are skipped; the ids actually updated are returned.
func (r *BookingRepository) TransitionStatuses(ctx context.Context, ids []int64, from, to models.BookingStatus) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE id = ANY($2) AND status = $3
		RETURNING id`

	return updateReturningIDs(ctx, r.db, query, to, pq.Array(ids), from)
}
