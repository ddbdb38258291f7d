package repository

import (
	"context"
	"errors"

	"homerent/internal/database"
)

var (
	ErrAccommodationNotFound = errors.New("accommodation not found")
	ErrNoCapacity            = errors.New("accommodation has no free capacity for the dates")
	ErrPaymentExists         = errors.New("payment for booking already exists")
	ErrEmailTaken            = errors.New("email already registered")
	// строка изменилась между чтением и записью
	ErrStatusChanged = errors.New("status changed concurrently")
)

type Repositories struct {
	Accommodations *AccommodationRepository
	Bookings       *BookingRepository
	Payments       *PaymentRepository
	Users          *UserRepository
}

func NewRepositories(db *database.DB) *Repositories {
	return &Repositories{
		Accommodations: NewAccommodationRepository(db),
		Bookings:       NewBookingRepository(db),
		Payments:       NewPaymentRepository(db),
		Users:          NewUserRepository(db),
	}
}

// updateReturningIDs runs a bulk UPDATE ... RETURNING id inside a transaction
func updateReturningIDs(ctx context.Context, db *database.DB, query string, args ...any) ([]int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	var updated []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		updated = append(updated, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return updated, nil
}
