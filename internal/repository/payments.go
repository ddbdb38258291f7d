package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"homerent/internal/database"
	"homerent/internal/models"
)

type PaymentRepository struct {
	db *database.DB
}

func NewPaymentRepository(db *database.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, booking_id, status, session_id, session_url, amount, created_at, updated_at`

func scanPayment(row rowScanner, p *models.Payment) error {
	return row.Scan(
		&p.ID,
		&p.BookingID,
		&p.Status,
		&p.SessionID,
		&p.SessionURL,
		&p.Amount,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
}

func (r *PaymentRepository) getOne(ctx context.Context, where string, arg any) (*models.Payment, error) {
	payment := &models.Payment{}
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ` + where

	err := scanPayment(r.db.QueryRowContext(ctx, query, arg), payment)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payment, nil
}

func scanPayments(rows *sql.Rows) ([]models.Payment, error) {
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var p models.Payment
		if err := scanPayment(rows, &p); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// Create returns ErrPaymentExists when the booking already has a payment
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (booking_id, status, session_id, session_url, amount)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		payment.BookingID,
		payment.Status,
		payment.SessionID,
		payment.SessionURL,
		payment.Amount,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
	if database.IsUniqueViolation(err, "payments_booking_id_key") {
		return ErrPaymentExists
	}
	return err
}

func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*models.Payment, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *PaymentRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.Payment, error) {
	return r.getOne(ctx, "session_id = $1", sessionID)
}

func (r *PaymentRepository) GetByBookingID(ctx context.Context, bookingID int64) (*models.Payment, error) {
	return r.getOne(ctx, "booking_id = $1", bookingID)
}

// HasPendingForUser reports whether any of the user's bookings has a PENDING payment
func (r *PaymentRepository) HasPendingForUser(ctx context.Context, userID int64) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM payments p
			JOIN bookings b ON b.id = p.booking_id
			WHERE b.user_id = $1 AND p.status = $2
		)`

	err := r.db.QueryRowContext(ctx, query, userID, models.PaymentPending).Scan(&exists)
	return exists, err
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64, page models.Page) ([]models.Payment, error) {
	query := `
		SELECT p.id, p.booking_id, p.status, p.session_id, p.session_url, p.amount, p.created_at, p.updated_at
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE b.user_id = $1
		ORDER BY p.id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}
	return scanPayments(rows)
}

func (r *PaymentRepository) FindByStatus(ctx context.Context, status models.PaymentStatus) ([]models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = $1 ORDER BY id`

	rows, err := r.db.QueryWithRetry(ctx, query, status)
	if err != nil {
		return nil, err
	}
	return scanPayments(rows)
}

// Update is conditional on the status read by the caller, like BookingRepository.Update
func (r *PaymentRepository) Update(ctx context.Context, payment *models.Payment, expected models.PaymentStatus) error {
	query := `
		UPDATE payments
		SET status = $1, session_id = $2, session_url = $3, amount = $4, updated_at = NOW()
		WHERE id = $5 AND status = $6
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		payment.Status,
		payment.SessionID,
		payment.SessionURL,
		payment.Amount,
		payment.ID,
		expected,
	).Scan(&payment.UpdatedAt)
	if err == sql.ErrNoRows {
		return ErrStatusChanged
	}
	return err
}

// TransitionStatuses moves payments between statuses in one transaction and returns the ids updated
func (r *PaymentRepository) TransitionStatuses(ctx context.Context, ids []int64, from, to models.PaymentStatus) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		UPDATE payments
		SET status = $1, updated_at = NOW()
		WHERE id = ANY($2) AND status = $3
		RETURNING id`

	return updateReturningIDs(ctx, r.db, query, to, pq.Array(ids), from)
}
