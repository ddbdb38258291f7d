package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"homerent/internal/database"
	"homerent/internal/models"
)

type AccommodationRepository struct {
	db *database.DB
}

func NewAccommodationRepository(db *database.DB) *AccommodationRepository {
	return &AccommodationRepository{db: db}
}

const accommodationColumns = `id, type, size, street, city, country, state, postal_code, latitude, longitude,
		       amenities, daily_rate, availability, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccommodation(row rowScanner, a *models.Accommodation) error {
	return row.Scan(
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
}

func (r *AccommodationRepository) Create(ctx context.Context, a *models.Accommodation) error {
	query := `
		INSERT INTO accommodations (type, size, street, city, country, state, postal_code,
		                            latitude, longitude, amenities, daily_rate, availability)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRowContext(ctx, query,
		a.Type,
		a.Size,
		a.Address.Street,
		a.Address.City,
		a.Address.Country,
		a.Address.State,
		a.Address.PostalCode,
		a.Address.Latitude,
		a.Address.Longitude,
		a.Amenities,
		a.DailyRate,
		a.Availability,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

// GetByID возвращает nil, nil для отсутствующих и удаленных объектов
func (r *AccommodationRepository) GetByID(ctx context.Context, id int64) (*models.Accommodation, error) {
	a := &models.Accommodation{}
	query := `
		SELECT ` + accommodationColumns + `
		FROM accommodations
		WHERE id = $1 AND is_deleted = FALSE`

	err := scanAccommodation(r.db.QueryRowContext(ctx, query, id), a)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetByIDs keeps the order of ids, skipping ones that no longer exist
func (r *AccommodationRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.Accommodation, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + accommodationColumns + `
		FROM accommodations
		WHERE id = ANY($1) AND is_deleted = FALSE`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]models.Accommodation, len(ids))
	for rows.Next() {
		var a models.Accommodation
		if err := scanAccommodation(rows, &a); err != nil {
			return nil, err
		}
		byID[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := make([]models.Accommodation, 0, len(byID))
	for _, id := range ids {
		if a, ok := byID[id]; ok {
			result = append(result, a)
		}
	}
	return result, nil
}

func (r *AccommodationRepository) List(ctx context.Context, page models.Page) ([]models.Accommodation, error) {
	var accommodations []models.Accommodation
	query := `
		SELECT ` + accommodationColumns + `
		FROM accommodations
		WHERE is_deleted = FALSE
		ORDER BY id ASC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, page.Size, page.Offset())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var a models.Accommodation
		if err := scanAccommodation(rows, &a); err != nil {
			return nil, err
		}
		accommodations = append(accommodations, a)
	}

	return accommodations, rows.Err()
}

// Update returns false when the row is missing or soft-deleted
func (r *AccommodationRepository) Update(ctx context.Context, a *models.Accommodation) (bool, error) {
	query := `
		UPDATE accommodations
		SET type = $1, size = $2, street = $3, city = $4, country = $5, state = $6, postal_code = $7,
		    latitude = $8, longitude = $9, amenities = $10, daily_rate = $11, availability = $12,
		    updated_at = NOW()
		WHERE id = $13 AND is_deleted = FALSE
		RETURNING created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		a.Type,
		a.Size,
		a.Address.Street,
		a.Address.City,
		a.Address.Country,
		a.Address.State,
		a.Address.PostalCode,
		a.Address.Latitude,
		a.Address.Longitude,
		a.Amenities,
		a.DailyRate,
		a.Availability,
		a.ID,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	return err == nil, err
}

func (r *AccommodationRepository) SoftDelete(ctx context.Context, id int64) (bool, error) {
	query := `UPDATE accommodations SET is_deleted = TRUE, updated_at = NOW() WHERE id = $1 AND is_deleted = FALSE`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
