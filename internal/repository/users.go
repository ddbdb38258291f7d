package repository

import (
	"context"
	"database/sql"

	"homerent/internal/database"
	"homerent/internal/models"
)

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, role, is_active, registered_at`

func scanUser(row rowScanner, user *models.User) error {
	return row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.IsActive,
		&user.RegisteredAt,
	)
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	user := &models.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := scanUser(r.db.QueryRowContext(ctx, query, id), user)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	err := scanUser(r.db.QueryRowContext(ctx, query, email), user)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateRole returns false when the user does not exist
func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role models.Role) (bool, error) {
	query := `UPDATE users SET role = $1 WHERE id = $2`

	res, err := r.db.ExecContext(ctx, query, role, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdateProfile overwrites email and names. Returns false when the user does not exist,
// ErrEmailTaken when the email belongs to someone else.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) (bool, error) {
	query := `UPDATE users SET email = $1, first_name = $2, last_name = $3 WHERE id = $4`

	res, err := r.db.ExecContext(ctx, query, user.Email, user.FirstName, user.LastName, user.ID)
	if database.IsUniqueViolation(err, "users_email_key") {
		return false, ErrEmailTaken
	}
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
