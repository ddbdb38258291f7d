package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	errs "homerent/internal/errors"
	"homerent/internal/logger"
	"homerent/internal/models"
	"homerent/internal/repository"
)

type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) Me(ctx context.Context, actor models.Identity) (*models.User, error) {
	user, err := s.users.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errs.NotFoundError{Resource: "user", Key: actor.UserID}
	}
	return user, nil
}

func (s *UserService) UpdateRole(ctx context.Context, actor models.Identity, userID int64, role models.Role) (*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	ok, err := s.users.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}
	if !ok {
		return nil, errs.NotFoundError{Resource: "user", Key: userID}
	}

	logger.WithContext(ctx).Info("User role updated", "user_id", userID, "role", role, "updated_by", actor.UserID)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, errs.NotFoundError{Resource: "user", Key: userID}
	}
	return user, nil
}

// UpdateMe overwrites the caller's email and names; role and password are left alone
func (s *UserService) UpdateMe(ctx context.Context, actor models.Identity, req *models.UpdateProfileRequest) (*models.User, error) {
	email := strings.TrimSpace(req.Email)
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	switch {
	case email == "":
		return nil, errs.ValidationError{Field: "email", Msg: "must not be blank"}
	case first == "":
		return nil, errs.ValidationError{Field: "first_name", Msg: "must not be blank"}
	case last == "":
		return nil, errs.ValidationError{Field: "last_name", Msg: "must not be blank"}
	}

	user, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}
	user.Email = email
	user.FirstName = first
	user.LastName = last

	ok, err := s.users.UpdateProfile(ctx, user)
	if errors.Is(err, repository.ErrEmailTaken) {
		return nil, errs.ValidationError{Field: "email", Msg: "already registered"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if !ok {
		return nil, errs.NotFoundError{Resource: "user", Key: actor.UserID}
	}

	logger.WithContext(ctx).Info("User profile updated", "user_id", user.ID)
	return user, nil
}
