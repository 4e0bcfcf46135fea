package services

import (
	"context"
	"fmt"

	"gigmarket/internal/apperrors"
	"gigmarket/internal/authz"
	"gigmarket/internal/repositories"
)

type UserService interface {
	// SetRole switches the calling user's own role. Nobody may switch a
	// role on someone else's behalf.
	SetRole(ctx context.Context, uid, role string) error
	GetUsernameByEmail(ctx context.Context, email string) (string, error)
}

type userService struct {
	repo repositories.UserRepository
}

func NewUserService(repo repositories.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) SetRole(ctx context.Context, uid, role string) error {
	if !authz.ValidRole(role) {
		return fmt.Errorf("unknown role %q: %w", role, apperrors.ErrValidation)
	}
	return s.repo.UpdateRole(ctx, uid, role)
}

func (s *userService) GetUsernameByEmail(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", fmt.Errorf("email query parameter is required: %w", apperrors.ErrValidation)
	}
	return s.repo.UsernameByEmail(ctx, email)
}
