package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gigmarket/internal/apperrors"
	"gigmarket/internal/authz"
	"gigmarket/internal/models"
	"gigmarket/internal/repositories"
	"gigmarket/internal/security"
)

type AuthService interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, string, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error)
	Me(ctx context.Context, uid string) (*models.User, error)
}

type authService struct {
	users        repositories.UserRepository
	tokens       *security.JWTProvider
	emailService EmailService
}

func NewAuthService(users repositories.UserRepository, tokens *security.JWTProvider, emailService EmailService) AuthService {
	return &authService{users: users, tokens: tokens, emailService: emailService}
}

func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, string, error) {
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)
	if email == "" || req.Password == "" || username == "" {
		return nil, "", fmt.Errorf("email, password and username are required: %w", apperrors.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		UID:          uuid.NewString(),
		Email:        email,
		Username:     username,
		Role:         authz.RoleCustomer,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.users.Store(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user.UID, user.Role)
	if err != nil {
		return nil, "", err
	}

	if s.emailService != nil {
		if err := s.emailService.SendWelcomeEmail(user.Email, user.Username); err != nil {
			// registration already succeeded
			log.Printf("[auth][register] welcome email failed for %q: %v", user.Email, err)
		}
	}
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, "", fmt.Errorf("email and password are required: %w", apperrors.ErrValidation)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, "", fmt.Errorf("invalid email or password: %w", apperrors.ErrUnauthorized)
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(strings.TrimSpace(req.Password))) != nil {
		return nil, "", fmt.Errorf("invalid email or password: %w", apperrors.ErrUnauthorized)
	}

	token, err := s.tokens.Issue(user.UID, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) Me(ctx context.Context, uid string) (*models.User, error) {
	return s.users.FindByUID(ctx, uid)
}
