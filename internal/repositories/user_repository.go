package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"gigmarket/internal/apperrors"
	"gigmarket/internal/models"
)

type UserRepository interface {
	Store(ctx context.Context, user *models.User) error
	FindByUID(ctx context.Context, uid string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateRole(ctx context.Context, uid, role string) error
	UsernameByEmail(ctx context.Context, email string) (string, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `uid, email, username, user_role, password_hash, created_at`

func (r *userRepository) Store(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (uid, email, username, user_role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		user.UID, user.Email, user.Username, user.Role, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("email already registered: %w", apperrors.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *userRepository) FindByUID(ctx context.Context, uid string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, uid)
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *userRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.UID, &user.Email, &user.Username, &user.Role, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user: %w", apperrors.ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (r *userRepository) UpdateRole(ctx context.Context, uid, role string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET user_role = $1 WHERE uid = $2`, role, uid)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", uid, apperrors.ErrNotFound)
	}
	return nil
}

func (r *userRepository) UsernameByEmail(ctx context.Context, email string) (string, error) {
	var username string
	err := r.db.QueryRowContext(ctx,
		`SELECT username FROM users WHERE email = $1`, email).Scan(&username)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("user: %w", apperrors.ErrNotFound)
		}
		return "", err
	}
	return username, nil
}
