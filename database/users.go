package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserService resolves sign-in emails to stable user ids.
type UserService struct {
	db *sql.DB
}

func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// EnsureUser returns the user registered under email, creating it on first
// sign-in.
func (s *UserService) EnsureUser(ctx context.Context, email string) (User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var u User
	var created string
	err = tx.QueryRowContext(ctx, "SELECT id, email, created_at FROM users WHERE email = ?", email).
		Scan(&u.ID, &u.Email, &created)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		u = User{ID: uuid.NewString(), Email: email, CreatedAt: time.Now().UTC()}
		_, err = tx.ExecContext(ctx, "INSERT INTO users (id, email, created_at) VALUES (?, ?, ?)",
			u.ID, u.Email, formatTime(u.CreatedAt))
		if err != nil {
			return User{}, fmt.Errorf("failed to insert user: %w", err)
		}
	case err != nil:
		return User{}, fmt.Errorf("failed to query user: %w", err)
	default:
		if u.CreatedAt, err = parseTime(created); err != nil {
			return User{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return User{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (User, error) {
	var u User
	var created string
	err := s.db.QueryRowContext(ctx, "SELECT id, email, created_at FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.Email, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return User{}, err
	}
	return u, nil
}
