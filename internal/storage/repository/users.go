package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/hosting-market/internal/models"
)

// CreateUser сохраняет нового пользователя и возвращает его UID.
// Возвращает ErrEmailTaken, если email уже занят.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (string, error) {
	const op = "repository.CreateUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	permissions, err := json.Marshal(user.Permissions)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var newUID string
	query := `INSERT INTO users (firstname, lastname, email, password_hash, avatar, permissions)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Firstname, user.Lastname, user.Email, user.PasswordHash,
		user.Avatar, permissions).Scan(&newUID); err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByEmail возвращает пользователя по его email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "repository.GetUserByEmail"
	return s.getUser(ctx, op, `SELECT uid, firstname, lastname, email, password_hash,
			      avatar, permissions, created_at
			  FROM users
			  WHERE email = $1`, email)
}

// GetUserByUID возвращает пользователя по его UID.
func (s *Storage) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	const op = "repository.GetUserByUID"
	return s.getUser(ctx, op, `SELECT uid, firstname, lastname, email, password_hash,
			      avatar, permissions, created_at
			  FROM users
			  WHERE uid = $1`, uid)
}

func (s *Storage) getUser(ctx context.Context, op, query string, arg any) (*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u := &models.User{}
	var permissions []byte
	row := s.DB.QueryRowContext(ctx, query, arg)
	if err := row.Scan(&u.UID, &u.Firstname, &u.Lastname, &u.Email, &u.PasswordHash,
		&u.Avatar, &permissions, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(permissions, &u.Permissions); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// UpdateUserPassword заменяет хэш пароля пользователя.
// Единственный путь изменения password_hash в хранилище.
func (s *Storage) UpdateUserPassword(ctx context.Context, uid, passwordHash string) error {
	const op = "repository.UpdateUserPassword"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users SET password_hash = $2 WHERE uid = $1`, uid, passwordHash)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
