package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/hosting-market/internal/models"
)

// CreateSession сохраняет новую сессию и возвращает её ID.
//
// Возвращает ErrSessionExists, если у пользователя уже есть сессия,
// и ErrTokenCollision, если сгенерированный токен оказался занят —
// в этом случае вызывающая сторона повторяет попытку с новым токеном.
func (s *Storage) CreateSession(ctx context.Context, session models.Session) (string, error) {
	const op = "repository.CreateSession"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	ips, err := json.Marshal(session.IPs)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var newID string
	query := `INSERT INTO sessions (user_uid, access_token, refresh_token, active, ips, issued_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		session.UserID, nullableToken(session.AccessToken), nullableToken(session.RefreshToken),
		session.Active, ips, session.IssuedAt).Scan(&newID); err != nil {
		switch {
		case isUniqueViolation(err, "sessions_user_uid_key"):
			return "", fmt.Errorf("%s: %w", op, ErrSessionExists)
		case isUniqueViolation(err, "sessions_access_token_key"),
			isUniqueViolation(err, "sessions_refresh_token_key"):
			return "", fmt.Errorf("%s: %w", op, ErrTokenCollision)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetSessionByUserUID возвращает сессию пользователя независимо от её активности.
func (s *Storage) GetSessionByUserUID(ctx context.Context, userUID string) (*models.Session, error) {
	const op = "repository.GetSessionByUserUID"
	return s.getSession(ctx, op, `SELECT id, user_uid, access_token, refresh_token, active, ips, issued_at
			  FROM sessions WHERE user_uid = $1`, userUID)
}

// GetSessionByAccessToken возвращает активную сессию по access-токену.
// Неактивные сессии access-токена не имеют, так что совпадение возможно
// только с активной записью; фильтр по active оставлен как страховка.
func (s *Storage) GetSessionByAccessToken(ctx context.Context, token string) (*models.Session, error) {
	const op = "repository.GetSessionByAccessToken"
	return s.getSession(ctx, op, `SELECT id, user_uid, access_token, refresh_token, active, ips, issued_at
			  FROM sessions WHERE access_token = $1 AND active`, token)
}

// GetSessionByRefreshToken возвращает сессию по refresh-токену,
// в том числе неактивную: refresh переживает временный выход.
func (s *Storage) GetSessionByRefreshToken(ctx context.Context, token string) (*models.Session, error) {
	const op = "repository.GetSessionByRefreshToken"
	return s.getSession(ctx, op, `SELECT id, user_uid, access_token, refresh_token, active, ips, issued_at
			  FROM sessions WHERE refresh_token = $1`, token)
}

func (s *Storage) getSession(ctx context.Context, op, query string, arg any) (*models.Session, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	session := &models.Session{}
	var accessToken, refreshToken sql.NullString
	var ips []byte
	row := s.DB.QueryRowContext(ctx, query, arg)
	if err := row.Scan(&session.ID, &session.UserID, &accessToken, &refreshToken,
		&session.Active, &ips, &session.IssuedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	session.AccessToken = accessToken.String
	session.RefreshToken = refreshToken.String
	if err := json.Unmarshal(ips, &session.IPs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return session, nil
}

// UpdateSession перезаписывает токены, признак активности, набор IP
// и момент выдачи токенов сессии. Пустой токен сохраняется как NULL.
func (s *Storage) UpdateSession(ctx context.Context, session models.Session) error {
	const op = "repository.UpdateSession"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	ips, err := json.Marshal(session.IPs)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE sessions
			  SET access_token = $2, refresh_token = $3, active = $4, ips = $5, issued_at = $6
			  WHERE id = $1`
	result, err := s.DB.ExecContext(ctx, query, session.ID,
		nullableToken(session.AccessToken), nullableToken(session.RefreshToken),
		session.Active, ips, session.IssuedAt)
	if err != nil {
		if isUniqueViolation(err, "sessions_access_token_key") ||
			isUniqueViolation(err, "sessions_refresh_token_key") {
			return fmt.Errorf("%s: %w", op, ErrTokenCollision)
		}
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

// SweepExpiredSessions деактивирует все активные сессии старше ttl и
// возвращает количество затронутых записей. Ротация токенов при этом
// не выполняется: access-токен просто очищается, refresh сохраняется.
func (s *Storage) SweepExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	const op = "repository.SweepExpiredSessions"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE sessions
			  SET active = FALSE, access_token = NULL
			  WHERE active AND issued_at < $1`
	result, err := s.DB.ExecContext(ctx, query, time.Now().UTC().Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected, nil
}

// nullableToken преобразует пустой токен в NULL: частичный уникальный
// индекс не нужен, NULL-значения не сравниваются между собой.
func nullableToken(token string) sql.NullString {
	return sql.NullString{String: token, Valid: token != ""}
}
