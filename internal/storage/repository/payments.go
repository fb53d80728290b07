package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreatePayment сохраняет созданный у провайдера платеж в статусе pending.
func (s *Storage) CreatePayment(ctx context.Context, paymentID, userUID string, amount float64) error {
	const op = "repository.CreatePayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments (payment_id, user_uid, amount, status)
			  VALUES ($1, $2, $3, 'pending')`
	if _, err := s.DB.ExecContext(ctx, query, paymentID, userUID, amount); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdatePaymentStatus переводит платеж в новый статус и возвращает UID
// пользователя-плательщика. Возвращает ErrNotFound для неизвестного платежа.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, paymentID, status string) (string, error) {
	const op = "repository.UpdatePaymentStatus"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var userUID string
	query := `UPDATE payments SET status = $2 WHERE payment_id = $1 RETURNING user_uid`
	if err := s.DB.QueryRowContext(ctx, query, paymentID, status).Scan(&userUID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return userUID, nil
}
