package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/hosting-market/internal/models"
)

// EnsureCart возвращает ID корзины пользователя, создавая её при отсутствии.
// Вставка идет через ON CONFLICT DO NOTHING по уникальному user_uid, поэтому
// два конкурентных добавления в корзину не породят дубликат.
func (s *Storage) EnsureCart(ctx context.Context, userUID string) (string, error) {
	const op = "repository.EnsureCart"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := s.DB.ExecContext(ctx,
		`INSERT INTO carts (user_uid) VALUES ($1) ON CONFLICT (user_uid) DO NOTHING`,
		userUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var cartID string
	if err := s.DB.QueryRowContext(ctx,
		`SELECT id FROM carts WHERE user_uid = $1`, userUID).Scan(&cartID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return cartID, nil
}

// GetCartByUserUID возвращает корзину пользователя вместе со строками
// в порядке добавления. Возвращает ErrNotFound, если корзины еще нет.
func (s *Storage) GetCartByUserUID(ctx context.Context, userUID string) (*models.Cart, error) {
	const op = "repository.GetCartByUserUID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	cart := &models.Cart{}
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, user_uid, updated_at FROM carts WHERE user_uid = $1`, userUID)
	if err := row.Scan(&cart.ID, &cart.UserID, &cart.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, produce_id, configuration, item_quantity
		 FROM cart_items WHERE cart_id = $1 ORDER BY position`, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item models.CartItem
		var configuration []byte
		if err := rows.Scan(&item.ID, &item.ProduceID, &configuration, &item.ItemQuantity); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if err := json.Unmarshal(configuration, &item.Configuration); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cart, nil
}

// AddCartItem добавляет строку в корзину и возвращает её ID.
// Дубликаты produce_id не схлопываются: каждое добавление — отдельная строка.
func (s *Storage) AddCartItem(ctx context.Context, cartID string, item models.CartItem) (string, error) {
	const op = "repository.AddCartItem"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	configuration, err := json.Marshal(item.Configuration)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var itemID string
	query := `INSERT INTO cart_items (cart_id, produce_id, configuration, item_quantity)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		cartID, item.ProduceID, configuration, item.ItemQuantity).Scan(&itemID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.touchCart(ctx, cartID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return itemID, nil
}

// UpdateCartItem заменяет строку itemID корзины cartID на новую конфигурацию.
// Возвращает false, если такой строки в корзине нет.
func (s *Storage) UpdateCartItem(ctx context.Context, cartID string, item models.CartItem) (bool, error) {
	const op = "repository.UpdateCartItem"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	configuration, err := json.Marshal(item.Configuration)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE cart_items
			  SET produce_id = $3, configuration = $4, item_quantity = $5
			  WHERE id = $2 AND cart_id = $1`
	result, err := s.DB.ExecContext(ctx, query,
		cartID, item.ID, item.ProduceID, configuration, item.ItemQuantity)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return false, nil
	}
	if err := s.touchCart(ctx, cartID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// RemoveCartItem удаляет строку itemID из корзины cartID.
// Возвращает false, если строки не было: повторное удаление не считается успехом.
func (s *Storage) RemoveCartItem(ctx context.Context, cartID, itemID string) (bool, error) {
	const op = "repository.RemoveCartItem"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $2 AND cart_id = $1`, cartID, itemID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return false, nil
	}
	if err := s.touchCart(ctx, cartID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// ClearCart удаляет все строки корзины cartID.
func (s *Storage) ClearCart(ctx context.Context, cartID string) error {
	const op = "repository.ClearCart"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := s.DB.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.touchCart(ctx, cartID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storage) touchCart(ctx context.Context, cartID string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}
