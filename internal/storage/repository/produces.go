package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/hosting-market/internal/models"
)

// CreateProduce сохраняет новый продукт и возвращает его ID.
func (s *Storage) CreateProduce(ctx context.Context, produce models.Produce) (string, error) {
	const op = "repository.CreateProduce"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	features, err := json.Marshal(produce.Features)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var newID string
	query := `INSERT INTO produces (type, name, price, stock, discount, status, features)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		produce.Type, produce.Name, produce.Price, produce.Stock,
		produce.Discount, produce.Status, features).Scan(&newID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetProduceByID возвращает продукт по ID независимо от статуса.
// Проверка доступности остается за бизнес-слоем: уже лежащая в корзине
// позиция должна считаться и для скрытого продукта.
func (s *Storage) GetProduceByID(ctx context.Context, id string) (*models.Produce, error) {
	const op = "repository.GetProduceByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, type, name, price, stock, discount, status, features, created_at
			  FROM produces WHERE id = $1`
	row := s.DB.QueryRowContext(ctx, query, id)

	produce, err := scanProduce(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return produce, nil
}

// ListProducesByType возвращает доступные на витрине продукты категории produceType.
func (s *Storage) ListProducesByType(ctx context.Context, produceType string) ([]*models.Produce, error) {
	const op = "repository.ListProducesByType"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, type, name, price, stock, discount, status, features, created_at
			  FROM produces
			  WHERE type = $1 AND status = $2
			  ORDER BY created_at`
	rows, err := s.DB.QueryContext(ctx, query, produceType, models.ProduceStatusAvailable)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var produces []*models.Produce
	for rows.Next() {
		produce, err := scanProduce(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		produces = append(produces, produce)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return produces, nil
}

// UpdateProduceStatus меняет статус продукта на витрине.
func (s *Storage) UpdateProduceStatus(ctx context.Context, id string, status int) error {
	const op = "repository.UpdateProduceStatus"
	return s.updateProduceField(ctx, op, `UPDATE produces SET status = $2 WHERE id = $1`, id, status)
}

// UpdateProduceStock меняет остаток продукта на складе.
func (s *Storage) UpdateProduceStock(ctx context.Context, id string, stock int) error {
	const op = "repository.UpdateProduceStock"
	return s.updateProduceField(ctx, op, `UPDATE produces SET stock = $2 WHERE id = $1`, id, stock)
}

// UpdateProduceDiscount меняет процент скидки продукта.
func (s *Storage) UpdateProduceDiscount(ctx context.Context, id string, discount float64) error {
	const op = "repository.UpdateProduceDiscount"
	return s.updateProduceField(ctx, op, `UPDATE produces SET discount = $2 WHERE id = $1`, id, discount)
}

func (s *Storage) updateProduceField(ctx context.Context, op, query string, id string, value any) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, query, id, value)
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

func scanProduce(scan func(dest ...any) error) (*models.Produce, error) {
	produce := &models.Produce{}
	var features []byte
	if err := scan(&produce.ID, &produce.Type, &produce.Name, &produce.Price, &produce.Stock,
		&produce.Discount, &produce.Status, &features, &produce.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(features, &produce.Features); err != nil {
		return nil, err
	}
	return produce, nil
}
