package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/hosting-market/internal/models"
)

// CreateFeature сохраняет новую фичу каталога.
// Возвращает ErrFeatureExists, если тип уже занят.
func (s *Storage) CreateFeature(ctx context.Context, feature models.Feature) error {
	const op = "repository.CreateFeature"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	units, err := json.Marshal(feature.Units)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	quantityFunc, err := marshalPriceFunc(feature.QuantityFunc)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	frequencyFunc, err := marshalPriceFunc(feature.FrequencyFunc)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO features (type, icon, units, quantity_func, frequency_func)
			  VALUES ($1, $2, $3, $4, $5)`
	if _, err := s.DB.ExecContext(ctx, query,
		feature.Type, feature.Icon, units, quantityFunc, frequencyFunc); err != nil {
		if isUniqueViolation(err, "features_pkey") {
			return fmt.Errorf("%s: %w", op, ErrFeatureExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetFeatureByType возвращает фичу по её уникальному типу.
func (s *Storage) GetFeatureByType(ctx context.Context, featureType string) (*models.Feature, error) {
	const op = "repository.GetFeatureByType"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT type, icon, units, quantity_func, frequency_func
			  FROM features WHERE type = $1`
	row := s.DB.QueryRowContext(ctx, query, featureType)

	feature, err := scanFeature(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return feature, nil
}

// ListFeatures возвращает все фичи каталога, упорядоченные по типу.
func (s *Storage) ListFeatures(ctx context.Context) ([]*models.Feature, error) {
	const op = "repository.ListFeatures"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT type, icon, units, quantity_func, frequency_func
			  FROM features ORDER BY type`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var features []*models.Feature
	for rows.Next() {
		feature, err := scanFeature(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		features = append(features, feature)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return features, nil
}

func scanFeature(scan func(dest ...any) error) (*models.Feature, error) {
	feature := &models.Feature{}
	var units, quantityFunc, frequencyFunc []byte
	if err := scan(&feature.Type, &feature.Icon, &units, &quantityFunc, &frequencyFunc); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(units, &feature.Units); err != nil {
		return nil, err
	}
	if quantityFunc != nil {
		feature.QuantityFunc = &models.PriceFunc{}
		if err := json.Unmarshal(quantityFunc, feature.QuantityFunc); err != nil {
			return nil, err
		}
	}
	if frequencyFunc != nil {
		feature.FrequencyFunc = &models.PriceFunc{}
		if err := json.Unmarshal(frequencyFunc, feature.FrequencyFunc); err != nil {
			return nil, err
		}
	}
	return feature, nil
}

// marshalPriceFunc сериализует ценовую функцию, nil сохраняется как NULL.
func marshalPriceFunc(fn *models.PriceFunc) ([]byte, error) {
	if fn == nil {
		return nil, nil
	}
	return json.Marshal(fn)
}
