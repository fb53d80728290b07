// Package catalog содержит бизнес-логику каталога: фичи и продукты.
//
// Фича неизменяема после создания. Продукт объявляет список ограничений
// фич с уникальными типами; каждая объявленная фича обязана существовать
// в каталоге на момент создания продукта.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/models"
	"github.com/magabrotheeeer/hosting-market/internal/services/pricing"
	"github.com/magabrotheeeer/hosting-market/internal/storage/repository"
)

// Ошибки бизнес-уровня каталога.
var (
	// ErrFeatureExists возвращается при создании фичи с занятым типом.
	ErrFeatureExists = errors.New("feature type already exists")
	// ErrUnknownFeature возвращается, когда продукт ссылается на фичу,
	// которой нет в каталоге.
	ErrUnknownFeature = errors.New("unknown feature type")
	// ErrDuplicateFeature возвращается, когда продукт объявляет один
	// тип фичи дважды.
	ErrDuplicateFeature = errors.New("duplicate feature type in produce")
	// ErrUnknownPriceFunc возвращается при создании фичи с неизвестной
	// ценовой функцией.
	ErrUnknownPriceFunc = errors.New("unknown price function")
	// ErrBadConstraint возвращается при противоречивом ограничении фичи.
	ErrBadConstraint = errors.New("bad feature constraint")
	// ErrNotFound возвращается, когда запись каталога отсутствует.
	ErrNotFound = errors.New("not found")
)

const produceCachePrefix = "produce:"
const produceCacheTTL = 5 * time.Minute

// Repository описывает контракт хранилища каталога.
type Repository interface {
	CreateFeature(ctx context.Context, feature models.Feature) error
	GetFeatureByType(ctx context.Context, featureType string) (*models.Feature, error)
	ListFeatures(ctx context.Context) ([]*models.Feature, error)

	CreateProduce(ctx context.Context, produce models.Produce) (string, error)
	GetProduceByID(ctx context.Context, id string) (*models.Produce, error)
	ListProducesByType(ctx context.Context, produceType string) ([]*models.Produce, error)
	UpdateProduceStatus(ctx context.Context, id string, status int) error
	UpdateProduceStock(ctx context.Context, id string, stock int) error
	UpdateProduceDiscount(ctx context.Context, id string, discount float64) error
}

// Cache описывает кэш горячих записей каталога.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service отвечает за чтение и мутации каталога.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// CreateFeature добавляет новую фичу в каталог.
func (s *Service) CreateFeature(ctx context.Context, req models.DummyFeature) error {
	const op = "catalog.CreateFeature"

	for _, fn := range []*models.PriceFunc{req.QuantityFunc, req.FrequencyFunc} {
		if fn != nil && !pricing.HasFunc(fn.Name) {
			return fmt.Errorf("%s: %q: %w", op, fn.Name, ErrUnknownPriceFunc)
		}
	}

	feature := models.Feature{
		Type:          req.Type,
		Icon:          req.Icon,
		Units:         req.Units,
		QuantityFunc:  req.QuantityFunc,
		FrequencyFunc: req.FrequencyFunc,
	}
	if err := s.repo.CreateFeature(ctx, feature); err != nil {
		if errors.Is(err, repository.ErrFeatureExists) {
			return fmt.Errorf("%s: %w", op, ErrFeatureExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetFeatureByType возвращает фичу по типу.
func (s *Service) GetFeatureByType(ctx context.Context, featureType string) (*models.Feature, error) {
	const op = "catalog.GetFeatureByType"
	feature, err := s.repo.GetFeatureByType(ctx, featureType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return feature, nil
}

// ListFeatures возвращает все фичи каталога.
func (s *Service) ListFeatures(ctx context.Context) ([]*models.Feature, error) {
	const op = "catalog.ListFeatures"
	features, err := s.repo.ListFeatures(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return features, nil
}

// CreateProduce добавляет новый продукт. Типы фич в списке ограничений
// обязаны быть уникальны и существовать в каталоге, границы модифицируемых
// осей — содержать значение по умолчанию.
func (s *Service) CreateProduce(ctx context.Context, req models.DummyProduce) (string, error) {
	const op = "catalog.CreateProduce"

	seen := make(map[string]struct{}, len(req.Features))
	for i := range req.Features {
		constraint := &req.Features[i]
		if _, ok := seen[constraint.FeatureType]; ok {
			return "", fmt.Errorf("%s: %q: %w", op, constraint.FeatureType, ErrDuplicateFeature)
		}
		seen[constraint.FeatureType] = struct{}{}

		if _, err := s.repo.GetFeatureByType(ctx, constraint.FeatureType); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return "", fmt.Errorf("%s: %q: %w", op, constraint.FeatureType, ErrUnknownFeature)
			}
			return "", fmt.Errorf("%s: %w", op, err)
		}

		if err := checkConstraint(constraint.Quantity); err != nil {
			return "", fmt.Errorf("%s: %q quantity: %w", op, constraint.FeatureType, err)
		}
		if constraint.Frequency != nil {
			if err := checkConstraint(*constraint.Frequency); err != nil {
				return "", fmt.Errorf("%s: %q frequency: %w", op, constraint.FeatureType, err)
			}
		}
	}

	produce := models.Produce{
		Type:     req.Type,
		Name:     req.Name,
		Price:    req.Price,
		Stock:    req.Stock,
		Discount: req.Discount,
		Status:   models.ProduceStatusAvailable,
		Features: req.Features,
	}
	if req.Stock == 0 {
		produce.Stock = models.StockUnlimited
	}

	id, err := s.repo.CreateProduce(ctx, produce)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetProduceByID возвращает продукт по ID, используя кэш.
func (s *Service) GetProduceByID(ctx context.Context, id string) (*models.Produce, error) {
	const op = "catalog.GetProduceByID"

	if s.cache != nil {
		var cached models.Produce
		found, err := s.cache.Get(ctx, produceCachePrefix+id, &cached)
		if err != nil {
			s.log.Warn("produce cache get failed", sl.Err(err))
		} else if found {
			return &cached, nil
		}
	}

	produce, err := s.repo.GetProduceByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, produceCachePrefix+id, produce, produceCacheTTL); err != nil {
			s.log.Warn("produce cache set failed", sl.Err(err))
		}
	}
	return produce, nil
}

// ListProducesByType возвращает доступные продукты категории.
func (s *Service) ListProducesByType(ctx context.Context, produceType string) ([]*models.Produce, error) {
	const op = "catalog.ListProducesByType"
	produces, err := s.repo.ListProducesByType(ctx, produceType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return produces, nil
}

// SetProduceStatus меняет статус продукта и сбрасывает его кэш.
func (s *Service) SetProduceStatus(ctx context.Context, id string, status int) error {
	const op = "catalog.SetProduceStatus"
	if err := s.repo.UpdateProduceStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateProduce(ctx, id)
	return nil
}

// SetProduceStock меняет остаток продукта и сбрасывает его кэш.
func (s *Service) SetProduceStock(ctx context.Context, id string, stock int) error {
	const op = "catalog.SetProduceStock"
	if err := s.repo.UpdateProduceStock(ctx, id, stock); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateProduce(ctx, id)
	return nil
}

// SetProduceDiscount меняет скидку продукта и сбрасывает его кэш.
func (s *Service) SetProduceDiscount(ctx context.Context, id string, discount float64) error {
	const op = "catalog.SetProduceDiscount"
	if err := s.repo.UpdateProduceDiscount(ctx, id, discount); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateProduce(ctx, id)
	return nil
}

func (s *Service) invalidateProduce(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, produceCachePrefix+id); err != nil {
		s.log.Warn("produce cache invalidate failed", sl.Err(err))
	}
}

// checkConstraint проверяет внутреннюю согласованность ограничения:
// модифицируемая ось обязана иметь границы, содержащие значение по умолчанию.
func checkConstraint(constraint models.ValueConstraint) error {
	if !constraint.CanModify {
		return nil
	}
	if constraint.Min > constraint.Max {
		return fmt.Errorf("%w: min %d greater than max %d", ErrBadConstraint, constraint.Min, constraint.Max)
	}
	if constraint.Value < constraint.Min || constraint.Value > constraint.Max {
		return fmt.Errorf("%w: default %d is out of range [%d, %d]",
			ErrBadConstraint, constraint.Value, constraint.Min, constraint.Max)
	}
	return nil
}
