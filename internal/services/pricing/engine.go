package pricing

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/hosting-market/internal/models"
)

// FeatureProvider описывает доступ к каталогу фич для разрешения
// ценовых функций.
type FeatureProvider interface {
	GetFeatureByType(ctx context.Context, featureType string) (*models.Feature, error)
}

// Engine считает итоговую цену сконфигурированного продукта.
type Engine struct {
	features FeatureProvider
}

// NewEngine создает новый Engine.
func NewEngine(features FeatureProvider) *Engine {
	return &Engine{features: features}
}

// Price возвращает цену продукта с учетом конфигурации.
//
// База — цена продукта. Для каждой объявленной фичи к ней прибавляется
// вклад ценовой функции количества на эффективном значении и, если
// объявлена ось частоты, вклад функции частоты. Скидка продукта
// применяется последним мультипликативным шагом.
// Конфигурация обязана быть предварительно проверена ValidateConfiguration.
func (e *Engine) Price(ctx context.Context, produce *models.Produce, configuration []models.ConfigurationEntry) (float64, error) {
	const op = "pricing.Price"

	total := produce.Price
	effective := EffectiveConfiguration(produce, configuration)

	for _, entry := range effective {
		feature, err := e.features.GetFeatureByType(ctx, entry.FeatureType)
		if err != nil {
			return 0, fmt.Errorf("%s: feature %q: %w", op, entry.FeatureType, err)
		}
		total += featureContribution(feature, entry)
	}

	total *= 1 - produce.Discount/100
	return total, nil
}

// featureContribution возвращает вклад одной фичи в цену.
func featureContribution(feature *models.Feature, entry models.ConfigurationEntry) float64 {
	var contribution float64
	if feature.QuantityFunc != nil {
		fn := LookupFunc(feature.QuantityFunc.Name)
		contribution += fn(feature.QuantityFunc.Rate, entry.Quantity)
	}
	if entry.Frequency != nil && feature.FrequencyFunc != nil {
		fn := LookupFunc(feature.FrequencyFunc.Name)
		contribution += fn(feature.FrequencyFunc.Rate, *entry.Frequency)
	}
	return contribution
}
