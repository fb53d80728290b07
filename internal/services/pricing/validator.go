package pricing

import (
	"errors"
	"fmt"

	"github.com/magabrotheeeer/hosting-market/internal/models"
)

// ErrInvalidConfiguration возвращается, когда конфигурация нарушает
// ограничения продукта. Ошибка оборачивается с указанием фичи и причины.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ValidateConfiguration проверяет конфигурацию против ограничений продукта.
//
// Для каждой объявленной продуктом фичи: при canModify == false присланное
// значение обязано совпадать с зафиксированным; при canModify == true —
// лежать в [min, max] включительно. Ось частоты проверяется только если
// продукт её объявляет. Записи конфигурации для фич, которых продукт
// не объявляет, игнорируются: лишние ключи не считаются ошибкой и не
// участвуют в цене.
func ValidateConfiguration(produce *models.Produce, configuration []models.ConfigurationEntry) error {
	for i := range produce.Features {
		constraint := &produce.Features[i]
		entry := findEntry(configuration, constraint.FeatureType)
		if entry == nil {
			// Фича не сконфигурирована — действует значение по умолчанию.
			continue
		}

		if err := checkAxis(constraint.Quantity, entry.Quantity); err != nil {
			return fmt.Errorf("feature %q quantity: %w", constraint.FeatureType, err)
		}
		if entry.Frequency != nil {
			if constraint.Frequency == nil {
				// Продукт не объявляет ось частоты — присланное значение игнорируется.
				continue
			}
			if err := checkAxis(*constraint.Frequency, *entry.Frequency); err != nil {
				return fmt.Errorf("feature %q frequency: %w", constraint.FeatureType, err)
			}
		}
	}
	return nil
}

// EffectiveConfiguration возвращает конфигурацию, по которой считается цена:
// для каждой объявленной фичи берется присланное значение, если оно задано,
// иначе — значение по умолчанию из ограничения. Предполагает, что
// конфигурация уже прошла ValidateConfiguration.
func EffectiveConfiguration(produce *models.Produce, configuration []models.ConfigurationEntry) []models.ConfigurationEntry {
	effective := make([]models.ConfigurationEntry, 0, len(produce.Features))
	for i := range produce.Features {
		constraint := &produce.Features[i]
		resolved := models.ConfigurationEntry{
			FeatureType: constraint.FeatureType,
			Quantity:    constraint.Quantity.Value,
		}
		if constraint.Frequency != nil {
			freq := constraint.Frequency.Value
			resolved.Frequency = &freq
		}

		if entry := findEntry(configuration, constraint.FeatureType); entry != nil {
			resolved.Quantity = entry.Quantity
			if constraint.Frequency != nil && entry.Frequency != nil {
				freq := *entry.Frequency
				resolved.Frequency = &freq
			}
		}
		effective = append(effective, resolved)
	}
	return effective
}

func checkAxis(constraint models.ValueConstraint, value int) error {
	if !constraint.CanModify {
		if value != constraint.Value {
			return fmt.Errorf("%w: value %d differs from fixed %d",
				ErrInvalidConfiguration, value, constraint.Value)
		}
		return nil
	}
	if value < constraint.Min || value > constraint.Max {
		return fmt.Errorf("%w: value %d is out of range [%d, %d]",
			ErrInvalidConfiguration, value, constraint.Min, constraint.Max)
	}
	return nil
}

func findEntry(configuration []models.ConfigurationEntry, featureType string) *models.ConfigurationEntry {
	for i := range configuration {
		if configuration[i].FeatureType == featureType {
			return &configuration[i]
		}
	}
	return nil
}
