package models

// PriceFunc описывает ценовую функцию фичи: имя функции из реестра
// и её коэффициент. Отсутствующая функция означает нулевой вклад в цену.
type PriceFunc struct {
	Name string  `json:"name"` // Имя функции в реестре (например, "linear")
	Rate float64 `json:"rate"` // Коэффициент функции
}

// FeatureUnits подписи единиц измерения фичи для витрины.
type FeatureUnits struct {
	Quantity  string `json:"quantity"`            // Единица количества (например, "GB")
	Frequency string `json:"frequency,omitempty"` // Единица частоты (например, "MHz"), опционально
}

// Feature — переиспользуемая оплачиваемая возможность (CPU, RAM, трафик).
// Тип уникален в каталоге. Фича неизменяема, пока на нее ссылается
// хотя бы один живой продукт.
type Feature struct {
	Type          string       // Уникальный ключ фичи
	Icon          string       // Ссылка на иконку
	Units         FeatureUnits // Подписи единиц измерения
	QuantityFunc  *PriceFunc   // Ценовая функция по количеству
	FrequencyFunc *PriceFunc   // Ценовая функция по частоте, опционально
}

// DummyFeature используется для приёма данных новой фичи из JSON-запроса.
type DummyFeature struct {
	Type          string       `json:"type" validate:"required,min=2,max=32"`
	Icon          string       `json:"icon" validate:"required,url"`
	Units         FeatureUnits `json:"units" validate:"required"`
	QuantityFunc  *PriceFunc   `json:"quantity_func,omitempty"`
	FrequencyFunc *PriceFunc   `json:"frequency_func,omitempty"`
}
