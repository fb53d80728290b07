package models

import "time"

// Статусы продукта на витрине.
const (
	ProduceStatusAvailable    = 0 // Доступен для покупки
	ProduceStatusHidden       = 1 // Скрыт с витрины
	ProduceStatusDiscontinued = 2 // Снят с продажи
)

// StockUnlimited значение счетчика склада для неограниченного продукта.
const StockUnlimited = -1

// ValueConstraint описывает ограничение одной оси конфигурации.
// При CanModify == false клиент обязан прислать ровно Value;
// при CanModify == true присланное значение должно лежать в [Min, Max] включительно.
type ValueConstraint struct {
	CanModify bool `json:"can_modify"` // Разрешено ли менять значение
	Value     int  `json:"value"`      // Значение по умолчанию (и единственное допустимое при CanModify == false)
	Min       int  `json:"min"`        // Нижняя граница включительно
	Max       int  `json:"max"`        // Верхняя граница включительно
}

// FeatureConstraint — объявленные продуктом границы и значение по умолчанию
// для одной фичи. FeatureType уникален в списке ограничений продукта.
type FeatureConstraint struct {
	FeatureType string           `json:"feature_type"`        // Тип фичи из каталога
	Quantity    ValueConstraint  `json:"quantity"`            // Ограничение по количеству
	Frequency   *ValueConstraint `json:"frequency,omitempty"` // Ограничение по частоте, опционально
}

// Produce — покупаемый конфигурируемый продукт, собранный из фич.
type Produce struct {
	ID        string              // Уникальный идентификатор продукта
	Type      string              // Категория (например, "vps")
	Name      string              // Отображаемое имя
	Price     float64             // Базовая цена
	Stock     int                 // Остаток на складе, -1 — не ограничен
	Discount  float64             // Скидка в процентах, 0..100
	Status    int                 // Статус витрины
	Features  []FeatureConstraint // Ограничения фич, упорядоченный список
	CreatedAt time.Time           // Дата создания
}

// IsAvailable возвращает true, если продукт можно положить в корзину:
// статус "доступен" и склад не исчерпан.
func (p *Produce) IsAvailable() bool {
	return p.Status == ProduceStatusAvailable && (p.Stock > 0 || p.Stock == StockUnlimited)
}

// Constraint возвращает ограничение фичи featureType или nil, если продукт
// такую фичу не объявляет.
func (p *Produce) Constraint(featureType string) *FeatureConstraint {
	for i := range p.Features {
		if p.Features[i].FeatureType == featureType {
			return &p.Features[i]
		}
	}
	return nil
}

// DummyProduce используется для приёма данных нового продукта из JSON-запроса.
type DummyProduce struct {
	Type     string              `json:"type" validate:"required,min=2,max=32"`
	Name     string              `json:"name" validate:"required,min=2,max=64"`
	Price    float64             `json:"price" validate:"omitempty,min=0"`
	Stock    int                 `json:"stock" validate:"omitempty,min=-1"`
	Discount float64             `json:"discount" validate:"omitempty,min=0,max=100"`
	Features []FeatureConstraint `json:"features" validate:"required,min=1"`
}

// DummyProduceStatus используется для приёма смены статуса продукта.
type DummyProduceStatus struct {
	Status int `json:"status" validate:"min=0,max=2"`
}

// DummyProduceStock используется для приёма смены остатка продукта.
type DummyProduceStock struct {
	Stock int `json:"stock" validate:"min=-1"`
}

// DummyProduceDiscount используется для приёма смены скидки продукта.
type DummyProduceDiscount struct {
	Discount float64 `json:"discount" validate:"min=0,max=100"`
}
