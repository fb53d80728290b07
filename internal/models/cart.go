package models

import "time"

// Границы количества одинаковых позиций в одной строке корзины.
const (
	CartItemQuantityMin = 1
	CartItemQuantityMax = 5
)

// ConfigurationEntry — выбранное клиентом значение одной фичи.
// Frequency == nil означает, что ось частоты не задавалась.
type ConfigurationEntry struct {
	FeatureType string `json:"feature_type" validate:"required"` // Тип фичи
	Quantity    int    `json:"quantity"`                         // Выбранное количество
	Frequency   *int   `json:"frequency,omitempty"`              // Выбранная частота, опционально
}

// CartItem — строка корзины: продукт, его конфигурация и количество штук.
// Конфигурация хранит только идентификаторы, цена пересчитывается из
// актуального каталога при каждом чтении.
type CartItem struct {
	ID            string               `json:"id"`             // Идентификатор строки
	ProduceID     string               `json:"produce_id"`     // Идентификатор продукта
	Configuration []ConfigurationEntry `json:"configuration"`  // Конфигурация фич, ключ — FeatureType
	ItemQuantity  int                  `json:"item_quantity"`  // Количество штук, 1..5
}

// Cart — корзина пользователя, ровно одна на пользователя.
type Cart struct {
	ID        string     // Уникальный идентификатор корзины
	UserID    string     // Владелец
	Items     []CartItem // Упорядоченный список строк
	UpdatedAt time.Time  // Момент последней мутации
}

// DummyCartItem используется для приёма строки корзины из JSON-запроса.
type DummyCartItem struct {
	ProduceID     string               `json:"produce_id" validate:"required,uuid"`
	Configuration []ConfigurationEntry `json:"configuration" validate:"omitempty,dive"`
	ItemQuantity  int                  `json:"item_quantity" validate:"required,min=1,max=5"`
}
