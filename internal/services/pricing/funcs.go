// Package pricing реализует проверку конфигурации продукта и расчет
// его итоговой цены.
//
// Ценовые функции фич непрозрачны для движка: фича хранит имя функции
// из реестра и коэффициент, движок лишь вызывает её на эффективном
// значении оси. Отсутствующая функция дает нулевой вклад.
package pricing

import "math"

// Func ценовая функция одной оси конфигурации: значение -> сумма.
type Func func(rate float64, value int) float64

// Реестр ценовых функций. Имена хранятся в каталоге фич.
var funcRegistry = map[string]Func{
	// flat: фиксированная сумма независимо от значения.
	"flat": func(rate float64, _ int) float64 {
		return rate
	},
	// linear: сумма пропорциональна значению.
	"linear": func(rate float64, value int) float64 {
		return rate * float64(value)
	},
	// volume: сублинейная сумма, скидка за объем, вклад растет как sqrt.
	"volume": func(rate float64, value int) float64 {
		if value <= 0 {
			return 0
		}
		return rate * math.Sqrt(float64(value))
	},
}

// LookupFunc возвращает ценовую функцию по имени.
// Неизвестное имя дает нулевую функцию: такой вклад в цену равен нулю.
func LookupFunc(name string) Func {
	if fn, ok := funcRegistry[name]; ok {
		return fn
	}
	return func(float64, int) float64 { return 0 }
}

// HasFunc сообщает, зарегистрирована ли ценовая функция с именем name.
func HasFunc(name string) bool {
	_, ok := funcRegistry[name]
	return ok
}

// RegisterFunc добавляет или заменяет ценовую функцию в реестре.
// Используется при старте приложения и в тестах.
func RegisterFunc(name string, fn Func) {
	funcRegistry[name] = fn
}
