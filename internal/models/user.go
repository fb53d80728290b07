// Package models содержит доменные структуры сервиса,
// а также вспомогательные типы для приёма данных из внешних источников (JSON-запросы).
package models

import "time"

// PermissionAll — капабилити-шаблон, дающий все права.
const PermissionAll = "*"

// AvatarCount количество доступных аватаров, индекс аватара лежит в [0, AvatarCount].
const AvatarCount = 12

// User представляет зарегистрированного пользователя.
// PasswordHash хранит bcrypt-хэш и меняется только через явную смену пароля.
// Permissions — плоский набор строковых капабилити в верхнем регистре,
// значение "*" дает все права.
type User struct {
	UID          string    // Уникальный идентификатор пользователя
	Firstname    string    // Имя
	Lastname     string    // Фамилия
	Email        string    // Электронная почта, уникальна
	PasswordHash string    // bcrypt-хэш пароля
	Avatar       int       // Индекс аватара
	Permissions  []string  // Набор капабилити
	CreatedAt    time.Time // Дата регистрации
}

// HasPermission возвращает true, если пользователю выдана капабилити perm
// либо шаблон "*".
func (u *User) HasPermission(perm string) bool {
	for _, p := range u.Permissions {
		if p == perm || p == PermissionAll {
			return true
		}
	}
	return false
}

// DummyRegister используется для приёма данных регистрации из JSON-запроса.
type DummyRegister struct {
	Firstname string `json:"firstname" validate:"required,alpha,min=2,max=32"` // Имя
	Lastname  string `json:"lastname" validate:"required,alpha,min=2,max=32"`  // Фамилия
	Email     string `json:"email" validate:"required,email"`                  // Электронная почта
	Password  string `json:"password" validate:"required"`                     // Пароль (политика проверяется отдельно)
	Avatar    int    `json:"avatar" validate:"omitempty,min=0"`                // Индекс аватара (опционально)
}

// DummyLogin используется для приёма данных входа из JSON-запроса.
type DummyLogin struct {
	Email    string `json:"email" validate:"required,email"` // Электронная почта
	Password string `json:"password" validate:"required"`    // Пароль
}

// DummyChangePassword используется для приёма данных смены пароля.
type DummyChangePassword struct {
	OldPassword string `json:"old_password" validate:"required"` // Текущий пароль
	NewPassword string `json:"new_password" validate:"required"` // Новый пароль
}
