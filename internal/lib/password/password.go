// Package password реализует функции для безопасного хеширования и проверки паролей.
//
// GetHash создает bcrypt-хеш пароля для безопасного хранения.
// CompareHash сравнивает исходный bcrypt-хеш с введённым паролем, проверяя их соответствие.
// CheckPolicy проверяет пароль на соответствие парольной политике.
package password

import (
	"errors"
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// ErrWeakPassword возвращается, когда пароль не проходит парольную политику.
var ErrWeakPassword = errors.New("password must be 6-32 characters long and contain at least two of: lowercase letters, uppercase letters, digits")

// CheckPolicy проверяет пароль на соответствие парольной политике:
// длина от 6 до 32 символов и минимум два различных класса символов
// (строчные буквы, заглавные буквы, цифры).
func CheckPolicy(password string) error {
	if len(password) < 6 || len(password) > 32 {
		return ErrWeakPassword
	}
	var hasLower, hasUpper, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	classes := 0
	for _, ok := range []bool{hasLower, hasUpper, hasDigit} {
		if ok {
			classes++
		}
	}
	if classes < 2 {
		return ErrWeakPassword
	}
	return nil
}

// GetHash принимает пароль пользователя и возвращает его bcrypt-хэш.
//
// Используется для безопасного хранения паролей в базе данных.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt-хэш с введённым паролем.
//
// Возвращает nil, если пароль соответствует хэшу, иначе — ошибку.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	if err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
