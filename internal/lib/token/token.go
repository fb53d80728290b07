// Package token реализует генерацию непрозрачных сессионных токенов.
//
// Токен — криптографически случайная строка фиксированной длины из
// латинских букв и цифр. Содержимое токена не несет никакой информации,
// все данные сессии хранятся на сервере.
package token

import (
	"crypto/rand"
	"fmt"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultLength длина токена по умолчанию.
const DefaultLength = 32

// Generate возвращает случайный токен заданной длины.
// При length <= 0 используется DefaultLength.
func Generate(length int) (string, error) {
	const op = "token.Generate"
	if length <= 0 {
		length = DefaultLength
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}
