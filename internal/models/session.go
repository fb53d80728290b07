package models

import "time"

// Session представляет сессию пользователя, ровно одну на пользователя.
//
// Пока Active == true, оба токена присутствуют и уникальны среди всех сессий.
// Пока Active == false, access-токен отсутствует; refresh-токен может быть
// сохранен (временный выход) или очищен (полный отзыв).
type Session struct {
	ID           string    // Уникальный идентификатор сессии
	UserID       string    // Идентификатор владельца, уникален среди сессий
	AccessToken  string    // Access-токен, пустая строка у неактивной сессии
	RefreshToken string    // Refresh-токен, пустая строка после полного отзыва
	Active       bool      // Признак активности
	IPs          []string  // Упорядоченный набор IP-адресов клиентов, с которых видели сессию
	IssuedAt     time.Time // Момент последней выдачи пары токенов
}

// HasIP возвращает true, если адрес ip уже числится за сессией.
func (s *Session) HasIP(ip string) bool {
	for _, known := range s.IPs {
		if known == ip {
			return true
		}
	}
	return false
}

// IsExpired возвращает true, если с момента выдачи токенов прошло больше ttl.
func (s *Session) IsExpired(ttl time.Duration, now time.Time) bool {
	return now.Sub(s.IssuedAt) > ttl
}
