package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/hosting-market/internal/models"
)

// AuthService описывает интерфейс шлюза аутентификации:
// жесткое разрешение токена в пару (сессия, пользователь) и мягкая
// проверка, действует ли токен вообще.
type AuthService interface {
	Authenticate(ctx context.Context, accessToken, ip string) (*models.Session, *models.User, error)
	Detect(ctx context.Context, accessToken, ip string) bool
}
