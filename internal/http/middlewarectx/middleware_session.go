// Package middlewarectx содержит HTTP middleware для разрешения сессионных
// токенов и проверки прав.
//
// SessionMiddleware проверяет access-токен из cookie или заголовка
// Authorization, разрешает его в пару (сессия, пользователь) и кладет обе
// в контекст запроса. DetectMiddleware, наоборот, отклоняет запрос уже
// аутентифицированного пользователя: повторный вход затер бы действующую
// сессию. PermissionMiddleware проверяет капабилити пользователя.
package middlewarectx

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hosting-market/internal/http/response"
	"github.com/magabrotheeeer/hosting-market/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// SessionKey — ключ сессии в контексте.
	SessionKey Key = "session"
	// UserKey — ключ пользователя в контексте.
	UserKey Key = "user"
)

// AccessTokenCookie имя cookie с access-токеном.
const AccessTokenCookie = "access_token"

// RefreshTokenCookie имя cookie с refresh-токеном.
const RefreshTokenCookie = "refresh_token"

// SessionMiddleware возвращает HTTP middleware, который разрешает
// access-токен в пару (сессия, пользователь) и кладет их в контекст.
// Запрос без действующего токена отклоняется с HTTP 401.
func SessionMiddleware(authService AuthService, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token := AccessToken(r)
			if token == "" {
				log.Info("missing access token")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}

			session, user, err := authService.Authenticate(r.Context(), token, ClientIP(r))
			if err != nil {
				log.Info("invalid access token")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, session)
			ctx = context.WithValue(ctx, UserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DetectMiddleware возвращает HTTP middleware для входа, регистрации и
// обновления: запрос с уже действующей сессией отклоняется с HTTP 403.
func DetectMiddleware(authService AuthService, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.DetectMiddleware"

			if authService.Detect(r.Context(), AccessToken(r), ClientIP(r)) {
				log.Info("request rejected: already authenticated",
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("already authenticated"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// PermissionMiddleware возвращает HTTP middleware, пропускающий только
// пользователей с капабилити perm (или шаблоном "*").
// Обязан стоять после SessionMiddleware.
func PermissionMiddleware(perm string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.PermissionMiddleware"

			user, ok := r.Context().Value(UserKey).(*models.User)
			if !ok || !user.HasPermission(perm) {
				log.Info("request rejected: missing permission",
					slog.String("op", op),
					slog.String("permission", perm),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AccessToken извлекает access-токен из cookie или заголовка
// Authorization: Bearer. Возвращает пустую строку, если токена нет.
func AccessToken(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// ClientIP возвращает адрес клиента: X-Real-IP, первый адрес из
// X-Forwarded-For или адрес соединения.
func ClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
