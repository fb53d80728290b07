// Package refresh реализует HTTP-обработчик повторного включения сессии
// по refresh-токену.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hosting-market/internal/http/cookies"
	"github.com/magabrotheeeer/hosting-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hosting-market/internal/http/response"
	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/models"
	"github.com/magabrotheeeer/hosting-market/internal/services/auth"
)

// Service описывает интерфейс бизнес-логики обновления сессии.
type Service interface {
	Refresh(ctx context.Context, refreshToken, ip string) (*models.Session, error)
	TokenTTL() time.Duration
}

// Handler управляет HTTP-запросами на обновление сессии.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Обновить сессию
// @Description Включает сессию по refresh-токену из cookie и выдает новую пару токенов.
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response "Сессия включена"
// @Failure 401 {object} response.ErrorResponse "Refresh-токен не найден или отозван"
// @Failure 403 {object} response.ErrorResponse "Запрос с чужого адреса"
// @Router /refresh [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.refresh"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cookie, err := r.Cookie(middlewarectx.RefreshTokenCookie)
	if err != nil || cookie.Value == "" {
		log.Info("missing refresh token")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	session, err := h.service.Refresh(r.Context(), cookie.Value, middlewarectx.ClientIP(r))
	if err != nil {
		log.Error("failed to refresh session", sl.Err(err))
		switch {
		case errors.Is(err, auth.ErrSessionNotFound):
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("unauthorized"))
		case errors.Is(err, auth.ErrForeignIP):
			render.Status(r, http.StatusForbidden)
			render.JSON(w, r, response.Error("forbidden"))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not refresh session"))
		}
		return
	}
	cookies.SetSession(w, session, h.service.TokenTTL())

	log.Info("session refreshed", slog.String("user_uid", session.UserID))
	render.JSON(w, r, response.OK())
}
