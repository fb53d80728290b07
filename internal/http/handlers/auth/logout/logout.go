// Package logout реализует HTTP-обработчик выхода пользователя.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hosting-market/internal/http/cookies"
	"github.com/magabrotheeeer/hosting-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hosting-market/internal/http/response"
	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
)

// Service описывает интерфейс бизнес-логики выхода.
type Service interface {
	Logout(ctx context.Context, accessToken, ip string) error
}

// Handler управляет HTTP-запросами на выход.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Выйти
// @Description Отключает сессию, отзывает оба токена и очищает сессионные cookie.
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response "Сессия отключена"
// @Failure 401 {object} response.ErrorResponse "Не аутентифицирован"
// @Security CookieAuth
// @Router /logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := h.service.Logout(r.Context(), middlewarectx.AccessToken(r), middlewarectx.ClientIP(r)); err != nil {
		log.Error("failed to logout", sl.Err(err))
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	cookies.ClearSession(w)

	log.Info("user logged out")
	render.JSON(w, r, response.OK())
}
