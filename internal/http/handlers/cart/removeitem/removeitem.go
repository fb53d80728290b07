// Package removeitem реализует HTTP-обработчик удаления строки корзины.
package removeitem

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hosting-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hosting-market/internal/http/response"
	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/models"
)

// Service описывает интерфейс бизнес-логики удаления строки корзины.
type Service interface {
	RemoveItem(ctx context.Context, userUID, itemID string) (bool, error)
}

// Handler управляет HTTP-запросами на удаление строки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удалить строку корзины
// @Description Удаляет строку корзины; повторное удаление отвечает 404.
// @Tags Cart
// @Produce json
// @Param id path string true "Идентификатор строки"
// @Success 200 {object} response.Response "Строка удалена"
// @Failure 401 {object} response.ErrorResponse "Не аутентифицирован"
// @Failure 404 {object} response.ErrorResponse "Строка не найдена"
// @Security CookieAuth
// @Router /cart/items/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.removeitem"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := r.Context().Value(middlewarectx.UserKey).(*models.User)
	if !ok {
		log.Error("missing user in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	itemID := chi.URLParam(r, "id")

	removed, err := h.service.RemoveItem(r.Context(), user.UID, itemID)
	if err != nil {
		log.Error("failed to remove cart item", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not remove cart item"))
		return
	}
	if !removed {
		log.Info("cart item not found", slog.String("item_id", itemID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("cart item not found"))
		return
	}

	log.Info("cart item removed",
		slog.String("user_uid", user.UID),
		slog.String("item_id", itemID))
	render.JSON(w, r, response.OK())
}
