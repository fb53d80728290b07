// Package gettotal реализует HTTP-обработчик чтения корзины с пересчетом цен.
package gettotal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hosting-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hosting-market/internal/http/response"
	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/models"
	"github.com/magabrotheeeer/hosting-market/internal/services/cart"
)

// Service описывает интерфейс бизнес-логики чтения корзины.
type Service interface {
	Total(ctx context.Context, userUID string) (float64, []cart.PricedItem, error)
}

// Handler управляет HTTP-запросами на чтение корзины.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Показать корзину
// @Description Возвращает строки корзины с ценами по актуальному каталогу и итоговую сумму.
// @Tags Cart
// @Produce json
// @Success 200 {object} response.Response "Строки и итоговая сумма"
// @Failure 401 {object} response.ErrorResponse "Не аутентифицирован"
// @Failure 409 {object} response.ErrorResponse "Корзина ссылается на исчезнувший продукт"
// @Security CookieAuth
// @Router /cart [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.gettotal"
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

	total, items, err := h.service.Total(r.Context(), user.UID)
	if err != nil {
		log.Error("failed to total cart", sl.Err(err))
		if errors.Is(err, cart.ErrProduceNotFound) {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("cart references a missing produce"))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not total cart"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"items": items,
		"total": total,
	}))
}
