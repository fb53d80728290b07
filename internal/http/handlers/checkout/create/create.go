// Package create реализует HTTP-обработчик оформления заказа.
package create

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
	"github.com/magabrotheeeer/hosting-market/internal/services/checkout"
)

// Service описывает интерфейс бизнес-логики оформления заказа.
type Service interface {
	Checkout(ctx context.Context, userUID string) (string, error)
}

// Handler управляет HTTP-запросами на оформление заказа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Оформить заказ
// @Description Создает платеж у провайдера на сумму корзины и возвращает URL страницы подтверждения.
// @Tags Checkout
// @Produce json
// @Success 200 {object} response.Response "URL страницы подтверждения"
// @Failure 400 {object} response.ErrorResponse "Корзина пуста"
// @Failure 401 {object} response.ErrorResponse "Не аутентифицирован"
// @Failure 409 {object} response.ErrorResponse "Корзина ссылается на исчезнувший продукт"
// @Failure 502 {object} response.ErrorResponse "Провайдер отклонил платеж"
// @Security CookieAuth
// @Router /checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout.create"
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

	confirmationURL, err := h.service.Checkout(r.Context(), user.UID)
	if err != nil {
		log.Error("failed to checkout", sl.Err(err))
		switch {
		case errors.Is(err, checkout.ErrEmptyCart):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("cart is empty"))
		case errors.Is(err, cart.ErrProduceNotFound):
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("cart references a missing produce"))
		case errors.Is(err, checkout.ErrPaymentFailed):
			render.Status(r, http.StatusBadGateway)
			render.JSON(w, r, response.Error("payment provider rejected the payment"))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not checkout"))
		}
		return
	}

	log.Info("checkout started", slog.String("user_uid", user.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"confirmation_url": confirmationURL,
	}))
}
