// Package updateitem реализует HTTP-обработчик замены строки корзины.
package updateitem

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hosting-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hosting-market/internal/http/response"
	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/models"
	"github.com/magabrotheeeer/hosting-market/internal/services/cart"
	"github.com/magabrotheeeer/hosting-market/internal/services/pricing"
)

// Service описывает интерфейс бизнес-логики обновления строки корзины.
type Service interface {
	UpdateItem(ctx context.Context, userUID, itemID string, req models.DummyCartItem) error
}

// Handler управляет HTTP-запросами на замену строки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Заменить строку корзины
// @Description Полностью заменяет строку корзины после проверки новой конфигурации.
// @Tags Cart
// @Accept json
// @Produce json
// @Param id path string true "Идентификатор строки"
// @Param request body models.DummyCartItem true "Новые продукт, конфигурация и количество"
// @Success 200 {object} response.Response "Строка заменена"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос или конфигурация"
// @Failure 401 {object} response.ErrorResponse "Не аутентифицирован"
// @Failure 404 {object} response.ErrorResponse "Строка или продукт не найдены"
// @Security CookieAuth
// @Router /cart/items/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.updateitem"
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

	var req models.DummyCartItem
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.service.UpdateItem(r.Context(), user.UID, itemID, req); err != nil {
		log.Error("failed to update cart item", sl.Err(err))
		switch {
		case errors.Is(err, cart.ErrItemNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("cart item not found"))
		case errors.Is(err, cart.ErrProduceNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("produce not found"))
		case errors.Is(err, cart.ErrProduceUnavailable):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("produce is not available"))
		case errors.Is(err, pricing.ErrInvalidConfiguration):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not update cart item"))
		}
		return
	}

	log.Info("cart item updated",
		slog.String("user_uid", user.UID),
		slog.String("item_id", itemID))
	render.JSON(w, r, response.OK())
}
