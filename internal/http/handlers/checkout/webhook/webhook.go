// Package webhook реализует HTTP-обработчик уведомлений платежного провайдера.
//
// Провайдер уведомляет об итоге платежа POST-запросом без сессии
// пользователя, поэтому маршрут открыт, а подлинность запроса
// подтверждает общий секрет в заголовке.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hosting-market/internal/http/response"
	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/paymentprovider"
	"github.com/magabrotheeeer/hosting-market/internal/services/checkout"
)

// SecretHeader имя заголовка с общим секретом вебхука.
const SecretHeader = "X-Webhook-Secret"

// Service описывает интерфейс бизнес-логики обработки вебхука.
type Service interface {
	HandleWebhook(ctx context.Context, event paymentprovider.WebhookEvent) error
}

// Handler управляет запросами вебхука платежного провайдера.
type Handler struct {
	log     *slog.Logger
	service Service
	secret  string
}

// New создает новый Handler с переданными логгером, сервисом и секретом.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{log: log, service: service, secret: secret}
}

// ServeHTTP godoc
// @Summary Вебхук платежного провайдера
// @Description Принимает уведомление об итоге платежа: успех очищает корзину плательщика.
// @Tags Checkout
// @Accept json
// @Produce json
// @Param X-Webhook-Secret header string true "Общий секрет вебхука"
// @Success 200 {object} response.Response "Уведомление обработано"
// @Failure 400 {object} response.ErrorResponse "Некорректное тело уведомления"
// @Failure 401 {object} response.ErrorResponse "Неверный секрет"
// @Failure 404 {object} response.ErrorResponse "Платеж не найден"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.checkout.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if h.secret != "" && r.Header.Get(SecretHeader) != h.secret {
		log.Warn("webhook with wrong secret")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var event paymentprovider.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		log.Error("failed to decode webhook event", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid webhook body"))
		return
	}

	if err := h.service.HandleWebhook(r.Context(), event); err != nil {
		switch {
		case errors.Is(err, checkout.ErrPaymentFailed):
			// Отмена платежа — штатный итог, провайдеру отвечаем успехом.
			log.Info("payment canceled", slog.String("payment_id", event.Object.ID))
			render.JSON(w, r, response.OK())
		case errors.Is(err, checkout.ErrUnknownPayment):
			log.Warn("webhook for unknown payment", slog.String("payment_id", event.Object.ID))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("unknown payment"))
		default:
			log.Error("failed to handle webhook", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not handle webhook"))
		}
		return
	}

	log.Info("webhook handled",
		slog.String("event", event.Event),
		slog.String("payment_id", event.Object.ID))
	render.JSON(w, r, response.OK())
}
