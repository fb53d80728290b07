// Package setstatus реализует HTTP-обработчик смены статуса продукта.
// Маршрут доступен только пользователям с капабилити MANAGE_CATALOG.
package setstatus

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

	"github.com/magabrotheeeer/hosting-market/internal/http/response"
	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/models"
	"github.com/magabrotheeeer/hosting-market/internal/services/catalog"
)

// Service описывает интерфейс бизнес-логики смены статуса продукта.
type Service interface {
	SetProduceStatus(ctx context.Context, id string, status int) error
}

// Handler управляет HTTP-запросами на смену статуса.
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
// @Summary Сменить статус продукта
// @Description Переводит продукт между статусами витрины: доступен, скрыт, снят с продажи.
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Идентификатор продукта"
// @Param request body models.DummyProduceStatus true "Новый статус"
// @Success 200 {object} response.Response "Статус изменен"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Нет прав"
// @Failure 404 {object} response.ErrorResponse "Продукт не найден"
// @Security CookieAuth
// @Router /produces/{id}/status [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.produce.setstatus"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	var req models.DummyProduceStatus
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

	if err := h.service.SetProduceStatus(r.Context(), id, req.Status); err != nil {
		log.Error("failed to set produce status", sl.Err(err))
		if errors.Is(err, catalog.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("produce not found"))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not set produce status"))
		return
	}

	log.Info("produce status changed",
		slog.String("produce_id", id),
		slog.Int("status", req.Status))
	render.JSON(w, r, response.OK())
}
