// Package setstock реализует HTTP-обработчик смены остатка продукта.
// Маршрут доступен только пользователям с капабилити MANAGE_CATALOG.
package setstock

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

// Service описывает интерфейс бизнес-логики смены остатка продукта.
type Service interface {
	SetProduceStock(ctx context.Context, id string, stock int) error
}

// Handler управляет HTTP-запросами на смену остатка.
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
// @Summary Сменить остаток продукта
// @Description Устанавливает остаток продукта на складе; -1 означает неограниченный запас.
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Идентификатор продукта"
// @Param request body models.DummyProduceStock true "Новый остаток"
// @Success 200 {object} response.Response "Остаток изменен"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Нет прав"
// @Failure 404 {object} response.ErrorResponse "Продукт не найден"
// @Security CookieAuth
// @Router /produces/{id}/stock [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.produce.setstock"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")

	var req models.DummyProduceStock
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

	if err := h.service.SetProduceStock(r.Context(), id, req.Stock); err != nil {
		log.Error("failed to set produce stock", sl.Err(err))
		if errors.Is(err, catalog.ErrNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("produce not found"))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not set produce stock"))
		return
	}

	log.Info("produce stock changed",
		slog.String("produce_id", id),
		slog.Int("stock", req.Stock))
	render.JSON(w, r, response.OK())
}
