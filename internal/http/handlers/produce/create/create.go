// Package create реализует HTTP-обработчик создания продукта.
// Маршрут доступен только пользователям с капабилити MANAGE_CATALOG.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hosting-market/internal/http/response"
	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/models"
	"github.com/magabrotheeeer/hosting-market/internal/services/catalog"
)

// Service описывает интерфейс бизнес-логики создания продукта.
type Service interface {
	CreateProduce(ctx context.Context, req models.DummyProduce) (string, error)
}

// Handler управляет HTTP-запросами на создание продукта.
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
// @Summary Создать продукт
// @Description Создает продукт с ограничениями фич; каждая объявленная фича обязана существовать в каталоге.
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body models.DummyProduce true "Данные нового продукта"
// @Success 201 {object} response.Response "Продукт создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос или ограничение"
// @Failure 403 {object} response.ErrorResponse "Нет прав"
// @Security CookieAuth
// @Router /produces [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.produce.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyProduce
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

	id, err := h.service.CreateProduce(r.Context(), req)
	if err != nil {
		log.Error("failed to create produce", sl.Err(err))
		switch {
		case errors.Is(err, catalog.ErrUnknownFeature),
			errors.Is(err, catalog.ErrDuplicateFeature),
			errors.Is(err, catalog.ErrBadConstraint):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create produce"))
		}
		return
	}

	log.Info("produce created", slog.String("produce_id", id))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{"id": id}))
}
