// Package create реализует HTTP-обработчик создания фичи каталога.
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

// Service описывает интерфейс бизнес-логики создания фичи.
type Service interface {
	CreateFeature(ctx context.Context, req models.DummyFeature) error
}

// Handler управляет HTTP-запросами на создание фичи.
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
// @Summary Создать фичу
// @Description Добавляет переиспользуемую фичу каталога с ценовыми функциями из реестра.
// @Tags Catalog
// @Accept json
// @Produce json
// @Param request body models.DummyFeature true "Данные новой фичи"
// @Success 201 {object} response.Response "Фича создана"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос, занятый тип или неизвестная ценовая функция"
// @Failure 403 {object} response.ErrorResponse "Нет прав"
// @Security CookieAuth
// @Router /features [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feature.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyFeature
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

	if err := h.service.CreateFeature(r.Context(), req); err != nil {
		log.Error("failed to create feature", sl.Err(err))
		switch {
		case errors.Is(err, catalog.ErrFeatureExists),
			errors.Is(err, catalog.ErrUnknownPriceFunc):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(err.Error()))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not create feature"))
		}
		return
	}

	log.Info("feature created", slog.String("feature_type", req.Type))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OK())
}
