// Package read реализует HTTP-обработчик чтения одного продукта.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hosting-market/internal/http/response"
	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/models"
	"github.com/magabrotheeeer/hosting-market/internal/services/catalog"
)

// Service описывает интерфейс бизнес-логики чтения продукта.
type Service interface {
	GetProduceByID(ctx context.Context, id string) (*models.Produce, error)
}

// Handler управляет HTTP-запросами на чтение продукта.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Прочитать продукт
// @Description Возвращает продукт по идентификатору независимо от его статуса.
// @Tags Catalog
// @Produce json
// @Param id path string true "Идентификатор продукта"
// @Success 200 {object} response.Response "Продукт"
// @Failure 404 {object} response.ErrorResponse "Продукт не найден"
// @Router /produce/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.produce.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	produce, err := h.service.GetProduceByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			log.Info("produce not found", slog.String("produce_id", id))
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, response.Error("produce not found"))
			return
		}
		log.Error("failed to read produce", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read produce"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"produce": produce,
	}))
}
