// Package list реализует HTTP-обработчик списка фич каталога.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hosting-market/internal/http/response"
	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/models"
)

// Service описывает интерфейс бизнес-логики списка фич.
type Service interface {
	ListFeatures(ctx context.Context) ([]*models.Feature, error)
}

// Handler управляет HTTP-запросами на список фич.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список фич каталога
// @Description Возвращает все фичи каталога с их ценовыми функциями.
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Response "Список фич"
// @Router /features [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.feature.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	features, err := h.service.ListFeatures(r.Context())
	if err != nil {
		log.Error("failed to list features", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list features"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"features": features,
	}))
}
