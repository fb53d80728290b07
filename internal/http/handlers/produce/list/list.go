// Package list реализует HTTP-обработчик списка продуктов категории.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/hosting-market/internal/http/response"
	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/models"
)

// Service описывает интерфейс бизнес-логики списка продуктов.
type Service interface {
	ListProducesByType(ctx context.Context, produceType string) ([]*models.Produce, error)
}

// Handler управляет HTTP-запросами на список продуктов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список продуктов категории
// @Description Возвращает доступные для покупки продукты выбранной категории.
// @Tags Catalog
// @Produce json
// @Param type path string true "Категория продукта, например vps"
// @Success 200 {object} response.Response "Список продуктов"
// @Router /produces/{type} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.produce.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	produceType := chi.URLParam(r, "type")
	produces, err := h.service.ListProducesByType(r.Context(), produceType)
	if err != nil {
		log.Error("failed to list produces", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list produces"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"produces": produces,
	}))
}
