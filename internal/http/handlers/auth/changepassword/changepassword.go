// Package changepassword реализует HTTP-обработчик смены пароля.
package changepassword

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hosting-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hosting-market/internal/http/response"
	"github.com/magabrotheeeer/hosting-market/internal/lib/password"
	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/models"
	"github.com/magabrotheeeer/hosting-market/internal/services/auth"
)

// Service описывает интерфейс бизнес-логики смены пароля.
type Service interface {
	ChangePassword(ctx context.Context, userUID, oldPassword, newPassword string) error
}

// Handler управляет HTTP-запросами на смену пароля.
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
// @Summary Сменить пароль
// @Description Проверяет старый пароль и заменяет его новым.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.DummyChangePassword true "Старый и новый пароли"
// @Success 200 {object} response.Response "Пароль изменен"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Старый пароль не подошел"
// @Security CookieAuth
// @Router /password [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.changepassword"
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

	var req models.DummyChangePassword
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

	if err := h.service.ChangePassword(r.Context(), user.UID, req.OldPassword, req.NewPassword); err != nil {
		log.Error("failed to change password", sl.Err(err))
		switch {
		case errors.Is(err, auth.ErrWrongCredentials):
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("wrong password"))
		case errors.Is(err, password.ErrWeakPassword):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(password.ErrWeakPassword.Error()))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not change password"))
		}
		return
	}

	log.Info("password changed", slog.String("user_uid", user.UID))
	render.JSON(w, r, response.OK())
}
