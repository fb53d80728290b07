// Package login реализует HTTP-обработчик входа пользователя.
package login

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/hosting-market/internal/http/cookies"
	"github.com/magabrotheeeer/hosting-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hosting-market/internal/http/response"
	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/models"
	"github.com/magabrotheeeer/hosting-market/internal/services/auth"
)

// Service описывает интерфейс бизнес-логики входа.
type Service interface {
	Login(ctx context.Context, email, rawPassword, ip string) (*models.Session, *models.User, error)
	TokenTTL() time.Duration
}

// Handler управляет HTTP-запросами на вход.
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
// @Summary Войти
// @Description Проверяет учетные данные, включает сессию пользователя и выдает сессионные cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.DummyLogin true "Учетные данные"
// @Success 200 {object} response.Response "Сессия включена"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 403 {object} response.ErrorResponse "Уже аутентифицирован"
// @Router /login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyLogin
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

	session, user, err := h.service.Login(r.Context(), req.Email, req.Password, middlewarectx.ClientIP(r))
	if err != nil {
		log.Error("failed to login", sl.Err(err))
		if errors.Is(err, auth.ErrWrongCredentials) {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("wrong email or password"))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not login"))
		return
	}
	cookies.SetSession(w, session, h.service.TokenTTL())

	log.Info("user logged in", slog.String("user_uid", user.UID))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"uid":    user.UID,
		"email":  user.Email,
		"avatar": user.Avatar,
	}))
}
