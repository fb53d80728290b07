// Package register реализует HTTP-обработчик регистрации пользователя.
//
// Handler принимает JSON-запрос с данными нового пользователя, валидирует их,
// создает пользователя и сразу включает его сессию: в ответ уходят обе
// сессионные cookie. Запрос уже аутентифицированного пользователя отклоняет
// DetectMiddleware до вызова обработчика.
package register

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
	"github.com/magabrotheeeer/hosting-market/internal/lib/password"
	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/models"
	"github.com/magabrotheeeer/hosting-market/internal/services/auth"
)

// Service описывает интерфейс бизнес-логики регистрации.
type Service interface {
	Register(ctx context.Context, req models.DummyRegister) (string, error)
	Login(ctx context.Context, email, rawPassword, ip string) (*models.Session, *models.User, error)
	TokenTTL() time.Duration
}

// Handler управляет HTTP-запросами на регистрацию.
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
// @Summary Зарегистрировать пользователя
// @Description Создает пользователя, включает его сессию и выдает сессионные cookie.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.DummyRegister true "Данные нового пользователя"
// @Success 201 {object} response.Response "Пользователь создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Уже аутентифицирован"
// @Router /register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyRegister
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

	uid, err := h.service.Register(r.Context(), req)
	if err != nil {
		log.Error("failed to register user", sl.Err(err))
		switch {
		case errors.Is(err, auth.ErrEmailTaken):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("email already taken"))
		case errors.Is(err, password.ErrWeakPassword):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(password.ErrWeakPassword.Error()))
		default:
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not register user"))
		}
		return
	}

	session, user, err := h.service.Login(r.Context(), req.Email, req.Password, middlewarectx.ClientIP(r))
	if err != nil {
		log.Error("failed to start session after register", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not start session"))
		return
	}
	cookies.SetSession(w, session, h.service.TokenTTL())

	log.Info("user registered", slog.String("user_uid", uid))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData(map[string]any{
		"uid":    uid,
		"email":  user.Email,
		"avatar": user.Avatar,
	}))
}
