// Package hostingmarket предоставляет маршруты приложения.
package hostingmarket

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/hosting-market/internal/http/handlers/auth/changepassword"
	"github.com/magabrotheeeer/hosting-market/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/hosting-market/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/hosting-market/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/hosting-market/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/hosting-market/internal/http/handlers/cart/additem"
	"github.com/magabrotheeeer/hosting-market/internal/http/handlers/cart/gettotal"
	"github.com/magabrotheeeer/hosting-market/internal/http/handlers/cart/removeitem"
	"github.com/magabrotheeeer/hosting-market/internal/http/handlers/cart/updateitem"
	checkoutcreate "github.com/magabrotheeeer/hosting-market/internal/http/handlers/checkout/create"
	"github.com/magabrotheeeer/hosting-market/internal/http/handlers/checkout/webhook"
	featurecreate "github.com/magabrotheeeer/hosting-market/internal/http/handlers/feature/create"
	featurelist "github.com/magabrotheeeer/hosting-market/internal/http/handlers/feature/list"
	producecreate "github.com/magabrotheeeer/hosting-market/internal/http/handlers/produce/create"
	producelist "github.com/magabrotheeeer/hosting-market/internal/http/handlers/produce/list"
	produceread "github.com/magabrotheeeer/hosting-market/internal/http/handlers/produce/read"
	"github.com/magabrotheeeer/hosting-market/internal/http/handlers/produce/setdiscount"
	"github.com/magabrotheeeer/hosting-market/internal/http/handlers/produce/setstatus"
	"github.com/magabrotheeeer/hosting-market/internal/http/handlers/produce/setstock"
	"github.com/magabrotheeeer/hosting-market/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/hosting-market/internal/services/auth"
	cartservice "github.com/magabrotheeeer/hosting-market/internal/services/cart"
	catalogservice "github.com/magabrotheeeer/hosting-market/internal/services/catalog"
	checkoutservice "github.com/magabrotheeeer/hosting-market/internal/services/checkout"
)

// PermissionManageCatalog капабилити, открывающая мутации каталога.
const PermissionManageCatalog = "MANAGE_CATALOG"

// Services собирает бизнес-сервисы, обслуживающие маршруты.
type Services struct {
	Auth          *authservice.Service
	Catalog       *catalogservice.Service
	Cart          *cartservice.Service
	Checkout      *checkoutservice.Service
	WebhookSecret string
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(rate.Limit(100), 200)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))

		// Открытые конечные точки витрины
		r.Get("/produces/{type}", producelist.New(logger, s.Catalog).ServeHTTP)
		r.Get("/produce/{id}", produceread.New(logger, s.Catalog).ServeHTTP)
		r.Get("/features", featurelist.New(logger, s.Catalog).ServeHTTP)

		// Вход, регистрация и обновление отклоняют уже аутентифицированных
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.DetectMiddleware(s.Auth, logger))
			r.Post("/register", register.New(logger, s.Auth).ServeHTTP)
			r.Post("/login", login.New(logger, s.Auth).ServeHTTP)
			r.Post("/refresh", refresh.New(logger, s.Auth).ServeHTTP)
		})

		// Группа с сессионной аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.SessionMiddleware(s.Auth, logger))
			r.Post("/logout", logout.New(logger, s.Auth).ServeHTTP)
			r.Put("/password", changepassword.New(logger, s.Auth).ServeHTTP)

			r.Get("/cart", gettotal.New(logger, s.Cart).ServeHTTP)
			r.Post("/cart/items", additem.New(logger, s.Cart).ServeHTTP)
			r.Put("/cart/items/{id}", updateitem.New(logger, s.Cart).ServeHTTP)
			r.Delete("/cart/items/{id}", removeitem.New(logger, s.Cart).ServeHTTP)

			r.Post("/checkout", checkoutcreate.New(logger, s.Checkout).ServeHTTP)

			// Мутации каталога требуют отдельной капабилити
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.PermissionMiddleware(PermissionManageCatalog, logger))
				r.Post("/features", featurecreate.New(logger, s.Catalog).ServeHTTP)
				r.Post("/produces", producecreate.New(logger, s.Catalog).ServeHTTP)
				r.Patch("/produces/{id}/status", setstatus.New(logger, s.Catalog).ServeHTTP)
				r.Patch("/produces/{id}/stock", setstock.New(logger, s.Catalog).ServeHTTP)
				r.Patch("/produces/{id}/discount", setdiscount.New(logger, s.Catalog).ServeHTTP)
			})
		})

		// Webhook endpoint (без аутентификации)
		r.Post("/payments/webhook", webhook.New(logger, s.Checkout, s.WebhookSecret).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
