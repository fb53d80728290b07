// Package hostingmarket собирает приложение: хранилище, кэш, очередь
// уведомлений, платежного провайдера, бизнес-сервисы и HTTP-сервер.
package hostingmarket

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/hosting-market/internal/cache"
	"github.com/magabrotheeeer/hosting-market/internal/config"
	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/migrations"
	"github.com/magabrotheeeer/hosting-market/internal/paymentprovider"
	"github.com/magabrotheeeer/hosting-market/internal/rabbitmq"
	authservice "github.com/magabrotheeeer/hosting-market/internal/services/auth"
	cartservice "github.com/magabrotheeeer/hosting-market/internal/services/cart"
	catalogservice "github.com/magabrotheeeer/hosting-market/internal/services/catalog"
	checkoutservice "github.com/magabrotheeeer/hosting-market/internal/services/checkout"
	"github.com/magabrotheeeer/hosting-market/internal/services/pricing"
	"github.com/magabrotheeeer/hosting-market/internal/services/sweeper"
	"github.com/magabrotheeeer/hosting-market/internal/storage/repository"
)

// App агрегирует зависимости работающего приложения.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *repository.Storage
	rabbit  *amqp.Connection
	sweeper *sweeper.Service
}

// New собирает приложение из конфигурации. RabbitMQ необязателен:
// без него сервис работает, но не публикует чеки.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	var channel *amqp.Channel
	rabbitConn, err := rabbitmq.Connect(cfg.AddressRabbit, cfg.RetriesRabbit, cfg.DelayRabbit)
	if err != nil {
		logger.Warn("rabbitmq is unavailable, receipts will not be published", sl.Err(err))
	} else {
		channel, err = rabbitmq.SetupChannel(rabbitConn)
		if err != nil {
			return nil, err
		}
	}

	providerClient := paymentprovider.NewClient(cfg.ShopID, cfg.SecretKey, cfg.APIURL)

	authService := authservice.New(db, db, cacheRedis, logger, cfg.SessionConfig)
	catalogService := catalogservice.New(db, cacheRedis, logger)
	engine := pricing.NewEngine(catalogService)
	cartService := cartservice.New(db, catalogService, engine, logger)
	checkoutService := checkoutservice.New(cartService, db, providerClient, channel, logger, cfg.ReturnURL)
	sweeperService := sweeper.New(db, logger, cfg.TokenTTL, cfg.SweepInterval)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, &Services{
		Auth:          authService,
		Catalog:       catalogService,
		Cart:          cartService,
		Checkout:      checkoutService,
		WebhookSecret: cfg.WebhookSecret,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:  srv,
		logger:  logger,
		db:      db,
		rabbit:  rabbitConn,
		sweeper: sweeperService,
	}, nil
}

// Run запускает фоновую деактивацию сессий и HTTP-сервер и блокируется
// до отмены контекста или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	go a.sweeper.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if a.rabbit != nil {
			_ = a.rabbit.Close()
		}
		_ = a.db.DB.Close()
		return err
	}
}
