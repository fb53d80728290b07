// Package checkout содержит бизнес-логику оформления заказа.
//
// Оформление превращает корзину в платеж у провайдера и возвращает URL
// страницы подтверждения. Корзина очищается только после того, как
// провайдер подтвердил успех платежа вебхуком; отмененный платеж
// состояние корзины не меняет.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/rabbitmq"
	"github.com/magabrotheeeer/hosting-market/internal/paymentprovider"
	"github.com/magabrotheeeer/hosting-market/internal/services/cart"
)

// Ошибки бизнес-уровня оформления заказа.
var (
	// ErrEmptyCart возвращается при оформлении пустой корзины.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrPaymentFailed возвращается, когда провайдер отклонил платеж.
	ErrPaymentFailed = errors.New("payment failed")
	// ErrUnknownPayment возвращается для вебхука о неизвестном платеже.
	ErrUnknownPayment = errors.New("unknown payment")
)

// PaymentGateway описывает клиента платежного провайдера.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, req paymentprovider.CreatePaymentRequest) (*paymentprovider.CreatePaymentResponse, error)
}

// PaymentRepository описывает хранилище платежей.
type PaymentRepository interface {
	CreatePayment(ctx context.Context, paymentID, userUID string, amount float64) error
	UpdatePaymentStatus(ctx context.Context, paymentID, status string) (string, error)
}

// CartService описывает используемую часть сервиса корзины.
type CartService interface {
	Total(ctx context.Context, userUID string) (float64, []cart.PricedItem, error)
	Clear(ctx context.Context, userUID string) error
}

// Receipt чек успешной оплаты, публикуемый в очередь уведомлений.
type Receipt struct {
	UserUID   string    `json:"user_uid"`
	PaymentID string    `json:"payment_id"`
	Amount    float64   `json:"amount"`
	PaidAt    time.Time `json:"paid_at"`
}

// Service отвечает за оформление заказа и обработку вебхуков провайдера.
type Service struct {
	carts     CartService
	payments  PaymentRepository
	gateway   PaymentGateway
	channel   *amqp.Channel
	log       *slog.Logger
	returnURL string
}

// New создает новый Service. channel может быть nil — тогда чеки
// не публикуются.
func New(carts CartService, payments PaymentRepository, gateway PaymentGateway,
	channel *amqp.Channel, log *slog.Logger, returnURL string) *Service {
	return &Service{
		carts:     carts,
		payments:  payments,
		gateway:   gateway,
		channel:   channel,
		log:       log,
		returnURL: returnURL,
	}
}

// Checkout оформляет корзину пользователя: пересчитывает сумму по
// актуальному каталогу, создает платеж у провайдера и возвращает URL
// страницы подтверждения. Корзина при этом не очищается.
func (s *Service) Checkout(ctx context.Context, userUID string) (string, error) {
	const op = "checkout.Checkout"

	total, items, err := s.carts.Total(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(items) == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyCart)
	}

	resp, err := s.gateway.CreatePayment(ctx, paymentprovider.CreatePaymentRequest{
		Amount: paymentprovider.Amount{
			Value:    strconv.FormatFloat(total, 'f', 2, 64),
			Currency: "RUB",
		},
		Capture: true,
		Confirmation: paymentprovider.Confirmation{
			Type:      "redirect",
			ReturnURL: s.returnURL,
		},
		Description: fmt.Sprintf("hosting-market order, %d items", len(items)),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrPaymentFailed)
	}

	if err := s.payments.CreatePayment(ctx, resp.ID, userUID, total); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("payment created",
		slog.String("payment_id", resp.ID),
		slog.String("user_uid", userUID),
		slog.String("amount", resp.Amount.Value))
	return resp.Confirmation.URL, nil
}

// HandleWebhook обрабатывает уведомление провайдера об итоге платежа.
// Успех очищает корзину плательщика и публикует чек; отмена лишь
// переводит платеж в статус canceled.
func (s *Service) HandleWebhook(ctx context.Context, event paymentprovider.WebhookEvent) error {
	const op = "checkout.HandleWebhook"

	switch event.Event {
	case paymentprovider.EventPaymentSucceeded:
		userUID, err := s.payments.UpdatePaymentStatus(ctx, event.Object.ID, "succeeded")
		if err != nil {
			return fmt.Errorf("%s: %w", op, ErrUnknownPayment)
		}
		if err := s.carts.Clear(ctx, userUID); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		s.publishReceipt(userUID, event)
		return nil

	case paymentprovider.EventPaymentCanceled:
		if _, err := s.payments.UpdatePaymentStatus(ctx, event.Object.ID, "canceled"); err != nil {
			return fmt.Errorf("%s: %w", op, ErrUnknownPayment)
		}
		return fmt.Errorf("%s: %w", op, ErrPaymentFailed)

	default:
		s.log.Warn("ignoring unknown webhook event", slog.String("event", event.Event))
		return nil
	}
}

func (s *Service) publishReceipt(userUID string, event paymentprovider.WebhookEvent) {
	if s.channel == nil {
		return
	}
	amount, err := strconv.ParseFloat(event.Object.Amount.Value, 64)
	if err != nil {
		s.log.Warn("bad amount in webhook event", sl.Err(err))
	}
	receipt := Receipt{
		UserUID:   userUID,
		PaymentID: event.Object.ID,
		Amount:    amount,
		PaidAt:    time.Now().UTC(),
	}
	if err := rabbitmq.PublishMessage(s.channel, "notifications", "receipt", receipt); err != nil {
		s.log.Error("failed to publish receipt", sl.Err(err))
	}
}
