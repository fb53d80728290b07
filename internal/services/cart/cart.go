// Package cart содержит бизнес-логику корзины пользователя.
//
// Корзина — одна на пользователя, создается лениво при первом добавлении.
// Любая мутация сначала проходит проверку конфигурации, невалидная
// конфигурация отклоняет операцию целиком. Строки хранят только
// идентификаторы, цена пересчитывается из актуального каталога.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/hosting-market/internal/lib/keylock"
	"github.com/magabrotheeeer/hosting-market/internal/models"
	"github.com/magabrotheeeer/hosting-market/internal/services/catalog"
	"github.com/magabrotheeeer/hosting-market/internal/services/pricing"
	"github.com/magabrotheeeer/hosting-market/internal/storage/repository"
)

// Ошибки бизнес-уровня корзины.
var (
	// ErrProduceNotFound возвращается, когда продукт отсутствует в каталоге.
	ErrProduceNotFound = errors.New("produce not found")
	// ErrProduceUnavailable возвращается при добавлении недоступного продукта.
	ErrProduceUnavailable = errors.New("produce is not available")
	// ErrItemNotFound возвращается, когда строка не принадлежит корзине пользователя.
	ErrItemNotFound = errors.New("cart item not found")
)

// CartRepository описывает контракт хранилища корзин.
type CartRepository interface {
	EnsureCart(ctx context.Context, userUID string) (string, error)
	GetCartByUserUID(ctx context.Context, userUID string) (*models.Cart, error)
	AddCartItem(ctx context.Context, cartID string, item models.CartItem) (string, error)
	UpdateCartItem(ctx context.Context, cartID string, item models.CartItem) (bool, error)
	RemoveCartItem(ctx context.Context, cartID, itemID string) (bool, error)
	ClearCart(ctx context.Context, cartID string) error
}

// ProduceProvider описывает доступ к каталогу продуктов.
type ProduceProvider interface {
	GetProduceByID(ctx context.Context, id string) (*models.Produce, error)
}

// PricedItem строка корзины с пересчитанной ценой.
type PricedItem struct {
	Item      models.CartItem `json:"item"`       // Строка корзины
	Name      string          `json:"name"`       // Имя продукта на момент расчета
	UnitPrice float64         `json:"unit_price"` // Цена одной единицы конфигурации
	Subtotal  float64         `json:"subtotal"`   // UnitPrice * ItemQuantity
}

// Service отвечает за мутации и чтение корзины.
type Service struct {
	carts    CartRepository
	produces ProduceProvider
	engine   *pricing.Engine
	locks    *keylock.KeyLock
	log      *slog.Logger
}

// New создает новый Service.
func New(carts CartRepository, produces ProduceProvider, engine *pricing.Engine, log *slog.Logger) *Service {
	return &Service{
		carts:    carts,
		produces: produces,
		engine:   engine,
		locks:    keylock.New(),
		log:      log,
	}
}

// AddItem добавляет строку в корзину пользователя и возвращает её ID.
// Дубликаты produce_id не схлопываются: каждое добавление — новая строка.
func (s *Service) AddItem(ctx context.Context, userUID string, req models.DummyCartItem) (string, error) {
	const op = "cart.AddItem"

	produce, err := s.resolveProduce(ctx, req.ProduceID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !produce.IsAvailable() {
		return "", fmt.Errorf("%s: %w", op, ErrProduceUnavailable)
	}
	if err := pricing.ValidateConfiguration(produce, req.Configuration); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.locks.Lock(userUID)
	defer s.locks.Unlock(userUID)

	cartID, err := s.carts.EnsureCart(ctx, userUID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	itemID, err := s.carts.AddCartItem(ctx, cartID, models.CartItem{
		ProduceID:     req.ProduceID,
		Configuration: req.Configuration,
		ItemQuantity:  req.ItemQuantity,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return itemID, nil
}

// UpdateItem заменяет строку itemID корзины пользователя на новую.
// Возвращает ErrItemNotFound, если строка не принадлежит корзине.
func (s *Service) UpdateItem(ctx context.Context, userUID, itemID string, req models.DummyCartItem) error {
	const op = "cart.UpdateItem"

	produce, err := s.resolveProduce(ctx, req.ProduceID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !produce.IsAvailable() {
		return fmt.Errorf("%s: %w", op, ErrProduceUnavailable)
	}
	if err := pricing.ValidateConfiguration(produce, req.Configuration); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.locks.Lock(userUID)
	defer s.locks.Unlock(userUID)

	cart, err := s.carts.GetCartByUserUID(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, ErrItemNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	found, err := s.carts.UpdateCartItem(ctx, cart.ID, models.CartItem{
		ID:            itemID,
		ProduceID:     req.ProduceID,
		Configuration: req.Configuration,
		ItemQuantity:  req.ItemQuantity,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return fmt.Errorf("%s: %w", op, ErrItemNotFound)
	}
	return nil
}

// RemoveItem удаляет строку itemID из корзины пользователя.
// Возвращает false, если строки не было: повторное удаление не считается успехом.
func (s *Service) RemoveItem(ctx context.Context, userUID, itemID string) (bool, error) {
	const op = "cart.RemoveItem"

	s.locks.Lock(userUID)
	defer s.locks.Unlock(userUID)

	cart, err := s.carts.GetCartByUserUID(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("%s: %w", op, err)
	}
	removed, err := s.carts.RemoveCartItem(ctx, cart.ID, itemID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return removed, nil
}

// Get возвращает корзину пользователя; отсутствующая корзина
// равнозначна пустой.
func (s *Service) Get(ctx context.Context, userUID string) (*models.Cart, error) {
	const op = "cart.Get"

	cart, err := s.carts.GetCartByUserUID(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &models.Cart{UserID: userUID}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cart, nil
}

// Total пересчитывает корзину по актуальному каталогу и возвращает
// итоговую сумму со строками. Ссылка на исчезнувший продукт роняет
// весь расчет: молчаливый пропуск строки занизил бы счет.
func (s *Service) Total(ctx context.Context, userUID string) (float64, []PricedItem, error) {
	const op = "cart.Total"

	cart, err := s.Get(ctx, userUID)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", op, err)
	}

	var total float64
	priced := make([]PricedItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		produce, err := s.resolveProduce(ctx, item.ProduceID)
		if err != nil {
			return 0, nil, fmt.Errorf("%s: item %s: %w", op, item.ID, err)
		}
		unitPrice, err := s.engine.Price(ctx, produce, item.Configuration)
		if err != nil {
			return 0, nil, fmt.Errorf("%s: item %s: %w", op, item.ID, err)
		}
		subtotal := unitPrice * float64(item.ItemQuantity)
		priced = append(priced, PricedItem{
			Item:      item,
			Name:      produce.Name,
			UnitPrice: unitPrice,
			Subtotal:  subtotal,
		})
		total += subtotal
	}
	return total, priced, nil
}

// Clear опустошает корзину пользователя. Вызывается после подтверждения
// оплаты платежным провайдером.
func (s *Service) Clear(ctx context.Context, userUID string) error {
	const op = "cart.Clear"

	s.locks.Lock(userUID)
	defer s.locks.Unlock(userUID)

	cart, err := s.carts.GetCartByUserUID(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.carts.ClearCart(ctx, cart.ID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) resolveProduce(ctx context.Context, id string) (*models.Produce, error) {
	produce, err := s.produces.GetProduceByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) || errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProduceNotFound
		}
		return nil, err
	}
	return produce, nil
}
