package cart

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hosting-market/internal/models"
	"github.com/magabrotheeeer/hosting-market/internal/services/pricing"
	"github.com/magabrotheeeer/hosting-market/internal/storage/repository"
)

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) EnsureCart(ctx context.Context, userUID string) (string, error) {
	args := m.Called(ctx, userUID)
	return args.String(0), args.Error(1)
}
func (m *CartRepoMock) GetCartByUserUID(ctx context.Context, userUID string) (*models.Cart, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cart), args.Error(1)
}
func (m *CartRepoMock) AddCartItem(ctx context.Context, cartID string, item models.CartItem) (string, error) {
	args := m.Called(ctx, cartID, item)
	return args.String(0), args.Error(1)
}
func (m *CartRepoMock) UpdateCartItem(ctx context.Context, cartID string, item models.CartItem) (bool, error) {
	args := m.Called(ctx, cartID, item)
	return args.Bool(0), args.Error(1)
}
func (m *CartRepoMock) RemoveCartItem(ctx context.Context, cartID, itemID string) (bool, error) {
	args := m.Called(ctx, cartID, itemID)
	return args.Bool(0), args.Error(1)
}
func (m *CartRepoMock) ClearCart(ctx context.Context, cartID string) error {
	return m.Called(ctx, cartID).Error(0)
}

type ProduceProviderMock struct{ mock.Mock }

func (m *ProduceProviderMock) GetProduceByID(ctx context.Context, id string) (*models.Produce, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Produce), args.Error(1)
}

type FeatureProviderMock struct{ mock.Mock }

func (m *FeatureProviderMock) GetFeatureByType(ctx context.Context, featureType string) (*models.Feature, error) {
	args := m.Called(ctx, featureType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Feature), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func availableProduce() *models.Produce {
	return &models.Produce{
		ID:    "prod-1",
		Name:  "VPS Basic",
		Price: 100,
		Stock: models.StockUnlimited,
		Features: []models.FeatureConstraint{
			{
				FeatureType: "ram",
				Quantity:    models.ValueConstraint{CanModify: true, Value: 4, Min: 1, Max: 16},
			},
		},
	}
}

func newCartService(carts *CartRepoMock, produces *ProduceProviderMock, features *FeatureProviderMock) *Service {
	return New(carts, produces, pricing.NewEngine(features), newNoopLogger())
}

func TestService_AddItem(t *testing.T) {
	req := models.DummyCartItem{
		ProduceID:    "prod-1",
		ItemQuantity: 2,
		Configuration: []models.ConfigurationEntry{
			{FeatureType: "ram", Quantity: 8},
		},
	}

	t.Run("success", func(t *testing.T) {
		carts := new(CartRepoMock)
		produces := new(ProduceProviderMock)
		produces.On("GetProduceByID", mock.Anything, "prod-1").Return(availableProduce(), nil).Once()
		carts.On("EnsureCart", mock.Anything, "uid-1").Return("cart-1", nil).Once()
		carts.On("AddCartItem", mock.Anything, "cart-1", mock.MatchedBy(func(item models.CartItem) bool {
			return item.ProduceID == "prod-1" && item.ItemQuantity == 2
		})).Return("item-1", nil).Once()

		svc := newCartService(carts, produces, new(FeatureProviderMock))
		itemID, err := svc.AddItem(context.Background(), "uid-1", req)
		require.NoError(t, err)
		assert.Equal(t, "item-1", itemID)
		carts.AssertExpectations(t)
	})

	t.Run("produce not found", func(t *testing.T) {
		carts := new(CartRepoMock)
		produces := new(ProduceProviderMock)
		produces.On("GetProduceByID", mock.Anything, "prod-1").
			Return(nil, repository.ErrNotFound).Once()

		svc := newCartService(carts, produces, new(FeatureProviderMock))
		_, err := svc.AddItem(context.Background(), "uid-1", req)
		assert.ErrorIs(t, err, ErrProduceNotFound)
		carts.AssertNotCalled(t, "EnsureCart", mock.Anything, mock.Anything)
	})

	t.Run("unavailable produce", func(t *testing.T) {
		carts := new(CartRepoMock)
		produces := new(ProduceProviderMock)
		hidden := availableProduce()
		hidden.Status = models.ProduceStatusHidden
		produces.On("GetProduceByID", mock.Anything, "prod-1").Return(hidden, nil).Once()

		svc := newCartService(carts, produces, new(FeatureProviderMock))
		_, err := svc.AddItem(context.Background(), "uid-1", req)
		assert.ErrorIs(t, err, ErrProduceUnavailable)
	})

	t.Run("invalid configuration leaves cart untouched", func(t *testing.T) {
		carts := new(CartRepoMock)
		produces := new(ProduceProviderMock)
		produces.On("GetProduceByID", mock.Anything, "prod-1").Return(availableProduce(), nil).Once()

		bad := req
		bad.Configuration = []models.ConfigurationEntry{{FeatureType: "ram", Quantity: 100}}

		svc := newCartService(carts, produces, new(FeatureProviderMock))
		_, err := svc.AddItem(context.Background(), "uid-1", bad)
		assert.ErrorIs(t, err, pricing.ErrInvalidConfiguration)
		carts.AssertNotCalled(t, "EnsureCart", mock.Anything, mock.Anything)
		carts.AssertNotCalled(t, "AddCartItem", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_UpdateItem(t *testing.T) {
	req := models.DummyCartItem{ProduceID: "prod-1", ItemQuantity: 1}

	t.Run("item not in cart", func(t *testing.T) {
		carts := new(CartRepoMock)
		produces := new(ProduceProviderMock)
		produces.On("GetProduceByID", mock.Anything, "prod-1").Return(availableProduce(), nil).Once()
		carts.On("GetCartByUserUID", mock.Anything, "uid-1").
			Return(&models.Cart{ID: "cart-1", UserID: "uid-1"}, nil).Once()
		carts.On("UpdateCartItem", mock.Anything, "cart-1", mock.Anything).Return(false, nil).Once()

		svc := newCartService(carts, produces, new(FeatureProviderMock))
		err := svc.UpdateItem(context.Background(), "uid-1", "item-9", req)
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("missing cart means missing item", func(t *testing.T) {
		carts := new(CartRepoMock)
		produces := new(ProduceProviderMock)
		produces.On("GetProduceByID", mock.Anything, "prod-1").Return(availableProduce(), nil).Once()
		carts.On("GetCartByUserUID", mock.Anything, "uid-1").
			Return(nil, repository.ErrNotFound).Once()

		svc := newCartService(carts, produces, new(FeatureProviderMock))
		err := svc.UpdateItem(context.Background(), "uid-1", "item-9", req)
		assert.ErrorIs(t, err, ErrItemNotFound)
	})
}

func TestService_RemoveItem(t *testing.T) {
	t.Run("removed", func(t *testing.T) {
		carts := new(CartRepoMock)
		carts.On("GetCartByUserUID", mock.Anything, "uid-1").
			Return(&models.Cart{ID: "cart-1"}, nil).Once()
		carts.On("RemoveCartItem", mock.Anything, "cart-1", "item-1").Return(true, nil).Once()

		svc := newCartService(carts, new(ProduceProviderMock), new(FeatureProviderMock))
		removed, err := svc.RemoveItem(context.Background(), "uid-1", "item-1")
		require.NoError(t, err)
		assert.True(t, removed)
	})

	t.Run("repeat removal reports false", func(t *testing.T) {
		carts := new(CartRepoMock)
		carts.On("GetCartByUserUID", mock.Anything, "uid-1").
			Return(&models.Cart{ID: "cart-1"}, nil).Once()
		carts.On("RemoveCartItem", mock.Anything, "cart-1", "item-1").Return(false, nil).Once()

		svc := newCartService(carts, new(ProduceProviderMock), new(FeatureProviderMock))
		removed, err := svc.RemoveItem(context.Background(), "uid-1", "item-1")
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("missing cart reports false", func(t *testing.T) {
		carts := new(CartRepoMock)
		carts.On("GetCartByUserUID", mock.Anything, "uid-1").
			Return(nil, repository.ErrNotFound).Once()

		svc := newCartService(carts, new(ProduceProviderMock), new(FeatureProviderMock))
		removed, err := svc.RemoveItem(context.Background(), "uid-1", "item-1")
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestService_Get_MissingCartIsEmpty(t *testing.T) {
	carts := new(CartRepoMock)
	carts.On("GetCartByUserUID", mock.Anything, "uid-1").
		Return(nil, repository.ErrNotFound).Once()

	svc := newCartService(carts, new(ProduceProviderMock), new(FeatureProviderMock))
	cart, err := svc.Get(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, "uid-1", cart.UserID)
}

func TestService_Total(t *testing.T) {
	ramFeature := &models.Feature{
		Type:         "ram",
		QuantityFunc: &models.PriceFunc{Name: "linear", Rate: 10},
	}

	t.Run("item quantity multiplies subtotal", func(t *testing.T) {
		carts := new(CartRepoMock)
		produces := new(ProduceProviderMock)
		features := new(FeatureProviderMock)

		carts.On("GetCartByUserUID", mock.Anything, "uid-1").Return(&models.Cart{
			ID: "cart-1", UserID: "uid-1",
			Items: []models.CartItem{
				{
					ID: "item-1", ProduceID: "prod-1", ItemQuantity: 3,
					Configuration: []models.ConfigurationEntry{{FeatureType: "ram", Quantity: 8}},
				},
			},
		}, nil).Once()
		produces.On("GetProduceByID", mock.Anything, "prod-1").Return(availableProduce(), nil).Once()
		features.On("GetFeatureByType", mock.Anything, "ram").Return(ramFeature, nil).Once()

		svc := newCartService(carts, produces, features)
		total, priced, err := svc.Total(context.Background(), "uid-1")
		require.NoError(t, err)
		require.Len(t, priced, 1)
		// unit price: 100 + linear(10, 8) = 180, subtotal: 180 * 3 = 540
		assert.InDelta(t, 180.0, priced[0].UnitPrice, 1e-9)
		assert.InDelta(t, 540.0, priced[0].Subtotal, 1e-9)
		assert.InDelta(t, 540.0, total, 1e-9)
	})

	t.Run("vanished produce fails the whole total", func(t *testing.T) {
		carts := new(CartRepoMock)
		produces := new(ProduceProviderMock)

		carts.On("GetCartByUserUID", mock.Anything, "uid-1").Return(&models.Cart{
			ID: "cart-1", UserID: "uid-1",
			Items: []models.CartItem{
				{ID: "item-1", ProduceID: "gone", ItemQuantity: 1},
			},
		}, nil).Once()
		produces.On("GetProduceByID", mock.Anything, "gone").
			Return(nil, repository.ErrNotFound).Once()

		svc := newCartService(carts, produces, new(FeatureProviderMock))
		_, _, err := svc.Total(context.Background(), "uid-1")
		assert.ErrorIs(t, err, ErrProduceNotFound)
	})

	t.Run("empty cart totals zero", func(t *testing.T) {
		carts := new(CartRepoMock)
		carts.On("GetCartByUserUID", mock.Anything, "uid-1").
			Return(nil, repository.ErrNotFound).Once()

		svc := newCartService(carts, new(ProduceProviderMock), new(FeatureProviderMock))
		total, priced, err := svc.Total(context.Background(), "uid-1")
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, priced)
	})
}
