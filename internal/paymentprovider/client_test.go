package paymentprovider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreatePayment(t *testing.T) {
	request := CreatePaymentRequest{
		Amount:  Amount{Value: "540.00", Currency: "RUB"},
		Capture: true,
		Confirmation: Confirmation{
			Type:      "redirect",
			ReturnURL: "https://shop.example.com/return",
		},
		Description: "Заказ из корзины",
	}

	t.Run("sends basic auth and idempotence key", func(t *testing.T) {
		var seenKeys []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/payments", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("shop-1:secret"))
			assert.Equal(t, wantAuth, r.Header.Get("Authorization"))

			key := r.Header.Get("Idempotence-Key")
			assert.NotEmpty(t, key)
			seenKeys = append(seenKeys, key)

			var got CreatePaymentRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, "540.00", got.Amount.Value)

			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(CreatePaymentResponse{
				ID:     "pay-1",
				Status: "pending",
				Amount: got.Amount,
				Confirmation: Confirmation{
					Type: "redirect",
					URL:  "https://pay.example.com/confirm/pay-1",
				},
			})
		}))
		defer server.Close()

		client := NewClient("shop-1", "secret", server.URL)

		resp, err := client.CreatePayment(context.Background(), request)
		require.NoError(t, err)
		assert.Equal(t, "pay-1", resp.ID)
		assert.Equal(t, "https://pay.example.com/confirm/pay-1", resp.Confirmation.URL)

		// Каждый запрос уходит со своим ключом идемпотентности.
		_, err = client.CreatePayment(context.Background(), request)
		require.NoError(t, err)
		require.Len(t, seenKeys, 2)
		assert.NotEqual(t, seenKeys[0], seenKeys[1])
	})

	t.Run("unexpected status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewClient("shop-1", "secret", server.URL)
		_, err := client.CreatePayment(context.Background(), request)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status")
	})

	t.Run("broken response body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("not a json"))
		}))
		defer server.Close()

		client := NewClient("shop-1", "secret", server.URL)
		_, err := client.CreatePayment(context.Background(), request)
		require.Error(t, err)
	})
}
