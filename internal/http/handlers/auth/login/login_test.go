package login

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hosting-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hosting-market/internal/models"
	"github.com/magabrotheeeer/hosting-market/internal/services/auth"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Login(ctx context.Context, email, rawPassword, ip string) (*models.Session, *models.User, error) {
	args := m.Called(ctx, email, rawPassword, ip)
	session, _ := args.Get(0).(*models.Session)
	user, _ := args.Get(1).(*models.User)
	return session, user, args.Error(2)
}

func (m *ServiceMock) TokenTTL() time.Duration {
	return 24 * time.Hour
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	session := &models.Session{
		ID: "sess-1", UserID: "uid-1", Active: true,
		AccessToken: "access-token", RefreshToken: "refresh-token",
		IPs: []string{"1.2.3.4"}, IssuedAt: time.Now().UTC(),
	}
	user := &models.User{UID: "uid-1", Email: "ivan@example.com", Avatar: 3}

	tests := []struct {
		name           string
		requestBody    interface{}
		mockSession    *models.Session
		mockUser       *models.User
		mockErr        error
		wantStatusCode int
		wantStatus     string
		wantError      string
		wantCookies    bool
	}{
		{
			name:           "valid login",
			requestBody:    models.DummyLogin{Email: "ivan@example.com", Password: "Secret123"},
			mockSession:    session,
			mockUser:       user,
			wantStatusCode: http.StatusOK,
			wantStatus:     "OK",
			wantCookies:    true,
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "invalid request body",
		},
		{
			name:           "validation error - missing password",
			requestBody:    models.DummyLogin{Email: "ivan@example.com"},
			wantStatusCode: http.StatusBadRequest,
			wantStatus:     "Error",
			wantError:      "field Password is a required field",
		},
		{
			name:           "wrong credentials",
			requestBody:    models.DummyLogin{Email: "ivan@example.com", Password: "badpass1"},
			mockErr:        auth.ErrWrongCredentials,
			wantStatusCode: http.StatusUnauthorized,
			wantStatus:     "Error",
			wantError:      "wrong email or password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serviceMock := new(ServiceMock)
			handler := New(newNoopLogger(), serviceMock)

			if tt.mockSession != nil || tt.mockErr != nil {
				req := tt.requestBody.(models.DummyLogin)
				serviceMock.On("Login", mock.Anything, req.Email, req.Password, mock.Anything).
					Return(tt.mockSession, tt.mockUser, tt.mockErr).Once()
			}

			var bodyBytes []byte
			switch v := tt.requestBody.(type) {
			case string:
				bodyBytes = []byte(v)
			default:
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)

			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantStatus, got["status"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, got["error"])
			}

			cookies := rec.Result().Cookies()
			if tt.wantCookies {
				var names []string
				for _, c := range cookies {
					names = append(names, c.Name)
					assert.True(t, c.HttpOnly)
				}
				assert.Contains(t, names, middlewarectx.AccessTokenCookie)
				assert.Contains(t, names, middlewarectx.RefreshTokenCookie)
			} else {
				assert.Empty(t, cookies)
			}

			serviceMock.AssertExpectations(t)
		})
	}
}
