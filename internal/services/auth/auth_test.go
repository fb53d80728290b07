package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hosting-market/internal/config"
	"github.com/magabrotheeeer/hosting-market/internal/lib/password"
	"github.com/magabrotheeeer/hosting-market/internal/models"
	"github.com/magabrotheeeer/hosting-market/internal/storage/repository"
)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) CreateUser(ctx context.Context, user models.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}
func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *UserRepoMock) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *UserRepoMock) UpdateUserPassword(ctx context.Context, uid, passwordHash string) error {
	return m.Called(ctx, uid, passwordHash).Error(0)
}

type SessionRepoMock struct{ mock.Mock }

func (m *SessionRepoMock) CreateSession(ctx context.Context, session models.Session) (string, error) {
	args := m.Called(ctx, session)
	return args.String(0), args.Error(1)
}
func (m *SessionRepoMock) GetSessionByUserUID(ctx context.Context, userUID string) (*models.Session, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}
func (m *SessionRepoMock) GetSessionByAccessToken(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}
func (m *SessionRepoMock) GetSessionByRefreshToken(ctx context.Context, token string) (*models.Session, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}
func (m *SessionRepoMock) UpdateSession(ctx context.Context, session models.Session) error {
	return m.Called(ctx, session).Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}
func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}
func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newService(users *UserRepoMock, sessions *SessionRepoMock) *Service {
	return New(users, sessions, nil, newNoopLogger(), config.SessionConfig{
		TokenTTL:      24 * time.Hour,
		SweepInterval: 15 * time.Minute,
		TokenLength:   32,
	})
}

func TestService_Register(t *testing.T) {
	tests := []struct {
		name       string
		req        models.DummyRegister
		setupMocks func(u *UserRepoMock)
		wantUID    string
		wantErr    error
	}{
		{
			name: "success",
			req: models.DummyRegister{
				Firstname: "Ivan", Lastname: "Petrov",
				Email: "ivan@example.com", Password: "Secret123", Avatar: 3,
			},
			setupMocks: func(u *UserRepoMock) {
				u.On("CreateUser", mock.Anything, mock.MatchedBy(func(user models.User) bool {
					return user.Email == "ivan@example.com" &&
						user.PasswordHash != "Secret123" &&
						len(user.Permissions) == 0
				})).Return("uid-1", nil).Once()
			},
			wantUID: "uid-1",
		},
		{
			name: "weak password",
			req: models.DummyRegister{
				Firstname: "Ivan", Lastname: "Petrov",
				Email: "ivan@example.com", Password: "abc",
			},
			setupMocks: func(_ *UserRepoMock) {},
			wantErr:    password.ErrWeakPassword,
		},
		{
			name: "email taken",
			req: models.DummyRegister{
				Firstname: "Ivan", Lastname: "Petrov",
				Email: "taken@example.com", Password: "Secret123",
			},
			setupMocks: func(u *UserRepoMock) {
				u.On("CreateUser", mock.Anything, mock.Anything).
					Return("", repository.ErrEmailTaken).Once()
			},
			wantErr: ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UserRepoMock)
			sessions := new(SessionRepoMock)
			tt.setupMocks(users)

			svc := newService(users, sessions)
			uid, err := svc.Register(context.Background(), tt.req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUID, uid)
			}
			users.AssertExpectations(t)
		})
	}
}

func TestService_Login(t *testing.T) {
	hash, err := password.GetHash("Secret123")
	require.NoError(t, err)
	user := &models.User{UID: "uid-1", Email: "ivan@example.com", PasswordHash: hash}

	t.Run("wrong password", func(t *testing.T) {
		users := new(UserRepoMock)
		sessions := new(SessionRepoMock)
		users.On("GetUserByEmail", mock.Anything, user.Email).Return(user, nil).Once()

		svc := newService(users, sessions)
		_, _, err := svc.Login(context.Background(), user.Email, "wrongpass", "1.2.3.4")
		assert.ErrorIs(t, err, ErrWrongCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		users := new(UserRepoMock)
		sessions := new(SessionRepoMock)
		users.On("GetUserByEmail", mock.Anything, "nobody@example.com").
			Return(nil, repository.ErrNotFound).Once()

		svc := newService(users, sessions)
		_, _, err := svc.Login(context.Background(), "nobody@example.com", "Secret123", "1.2.3.4")
		assert.ErrorIs(t, err, ErrWrongCredentials)
	})

	t.Run("first login creates active session", func(t *testing.T) {
		users := new(UserRepoMock)
		sessions := new(SessionRepoMock)
		users.On("GetUserByEmail", mock.Anything, user.Email).Return(user, nil).Once()
		sessions.On("GetSessionByUserUID", mock.Anything, "uid-1").
			Return(nil, repository.ErrNotFound).Once()
		sessions.On("CreateSession", mock.Anything, mock.MatchedBy(func(s models.Session) bool {
			return s.UserID == "uid-1" && s.Active &&
				len(s.AccessToken) == 32 && len(s.RefreshToken) == 32 &&
				len(s.IPs) == 1 && s.IPs[0] == "1.2.3.4"
		})).Return("sess-1", nil).Once()

		svc := newService(users, sessions)
		session, gotUser, err := svc.Login(context.Background(), user.Email, "Secret123", "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, "sess-1", session.ID)
		assert.Equal(t, "uid-1", gotUser.UID)
		sessions.AssertExpectations(t)
	})

	t.Run("enabling inactive session mints new token pair", func(t *testing.T) {
		users := new(UserRepoMock)
		sessions := new(SessionRepoMock)
		existing := &models.Session{
			ID: "sess-1", UserID: "uid-1", Active: false,
			RefreshToken: "oldrefresh", IPs: []string{"1.2.3.4"},
			IssuedAt: time.Now().Add(-time.Hour),
		}
		users.On("GetUserByEmail", mock.Anything, user.Email).Return(user, nil).Once()
		sessions.On("GetSessionByUserUID", mock.Anything, "uid-1").Return(existing, nil).Once()
		sessions.On("UpdateSession", mock.Anything, mock.MatchedBy(func(s models.Session) bool {
			return s.Active &&
				len(s.AccessToken) == 32 &&
				s.RefreshToken != "oldrefresh" &&
				s.IssuedAt.After(existing.IssuedAt)
		})).Return(nil).Once()

		svc := newService(users, sessions)
		session, _, err := svc.Login(context.Background(), user.Email, "Secret123", "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, session.Active)
		sessions.AssertExpectations(t)
	})

	t.Run("login into active session keeps tokens", func(t *testing.T) {
		users := new(UserRepoMock)
		sessions := new(SessionRepoMock)
		existing := &models.Session{
			ID: "sess-1", UserID: "uid-1", Active: true,
			AccessToken: "liveaccess", RefreshToken: "liverefresh",
			IPs: []string{"1.2.3.4"},
		}
		users.On("GetUserByEmail", mock.Anything, user.Email).Return(user, nil).Once()
		sessions.On("GetSessionByUserUID", mock.Anything, "uid-1").Return(existing, nil).Once()
		// Ни CreateSession, ни UpdateSession вызываться не должны.

		svc := newService(users, sessions)
		session, _, err := svc.Login(context.Background(), user.Email, "Secret123", "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, "liveaccess", session.AccessToken)
		assert.Equal(t, "liverefresh", session.RefreshToken)
		sessions.AssertExpectations(t)
	})

	t.Run("new client ip is appended to active session", func(t *testing.T) {
		users := new(UserRepoMock)
		sessions := new(SessionRepoMock)
		existing := &models.Session{
			ID: "sess-1", UserID: "uid-1", Active: true,
			AccessToken: "liveaccess", RefreshToken: "liverefresh",
			IPs: []string{"1.2.3.4"},
		}
		users.On("GetUserByEmail", mock.Anything, user.Email).Return(user, nil).Once()
		sessions.On("GetSessionByUserUID", mock.Anything, "uid-1").Return(existing, nil).Once()
		sessions.On("UpdateSession", mock.Anything, mock.MatchedBy(func(s models.Session) bool {
			return len(s.IPs) == 2 && s.IPs[1] == "5.6.7.8" && s.AccessToken == "liveaccess"
		})).Return(nil).Once()

		svc := newService(users, sessions)
		session, _, err := svc.Login(context.Background(), user.Email, "Secret123", "5.6.7.8")
		require.NoError(t, err)
		assert.True(t, session.HasIP("5.6.7.8"))
		sessions.AssertExpectations(t)
	})

	t.Run("token collision retries minting", func(t *testing.T) {
		users := new(UserRepoMock)
		sessions := new(SessionRepoMock)
		users.On("GetUserByEmail", mock.Anything, user.Email).Return(user, nil).Once()
		sessions.On("GetSessionByUserUID", mock.Anything, "uid-1").
			Return(nil, repository.ErrNotFound).Once()
		sessions.On("CreateSession", mock.Anything, mock.Anything).
			Return("", repository.ErrTokenCollision).Once()
		sessions.On("CreateSession", mock.Anything, mock.Anything).
			Return("sess-1", nil).Once()

		svc := newService(users, sessions)
		session, _, err := svc.Login(context.Background(), user.Email, "Secret123", "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, "sess-1", session.ID)
		sessions.AssertExpectations(t)
	})
}

func TestService_Refresh(t *testing.T) {
	t.Run("unknown token", func(t *testing.T) {
		users := new(UserRepoMock)
		sessions := new(SessionRepoMock)
		sessions.On("GetSessionByRefreshToken", mock.Anything, "missing").
			Return(nil, repository.ErrNotFound).Once()

		svc := newService(users, sessions)
		_, err := svc.Refresh(context.Background(), "missing", "1.2.3.4")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("foreign ip is rejected", func(t *testing.T) {
		users := new(UserRepoMock)
		sessions := new(SessionRepoMock)
		existing := &models.Session{
			ID: "sess-1", UserID: "uid-1", Active: false,
			RefreshToken: "refresh", IPs: []string{"1.2.3.4"},
		}
		sessions.On("GetSessionByRefreshToken", mock.Anything, "refresh").Return(existing, nil).Once()

		svc := newService(users, sessions)
		_, err := svc.Refresh(context.Background(), "refresh", "9.9.9.9")
		assert.ErrorIs(t, err, ErrForeignIP)
	})

	t.Run("active session is returned as is", func(t *testing.T) {
		users := new(UserRepoMock)
		sessions := new(SessionRepoMock)
		existing := &models.Session{
			ID: "sess-1", UserID: "uid-1", Active: true,
			AccessToken: "liveaccess", RefreshToken: "refresh", IPs: []string{"1.2.3.4"},
		}
		sessions.On("GetSessionByRefreshToken", mock.Anything, "refresh").Return(existing, nil).Once()

		svc := newService(users, sessions)
		session, err := svc.Refresh(context.Background(), "refresh", "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, "liveaccess", session.AccessToken)
		sessions.AssertExpectations(t)
	})

	t.Run("inactive session rotates tokens", func(t *testing.T) {
		users := new(UserRepoMock)
		sessions := new(SessionRepoMock)
		existing := &models.Session{
			ID: "sess-1", UserID: "uid-1", Active: false,
			RefreshToken: "refresh", IPs: []string{"1.2.3.4"},
		}
		sessions.On("GetSessionByRefreshToken", mock.Anything, "refresh").Return(existing, nil).Once()
		sessions.On("UpdateSession", mock.Anything, mock.MatchedBy(func(s models.Session) bool {
			return s.Active && s.RefreshToken != "refresh" && len(s.AccessToken) == 32
		})).Return(nil).Once()

		svc := newService(users, sessions)
		session, err := svc.Refresh(context.Background(), "refresh", "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, session.Active)
		sessions.AssertExpectations(t)
	})
}

func TestService_Logout(t *testing.T) {
	users := new(UserRepoMock)
	sessions := new(SessionRepoMock)
	user := &models.User{UID: "uid-1"}
	existing := &models.Session{
		ID: "sess-1", UserID: "uid-1", Active: true,
		AccessToken: "liveaccess", RefreshToken: "liverefresh", IPs: []string{"1.2.3.4"},
	}
	sessions.On("GetSessionByAccessToken", mock.Anything, "liveaccess").Return(existing, nil).Once()
	users.On("GetUserByUID", mock.Anything, "uid-1").Return(user, nil).Once()
	sessions.On("UpdateSession", mock.Anything, mock.MatchedBy(func(s models.Session) bool {
		return !s.Active && s.AccessToken == "" && s.RefreshToken == ""
	})).Return(nil).Once()

	svc := newService(users, sessions)
	err := svc.Logout(context.Background(), "liveaccess", "1.2.3.4")
	require.NoError(t, err)
	sessions.AssertExpectations(t)
}

func TestService_Authenticate(t *testing.T) {
	user := &models.User{UID: "uid-1"}
	active := &models.Session{
		ID: "sess-1", UserID: "uid-1", Active: true,
		AccessToken: "liveaccess", IPs: []string{"1.2.3.4"},
	}

	tests := []struct {
		name       string
		token      string
		ip         string
		setupMocks func(u *UserRepoMock, s *SessionRepoMock)
		wantErr    error
	}{
		{
			name:  "success",
			token: "liveaccess",
			ip:    "1.2.3.4",
			setupMocks: func(u *UserRepoMock, s *SessionRepoMock) {
				s.On("GetSessionByAccessToken", mock.Anything, "liveaccess").Return(active, nil).Once()
				u.On("GetUserByUID", mock.Anything, "uid-1").Return(user, nil).Once()
			},
		},
		{
			name:       "empty token",
			token:      "",
			ip:         "1.2.3.4",
			setupMocks: func(_ *UserRepoMock, _ *SessionRepoMock) {},
			wantErr:    ErrSessionNotFound,
		},
		{
			name:  "unknown token",
			token: "missing",
			ip:    "1.2.3.4",
			setupMocks: func(_ *UserRepoMock, s *SessionRepoMock) {
				s.On("GetSessionByAccessToken", mock.Anything, "missing").
					Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: ErrSessionNotFound,
		},
		{
			name:  "foreign ip looks like missing session",
			token: "liveaccess",
			ip:    "9.9.9.9",
			setupMocks: func(_ *UserRepoMock, s *SessionRepoMock) {
				s.On("GetSessionByAccessToken", mock.Anything, "liveaccess").Return(active, nil).Once()
			},
			wantErr: ErrSessionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := new(UserRepoMock)
			sessions := new(SessionRepoMock)
			tt.setupMocks(users, sessions)

			svc := newService(users, sessions)
			session, gotUser, err := svc.Authenticate(context.Background(), tt.token, tt.ip)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "sess-1", session.ID)
				assert.Equal(t, "uid-1", gotUser.UID)
			}
			sessions.AssertExpectations(t)
		})
	}
}

func TestService_Authenticate_CacheHit(t *testing.T) {
	users := new(UserRepoMock)
	sessions := new(SessionRepoMock)
	cache := new(CacheMock)
	user := &models.User{UID: "uid-1"}

	cache.On("Get", mock.Anything, "session:access:liveaccess", mock.Anything).
		Run(func(args mock.Arguments) {
			session := args.Get(2).(*models.Session)
			*session = models.Session{
				ID: "sess-1", UserID: "uid-1", Active: true,
				AccessToken: "liveaccess", IPs: []string{"1.2.3.4"},
			}
		}).Return(true, nil).Once()
	users.On("GetUserByUID", mock.Anything, "uid-1").Return(user, nil).Once()

	svc := New(users, sessions, cache, newNoopLogger(), config.SessionConfig{
		TokenTTL: 24 * time.Hour, SweepInterval: 15 * time.Minute, TokenLength: 32,
	})
	session, _, err := svc.Authenticate(context.Background(), "liveaccess", "1.2.3.4")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", session.ID)
	// База не трогалась.
	sessions.AssertNotCalled(t, "GetSessionByAccessToken", mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestService_ChangePassword(t *testing.T) {
	hash, err := password.GetHash("OldSecret1")
	require.NoError(t, err)
	user := &models.User{UID: "uid-1", PasswordHash: hash}

	t.Run("success", func(t *testing.T) {
		users := new(UserRepoMock)
		users.On("GetUserByUID", mock.Anything, "uid-1").Return(user, nil).Once()
		users.On("UpdateUserPassword", mock.Anything, "uid-1", mock.MatchedBy(func(h string) bool {
			return h != "" && h != hash
		})).Return(nil).Once()

		svc := newService(users, new(SessionRepoMock))
		require.NoError(t, svc.ChangePassword(context.Background(), "uid-1", "OldSecret1", "NewSecret2"))
		users.AssertExpectations(t)
	})

	t.Run("wrong old password", func(t *testing.T) {
		users := new(UserRepoMock)
		users.On("GetUserByUID", mock.Anything, "uid-1").Return(user, nil).Once()

		svc := newService(users, new(SessionRepoMock))
		err := svc.ChangePassword(context.Background(), "uid-1", "wrongpass", "NewSecret2")
		assert.ErrorIs(t, err, ErrWrongCredentials)
	})

	t.Run("weak new password", func(t *testing.T) {
		users := new(UserRepoMock)
		users.On("GetUserByUID", mock.Anything, "uid-1").Return(user, nil).Once()

		svc := newService(users, new(SessionRepoMock))
		err := svc.ChangePassword(context.Background(), "uid-1", "OldSecret1", "abc")
		assert.ErrorIs(t, err, password.ErrWeakPassword)
	})
}
