// Package auth содержит бизнес-логику аутентификации: регистрацию,
// вход, обновление и отзыв сессий, а также разрешение access-токена
// в пару (сессия, пользователь) для шлюза аутентификации.
//
// Жизненный цикл сессии: у пользователя ровно одна сессия, создаваемая
// при первом входе. Переход из неактивного состояния в активное всегда
// чеканит новую пару токенов; повторное включение уже активной сессии
// токены не трогает. Выключение очищает access-токен всегда, refresh —
// только при полном отзыве.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/hosting-market/internal/config"
	"github.com/magabrotheeeer/hosting-market/internal/lib/keylock"
	"github.com/magabrotheeeer/hosting-market/internal/lib/password"
	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
	"github.com/magabrotheeeer/hosting-market/internal/lib/token"
	"github.com/magabrotheeeer/hosting-market/internal/models"
	"github.com/magabrotheeeer/hosting-market/internal/storage/repository"
)

// Ошибки бизнес-уровня аутентификации.
var (
	// ErrWrongCredentials возвращается при неверной паре email/пароль.
	ErrWrongCredentials = errors.New("wrong credentials")
	// ErrEmailTaken возвращается при регистрации на занятый email.
	ErrEmailTaken = errors.New("email already taken")
	// ErrSessionNotFound возвращается, когда токен не разрешается в активную сессию.
	ErrSessionNotFound = errors.New("session not found")
	// ErrForeignIP возвращается при попытке обновить сессию с адреса,
	// которого сессия не видела.
	ErrForeignIP = errors.New("ip is not known for this session")
	// ErrAlreadyAuthenticated возвращается, когда вход/регистрация/обновление
	// выполняются при уже действующей сессии.
	ErrAlreadyAuthenticated = errors.New("already authenticated")
)

// Количество попыток чеканки токенов при коллизии уникальности.
const tokenMintAttempts = 3

const sessionCachePrefix = "session:access:"

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUID(ctx context.Context, uid string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, uid, passwordHash string) error
}

// SessionRepository описывает контракт для работы с сессиями в базе данных.
type SessionRepository interface {
	CreateSession(ctx context.Context, session models.Session) (string, error)
	GetSessionByUserUID(ctx context.Context, userUID string) (*models.Session, error)
	GetSessionByAccessToken(ctx context.Context, token string) (*models.Session, error)
	GetSessionByRefreshToken(ctx context.Context, token string) (*models.Session, error)
	UpdateSession(ctx context.Context, session models.Session) error
}

// SessionCache описывает кэш сессий по access-токену.
type SessionCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service отвечает за регистрацию, вход и жизненный цикл сессий.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	cache    SessionCache
	locks    *keylock.KeyLock
	log      *slog.Logger

	tokenLength int
	tokenTTL    time.Duration
	cacheTTL    time.Duration
}

// New создает новый Service.
func New(users UserRepository, sessions SessionRepository, cache SessionCache,
	log *slog.Logger, cfg config.SessionConfig) *Service {
	return &Service{
		users:       users,
		sessions:    sessions,
		cache:       cache,
		locks:       keylock.New(),
		log:         log,
		tokenLength: cfg.TokenLength,
		tokenTTL:    cfg.TokenTTL,
		cacheTTL:    cfg.SweepInterval,
	}
}

// TokenTTL возвращает срок жизни пары токенов; используется обработчиками
// для вычисления абсолютного срока действия cookie.
func (s *Service) TokenTTL() time.Duration {
	return s.tokenTTL
}

// Register создает нового пользователя с хэшированием пароля и пустым
// набором капабилити.
func (s *Service) Register(ctx context.Context, req models.DummyRegister) (string, error) {
	const op = "auth.Register"

	if err := password.CheckPolicy(req.Password); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if req.Avatar < 0 || req.Avatar > models.AvatarCount {
		return "", fmt.Errorf("%s: avatar index out of range", op)
	}
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	user := models.User{
		Firstname:    req.Firstname,
		Lastname:     req.Lastname,
		Email:        req.Email,
		PasswordHash: hashed,
		Avatar:       req.Avatar,
		Permissions:  []string{},
	}
	uid, err := s.users.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// Login проверяет пароль пользователя и включает его сессию,
// создавая её при первом входе. Новый клиентский адрес дописывается
// в набор IP сессии.
func (s *Service) Login(ctx context.Context, email, rawPassword, ip string) (*models.Session, *models.User, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrWrongCredentials)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrWrongCredentials)
	}

	s.locks.Lock(user.UID)
	defer s.locks.Unlock(user.UID)

	session, err := s.sessions.GetSessionByUserUID(ctx, user.UID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		session, err = s.createSession(ctx, user.UID, ip)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		return session, user, nil
	case err != nil:
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	ipAdded := false
	if !session.HasIP(ip) {
		session.IPs = append(session.IPs, ip)
		ipAdded = true
	}

	if !session.Active {
		session, err = s.enableSession(ctx, session)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		return session, user, nil
	}
	if ipAdded {
		if err := s.sessions.UpdateSession(ctx, *session); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		s.invalidateCached(ctx, session.AccessToken)
	}
	return session, user, nil
}

// Refresh включает сессию по refresh-токену. Адрес клиента обязан уже
// числиться за сессией; активная сессия токены не ротирует.
func (s *Service) Refresh(ctx context.Context, refreshToken, ip string) (*models.Session, error) {
	const op = "auth.Refresh"

	session, err := s.sessions.GetSessionByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !session.HasIP(ip) {
		return nil, fmt.Errorf("%s: %w", op, ErrForeignIP)
	}

	s.locks.Lock(session.UserID)
	defer s.locks.Unlock(session.UserID)

	if session.Active {
		return session, nil
	}
	session, err = s.enableSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return session, nil
}

// Logout полностью отзывает сессию: очищаются оба токена.
func (s *Service) Logout(ctx context.Context, accessToken, ip string) error {
	const op = "auth.Logout"

	session, _, err := s.Authenticate(ctx, accessToken, ip)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.locks.Lock(session.UserID)
	defer s.locks.Unlock(session.UserID)

	if err := s.disableSession(ctx, session, true); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Authenticate разрешает access-токен в пару (сессия, пользователь).
//
// Токен обязан принадлежать активной сессии, а адрес клиента — числиться
// в её наборе IP: украденный токен с чужого адреса не разрешается.
// Это жесткий вариант шлюза; мягкий вариант см. Detect.
func (s *Service) Authenticate(ctx context.Context, accessToken, ip string) (*models.Session, *models.User, error) {
	const op = "auth.Authenticate"

	if accessToken == "" {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}

	session, err := s.lookupSession(ctx, accessToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if !session.Active || session.AccessToken != accessToken || !session.HasIP(ip) {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}

	user, err := s.users.GetUserByUID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return session, user, nil
}

// Detect сообщает, действует ли предъявленный токен, никогда не
// прерывая вызывающую операцию. Используется, чтобы не дать уже
// вошедшему пользователю повторно выполнить вход или регистрацию.
func (s *Service) Detect(ctx context.Context, accessToken, ip string) bool {
	_, _, err := s.Authenticate(ctx, accessToken, ip)
	return err == nil
}

// ChangePassword меняет пароль пользователя после проверки текущего.
// Единственный путь мутации хэша пароля.
func (s *Service) ChangePassword(ctx context.Context, userUID, oldPassword, newPassword string) error {
	const op = "auth.ChangePassword"

	user, err := s.users.GetUserByUID(ctx, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, oldPassword); err != nil {
		return fmt.Errorf("%s: %w", op, ErrWrongCredentials)
	}
	if err := password.CheckPolicy(newPassword); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdateUserPassword(ctx, userUID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// createSession чеканит пару токенов и сохраняет новую активную сессию.
// Коллизия токена считается временной и приводит к повторной чеканке.
func (s *Service) createSession(ctx context.Context, userUID, ip string) (*models.Session, error) {
	const op = "auth.createSession"

	for attempt := 0; attempt < tokenMintAttempts; attempt++ {
		access, refresh, err := s.mintTokenPair()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		session := models.Session{
			UserID:       userUID,
			AccessToken:  access,
			RefreshToken: refresh,
			Active:       true,
			IPs:          []string{ip},
			IssuedAt:     time.Now().UTC(),
		}
		id, err := s.sessions.CreateSession(ctx, session)
		if errors.Is(err, repository.ErrTokenCollision) {
			s.log.Warn("token collision on session create, retrying", slog.String("user_uid", userUID))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		session.ID = id
		return &session, nil
	}
	return nil, fmt.Errorf("%s: %w", op, repository.ErrTokenCollision)
}

// enableSession переводит неактивную сессию в активное состояние,
// всегда чеканя новую пару токенов и сбрасывая момент выдачи.
// Активную сессию включение не трогает: конкурентный запрос может
// пользоваться её токенами прямо сейчас.
func (s *Service) enableSession(ctx context.Context, session *models.Session) (*models.Session, error) {
	const op = "auth.enableSession"

	if session.Active {
		return session, nil
	}

	for attempt := 0; attempt < tokenMintAttempts; attempt++ {
		access, refresh, err := s.mintTokenPair()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		updated := *session
		updated.AccessToken = access
		updated.RefreshToken = refresh
		updated.Active = true
		updated.IssuedAt = time.Now().UTC()

		err = s.sessions.UpdateSession(ctx, updated)
		if errors.Is(err, repository.ErrTokenCollision) {
			s.log.Warn("token collision on session enable, retrying", slog.String("user_uid", session.UserID))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return &updated, nil
	}
	return nil, fmt.Errorf("%s: %w", op, repository.ErrTokenCollision)
}

// disableSession выключает сессию: access-токен очищается всегда,
// refresh — только при revokeRefresh (полный отзыв против временного выхода).
func (s *Service) disableSession(ctx context.Context, session *models.Session, revokeRefresh bool) error {
	const op = "auth.disableSession"

	oldAccess := session.AccessToken
	updated := *session
	updated.Active = false
	updated.AccessToken = ""
	if revokeRefresh {
		updated.RefreshToken = ""
	}
	if err := s.sessions.UpdateSession(ctx, updated); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateCached(ctx, oldAccess)
	return nil
}

func (s *Service) mintTokenPair() (access, refresh string, err error) {
	access, err = token.Generate(s.tokenLength)
	if err != nil {
		return "", "", err
	}
	refresh, err = token.Generate(s.tokenLength)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// lookupSession достает сессию по access-токену через кэш с подпиткой из базы.
func (s *Service) lookupSession(ctx context.Context, accessToken string) (*models.Session, error) {
	if s.cache != nil {
		var cached models.Session
		found, err := s.cache.Get(ctx, sessionCachePrefix+accessToken, &cached)
		if err != nil {
			s.log.Warn("session cache get failed", sl.Err(err))
		} else if found {
			return &cached, nil
		}
	}

	session, err := s.sessions.GetSessionByAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, sessionCachePrefix+accessToken, session, s.cacheTTL); err != nil {
			s.log.Warn("session cache set failed", sl.Err(err))
		}
	}
	return session, nil
}

func (s *Service) invalidateCached(ctx context.Context, accessToken string) {
	if s.cache == nil || accessToken == "" {
		return
	}
	if err := s.cache.Invalidate(ctx, sessionCachePrefix+accessToken); err != nil {
		s.log.Warn("session cache invalidate failed", sl.Err(err))
	}
}
