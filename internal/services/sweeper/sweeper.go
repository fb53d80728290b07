// Package sweeper реализует фоновую деактивацию просроченных сессий.
//
// Свип — одиночная периодическая задача с явным жизненным циклом,
// привязанным к контексту процесса. Каждый проход помечает неактивными
// все активные сессии старше TTL; ротация токенов свипом не выполняется.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/hosting-market/internal/lib/sl"
)

// SessionRepository описывает контракт деактивации просроченных сессий.
type SessionRepository interface {
	SweepExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)
}

// Service периодически деактивирует просроченные сессии.
type Service struct {
	repo     SessionRepository
	log      *slog.Logger
	ttl      time.Duration
	interval time.Duration
}

// New создает новый Service. ttl — срок жизни сессии,
// interval — период между проходами.
func New(repo SessionRepository, log *slog.Logger, ttl, interval time.Duration) *Service {
	return &Service{
		repo:     repo,
		log:      log,
		ttl:      ttl,
		interval: interval,
	}
}

// Run запускает цикл свипа и блокируется до отмены контекста.
// Ошибки одного прохода логируются и не останавливают цикл.
func (s *Service) Run(ctx context.Context) {
	s.log.Info("session sweeper started",
		slog.Duration("ttl", s.ttl),
		slog.Duration("interval", s.interval))

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Service) sweep(ctx context.Context) {
	swept, err := s.repo.SweepExpiredSessions(ctx, s.ttl)
	if err != nil {
		s.log.Error("failed to sweep expired sessions", sl.Err(err))
		return
	}
	if swept > 0 {
		s.log.Info("swept expired sessions", slog.Int64("count", swept))
	}
}
