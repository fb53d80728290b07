package sweeper

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type SessionRepoStub struct {
	calls atomic.Int64
	err   error
}

func (s *SessionRepoStub) SweepExpiredSessions(_ context.Context, _ time.Duration) (int64, error) {
	s.calls.Add(1)
	if s.err != nil {
		return 0, s.err
	}
	return 1, nil
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestService_Run(t *testing.T) {
	t.Run("sweeps immediately and then by ticker", func(t *testing.T) {
		repo := &SessionRepoStub{}
		svc := New(repo, newNoopLogger(), 24*time.Hour, 10*time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
		defer cancel()

		done := make(chan struct{})
		go func() {
			svc.Run(ctx)
			close(done)
		}()

		<-done
		// Первый проход стартует сразу, дальше тикер добавляет еще несколько.
		assert.GreaterOrEqual(t, repo.calls.Load(), int64(2))
	})

	t.Run("repository error does not stop the loop", func(t *testing.T) {
		repo := &SessionRepoStub{err: context.DeadlineExceeded}
		svc := New(repo, newNoopLogger(), 24*time.Hour, 10*time.Millisecond)

		ctx, cancel := context.WithTimeout(context.Background(), 35*time.Millisecond)
		defer cancel()

		done := make(chan struct{})
		go func() {
			svc.Run(ctx)
			close(done)
		}()

		<-done
		assert.GreaterOrEqual(t, repo.calls.Load(), int64(2))
	})
}
