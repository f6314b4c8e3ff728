package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/taskwallet/bot/internal/repository"
)

// BroadcastService delivers admin messages to users through the Notifier.
// Delivery is best effort: per-user failures are the notifier's problem and
// are never retried here.
type BroadcastService struct {
	users    repository.UserStore
	notifier Notifier
	interval time.Duration
}

func NewBroadcastService(users repository.UserStore, notifier Notifier, interval time.Duration) *BroadcastService {
	return &BroadcastService{users: users, notifier: notifier, interval: interval}
}

// Broadcast sends text to every known user and returns how many sends were
// attempted. Pacing between sends keeps the transport under its rate limit.
func (s *BroadcastService) Broadcast(ctx context.Context, text string) (int, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, u := range users {
		select {
		case <-ctx.Done():
			return sent, ctx.Err()
		default:
		}
		s.notifier.Notify(ctx, u.TelegramID, text)
		sent++
		if s.interval > 0 {
			time.Sleep(s.interval)
		}
	}

	slog.Info("broadcast sent", "recipients", sent)
	return sent, nil
}

// Direct sends text to a single user.
func (s *BroadcastService) Direct(ctx context.Context, userID int64, text string) {
	s.notifier.Notify(ctx, userID, text)
}
