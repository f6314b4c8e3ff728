package service

import (
	"context"
	"fmt"

	"github.com/taskwallet/bot/internal/domain"
	"github.com/taskwallet/bot/internal/repository"
)

type UserService struct {
	store repository.UserStore
}

func NewUserService(store repository.UserStore) *UserService {
	return &UserService{store: store}
}

func (s *UserService) FindOrCreate(ctx context.Context, telegramID int64, firstName, username string, isAdmin bool) (*domain.User, bool, error) {
	user, created, err := s.store.FindOrCreate(ctx, telegramID, firstName, username, isAdmin)
	if err != nil {
		return nil, false, fmt.Errorf("find or create user: %w", err)
	}
	return user, created, nil
}

func (s *UserService) Get(ctx context.Context, telegramID int64) (*domain.User, error) {
	return s.store.Get(ctx, telegramID)
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.store.List(ctx)
}
