package service

import (
	"context"
	"sync"

	"github.com/taskwallet/bot/internal/domain"
)

// SessionStore holds per-user conversation-form state. A nil conversation
// with a nil error means the user has no form in progress.
type SessionStore interface {
	Get(ctx context.Context, userID int64) (*domain.Conversation, error)
	Set(ctx context.Context, userID int64, conv *domain.Conversation) error
	Clear(ctx context.Context, userID int64) error
}

// MemorySessionStore is the default, process-local backend.
type MemorySessionStore struct {
	mu    sync.Mutex
	convs map[int64]domain.Conversation
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{convs: make(map[int64]domain.Conversation)}
}

func (s *MemorySessionStore) Get(ctx context.Context, userID int64) (*domain.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[userID]
	if !ok {
		return nil, nil
	}
	cp := conv
	return &cp, nil
}

func (s *MemorySessionStore) Set(ctx context.Context, userID int64, conv *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.convs[userID] = *conv
	return nil
}

func (s *MemorySessionStore) Clear(ctx context.Context, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, userID)
	return nil
}
