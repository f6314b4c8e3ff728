package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/taskwallet/bot/internal/domain"
)

func TestMemorySessionStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	conv, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conv != nil {
		t.Fatalf("got %+v, want nil for a user without a session", conv)
	}

	title := "Draft title"
	if err := store.Set(ctx, 1, &domain.Conversation{
		Step:  domain.StepTaskCreateDescription,
		Draft: domain.TaskDraft{Title: &title},
	}); err != nil {
		t.Fatalf("set: %v", err)
	}

	conv, err = store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conv == nil || conv.Step != domain.StepTaskCreateDescription {
		t.Fatalf("got %+v, want the stored conversation", conv)
	}
	if conv.Draft.Title == nil || *conv.Draft.Title != "Draft title" {
		t.Errorf("draft title = %v, want Draft title", conv.Draft.Title)
	}

	// Other users are isolated.
	other, err := store.Get(ctx, 2)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if other != nil {
		t.Errorf("user 2 got user 1's session: %+v", other)
	}

	if err := store.Clear(ctx, 1); err != nil {
		t.Fatalf("clear: %v", err)
	}
	conv, err = store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conv != nil {
		t.Errorf("got %+v after clear, want nil", conv)
	}
}

func newRedisSessionStore(t *testing.T, ttl time.Duration) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisSessionStore(client, ttl), mr
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := newRedisSessionStore(t, time.Minute)

	conv, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conv != nil {
		t.Fatalf("got %+v, want nil for a user without a session", conv)
	}

	reward := dec("2.5")
	if err := store.Set(ctx, 1, &domain.Conversation{
		Step:   domain.StepWithdrawMethod,
		Amount: reward,
		Draft:  domain.TaskDraft{Reward: &reward},
	}); err != nil {
		t.Fatalf("set: %v", err)
	}

	conv, err = store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conv == nil || conv.Step != domain.StepWithdrawMethod {
		t.Fatalf("got %+v, want the stored conversation", conv)
	}
	if !conv.Amount.Equal(reward) {
		t.Errorf("amount = %s, want 2.5", conv.Amount)
	}
	if conv.Draft.Reward == nil || !conv.Draft.Reward.Equal(reward) {
		t.Errorf("draft reward = %v, want 2.5", conv.Draft.Reward)
	}

	if err := store.Clear(ctx, 1); err != nil {
		t.Fatalf("clear: %v", err)
	}
	conv, err = store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conv != nil {
		t.Errorf("got %+v after clear, want nil", conv)
	}
}

func TestRedisSessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newRedisSessionStore(t, time.Minute)

	if err := store.Set(ctx, 1, &domain.Conversation{Step: domain.StepSupportMessage}); err != nil {
		t.Fatalf("set: %v", err)
	}

	// An abandoned form expires with the key.
	mr.FastForward(2 * time.Minute)

	conv, err := store.Get(ctx, 1)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if conv != nil {
		t.Errorf("got %+v after ttl, want nil", conv)
	}
}
