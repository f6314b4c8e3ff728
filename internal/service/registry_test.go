package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/taskwallet/bot/internal/domain"
	"github.com/taskwallet/bot/internal/repository/memory"
)

func strPtr(s string) *string                   { return &s }
func intPtr(i int) *int                         { return &i }
func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func TestRegistryCreate(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistryService(memory.NewStore())

	task, err := registry.Create(ctx, "  Watch a video  ", "Watch until the end", dec("0.5"), 300)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.ID == 0 {
		t.Error("task id not assigned")
	}
	if task.Title != "Watch a video" {
		t.Errorf("title = %q, want trimmed", task.Title)
	}
	if task.Duration() != 300*time.Second {
		t.Errorf("duration = %s, want 5m", task.Duration())
	}

	got, err := registry.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Reward.Equal(dec("0.5")) {
		t.Errorf("reward = %s, want 0.5", got.Reward)
	}
}

func TestRegistryCreateValidation(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistryService(memory.NewStore())

	tests := []struct {
		name     string
		title    string
		reward   decimal.Decimal
		duration int
	}{
		{"empty title", "", dec("1"), 60},
		{"whitespace title", "   ", dec("1"), 60},
		{"reward below minimum", "Task", dec("0.05"), 60},
		{"negative reward", "Task", dec("-1"), 60},
		{"zero duration", "Task", dec("1"), 0},
		{"negative duration", "Task", dec("1"), -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := registry.Create(ctx, tt.title, "desc", tt.reward, tt.duration)
			if !errors.Is(err, domain.ErrInvalidTaskParameters) {
				t.Errorf("err = %v, want ErrInvalidTaskParameters", err)
			}
		})
	}

	// Nothing invalid may have been stored.
	tasks, err := registry.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("got %d tasks, want 0", len(tasks))
	}
}

func TestRegistryEditPatchSemantics(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistryService(memory.NewStore())

	task, err := registry.Create(ctx, "Original", "Original description", dec("1"), 60)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Only the reward changes; nil fields keep their current values.
	updated, err := registry.Edit(ctx, task.ID, domain.TaskPatch{Reward: decPtr(dec("2.5"))})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if updated.Title != "Original" || updated.Description != "Original description" || updated.DurationSeconds != 60 {
		t.Errorf("unpatched fields changed: %+v", updated)
	}
	if !updated.Reward.Equal(dec("2.5")) {
		t.Errorf("reward = %s, want 2.5", updated.Reward)
	}

	updated, err = registry.Edit(ctx, task.ID, domain.TaskPatch{
		Title:           strPtr("Renamed"),
		DurationSeconds: intPtr(120),
	})
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if updated.Title != "Renamed" || updated.DurationSeconds != 120 {
		t.Errorf("patched fields not applied: %+v", updated)
	}
	if !updated.Reward.Equal(dec("2.5")) {
		t.Errorf("previous edit lost: reward = %s", updated.Reward)
	}
}

func TestRegistryEditValidatesResult(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistryService(memory.NewStore())

	task, err := registry.Create(ctx, "Task", "desc", dec("1"), 60)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := registry.Edit(ctx, task.ID, domain.TaskPatch{Reward: decPtr(dec("0"))}); !errors.Is(err, domain.ErrInvalidTaskParameters) {
		t.Errorf("err = %v, want ErrInvalidTaskParameters", err)
	}

	// The rejected edit must not have been persisted.
	got, err := registry.Get(ctx, task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Reward.Equal(dec("1")) {
		t.Errorf("reward = %s, want unchanged 1", got.Reward)
	}
}

func TestRegistryEditNotFound(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistryService(memory.NewStore())

	if _, err := registry.Edit(ctx, 42, domain.TaskPatch{Title: strPtr("x")}); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestRegistryDelete(t *testing.T) {
	ctx := context.Background()
	registry := NewRegistryService(memory.NewStore())

	task, err := registry.Create(ctx, "Task", "desc", dec("1"), 60)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := registry.Delete(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := registry.Get(ctx, task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("get after delete err = %v, want ErrTaskNotFound", err)
	}
	if err := registry.Delete(ctx, task.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("double delete err = %v, want ErrTaskNotFound", err)
	}
}
