package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/taskwallet/bot/internal/domain"
	"github.com/taskwallet/bot/internal/repository"
)

// RegistryService owns the catalog of task definitions. It knows nothing
// about who is working which task; assignments hold snapshots, so edits and
// deletes here never touch a running assignment.
type RegistryService struct {
	store repository.TaskStore
}

func NewRegistryService(store repository.TaskStore) *RegistryService {
	return &RegistryService{store: store}
}

func validateTask(title string, reward decimal.Decimal, durationSeconds int) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: empty title", domain.ErrInvalidTaskParameters)
	}
	if reward.LessThan(domain.MinTaskReward) {
		return fmt.Errorf("%w: reward must be at least %s", domain.ErrInvalidTaskParameters, domain.MinTaskReward)
	}
	if durationSeconds <= 0 {
		return fmt.Errorf("%w: duration must be positive", domain.ErrInvalidTaskParameters)
	}
	return nil
}

func (s *RegistryService) Create(ctx context.Context, title, description string, reward decimal.Decimal, durationSeconds int) (domain.Task, error) {
	if err := validateTask(title, reward, durationSeconds); err != nil {
		return domain.Task{}, err
	}

	task, err := s.store.CreateTask(ctx, domain.Task{
		Title:           strings.TrimSpace(title),
		Description:     description,
		Reward:          reward,
		DurationSeconds: durationSeconds,
	})
	if err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// Edit applies a partial update. Nil patch fields keep the current value.
func (s *RegistryService) Edit(ctx context.Context, taskID int64, patch domain.TaskPatch) (domain.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return domain.Task{}, err
	}

	if patch.Title != nil {
		task.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Reward != nil {
		task.Reward = *patch.Reward
	}
	if patch.DurationSeconds != nil {
		task.DurationSeconds = *patch.DurationSeconds
	}

	if err := validateTask(task.Title, task.Reward, task.DurationSeconds); err != nil {
		return domain.Task{}, err
	}

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

func (s *RegistryService) Delete(ctx context.Context, taskID int64) error {
	return s.store.DeleteTask(ctx, taskID)
}

func (s *RegistryService) Get(ctx context.Context, taskID int64) (domain.Task, error) {
	return s.store.GetTask(ctx, taskID)
}

func (s *RegistryService) List(ctx context.Context) ([]domain.Task, error) {
	return s.store.ListTasks(ctx)
}
