package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/taskwallet/bot/internal/domain"
	"github.com/taskwallet/bot/internal/repository"
)

// AssignmentService runs the per-user task state machine:
// Idle -> Active -> {Completed, Cancelled} -> Idle.
//
// Completion is driven by a timer scheduled at Start. Every start mints a
// fresh token; the timer callback only credits if the stored assignment still
// carries that token, so a cancel-then-restart of the same task id can never
// be credited by the stale timer. The store's token compare-and-delete is
// atomic: once Cancel returns, no late completion credit can occur.
type AssignmentService struct {
	store    repository.AssignmentStore
	tasks    repository.TaskStore
	ledger   *LedgerService
	notifier Notifier

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewAssignmentService(store repository.AssignmentStore, tasks repository.TaskStore, ledger *LedgerService, notifier Notifier) *AssignmentService {
	return &AssignmentService{
		store:    store,
		tasks:    tasks,
		ledger:   ledger,
		notifier: notifier,
		timers:   make(map[string]*time.Timer),
	}
}

func (s *AssignmentService) Start(ctx context.Context, userID, taskID int64) (domain.Assignment, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return domain.Assignment{}, err
	}

	a := domain.Assignment{
		UserID:    userID,
		TaskID:    task.ID,
		Token:     uuid.NewString(),
		Title:     task.Title,
		Reward:    task.Reward,
		Duration:  task.Duration(),
		StartedAt: time.Now(),
	}

	if err := s.store.CreateAssignment(ctx, a); err != nil {
		return domain.Assignment{}, err
	}

	s.mu.Lock()
	s.timers[a.Token] = time.AfterFunc(a.Duration, func() { s.complete(a) })
	s.mu.Unlock()

	slog.Info("task started", "user_id", userID, "task_id", taskID, "duration", a.Duration)
	return a, nil
}

// complete fires when the assignment's timer elapses. It runs outside any
// request, so it uses a background context.
func (s *AssignmentService) complete(a domain.Assignment) {
	s.mu.Lock()
	delete(s.timers, a.Token)
	s.mu.Unlock()

	ctx := context.Background()

	// Token mismatch means the assignment was cancelled (or replaced) after
	// this timer was scheduled; the reward must not be granted.
	if err := s.store.DeleteAssignment(ctx, a.UserID, a.Token); err != nil {
		slog.Debug("stale completion timer ignored", "user_id", a.UserID, "task_id", a.TaskID)
		return
	}

	if _, err := s.ledger.Credit(ctx, a.UserID, a.Reward, fmt.Sprintf("Task reward: %s", a.Title)); err != nil {
		slog.Error("credit task reward", "error", err, "user_id", a.UserID, "task_id", a.TaskID)
		return
	}

	slog.Info("task completed", "user_id", a.UserID, "task_id", a.TaskID, "reward", a.Reward)
	s.notifier.Notify(ctx, a.UserID, fmt.Sprintf("✅ Task *%s* completed! You've earned *$%s*.", a.Title, a.Reward))
}

func (s *AssignmentService) Cancel(ctx context.Context, userID int64) (domain.Assignment, error) {
	a, err := s.store.GetAssignment(ctx, userID)
	if err != nil {
		return domain.Assignment{}, err
	}

	// Delete first: if the completion timer fires concurrently, exactly one
	// of the two token-matched deletes succeeds.
	if err := s.store.DeleteAssignment(ctx, userID, a.Token); err != nil {
		return domain.Assignment{}, err
	}

	s.mu.Lock()
	if t, ok := s.timers[a.Token]; ok {
		t.Stop()
		delete(s.timers, a.Token)
	}
	s.mu.Unlock()

	slog.Info("task cancelled", "user_id", userID, "task_id", a.TaskID)
	return a, nil
}

func (s *AssignmentService) Active(ctx context.Context, userID int64) (domain.Assignment, error) {
	return s.store.GetAssignment(ctx, userID)
}

// ListAvailable returns every registry task when the user is idle, and
// nothing while a task is running.
func (s *AssignmentService) ListAvailable(ctx context.Context, userID int64) ([]domain.Task, error) {
	if _, err := s.store.GetAssignment(ctx, userID); err == nil {
		return nil, nil
	}
	return s.tasks.ListTasks(ctx)
}

func (s *AssignmentService) ListRunning(ctx context.Context) ([]domain.Assignment, error) {
	return s.store.ListAssignments(ctx)
}

// Shutdown stops all pending completion timers. In-flight assignments are
// abandoned, an accepted limitation of the in-memory design.
func (s *AssignmentService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, t := range s.timers {
		t.Stop()
		delete(s.timers, token)
	}
}
