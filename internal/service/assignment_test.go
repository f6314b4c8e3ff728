package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/taskwallet/bot/internal/domain"
	"github.com/taskwallet/bot/internal/repository/memory"
)

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []string
}

func (n *recordingNotifier) Notify(ctx context.Context, userID int64, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, text)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notes)
}

type assignmentFixture struct {
	store    *memory.Store
	ledger   *LedgerService
	registry *RegistryService
	svc      *AssignmentService
	notifier *recordingNotifier
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()
	store := memory.NewStore()
	ledger := NewLedgerService(store)
	notifier := &recordingNotifier{}
	svc := NewAssignmentService(store, store, ledger, notifier)
	t.Cleanup(svc.Shutdown)
	return &assignmentFixture{
		store:    store,
		ledger:   ledger,
		registry: NewRegistryService(store),
		svc:      svc,
		notifier: notifier,
	}
}

func (f *assignmentFixture) createTask(t *testing.T, reward string, durationSeconds int) domain.Task {
	t.Helper()
	task, err := f.registry.Create(context.Background(), "Test task", "desc", dec(reward), durationSeconds)
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return task
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestAssignmentCompletionCreditsReward(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture(t)
	task := f.createTask(t, "2.5", 1)

	a, err := f.svc.Start(ctx, 1, task.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if a.Token == "" {
		t.Error("assignment token not set")
	}

	// Completion fires after the snapshot duration, not immediately.
	balance, err := f.ledger.Balance(ctx, 1)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("balance before completion = %s, want 0", balance)
	}

	if !waitFor(t, 3*time.Second, func() bool {
		b, _ := f.ledger.Balance(ctx, 1)
		return b.Equal(dec("2.5"))
	}) {
		balance, _ := f.ledger.Balance(ctx, 1)
		t.Fatalf("balance after completion = %s, want 2.5", balance)
	}

	if _, err := f.svc.Active(ctx, 1); !errors.Is(err, domain.ErrNoActiveTask) {
		t.Errorf("Active after completion err = %v, want ErrNoActiveTask", err)
	}
	if f.notifier.count() != 1 {
		t.Errorf("got %d notifications, want 1", f.notifier.count())
	}
}

func TestAssignmentSecondStartRejected(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture(t)
	first := f.createTask(t, "1", 60)
	second := f.createTask(t, "1", 60)

	if _, err := f.svc.Start(ctx, 1, first.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.svc.Start(ctx, 1, second.ID); !errors.Is(err, domain.ErrAlreadyActive) {
		t.Errorf("second start err = %v, want ErrAlreadyActive", err)
	}

	// A different user is unaffected.
	if _, err := f.svc.Start(ctx, 2, second.ID); err != nil {
		t.Errorf("start for other user: %v", err)
	}
}

func TestAssignmentStartUnknownTask(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture(t)

	if _, err := f.svc.Start(ctx, 1, 99); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestAssignmentCancelForfeitsReward(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture(t)
	task := f.createTask(t, "5", 1)

	if _, err := f.svc.Start(ctx, 1, task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	cancelled, err := f.svc.Cancel(ctx, 1)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.TaskID != task.ID {
		t.Errorf("cancelled task id = %d, want %d", cancelled.TaskID, task.ID)
	}

	// Even past the original deadline no credit may land.
	time.Sleep(1200 * time.Millisecond)
	balance, err := f.ledger.Balance(ctx, 1)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.IsZero() {
		t.Errorf("balance after cancelled deadline = %s, want 0", balance)
	}
	if f.notifier.count() != 0 {
		t.Errorf("got %d notifications, want 0", f.notifier.count())
	}
}

func TestAssignmentCancelWithoutActive(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture(t)

	if _, err := f.svc.Cancel(ctx, 1); !errors.Is(err, domain.ErrNoActiveTask) {
		t.Errorf("err = %v, want ErrNoActiveTask", err)
	}
}

func TestAssignmentRestartAfterCancelCreditsOnce(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture(t)
	task := f.createTask(t, "3", 1)

	// Cancel and immediately restart the same task. The first timer's token
	// no longer matches, so only the second run may credit.
	if _, err := f.svc.Start(ctx, 1, task.ID); err != nil {
		t.Fatalf("first start: %v", err)
	}
	if _, err := f.svc.Cancel(ctx, 1); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.svc.Start(ctx, 1, task.ID); err != nil {
		t.Fatalf("second start: %v", err)
	}

	if !waitFor(t, 3*time.Second, func() bool {
		b, _ := f.ledger.Balance(ctx, 1)
		return !b.IsZero()
	}) {
		t.Fatal("second run never completed")
	}
	// Let any stale timer fire before checking for a double credit.
	time.Sleep(200 * time.Millisecond)

	balance, err := f.ledger.Balance(ctx, 1)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(dec("3")) {
		t.Errorf("balance = %s, want a single credit of 3", balance)
	}
}

func TestAssignmentSurvivesTaskMutation(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture(t)
	task := f.createTask(t, "4", 1)

	if _, err := f.svc.Start(ctx, 1, task.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Mutating and deleting the definition must not affect the running
	// assignment; it carries its own snapshot.
	if _, err := f.registry.Edit(ctx, task.ID, domain.TaskPatch{Reward: decPtr(dec("99"))}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := f.registry.Delete(ctx, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	active, err := f.svc.Active(ctx, 1)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if !active.Reward.Equal(dec("4")) {
		t.Errorf("snapshot reward = %s, want 4", active.Reward)
	}

	if !waitFor(t, 3*time.Second, func() bool {
		b, _ := f.ledger.Balance(ctx, 1)
		return !b.IsZero()
	}) {
		t.Fatal("assignment never completed")
	}
	balance, _ := f.ledger.Balance(ctx, 1)
	if !balance.Equal(dec("4")) {
		t.Errorf("credited %s, want the snapshot reward 4", balance)
	}
}

func TestAssignmentListAvailable(t *testing.T) {
	ctx := context.Background()
	f := newAssignmentFixture(t)
	first := f.createTask(t, "1", 60)
	f.createTask(t, "1", 60)

	tasks, err := f.svc.ListAvailable(ctx, 1)
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("got %d tasks, want 2", len(tasks))
	}

	if _, err := f.svc.Start(ctx, 1, first.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// While a task runs the list is empty for that user only.
	tasks, err = f.svc.ListAvailable(ctx, 1)
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("got %d tasks while active, want 0", len(tasks))
	}
	tasks, err = f.svc.ListAvailable(ctx, 2)
	if err != nil {
		t.Fatalf("list available: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("other user got %d tasks, want 2", len(tasks))
	}
}

func TestAssignmentRemaining(t *testing.T) {
	a := domain.Assignment{
		StartedAt: time.Now().Add(-30 * time.Second),
		Duration:  60 * time.Second,
	}
	remaining := a.Remaining(time.Now())
	if remaining <= 25*time.Second || remaining > 30*time.Second {
		t.Errorf("remaining = %s, want about 30s", remaining)
	}

	past := domain.Assignment{
		StartedAt: time.Now().Add(-2 * time.Minute),
		Duration:  60 * time.Second,
	}
	if got := past.Remaining(time.Now()); got != 0 {
		t.Errorf("remaining past deadline = %s, want 0", got)
	}
}
