// Package memory holds all bot state in process-local maps behind the
// repository interfaces. It is the default backend; all state is lost on
// restart, including in-flight assignment timers.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/taskwallet/bot/internal/domain"
)

type Store struct {
	mu sync.Mutex

	users       map[int64]*domain.User
	tasks       map[int64]domain.Task
	assignments map[int64]domain.Assignment
	withdrawals map[int64]domain.WithdrawalRequest
	entries     map[int64][]domain.LedgerEntry

	nextTaskID       int64
	nextWithdrawalID int64
	nextEntryID      int64
}

func NewStore() *Store {
	return &Store{
		users:       make(map[int64]*domain.User),
		tasks:       make(map[int64]domain.Task),
		assignments: make(map[int64]domain.Assignment),
		withdrawals: make(map[int64]domain.WithdrawalRequest),
		entries:     make(map[int64][]domain.LedgerEntry),
	}
}

func (s *Store) FindOrCreate(ctx context.Context, telegramID int64, firstName, username string, isAdmin bool) (*domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u, ok := s.users[telegramID]; ok {
		u.FirstName = firstName
		u.Username = username
		u.IsAdmin = isAdmin
		cp := *u
		return &cp, false, nil
	}

	u := &domain.User{
		TelegramID: telegramID,
		FirstName:  firstName,
		Username:   username,
		IsAdmin:    isAdmin,
		Balance:    decimal.Zero,
		CreatedAt:  time.Now(),
	}
	s.users[telegramID] = u
	cp := *u
	return &cp, true, nil
}

func (s *Store) Get(ctx context.Context, telegramID int64) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[telegramID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) List(ctx context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TelegramID < out[j].TelegramID })
	return out, nil
}

func (s *Store) Apply(ctx context.Context, userID int64, delta decimal.Decimal, entryType domain.EntryType, description string) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyLocked(userID, delta, entryType, description)
}

// applyLocked mutates balance and appends the entry under s.mu.
func (s *Store) applyLocked(userID int64, delta decimal.Decimal, entryType domain.EntryType, description string) (decimal.Decimal, error) {
	u, ok := s.users[userID]
	if !ok {
		u = &domain.User{TelegramID: userID, Balance: decimal.Zero, CreatedAt: time.Now()}
		s.users[userID] = u
	}

	next := u.Balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, domain.ErrInsufficientFunds
	}
	u.Balance = next

	s.nextEntryID++
	s.entries[userID] = append(s.entries[userID], domain.LedgerEntry{
		ID:          s.nextEntryID,
		UserID:      userID,
		Amount:      delta,
		EntryType:   entryType,
		Description: description,
		CreatedAt:   time.Now(),
	})
	return next, nil
}

func (s *Store) SetBalance(ctx context.Context, userID int64, balance decimal.Decimal, description string) (decimal.Decimal, error) {
	if balance.IsNegative() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := decimal.Zero
	if u, ok := s.users[userID]; ok {
		prev = u.Balance
	}
	if _, err := s.applyLocked(userID, balance.Sub(prev), domain.EntryAdjustment, description); err != nil {
		return decimal.Zero, err
	}
	return prev, nil
}

func (s *Store) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return decimal.Zero, nil
	}
	return u.Balance, nil
}

func (s *Store) Entries(ctx context.Context, userID int64, limit int) ([]domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.entries[userID]
	if limit <= 0 || limit > len(all) {
		limit = len(all)
	}
	// newest first
	out := make([]domain.LedgerEntry, 0, limit)
	for i := len(all) - 1; i >= len(all)-limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}

func (s *Store) CreateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextTaskID++
	t.ID = s.nextTaskID
	t.CreatedAt = time.Now()
	s.tasks[t.ID] = t
	return t, nil
}

func (s *Store) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, domain.ErrTaskNotFound
	}
	return t, nil
}

func (s *Store) UpdateTask(ctx context.Context, t domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[t.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	s.tasks[t.ID] = t
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

func (s *Store) ListTasks(ctx context.Context) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateAssignment(ctx context.Context, a domain.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assignments[a.UserID]; ok {
		return domain.ErrAlreadyActive
	}
	s.assignments[a.UserID] = a
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, userID int64) (domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assignments[userID]
	if !ok {
		return domain.Assignment{}, domain.ErrNoActiveTask
	}
	return a, nil
}

func (s *Store) DeleteAssignment(ctx context.Context, userID int64, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assignments[userID]
	if !ok || a.Token != token {
		return domain.ErrNoActiveTask
	}
	delete(s.assignments, userID)
	return nil
}

func (s *Store) ListAssignments(ctx context.Context) ([]domain.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (s *Store) CreateWithdrawal(ctx context.Context, w domain.WithdrawalRequest) (domain.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextWithdrawalID++
	w.ID = s.nextWithdrawalID
	w.Status = domain.WithdrawalPending
	w.CreatedAt = time.Now()
	s.withdrawals[w.ID] = w
	return w, nil
}

func (s *Store) GetWithdrawal(ctx context.Context, id int64) (domain.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.withdrawals[id]
	if !ok {
		return domain.WithdrawalRequest{}, domain.ErrRequestNotFound
	}
	return w, nil
}

func (s *Store) ResolveWithdrawal(ctx context.Context, id int64, status domain.WithdrawalStatus, reason string) (domain.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.withdrawals[id]
	if !ok {
		return domain.WithdrawalRequest{}, domain.ErrRequestNotFound
	}
	if w.Status != domain.WithdrawalPending {
		return domain.WithdrawalRequest{}, domain.ErrNotPending
	}

	now := time.Now()
	w.Status = status
	w.RejectionReason = reason
	w.ResolvedAt = &now
	s.withdrawals[id] = w
	return w, nil
}

func (s *Store) ListPendingWithdrawals(ctx context.Context) ([]domain.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.WithdrawalRequest
	for _, w := range s.withdrawals {
		if w.Status == domain.WithdrawalPending {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListWithdrawalsByUser(ctx context.Context, userID int64, limit int) ([]domain.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []domain.WithdrawalRequest
	for _, w := range s.withdrawals {
		if w.UserID == userID {
			all = append(all, w)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}
