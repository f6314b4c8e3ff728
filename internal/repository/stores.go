package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/taskwallet/bot/internal/domain"
)

// UserStore owns user identity rows. Users are created on first contact and
// never deleted.
type UserStore interface {
	// FindOrCreate returns the user with the given telegram id, creating it
	// with a zero balance when absent. The second result reports whether the
	// user was created by this call.
	FindOrCreate(ctx context.Context, telegramID int64, firstName, username string, isAdmin bool) (*domain.User, bool, error)
	Get(ctx context.Context, telegramID int64) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// LedgerStore owns balances and their mutation history. All mutations to one
// user's balance are serialized relative to each other.
type LedgerStore interface {
	// Apply atomically adds delta to the user's balance and appends a ledger
	// entry. Returns domain.ErrInsufficientFunds when the resulting balance
	// would be negative; no state changes in that case.
	Apply(ctx context.Context, userID int64, delta decimal.Decimal, entryType domain.EntryType, description string) (decimal.Decimal, error)
	// SetBalance atomically overwrites the balance, recording the difference
	// as an adjustment entry. Returns the previous balance.
	SetBalance(ctx context.Context, userID int64, balance decimal.Decimal, description string) (decimal.Decimal, error)
	Balance(ctx context.Context, userID int64) (decimal.Decimal, error)
	Entries(ctx context.Context, userID int64, limit int) ([]domain.LedgerEntry, error)
}

type TaskStore interface {
	// CreateTask assigns the next id and stores the task.
	CreateTask(ctx context.Context, t domain.Task) (domain.Task, error)
	GetTask(ctx context.Context, id int64) (domain.Task, error)
	UpdateTask(ctx context.Context, t domain.Task) error
	DeleteTask(ctx context.Context, id int64) error
	ListTasks(ctx context.Context) ([]domain.Task, error)
}

type AssignmentStore interface {
	// CreateAssignment stores the assignment; returns domain.ErrAlreadyActive
	// when the user already has one.
	CreateAssignment(ctx context.Context, a domain.Assignment) error
	GetAssignment(ctx context.Context, userID int64) (domain.Assignment, error)
	// DeleteAssignment removes the user's assignment only when its token
	// matches; returns domain.ErrNoActiveTask otherwise. The compare-and-delete
	// is atomic, which makes stale completion timers harmless.
	DeleteAssignment(ctx context.Context, userID int64, token string) error
	ListAssignments(ctx context.Context) ([]domain.Assignment, error)
}

type WithdrawalStore interface {
	CreateWithdrawal(ctx context.Context, w domain.WithdrawalRequest) (domain.WithdrawalRequest, error)
	GetWithdrawal(ctx context.Context, id int64) (domain.WithdrawalRequest, error)
	// ResolveWithdrawal transitions a pending request to a terminal status.
	// Returns domain.ErrNotPending when the request was already resolved.
	ResolveWithdrawal(ctx context.Context, id int64, status domain.WithdrawalStatus, reason string) (domain.WithdrawalRequest, error)
	ListPendingWithdrawals(ctx context.Context) ([]domain.WithdrawalRequest, error)
	ListWithdrawalsByUser(ctx context.Context, userID int64, limit int) ([]domain.WithdrawalRequest, error)
}

// Store bundles every persistence concern behind one seam. The memory
// implementation is the default; the Postgres one is selected when a database
// URL is configured. Services depend only on the narrow interfaces above.
type Store interface {
	UserStore
	LedgerStore
	TaskStore
	AssignmentStore
	WithdrawalStore
}
