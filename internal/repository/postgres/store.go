// Package postgres implements the repository interfaces on top of pgx.
// Balance mutations lock the user row and write the ledger entry in the same
// transaction, so per-user serialization is delegated to the database.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/taskwallet/bot/internal/domain"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) FindOrCreate(ctx context.Context, telegramID int64, firstName, username string, isAdmin bool) (*domain.User, bool, error) {
	var u domain.User
	var created bool
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (telegram_id, first_name, username, is_admin)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (telegram_id) DO UPDATE
		SET first_name = EXCLUDED.first_name,
		    username = EXCLUDED.username,
		    is_admin = EXCLUDED.is_admin
		RETURNING telegram_id, first_name, username, is_admin, balance, created_at, (xmax = 0)`,
		telegramID, firstName, username, isAdmin,
	).Scan(&u.TelegramID, &u.FirstName, &u.Username, &u.IsAdmin, &u.Balance, &u.CreatedAt, &created)
	if err != nil {
		return nil, false, fmt.Errorf("upsert user: %w", err)
	}
	return &u, created, nil
}

func (s *Store) Get(ctx context.Context, telegramID int64) (*domain.User, error) {
	var u domain.User
	err := s.pool.QueryRow(ctx, `
		SELECT telegram_id, first_name, username, is_admin, balance, created_at
		FROM users WHERE telegram_id = $1`, telegramID,
	).Scan(&u.TelegramID, &u.FirstName, &u.Username, &u.IsAdmin, &u.Balance, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *Store) List(ctx context.Context) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT telegram_id, first_name, username, is_admin, balance, created_at
		FROM users ORDER BY telegram_id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.TelegramID, &u.FirstName, &u.Username, &u.IsAdmin, &u.Balance, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// lockBalance upserts the user row if needed and returns the balance locked
// for update.
func lockBalance(ctx context.Context, tx pgx.Tx, userID int64) (decimal.Decimal, error) {
	if _, err := tx.Exec(ctx, `
		INSERT INTO users (telegram_id) VALUES ($1)
		ON CONFLICT (telegram_id) DO NOTHING`, userID); err != nil {
		return decimal.Zero, fmt.Errorf("ensure user: %w", err)
	}

	var balance decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT balance FROM users WHERE telegram_id = $1 FOR UPDATE`, userID,
	).Scan(&balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("lock user: %w", err)
	}
	return balance, nil
}

func applyEntry(ctx context.Context, tx pgx.Tx, userID int64, balance, delta decimal.Decimal, entryType domain.EntryType, description string) (decimal.Decimal, error) {
	next := balance.Add(delta)
	if next.IsNegative() {
		return decimal.Zero, domain.ErrInsufficientFunds
	}

	if _, err := tx.Exec(ctx, `
		UPDATE users SET balance = $2 WHERE telegram_id = $1`, userID, next); err != nil {
		return decimal.Zero, fmt.Errorf("update balance: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (user_id, amount, entry_type, description)
		VALUES ($1, $2, $3, $4)`, userID, delta, string(entryType), description); err != nil {
		return decimal.Zero, fmt.Errorf("insert ledger entry: %w", err)
	}
	return next, nil
}

func (s *Store) Apply(ctx context.Context, userID int64, delta decimal.Decimal, entryType domain.EntryType, description string) (decimal.Decimal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	balance, err := lockBalance(ctx, tx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	next, err := applyEntry(ctx, tx, userID, balance, delta, entryType, description)
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}

func (s *Store) SetBalance(ctx context.Context, userID int64, balance decimal.Decimal, description string) (decimal.Decimal, error) {
	if balance.IsNegative() {
		return decimal.Zero, domain.ErrInvalidAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	prev, err := lockBalance(ctx, tx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	if _, err := applyEntry(ctx, tx, userID, prev, balance.Sub(prev), domain.EntryAdjustment, description); err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, fmt.Errorf("commit: %w", err)
	}
	return prev, nil
}

func (s *Store) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.pool.QueryRow(ctx, `
		SELECT balance FROM users WHERE telegram_id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

func (s *Store) Entries(ctx context.Context, userID int64, limit int) ([]domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, amount, entry_type, description, created_at
		FROM ledger_entries WHERE user_id = $1
		ORDER BY id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		var entryType string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &entryType, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.EntryType = domain.EntryType(entryType)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) CreateTask(ctx context.Context, t domain.Task) (domain.Task, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO tasks (title, description, reward, duration_seconds)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		t.Title, t.Description, t.Reward, t.DurationSeconds,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

func (s *Store) GetTask(ctx context.Context, id int64) (domain.Task, error) {
	var t domain.Task
	err := s.pool.QueryRow(ctx, `
		SELECT id, title, description, reward, duration_seconds, created_at
		FROM tasks WHERE id = $1`, id,
	).Scan(&t.ID, &t.Title, &t.Description, &t.Reward, &t.DurationSeconds, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Task{}, domain.ErrTaskNotFound
		}
		return domain.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTask(ctx context.Context, t domain.Task) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks SET title = $2, description = $3, reward = $4, duration_seconds = $5
		WHERE id = $1`,
		t.ID, t.Title, t.Description, t.Reward, t.DurationSeconds)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (s *Store) ListTasks(ctx context.Context) ([]domain.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, description, reward, duration_seconds, created_at
		FROM tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		var t domain.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Reward, &t.DurationSeconds, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) CreateAssignment(ctx context.Context, a domain.Assignment) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO assignments (user_id, task_id, token, title, reward, duration_seconds, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO NOTHING`,
		a.UserID, a.TaskID, a.Token, a.Title, a.Reward, int(a.Duration/time.Second), a.StartedAt)
	if err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyActive
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, userID int64) (domain.Assignment, error) {
	var a domain.Assignment
	var seconds int
	err := s.pool.QueryRow(ctx, `
		SELECT user_id, task_id, token, title, reward, duration_seconds, started_at
		FROM assignments WHERE user_id = $1`, userID,
	).Scan(&a.UserID, &a.TaskID, &a.Token, &a.Title, &a.Reward, &seconds, &a.StartedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Assignment{}, domain.ErrNoActiveTask
		}
		return domain.Assignment{}, fmt.Errorf("get assignment: %w", err)
	}
	a.Duration = time.Duration(seconds) * time.Second
	return a, nil
}

func (s *Store) DeleteAssignment(ctx context.Context, userID int64, token string) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM assignments WHERE user_id = $1 AND token = $2`, userID, token)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoActiveTask
	}
	return nil
}

func (s *Store) ListAssignments(ctx context.Context) ([]domain.Assignment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id, task_id, token, title, reward, duration_seconds, started_at
		FROM assignments ORDER BY started_at`)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	defer rows.Close()

	var out []domain.Assignment
	for rows.Next() {
		var a domain.Assignment
		var seconds int
		if err := rows.Scan(&a.UserID, &a.TaskID, &a.Token, &a.Title, &a.Reward, &seconds, &a.StartedAt); err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		a.Duration = time.Duration(seconds) * time.Second
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateWithdrawal(ctx context.Context, w domain.WithdrawalRequest) (domain.WithdrawalRequest, error) {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO withdrawals (user_id, amount, method, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		w.UserID, w.Amount, string(w.Method), string(domain.WithdrawalPending),
	).Scan(&w.ID, &w.CreatedAt)
	if err != nil {
		return domain.WithdrawalRequest{}, fmt.Errorf("create withdrawal: %w", err)
	}
	w.Status = domain.WithdrawalPending
	return w, nil
}

func scanWithdrawal(row pgx.Row) (domain.WithdrawalRequest, error) {
	var w domain.WithdrawalRequest
	var method, status string
	err := row.Scan(&w.ID, &w.UserID, &w.Amount, &method, &status, &w.RejectionReason, &w.CreatedAt, &w.ResolvedAt)
	if err != nil {
		return domain.WithdrawalRequest{}, err
	}
	w.Method = domain.WithdrawalMethod(method)
	w.Status = domain.WithdrawalStatus(status)
	return w, nil
}

const withdrawalColumns = `id, user_id, amount, method, status, rejection_reason, created_at, resolved_at`

func (s *Store) GetWithdrawal(ctx context.Context, id int64) (domain.WithdrawalRequest, error) {
	w, err := scanWithdrawal(s.pool.QueryRow(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.WithdrawalRequest{}, domain.ErrRequestNotFound
		}
		return domain.WithdrawalRequest{}, fmt.Errorf("get withdrawal: %w", err)
	}
	return w, nil
}

func (s *Store) ResolveWithdrawal(ctx context.Context, id int64, status domain.WithdrawalStatus, reason string) (domain.WithdrawalRequest, error) {
	// The status guard in the WHERE clause makes double resolution impossible
	// even with concurrent admins.
	w, err := scanWithdrawal(s.pool.QueryRow(ctx, `
		UPDATE withdrawals
		SET status = $2, rejection_reason = $3, resolved_at = now()
		WHERE id = $1 AND status = $4
		RETURNING `+withdrawalColumns,
		id, string(status), reason, string(domain.WithdrawalPending)))
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.WithdrawalRequest{}, fmt.Errorf("resolve withdrawal: %w", err)
	}

	if _, getErr := s.GetWithdrawal(ctx, id); getErr != nil {
		return domain.WithdrawalRequest{}, getErr
	}
	return domain.WithdrawalRequest{}, domain.ErrNotPending
}

func (s *Store) ListPendingWithdrawals(ctx context.Context) ([]domain.WithdrawalRequest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals WHERE status = $1 ORDER BY id`,
		string(domain.WithdrawalPending))
	if err != nil {
		return nil, fmt.Errorf("list pending withdrawals: %w", err)
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

func (s *Store) ListWithdrawalsByUser(ctx context.Context, userID int64, limit int) ([]domain.WithdrawalRequest, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+withdrawalColumns+` FROM withdrawals WHERE user_id = $1 ORDER BY id DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list user withdrawals: %w", err)
	}
	defer rows.Close()
	return collectWithdrawals(rows)
}

func collectWithdrawals(rows pgx.Rows) ([]domain.WithdrawalRequest, error) {
	var out []domain.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan withdrawal: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
