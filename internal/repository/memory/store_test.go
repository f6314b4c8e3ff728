package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/taskwallet/bot/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestFindOrCreate(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	u, created, err := s.FindOrCreate(ctx, 1, "Alice", "alice", false)
	if err != nil {
		t.Fatalf("find or create: %v", err)
	}
	if !created {
		t.Error("first call should report created")
	}
	if !u.Balance.IsZero() {
		t.Errorf("new user balance = %s, want 0", u.Balance)
	}

	// A repeat call refreshes profile fields but keeps the account.
	if _, err := s.Apply(ctx, 1, dec("5"), domain.EntryCredit, "seed"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	u, created, err = s.FindOrCreate(ctx, 1, "Alicia", "alicia", true)
	if err != nil {
		t.Fatalf("find or create: %v", err)
	}
	if created {
		t.Error("second call should not report created")
	}
	if u.FirstName != "Alicia" || u.Username != "alicia" || !u.IsAdmin {
		t.Errorf("profile not refreshed: %+v", u)
	}
	if !u.Balance.Equal(dec("5")) {
		t.Errorf("balance = %s, want preserved 5", u.Balance)
	}
}

func TestApplyRejectsNegativeBalance(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if _, err := s.Apply(ctx, 1, dec("3"), domain.EntryCredit, "seed"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := s.Apply(ctx, 1, dec("-4"), domain.EntryDebit, "overdraw"); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}

	// The rejected delta left no trace.
	balance, err := s.Balance(ctx, 1)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(dec("3")) {
		t.Errorf("balance = %s, want 3", balance)
	}
	entries, err := s.Entries(ctx, 1, 0)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1", len(entries))
	}
}

func TestDeleteAssignmentRequiresMatchingToken(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	a := domain.Assignment{UserID: 1, TaskID: 10, Token: "current"}
	if err := s.CreateAssignment(ctx, a); err != nil {
		t.Fatalf("create: %v", err)
	}

	// A delete carrying a stale token must not remove the assignment.
	if err := s.DeleteAssignment(ctx, 1, "stale"); !errors.Is(err, domain.ErrNoActiveTask) {
		t.Fatalf("stale delete err = %v, want ErrNoActiveTask", err)
	}
	if _, err := s.GetAssignment(ctx, 1); err != nil {
		t.Fatalf("assignment vanished after stale delete: %v", err)
	}

	if err := s.DeleteAssignment(ctx, 1, "current"); err != nil {
		t.Fatalf("matching delete: %v", err)
	}
	// The second matching delete loses: the row is gone.
	if err := s.DeleteAssignment(ctx, 1, "current"); !errors.Is(err, domain.ErrNoActiveTask) {
		t.Errorf("repeat delete err = %v, want ErrNoActiveTask", err)
	}
}

func TestCreateAssignmentEnforcesSingleActive(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	if err := s.CreateAssignment(ctx, domain.Assignment{UserID: 1, TaskID: 10, Token: "a"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateAssignment(ctx, domain.Assignment{UserID: 1, TaskID: 11, Token: "b"}); !errors.Is(err, domain.ErrAlreadyActive) {
		t.Errorf("err = %v, want ErrAlreadyActive", err)
	}
	if err := s.CreateAssignment(ctx, domain.Assignment{UserID: 2, TaskID: 10, Token: "c"}); err != nil {
		t.Errorf("other user blocked: %v", err)
	}
}

func TestResolveWithdrawalIsTerminal(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	req, err := s.CreateWithdrawal(ctx, domain.WithdrawalRequest{UserID: 1, Amount: dec("5"), Method: domain.MethodCrypto})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if req.Status != domain.WithdrawalPending {
		t.Fatalf("status = %s, want pending", req.Status)
	}

	resolved, err := s.ResolveWithdrawal(ctx, req.ID, domain.WithdrawalRejected, "bad address")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.Status != domain.WithdrawalRejected || resolved.RejectionReason != "bad address" {
		t.Errorf("resolved = %+v", resolved)
	}
	if resolved.ResolvedAt == nil {
		t.Error("resolved timestamp not set")
	}

	if _, err := s.ResolveWithdrawal(ctx, req.ID, domain.WithdrawalApproved, ""); !errors.Is(err, domain.ErrNotPending) {
		t.Errorf("re-resolve err = %v, want ErrNotPending", err)
	}
	if _, err := s.ResolveWithdrawal(ctx, 99, domain.WithdrawalApproved, ""); !errors.Is(err, domain.ErrRequestNotFound) {
		t.Errorf("unknown id err = %v, want ErrRequestNotFound", err)
	}
}

func TestListPendingWithdrawals(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	first, _ := s.CreateWithdrawal(ctx, domain.WithdrawalRequest{UserID: 1, Amount: dec("1"), Method: domain.MethodCrypto})
	second, _ := s.CreateWithdrawal(ctx, domain.WithdrawalRequest{UserID: 2, Amount: dec("2"), Method: domain.MethodBank})
	if _, err := s.ResolveWithdrawal(ctx, first.ID, domain.WithdrawalApproved, ""); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	pending, err := s.ListPendingWithdrawals(ctx)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Errorf("pending = %+v, want only request %d", pending, second.ID)
	}
}

func TestEntriesLimitAndOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	for _, amount := range []string{"1", "2", "3", "4"} {
		if _, err := s.Apply(ctx, 1, dec(amount), domain.EntryCredit, amount); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}

	entries, err := s.Entries(ctx, 1, 3)
	if err != nil {
		t.Fatalf("entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i, want := range []string{"4", "3", "2"} {
		if !entries[i].Amount.Equal(dec(want)) {
			t.Errorf("entries[%d] = %s, want %s", i, entries[i].Amount, want)
		}
	}
}
