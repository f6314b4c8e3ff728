package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/taskwallet/bot/internal/domain"
	"github.com/taskwallet/bot/internal/repository/memory"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLedgerCreditDebit(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerService(memory.NewStore())

	balance, err := ledger.Credit(ctx, 1, dec("10.50"), "reward")
	if err != nil {
		t.Fatalf("credit: %v", err)
	}
	if !balance.Equal(dec("10.50")) {
		t.Errorf("balance after credit = %s, want 10.50", balance)
	}

	balance, err = ledger.Debit(ctx, 1, dec("4.25"), "withdrawal")
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !balance.Equal(dec("6.25")) {
		t.Errorf("balance after debit = %s, want 6.25", balance)
	}

	got, err := ledger.Balance(ctx, 1)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !got.Equal(dec("6.25")) {
		t.Errorf("Balance = %s, want 6.25", got)
	}
}

func TestLedgerDebitInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerService(memory.NewStore())

	if _, err := ledger.Credit(ctx, 1, dec("5"), "seed"); err != nil {
		t.Fatalf("credit: %v", err)
	}

	_, err := ledger.Debit(ctx, 1, dec("5.01"), "too much")
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("debit err = %v, want ErrInsufficientFunds", err)
	}

	// The failed debit must not change the balance or leave an entry.
	balance, err := ledger.Balance(ctx, 1)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(dec("5")) {
		t.Errorf("balance = %s, want 5", balance)
	}
	entries, err := ledger.History(ctx, 1, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1", len(entries))
	}
}

func TestLedgerRejectsNonPositiveAmounts(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerService(memory.NewStore())

	for _, amount := range []decimal.Decimal{decimal.Zero, dec("-1")} {
		if _, err := ledger.Credit(ctx, 1, amount, "x"); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("Credit(%s) err = %v, want ErrInvalidAmount", amount, err)
		}
		if _, err := ledger.Debit(ctx, 1, amount, "x"); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("Debit(%s) err = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestLedgerHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerService(memory.NewStore())

	for _, amount := range []string{"1", "2", "3"} {
		if _, err := ledger.Credit(ctx, 1, dec(amount), "credit "+amount); err != nil {
			t.Fatalf("credit: %v", err)
		}
	}

	entries, err := ledger.History(ctx, 1, 2)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if !entries[0].Amount.Equal(dec("3")) || !entries[1].Amount.Equal(dec("2")) {
		t.Errorf("entries = [%s, %s], want newest first [3, 2]", entries[0].Amount, entries[1].Amount)
	}
}

func TestLedgerSetBalance(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerService(memory.NewStore())

	if _, err := ledger.Credit(ctx, 1, dec("3"), "seed"); err != nil {
		t.Fatalf("credit: %v", err)
	}

	prev, err := ledger.SetBalance(ctx, 1, dec("10"), "admin override")
	if err != nil {
		t.Fatalf("set balance: %v", err)
	}
	if !prev.Equal(dec("3")) {
		t.Errorf("prev = %s, want 3", prev)
	}

	balance, err := ledger.Balance(ctx, 1)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !balance.Equal(dec("10")) {
		t.Errorf("balance = %s, want 10", balance)
	}

	// The override is recorded as an adjustment entry holding the delta.
	entries, err := ledger.History(ctx, 1, 1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].EntryType != domain.EntryAdjustment {
		t.Errorf("entry type = %s, want adjustment", entries[0].EntryType)
	}
	if !entries[0].Amount.Equal(dec("7")) {
		t.Errorf("entry amount = %s, want 7", entries[0].Amount)
	}
}

func TestLedgerHistoryReconcilesWithBalance(t *testing.T) {
	ctx := context.Background()
	ledger := NewLedgerService(memory.NewStore())

	if _, err := ledger.Credit(ctx, 1, dec("20"), "seed"); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := ledger.Debit(ctx, 1, dec("8"), "spend"); err != nil {
		t.Fatalf("debit: %v", err)
	}
	if _, err := ledger.SetBalance(ctx, 1, dec("15"), "override"); err != nil {
		t.Fatalf("set balance: %v", err)
	}

	entries, err := ledger.History(ctx, 1, 100)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	balance, err := ledger.Balance(ctx, 1)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !sum.Equal(balance) {
		t.Errorf("entry sum %s does not reconcile with balance %s", sum, balance)
	}
}
