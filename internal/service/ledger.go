package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/taskwallet/bot/internal/domain"
	"github.com/taskwallet/bot/internal/repository"
)

// LedgerService is the component of record for balances. Every mutation goes
// through the store's atomic Apply, which also writes the history entry, so
// the entry sum always reconciles with the balance.
type LedgerService struct {
	store repository.LedgerStore
}

func NewLedgerService(store repository.LedgerStore) *LedgerService {
	return &LedgerService{store: store}
}

func (s *LedgerService) Credit(ctx context.Context, userID int64, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	balance, err := s.store.Apply(ctx, userID, amount, domain.EntryCredit, description)
	if err != nil {
		return decimal.Zero, fmt.Errorf("credit user %d: %w", userID, err)
	}
	return balance, nil
}

func (s *LedgerService) Debit(ctx context.Context, userID int64, amount decimal.Decimal, description string) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidAmount
	}
	balance, err := s.store.Apply(ctx, userID, amount.Neg(), domain.EntryDebit, description)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("debit user %d: %w", userID, err)
	}
	return balance, nil
}

func (s *LedgerService) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.store.Balance(ctx, userID)
}

// SetBalance overwrites a user's balance, recording the difference as an
// adjustment entry. Admin-only surface.
func (s *LedgerService) SetBalance(ctx context.Context, userID int64, balance decimal.Decimal, description string) (decimal.Decimal, error) {
	return s.store.SetBalance(ctx, userID, balance, description)
}

func (s *LedgerService) History(ctx context.Context, userID int64, limit int) ([]domain.LedgerEntry, error) {
	return s.store.Entries(ctx, userID, limit)
}
