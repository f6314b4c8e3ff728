package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryCredit     EntryType = "credit"
	EntryDebit      EntryType = "debit"
	EntryAdjustment EntryType = "adjustment"
)

// LedgerEntry is an immutable record of a single balance mutation. Amount is
// signed: positive for credits, negative for debits. The sum of a user's
// entries always reconciles with their current balance.
type LedgerEntry struct {
	ID          int64
	UserID      int64
	Amount      decimal.Decimal
	EntryType   EntryType
	Description string
	CreatedAt   time.Time
}
