package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type WithdrawalMethod string

const (
	MethodCrypto   WithdrawalMethod = "crypto"
	MethodBank     WithdrawalMethod = "bank"
	MethodGiftcard WithdrawalMethod = "giftcard"
	MethodPayPal   WithdrawalMethod = "paypal"
)

// WithdrawalMethods lists the accepted payout methods in display order.
var WithdrawalMethods = []WithdrawalMethod{MethodCrypto, MethodBank, MethodGiftcard, MethodPayPal}

func ParseWithdrawalMethod(s string) (WithdrawalMethod, error) {
	for _, m := range WithdrawalMethods {
		if string(m) == s {
			return m, nil
		}
	}
	return "", ErrInvalidMethod
}

type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
)

// WithdrawalRequest holds an escrowed payout request. The amount is debited
// from the user's balance when the request is created; status transitions are
// terminal once the request leaves pending.
type WithdrawalRequest struct {
	ID              int64
	UserID          int64
	Amount          decimal.Decimal
	Method          WithdrawalMethod
	Status          WithdrawalStatus
	RejectionReason string
	CreatedAt       time.Time
	ResolvedAt      *time.Time
}
