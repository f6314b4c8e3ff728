package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/taskwallet/bot/internal/domain"
	"github.com/taskwallet/bot/internal/repository"
)

// WithdrawalService runs the escrow payout workflow. Funds leave the
// spendable balance the moment a request is filed, so two requests can never
// be filed against the same balance. Rejection refunds the escrowed amount;
// keeping it would silently destroy funds.
type WithdrawalService struct {
	store    repository.WithdrawalStore
	ledger   *LedgerService
	notifier Notifier
	adminIDs []int64
}

func NewWithdrawalService(store repository.WithdrawalStore, ledger *LedgerService, notifier Notifier, adminIDs []int64) *WithdrawalService {
	return &WithdrawalService{
		store:    store,
		ledger:   ledger,
		notifier: notifier,
		adminIDs: adminIDs,
	}
}

func (s *WithdrawalService) Request(ctx context.Context, userID int64, amount decimal.Decimal, method domain.WithdrawalMethod) (domain.WithdrawalRequest, error) {
	if !amount.IsPositive() {
		return domain.WithdrawalRequest{}, domain.ErrInvalidAmount
	}
	if _, err := domain.ParseWithdrawalMethod(string(method)); err != nil {
		return domain.WithdrawalRequest{}, err
	}

	// Escrow debit. Fails with ErrInsufficientFunds before any record exists.
	if _, err := s.ledger.Debit(ctx, userID, amount, fmt.Sprintf("Withdrawal request (%s)", method)); err != nil {
		return domain.WithdrawalRequest{}, err
	}

	req, err := s.store.CreateWithdrawal(ctx, domain.WithdrawalRequest{
		UserID: userID,
		Amount: amount,
		Method: method,
	})
	if err != nil {
		// Escrowed funds must not vanish if the record could not be stored.
		if _, refundErr := s.ledger.Credit(ctx, userID, amount, "Withdrawal escrow reversal"); refundErr != nil {
			slog.Error("reverse failed withdrawal escrow", "error", refundErr, "user_id", userID)
		}
		return domain.WithdrawalRequest{}, fmt.Errorf("create withdrawal: %w", err)
	}

	slog.Info("withdrawal requested", "user_id", userID, "request_id", req.ID, "amount", amount, "method", method)
	for _, adminID := range s.adminIDs {
		s.notifier.Notify(ctx, adminID, fmt.Sprintf(
			"💰 *New Withdrawal Request #%d*\n\nUser: `%d`\nAmount: *$%s*\nMethod: %s",
			req.ID, userID, amount, method))
	}
	return req, nil
}

func (s *WithdrawalService) Approve(ctx context.Context, requestID int64) (domain.WithdrawalRequest, error) {
	req, err := s.store.ResolveWithdrawal(ctx, requestID, domain.WithdrawalApproved, "")
	if err != nil {
		return domain.WithdrawalRequest{}, err
	}

	slog.Info("withdrawal approved", "request_id", requestID, "user_id", req.UserID, "amount", req.Amount)
	s.notifier.Notify(ctx, req.UserID, fmt.Sprintf(
		"✅ *Withdrawal Approved*\n\nAmount: *$%s*\nMethod: %s\n\nYour payout is on its way.",
		req.Amount, req.Method))
	return req, nil
}

func (s *WithdrawalService) Reject(ctx context.Context, requestID int64, reason string) (domain.WithdrawalRequest, error) {
	if reason == "" {
		return domain.WithdrawalRequest{}, domain.ErrInvalidReason
	}

	req, err := s.store.ResolveWithdrawal(ctx, requestID, domain.WithdrawalRejected, reason)
	if err != nil {
		return domain.WithdrawalRequest{}, err
	}

	// Refund the escrow hold back to the spendable balance.
	if _, err := s.ledger.Credit(ctx, req.UserID, req.Amount, fmt.Sprintf("Withdrawal #%d rejected", req.ID)); err != nil {
		slog.Error("refund rejected withdrawal", "error", err, "request_id", requestID, "user_id", req.UserID)
	}

	slog.Info("withdrawal rejected", "request_id", requestID, "user_id", req.UserID, "reason", reason)
	s.notifier.Notify(ctx, req.UserID, fmt.Sprintf(
		"❌ *Withdrawal Rejected*\n\nAmount: *$%s*\nReason: %s\n\nThe amount has been returned to your balance.",
		req.Amount, reason))
	return req, nil
}

func (s *WithdrawalService) Get(ctx context.Context, requestID int64) (domain.WithdrawalRequest, error) {
	return s.store.GetWithdrawal(ctx, requestID)
}

func (s *WithdrawalService) ListPending(ctx context.Context) ([]domain.WithdrawalRequest, error) {
	return s.store.ListPendingWithdrawals(ctx)
}

func (s *WithdrawalService) HistoryFor(ctx context.Context, userID int64, limit int) ([]domain.WithdrawalRequest, error) {
	return s.store.ListWithdrawalsByUser(ctx, userID, limit)
}
