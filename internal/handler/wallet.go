package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/taskwallet/bot/internal/config"
	"github.com/taskwallet/bot/internal/domain"
	"github.com/taskwallet/bot/internal/middleware"
	tg "github.com/taskwallet/bot/internal/telegram"
)

func statusEmoji(s domain.WithdrawalStatus) string {
	switch s {
	case domain.WithdrawalApproved:
		return "✅"
	case domain.WithdrawalRejected:
		return "❌"
	default:
		return "⏳"
	}
}

func (h *Handler) showWallet(ctx context.Context, b *bot.Bot, chatID, userID int64) {
	balance, err := h.ledger.Balance(ctx, userID)
	if err != nil {
		slog.Error("get balance", "error", err, "user_id", userID)
		return
	}

	history, err := h.withdrawals.HistoryFor(ctx, userID, config.RecentWithdrawals)
	if err != nil {
		slog.Error("get withdrawal history", "error", err, "user_id", userID)
		return
	}

	totalWithdrawn := decimal.Zero
	for _, w := range history {
		if w.Status == domain.WithdrawalApproved {
			totalWithdrawn = totalWithdrawn.Add(w.Amount)
		}
	}

	var sb strings.Builder
	sb.WriteString("👛 *My Wallet*\n\n")
	sb.WriteString(fmt.Sprintf("💰 Available Balance: *$%s*\n", balance))
	sb.WriteString(fmt.Sprintf("💳 Recently Withdrawn: *$%s*\n", totalWithdrawn))

	if len(history) > 0 {
		sb.WriteString("\n📋 *Recent Withdrawals:*\n")
		for _, w := range history {
			sb.WriteString(fmt.Sprintf("%s #%d — $%s via %s\n", statusEmoji(w.Status), w.ID, w.Amount, w.Method))
			if w.Status == domain.WithdrawalRejected && w.RejectionReason != "" {
				sb.WriteString(fmt.Sprintf("   ❗ Reason: %s\n", w.RejectionReason))
			}
		}
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      sb.String(),
		ParseMode: models.ParseModeMarkdownV1,
		ReplyMarkup: tg.InlineKeyboard(
			tg.ButtonRow(
				tg.InlineButton("💳 Withdraw", "withdraw"),
				tg.InlineButton("📜 Full History", "history"),
			),
		),
	})
}

func (h *Handler) handleWithdrawStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	h.answerCallback(ctx, update, "", false)

	balance, err := h.ledger.Balance(ctx, user.TelegramID)
	if err != nil {
		slog.Error("get balance", "error", err, "user_id", user.TelegramID)
		return
	}
	if !balance.IsPositive() {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: callbackChatID(update),
			Text:   "💰 Your balance is empty. Complete some tasks first!",
		})
		return
	}

	h.sessions.Set(ctx, user.TelegramID, &domain.Conversation{Step: domain.StepWithdrawAmount})
	h.sendCancelKeyboard(ctx, b, callbackChatID(update), fmt.Sprintf(
		"💳 *Withdraw Funds*\n\nAvailable: *$%s*\n\nEnter the amount to withdraw:", balance))
}

func (h *Handler) handleWithdrawMethod(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	conv, err := h.sessions.Get(ctx, user.TelegramID)
	if err != nil || conv == nil || conv.Step != domain.StepWithdrawMethod {
		h.answerCallback(ctx, update, "This withdrawal has expired. Start again from your wallet.", true)
		return
	}

	method, err := domain.ParseWithdrawalMethod(strings.TrimPrefix(update.CallbackQuery.Data, "wd_method_"))
	if err != nil {
		h.answerCallback(ctx, update, "Unknown method.", true)
		return
	}

	req, err := h.withdrawals.Request(ctx, user.TelegramID, conv.Amount, method)
	if err != nil {
		h.sessions.Clear(ctx, user.TelegramID)
		if errors.Is(err, domain.ErrInsufficientFunds) {
			h.answerCallback(ctx, update, "Insufficient balance for this amount.", true)
			return
		}
		slog.Error("request withdrawal", "error", err, "user_id", user.TelegramID)
		h.answerCallback(ctx, update, "Something went wrong. Try again.", true)
		return
	}

	h.sessions.Clear(ctx, user.TelegramID)
	h.answerCallback(ctx, update, "", false)
	h.sendMainMenu(ctx, b, callbackChatID(update), fmt.Sprintf(
		"✅ *Withdrawal Request #%d Submitted*\n\nAmount: *$%s*\nMethod: %s\n\nYou'll be notified once it's reviewed.",
		req.ID, req.Amount, req.Method))
}

func (h *Handler) handleWithdrawalHistory(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	h.answerCallback(ctx, update, "", false)

	history, err := h.withdrawals.HistoryFor(ctx, user.TelegramID, config.HistoryPageSize)
	if err != nil {
		slog.Error("get withdrawal history", "error", err, "user_id", user.TelegramID)
		return
	}

	if len(history) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: callbackChatID(update),
			Text:   "📜 No withdrawals yet.",
		})
		return
	}

	var sb strings.Builder
	sb.WriteString("📜 *Withdrawal History*\n\n")
	for _, w := range history {
		sb.WriteString(fmt.Sprintf("%s *#%d* — $%s via %s (%s)\n",
			statusEmoji(w.Status), w.ID, w.Amount, w.Method, w.CreatedAt.Format("2006-01-02 15:04")))
		if w.Status == domain.WithdrawalRejected && w.RejectionReason != "" {
			sb.WriteString(fmt.Sprintf("   ❗ Reason: %s\n", w.RejectionReason))
		}
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    callbackChatID(update),
		Text:      sb.String(),
		ParseMode: models.ParseModeMarkdownV1,
	})
}
