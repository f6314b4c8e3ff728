package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/taskwallet/bot/internal/domain"
	tg "github.com/taskwallet/bot/internal/telegram"
)

func (h *Handler) showPendingWithdrawals(ctx context.Context, b *bot.Bot, chatID int64) {
	pending, err := h.withdrawals.ListPending(ctx)
	if err != nil {
		slog.Error("list pending withdrawals", "error", err)
		return
	}

	if len(pending) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "💰 No pending withdrawal requests.",
		})
		return
	}

	for _, w := range pending {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text: fmt.Sprintf("⏳ *Withdrawal Request #%d*\n\nUser: `%d`\nAmount: *$%s*\nMethod: %s\nRequested: %s",
				w.ID, w.UserID, w.Amount, w.Method, w.CreatedAt.Format("2006-01-02 15:04")),
			ParseMode: models.ParseModeMarkdownV1,
			ReplyMarkup: tg.InlineKeyboard(
				tg.ButtonRow(
					tg.InlineButton("✅ Approve", fmt.Sprintf("wd_approve_%d", w.ID)),
					tg.InlineButton("❌ Reject", fmt.Sprintf("wd_reject_%d", w.ID)),
				),
			),
		})
	}
}

func (h *Handler) handleApproveWithdrawal(ctx context.Context, b *bot.Bot, update *models.Update) {
	user := h.requireAdmin(ctx, update)
	if user == nil {
		return
	}

	requestID, err := strconv.ParseInt(strings.TrimPrefix(update.CallbackQuery.Data, "wd_approve_"), 10, 64)
	if err != nil {
		h.answerCallback(ctx, update, "", false)
		return
	}

	req, err := h.withdrawals.Approve(ctx, requestID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRequestNotFound):
			h.answerCallback(ctx, update, "Request not found.", true)
		case errors.Is(err, domain.ErrNotPending):
			h.answerCallback(ctx, update, "This request was already resolved.", true)
		default:
			slog.Error("approve withdrawal", "error", err, "request_id", requestID)
			h.answerCallback(ctx, update, "Something went wrong. Try again.", true)
		}
		return
	}

	h.answerCallback(ctx, update, "", false)
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    callbackChatID(update),
		Text:      fmt.Sprintf("✅ Withdrawal #%d approved ($%s to user `%d`).", req.ID, req.Amount, req.UserID),
		ParseMode: models.ParseModeMarkdownV1,
	})
}

func (h *Handler) handleRejectWithdrawal(ctx context.Context, b *bot.Bot, update *models.Update) {
	user := h.requireAdmin(ctx, update)
	if user == nil {
		return
	}

	requestID, err := strconv.ParseInt(strings.TrimPrefix(update.CallbackQuery.Data, "wd_reject_"), 10, 64)
	if err != nil {
		h.answerCallback(ctx, update, "", false)
		return
	}

	req, err := h.withdrawals.Get(ctx, requestID)
	if err != nil {
		h.answerCallback(ctx, update, "Request not found.", true)
		return
	}
	if req.Status != domain.WithdrawalPending {
		h.answerCallback(ctx, update, "This request was already resolved.", true)
		return
	}

	h.answerCallback(ctx, update, "", false)
	h.sessions.Set(ctx, user.TelegramID, &domain.Conversation{
		Step:      domain.StepRejectReason,
		RequestID: requestID,
	})
	h.sendCancelKeyboard(ctx, b, callbackChatID(update), fmt.Sprintf(
		"❌ *Reject Withdrawal #%d*\n\nEnter the rejection reason:", requestID))
}
