package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/taskwallet/bot/internal/domain"
	tg "github.com/taskwallet/bot/internal/telegram"
)

func (h *Handler) startWalletLookup(ctx context.Context, b *bot.Bot, chatID int64, adminID int64) {
	h.sessions.Set(ctx, adminID, &domain.Conversation{Step: domain.StepWalletLookup})
	h.sendCancelKeyboard(ctx, b, chatID, "💰 *Manage Wallets*\n\nEnter the user's Telegram ID:")
}

// showUserWallet renders a user's wallet to an admin with management actions.
func (h *Handler) showUserWallet(ctx context.Context, b *bot.Bot, chatID int64, targetID int64) {
	target, err := h.users.Get(ctx, targetID)
	if err != nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   fmt.Sprintf("❌ User `%d` not found.", targetID),
		})
		return
	}

	entries, err := h.ledger.History(ctx, targetID, 5)
	if err != nil {
		slog.Error("get ledger history", "error", err, "user_id", targetID)
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💰 *Wallet of %s* (`%d`)\n\nBalance: *$%s*\n", target.FirstName, target.TelegramID, target.Balance))
	if len(entries) > 0 {
		sb.WriteString("\n📋 *Recent Entries:*\n")
		for _, e := range entries {
			sb.WriteString(fmt.Sprintf("• %s $%s — %s\n", e.EntryType, e.Amount, e.Description))
		}
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      sb.String(),
		ParseMode: models.ParseModeMarkdownV1,
		ReplyMarkup: tg.InlineKeyboard(
			tg.ButtonRow(
				tg.InlineButton("✏️ Set Balance", fmt.Sprintf("set_balance_%d", targetID)),
				tg.InlineButton("✉️ Message User", fmt.Sprintf("msg_user_%d", targetID)),
			),
		),
	})
}

func (h *Handler) handleSetBalance(ctx context.Context, b *bot.Bot, update *models.Update) {
	user := h.requireAdmin(ctx, update)
	if user == nil {
		return
	}

	targetID, err := strconv.ParseInt(strings.TrimPrefix(update.CallbackQuery.Data, "set_balance_"), 10, 64)
	if err != nil {
		h.answerCallback(ctx, update, "", false)
		return
	}

	h.answerCallback(ctx, update, "", false)
	h.sessions.Set(ctx, user.TelegramID, &domain.Conversation{
		Step:         domain.StepSetBalance,
		TargetUserID: targetID,
	})
	h.sendCancelKeyboard(ctx, b, callbackChatID(update), fmt.Sprintf(
		"✏️ *Set Balance*\n\nEnter the new balance for user `%d`:", targetID))
}

func (h *Handler) handleMessageUser(ctx context.Context, b *bot.Bot, update *models.Update) {
	user := h.requireAdmin(ctx, update)
	if user == nil {
		return
	}

	targetID, err := strconv.ParseInt(strings.TrimPrefix(update.CallbackQuery.Data, "msg_user_"), 10, 64)
	if err != nil {
		h.answerCallback(ctx, update, "", false)
		return
	}

	h.answerCallback(ctx, update, "", false)
	h.sessions.Set(ctx, user.TelegramID, &domain.Conversation{
		Step:         domain.StepDirectMessage,
		TargetUserID: targetID,
	})
	h.sendCancelKeyboard(ctx, b, callbackChatID(update), fmt.Sprintf(
		"✉️ *Message User*\n\nEnter the message to send to user `%d`:", targetID))
}
