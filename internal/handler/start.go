package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/taskwallet/bot/internal/middleware"
	tg "github.com/taskwallet/bot/internal/telegram"
)

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	// Any in-progress form is abandoned by /start.
	h.sessions.Clear(ctx, user.TelegramID)

	if user.IsAdmin {
		h.sendAdminMenu(ctx, b, update.Message.Chat.ID,
			"👋 *Welcome to Admin Panel*\n\n"+
				"Use the menu below to manage tasks, wallets, and withdrawals:")
		return
	}

	h.sendMainMenu(ctx, b, update.Message.Chat.ID,
		"👋 *Welcome to Task Wallet Bot!*\n\n"+
			"Complete tasks to earn rewards and manage your wallet.\n"+
			"Use the menu below to get started:")
}

func (h *Handler) sendMainMenu(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdownV1,
		ReplyMarkup: tg.ReplyKeyboard(
			[]string{btnAvailableTasks, btnMyWallet},
			[]string{btnSupport},
		),
	})
}

func (h *Handler) sendAdminMenu(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdownV1,
		ReplyMarkup: tg.ReplyKeyboard(
			[]string{btnTaskManagement, btnManageWallets},
			[]string{btnManageWithdrawals, btnPostMessage},
		),
	})
}

// sendCancelKeyboard prompts for form input with only a Cancel button.
func (h *Handler) sendCancelKeyboard(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: tg.ReplyKeyboard([]string{btnCancel}),
	})
}

// menuFor returns to whichever main menu fits the user's role.
func (h *Handler) menuFor(ctx context.Context, b *bot.Bot, chatID int64, isAdmin bool, text string) {
	if isAdmin {
		h.sendAdminMenu(ctx, b, chatID, text)
		return
	}
	h.sendMainMenu(ctx, b, chatID, text)
}
