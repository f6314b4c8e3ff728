package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/taskwallet/bot/internal/domain"
	"github.com/taskwallet/bot/internal/middleware"
	tg "github.com/taskwallet/bot/internal/telegram"
)

func (h *Handler) showAvailableTasks(ctx context.Context, b *bot.Bot, chatID int64, userID int64) {
	if active, err := h.assignments.Active(ctx, userID); err == nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text: fmt.Sprintf("⏳ You are already working on *%s*.\nTime remaining: %d seconds.",
				active.Title, int(active.Remaining(time.Now()).Seconds())),
			ParseMode: models.ParseModeMarkdownV1,
			ReplyMarkup: tg.InlineKeyboard(
				tg.ButtonRow(tg.InlineButton("❌ Cancel Task", "cancel_task")),
			),
		})
		return
	}

	tasks, err := h.assignments.ListAvailable(ctx, userID)
	if err != nil {
		slog.Error("list available tasks", "error", err)
		return
	}

	if len(tasks) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "📋 No tasks available right now. Check back later!",
		})
		return
	}

	var sb strings.Builder
	sb.WriteString("📋 *Available Tasks:*\n\n")

	var rows [][]models.InlineKeyboardButton
	for _, t := range tasks {
		sb.WriteString(fmt.Sprintf("• *%s* — $%s (%d seconds)\n  _%s_\n", t.Title, t.Reward, t.DurationSeconds, t.Description))
		rows = append(rows, tg.ButtonRow(
			tg.InlineButton(t.Title, fmt.Sprintf("start_task_%d", t.ID)),
		))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        sb.String(),
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: tg.InlineKeyboard(rows...),
	})
}

func (h *Handler) handleStartTask(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	taskID, err := strconv.ParseInt(strings.TrimPrefix(update.CallbackQuery.Data, "start_task_"), 10, 64)
	if err != nil {
		h.answerCallback(ctx, update, "", false)
		return
	}

	a, err := h.assignments.Start(ctx, user.TelegramID, taskID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyActive):
			h.answerCallback(ctx, update, "Finish or cancel your current task first.", true)
		case errors.Is(err, domain.ErrTaskNotFound):
			h.answerCallback(ctx, update, "This task no longer exists.", true)
		default:
			slog.Error("start task", "error", err, "user_id", user.TelegramID, "task_id", taskID)
			h.answerCallback(ctx, update, "Something went wrong. Try again.", true)
		}
		return
	}

	h.answerCallback(ctx, update, "", false)
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: callbackChatID(update),
		Text: fmt.Sprintf("🚀 Task *%s* started!\n\nReward: *$%s*\nComplete it within %d seconds.",
			a.Title, a.Reward, int(a.Duration.Seconds())),
		ParseMode: models.ParseModeMarkdownV1,
		ReplyMarkup: tg.InlineKeyboard(
			tg.ButtonRow(tg.InlineButton("❌ Cancel", "cancel_task")),
		),
	})
}

func (h *Handler) handleCancelTask(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	a, err := h.assignments.Cancel(ctx, user.TelegramID)
	if err != nil {
		if errors.Is(err, domain.ErrNoActiveTask) {
			h.answerCallback(ctx, update, "No active task to cancel.", true)
			return
		}
		slog.Error("cancel task", "error", err, "user_id", user.TelegramID)
		h.answerCallback(ctx, update, "Something went wrong. Try again.", true)
		return
	}

	h.answerCallback(ctx, update, "", false)
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    callbackChatID(update),
		Text:      fmt.Sprintf("🚫 Task *%s* cancelled. No reward granted.", a.Title),
		ParseMode: models.ParseModeMarkdownV1,
	})
}
