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

// requireAdmin returns the acting user if it is an admin, nil otherwise.
func (h *Handler) requireAdmin(ctx context.Context, update *models.Update) *domain.User {
	user := middleware.GetUser(ctx)
	if user == nil || !user.IsAdmin {
		if update.CallbackQuery != nil {
			h.answerCallback(ctx, update, "Admins only.", true)
		}
		return nil
	}
	return user
}

func (h *Handler) showTaskManagement(ctx context.Context, b *bot.Bot, chatID int64) {
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      "📋 *Task Management*\n\nChoose an action:",
		ParseMode: models.ParseModeMarkdownV1,
		ReplyMarkup: tg.InlineKeyboard(
			tg.ButtonRow(tg.InlineButton("➕ Create Task", "task_create")),
			tg.ButtonRow(tg.InlineButton("📄 All Tasks", "task_list")),
			tg.ButtonRow(tg.InlineButton("🏃 Active Tasks", "task_active")),
		),
	})
}

func (h *Handler) handleTaskCreate(ctx context.Context, b *bot.Bot, update *models.Update) {
	user := h.requireAdmin(ctx, update)
	if user == nil {
		return
	}
	h.answerCallback(ctx, update, "", false)

	h.sessions.Set(ctx, user.TelegramID, &domain.Conversation{Step: domain.StepTaskCreateTitle})
	h.sendCancelKeyboard(ctx, b, callbackChatID(update), "➕ *Create Task*\n\nEnter the task name:")
}

func (h *Handler) handleTaskList(ctx context.Context, b *bot.Bot, update *models.Update) {
	user := h.requireAdmin(ctx, update)
	if user == nil {
		return
	}
	h.answerCallback(ctx, update, "", false)

	chatID := callbackChatID(update)
	tasks, err := h.registry.List(ctx)
	if err != nil {
		slog.Error("list tasks", "error", err)
		return
	}

	if len(tasks) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "📋 No tasks defined yet.",
		})
		return
	}

	for _, t := range tasks {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text: fmt.Sprintf("📋 *Task #%d*\n\nName: %s\nDescription: %s\nReward: *$%s*\nDuration: %d seconds",
				t.ID, t.Title, t.Description, t.Reward, t.DurationSeconds),
			ParseMode: models.ParseModeMarkdownV1,
			ReplyMarkup: tg.InlineKeyboard(
				tg.ButtonRow(
					tg.InlineButton("✏️ Edit", fmt.Sprintf("edit_task_%d", t.ID)),
					tg.InlineButton("🗑 Delete", fmt.Sprintf("delete_task_%d", t.ID)),
				),
			),
		})
	}
}

func (h *Handler) handleActiveTasks(ctx context.Context, b *bot.Bot, update *models.Update) {
	user := h.requireAdmin(ctx, update)
	if user == nil {
		return
	}
	h.answerCallback(ctx, update, "", false)

	running, err := h.assignments.ListRunning(ctx)
	if err != nil {
		slog.Error("list running assignments", "error", err)
		return
	}

	chatID := callbackChatID(update)
	if len(running) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "🏃 No active tasks at the moment.",
		})
		return
	}

	var sb strings.Builder
	sb.WriteString("🏃 *Active Tasks:*\n\n")
	now := time.Now()
	for _, a := range running {
		sb.WriteString(fmt.Sprintf("• *%s* — user `%d`\n  Started: %s, remaining: %d seconds\n",
			a.Title, a.UserID, a.StartedAt.Format("15:04:05"), int(a.Remaining(now).Seconds())))
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      sb.String(),
		ParseMode: models.ParseModeMarkdownV1,
	})
}

func (h *Handler) handleEditTask(ctx context.Context, b *bot.Bot, update *models.Update) {
	user := h.requireAdmin(ctx, update)
	if user == nil {
		return
	}

	taskID, err := strconv.ParseInt(strings.TrimPrefix(update.CallbackQuery.Data, "edit_task_"), 10, 64)
	if err != nil {
		h.answerCallback(ctx, update, "", false)
		return
	}

	task, err := h.registry.Get(ctx, taskID)
	if err != nil {
		h.answerCallback(ctx, update, "Task not found.", true)
		return
	}

	h.answerCallback(ctx, update, "", false)
	h.sessions.Set(ctx, user.TelegramID, &domain.Conversation{
		Step:   domain.StepTaskEditTitle,
		TaskID: taskID,
	})
	h.sendCancelKeyboard(ctx, b, callbackChatID(update), fmt.Sprintf(
		"✏️ *Edit Task #%d*\n\nCurrent name: %s\nEnter a new name, or send `%s` to keep it:",
		taskID, task.Title, keepCurrent))
}

func (h *Handler) handleDeleteTask(ctx context.Context, b *bot.Bot, update *models.Update) {
	user := h.requireAdmin(ctx, update)
	if user == nil {
		return
	}

	taskID, err := strconv.ParseInt(strings.TrimPrefix(update.CallbackQuery.Data, "delete_task_"), 10, 64)
	if err != nil {
		h.answerCallback(ctx, update, "", false)
		return
	}

	task, err := h.registry.Get(ctx, taskID)
	if err != nil {
		h.answerCallback(ctx, update, "Task not found.", true)
		return
	}

	// Running assignments keep their snapshot and finish normally.
	if err := h.registry.Delete(ctx, taskID); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			h.answerCallback(ctx, update, "Task not found.", true)
			return
		}
		slog.Error("delete task", "error", err, "task_id", taskID)
		h.answerCallback(ctx, update, "Something went wrong. Try again.", true)
		return
	}

	h.answerCallback(ctx, update, "", false)
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    callbackChatID(update),
		Text:      fmt.Sprintf("✅ Task *%s* deleted.", task.Title),
		ParseMode: models.ParseModeMarkdownV1,
	})
}
