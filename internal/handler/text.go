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
	"github.com/shopspring/decimal"
	"github.com/taskwallet/bot/internal/domain"
	"github.com/taskwallet/bot/internal/middleware"
	tg "github.com/taskwallet/bot/internal/telegram"
)

// HandleText routes plain text messages: an in-progress form consumes the
// message first; otherwise the text is matched against the menu buttons.
func (h *Handler) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	chatID := update.Message.Chat.ID
	text := update.Message.Text

	// Commands are dispatched by their registered handlers.
	if strings.HasPrefix(text, "/") {
		return
	}

	if text == btnCancel {
		h.sessions.Clear(ctx, user.TelegramID)
		h.menuFor(ctx, b, chatID, user.IsAdmin, "🚫 Cancelled.")
		return
	}

	conv, err := h.sessions.Get(ctx, user.TelegramID)
	if err != nil {
		slog.Error("get conversation", "error", err, "user_id", user.TelegramID)
	}
	if conv != nil {
		h.advanceForm(ctx, b, chatID, user, conv, text)
		return
	}

	if user.IsAdmin {
		switch text {
		case btnTaskManagement:
			h.showTaskManagement(ctx, b, chatID)
			return
		case btnManageWallets:
			h.startWalletLookup(ctx, b, chatID, user.TelegramID)
			return
		case btnManageWithdrawals:
			h.showPendingWithdrawals(ctx, b, chatID)
			return
		case btnPostMessage:
			h.sessions.Set(ctx, user.TelegramID, &domain.Conversation{Step: domain.StepBroadcast})
			h.sendCancelKeyboard(ctx, b, chatID, "📝 *Post Message*\n\nEnter the message to send to all users:")
			return
		}
	}

	switch text {
	case btnAvailableTasks:
		h.showAvailableTasks(ctx, b, chatID, user.TelegramID)
	case btnMyWallet:
		h.showWallet(ctx, b, chatID, user.TelegramID)
	case btnSupport:
		h.startSupportForm(ctx, b, chatID, user.TelegramID)
	default:
		h.menuFor(ctx, b, chatID, user.IsAdmin, "🤔 I didn't understand that. Use the menu below:")
	}
}

// save persists the conversation after a step transition.
func (h *Handler) save(ctx context.Context, userID int64, conv *domain.Conversation) {
	if err := h.sessions.Set(ctx, userID, conv); err != nil {
		slog.Error("save conversation", "error", err, "user_id", userID)
	}
}

// adminSteps marks the form steps only admins may advance.
var adminSteps = map[domain.ConversationStep]bool{
	domain.StepTaskCreateTitle:       true,
	domain.StepTaskCreateDescription: true,
	domain.StepTaskCreateReward:      true,
	domain.StepTaskCreateDuration:    true,
	domain.StepTaskEditTitle:         true,
	domain.StepTaskEditDescription:   true,
	domain.StepTaskEditReward:        true,
	domain.StepTaskEditDuration:      true,
	domain.StepAdminReply:            true,
	domain.StepBroadcast:             true,
	domain.StepDirectMessage:         true,
	domain.StepWalletLookup:          true,
	domain.StepSetBalance:            true,
	domain.StepRejectReason:          true,
}

// advanceForm feeds one message into the user's form state machine.
func (h *Handler) advanceForm(ctx context.Context, b *bot.Bot, chatID int64, user *domain.User, conv *domain.Conversation, text string) {
	// Admin status may have been revoked after the form was started.
	if adminSteps[conv.Step] && !user.IsAdmin {
		slog.Warn("form step rejected", "error", domain.ErrUnauthorized, "user_id", user.TelegramID, "step", conv.Step)
		h.sessions.Clear(ctx, user.TelegramID)
		h.sendMainMenu(ctx, b, chatID, "🤔 Use the menu below:")
		return
	}

	switch conv.Step {
	case domain.StepTaskCreateTitle:
		conv.Draft.Title = &text
		conv.Step = domain.StepTaskCreateDescription
		h.save(ctx, user.TelegramID, conv)
		h.sendCancelKeyboard(ctx, b, chatID, "➕ *Create Task*\n\nEnter the task description:")

	case domain.StepTaskCreateDescription:
		conv.Draft.Description = &text
		conv.Step = domain.StepTaskCreateReward
		h.save(ctx, user.TelegramID, conv)
		h.sendCancelKeyboard(ctx, b, chatID, "➕ *Create Task*\n\nEnter the reward amount in USD (at least 0.1):")

	case domain.StepTaskCreateReward:
		reward, err := decimal.NewFromString(text)
		if err != nil || reward.LessThan(domain.MinTaskReward) {
			h.sendCancelKeyboard(ctx, b, chatID, "❌ Please enter a valid reward amount (at least 0.1):")
			return
		}
		conv.Draft.Reward = &reward
		conv.Step = domain.StepTaskCreateDuration
		h.save(ctx, user.TelegramID, conv)
		h.sendCancelKeyboard(ctx, b, chatID, "➕ *Create Task*\n\nEnter the duration in seconds:")

	case domain.StepTaskCreateDuration:
		seconds, err := strconv.Atoi(text)
		if err != nil || seconds <= 0 {
			h.sendCancelKeyboard(ctx, b, chatID, "❌ Please enter a valid duration in seconds (greater than 0):")
			return
		}
		h.finishTaskCreate(ctx, b, chatID, user, conv, seconds)

	case domain.StepTaskEditTitle:
		if text != keepCurrent {
			conv.Draft.Title = &text
		}
		conv.Step = domain.StepTaskEditDescription
		h.save(ctx, user.TelegramID, conv)
		h.sendCancelKeyboard(ctx, b, chatID, fmt.Sprintf(
			"✏️ *Edit Task*\n\nEnter a new description, or send `%s` to keep it:", keepCurrent))

	case domain.StepTaskEditDescription:
		if text != keepCurrent {
			conv.Draft.Description = &text
		}
		conv.Step = domain.StepTaskEditReward
		h.save(ctx, user.TelegramID, conv)
		h.sendCancelKeyboard(ctx, b, chatID, fmt.Sprintf(
			"✏️ *Edit Task*\n\nEnter a new reward, or send `%s` to keep it:", keepCurrent))

	case domain.StepTaskEditReward:
		if text != keepCurrent {
			reward, err := decimal.NewFromString(text)
			if err != nil || reward.LessThan(domain.MinTaskReward) {
				h.sendCancelKeyboard(ctx, b, chatID, "❌ Please enter a valid reward amount (at least 0.1):")
				return
			}
			conv.Draft.Reward = &reward
		}
		conv.Step = domain.StepTaskEditDuration
		h.save(ctx, user.TelegramID, conv)
		h.sendCancelKeyboard(ctx, b, chatID, fmt.Sprintf(
			"✏️ *Edit Task*\n\nEnter a new duration in seconds, or send `%s` to keep it:", keepCurrent))

	case domain.StepTaskEditDuration:
		if text != keepCurrent {
			seconds, err := strconv.Atoi(text)
			if err != nil || seconds <= 0 {
				h.sendCancelKeyboard(ctx, b, chatID, "❌ Please enter a valid duration in seconds (greater than 0):")
				return
			}
			conv.Draft.DurationSeconds = &seconds
		}
		h.finishTaskEdit(ctx, b, chatID, user, conv)

	case domain.StepWithdrawAmount:
		h.stepWithdrawAmount(ctx, b, chatID, user, conv, text)

	case domain.StepSupportMessage:
		h.sessions.Clear(ctx, user.TelegramID)
		h.relaySupportMessage(ctx, b, user, text)
		h.sendMainMenu(ctx, b, chatID,
			"✅ *Message Sent*\n\nOur support team will review your message and respond shortly.")

	case domain.StepAdminReply:
		h.sessions.Clear(ctx, user.TelegramID)
		h.broadcast.Direct(ctx, conv.TargetUserID, fmt.Sprintf("💬 *Support reply:*\n\n%s", text))
		h.sendAdminMenu(ctx, b, chatID, fmt.Sprintf("✅ Reply sent to user `%d`.", conv.TargetUserID))

	case domain.StepBroadcast:
		h.sessions.Clear(ctx, user.TelegramID)
		h.sendAdminMenu(ctx, b, chatID, "📤 Broadcasting your message to all users...")
		go func() {
			sent, err := h.broadcast.Broadcast(context.WithoutCancel(ctx), text)
			if err != nil {
				slog.Error("broadcast", "error", err)
				return
			}
			h.broadcast.Direct(context.Background(), user.TelegramID, fmt.Sprintf("✅ Message delivered to %d users.", sent))
		}()

	case domain.StepDirectMessage:
		h.sessions.Clear(ctx, user.TelegramID)
		h.broadcast.Direct(ctx, conv.TargetUserID, text)
		h.sendAdminMenu(ctx, b, chatID, fmt.Sprintf("✅ Message sent to user `%d`.", conv.TargetUserID))

	case domain.StepWalletLookup:
		targetID, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
		if err != nil {
			h.sendCancelKeyboard(ctx, b, chatID, "❌ Please enter a numeric Telegram ID:")
			return
		}
		h.sessions.Clear(ctx, user.TelegramID)
		h.showUserWallet(ctx, b, chatID, targetID)

	case domain.StepSetBalance:
		balance, err := decimal.NewFromString(strings.TrimSpace(text))
		if err != nil || balance.IsNegative() {
			h.sendCancelKeyboard(ctx, b, chatID, "❌ Please enter a valid non-negative amount:")
			return
		}
		h.sessions.Clear(ctx, user.TelegramID)
		prev, err := h.ledger.SetBalance(ctx, conv.TargetUserID, balance, fmt.Sprintf("Balance set by admin %d", user.TelegramID))
		if err != nil {
			slog.Error("set balance", "error", err, "user_id", conv.TargetUserID)
			h.sendAdminMenu(ctx, b, chatID, "❌ Failed to update the balance.")
			return
		}
		h.broadcast.Direct(ctx, conv.TargetUserID, fmt.Sprintf("💰 Your balance was updated to *$%s*.", balance))
		h.sendAdminMenu(ctx, b, chatID, fmt.Sprintf(
			"✅ Balance of user `%d` changed: $%s → $%s.", conv.TargetUserID, prev, balance))

	case domain.StepRejectReason:
		h.stepRejectReason(ctx, b, chatID, user, conv, text)

	default:
		// Unknown step, likely from an older build. Reset to a clean state.
		h.sessions.Clear(ctx, user.TelegramID)
		h.menuFor(ctx, b, chatID, user.IsAdmin, "🤔 Let's start over. Use the menu below:")
	}
}

func (h *Handler) finishTaskCreate(ctx context.Context, b *bot.Bot, chatID int64, user *domain.User, conv *domain.Conversation, seconds int) {
	h.sessions.Clear(ctx, user.TelegramID)

	task, err := h.registry.Create(ctx, deref(conv.Draft.Title), deref(conv.Draft.Description), derefDecimal(conv.Draft.Reward), seconds)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTaskParameters) {
			h.sendAdminMenu(ctx, b, chatID, fmt.Sprintf("❌ %s. Please start over.", err))
			return
		}
		slog.Error("create task", "error", err)
		h.sendAdminMenu(ctx, b, chatID, "❌ Failed to create the task.")
		return
	}

	h.sendAdminMenu(ctx, b, chatID, fmt.Sprintf(
		"✅ *Task Created*\n\nName: %s\nDescription: %s\nReward: *$%s*\nDuration: %d seconds",
		task.Title, task.Description, task.Reward, task.DurationSeconds))
}

func (h *Handler) finishTaskEdit(ctx context.Context, b *bot.Bot, chatID int64, user *domain.User, conv *domain.Conversation) {
	h.sessions.Clear(ctx, user.TelegramID)

	task, err := h.registry.Edit(ctx, conv.TaskID, domain.TaskPatch{
		Title:           conv.Draft.Title,
		Description:     conv.Draft.Description,
		Reward:          conv.Draft.Reward,
		DurationSeconds: conv.Draft.DurationSeconds,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTaskNotFound):
			h.sendAdminMenu(ctx, b, chatID, "❌ The task no longer exists.")
		case errors.Is(err, domain.ErrInvalidTaskParameters):
			h.sendAdminMenu(ctx, b, chatID, fmt.Sprintf("❌ %s. Please start over.", err))
		default:
			slog.Error("edit task", "error", err, "task_id", conv.TaskID)
			h.sendAdminMenu(ctx, b, chatID, "❌ Failed to update the task.")
		}
		return
	}

	h.sendAdminMenu(ctx, b, chatID, fmt.Sprintf(
		"✅ *Task Updated*\n\nName: %s\nDescription: %s\nReward: *$%s*\nDuration: %d seconds",
		task.Title, task.Description, task.Reward, task.DurationSeconds))
}

func (h *Handler) stepWithdrawAmount(ctx context.Context, b *bot.Bot, chatID int64, user *domain.User, conv *domain.Conversation, text string) {
	amount, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil || !amount.IsPositive() {
		h.sendCancelKeyboard(ctx, b, chatID, "❌ Please enter a valid positive amount:")
		return
	}

	balance, err := h.ledger.Balance(ctx, user.TelegramID)
	if err != nil {
		slog.Error("get balance", "error", err, "user_id", user.TelegramID)
		return
	}
	if amount.GreaterThan(balance) {
		h.sendCancelKeyboard(ctx, b, chatID, fmt.Sprintf(
			"❌ Amount exceeds your balance ($%s). Enter a smaller amount:", balance))
		return
	}

	conv.Amount = amount
	conv.Step = domain.StepWithdrawMethod
	h.save(ctx, user.TelegramID, conv)

	var rows [][]models.InlineKeyboardButton
	for _, m := range domain.WithdrawalMethods {
		rows = append(rows, tg.ButtonRow(tg.InlineButton(string(m), "wd_method_"+string(m))))
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        fmt.Sprintf("💳 Withdrawing *$%s*.\n\nChoose a payout method:", amount),
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: tg.InlineKeyboard(rows...),
	})
}

func (h *Handler) stepRejectReason(ctx context.Context, b *bot.Bot, chatID int64, user *domain.User, conv *domain.Conversation, text string) {
	reason := strings.TrimSpace(text)
	if reason == "" {
		h.sendCancelKeyboard(ctx, b, chatID, "❌ The reason cannot be empty. Enter the rejection reason:")
		return
	}

	h.sessions.Clear(ctx, user.TelegramID)

	req, err := h.withdrawals.Reject(ctx, conv.RequestID, reason)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRequestNotFound):
			h.sendAdminMenu(ctx, b, chatID, "❌ The request no longer exists.")
		case errors.Is(err, domain.ErrNotPending):
			h.sendAdminMenu(ctx, b, chatID, "❌ This request was already resolved.")
		default:
			slog.Error("reject withdrawal", "error", err, "request_id", conv.RequestID)
			h.sendAdminMenu(ctx, b, chatID, "❌ Failed to reject the request.")
		}
		return
	}

	h.sendAdminMenu(ctx, b, chatID, fmt.Sprintf(
		"✅ Withdrawal #%d rejected. $%s returned to user `%d`.", req.ID, req.Amount, req.UserID))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefDecimal(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
