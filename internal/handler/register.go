package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Main menu labels. Reply-keyboard presses arrive as plain text messages and
// are routed in HandleText.
const (
	btnAvailableTasks = "📋 Available Tasks"
	btnMyWallet       = "👛 My Wallet"
	btnSupport        = "📞 Contact Support"

	btnTaskManagement    = "📋 Task Management"
	btnManageWallets     = "💰 Manage Wallets"
	btnManageWithdrawals = "💰 Manage Withdrawals"
	btnPostMessage       = "📝 Post Message"

	btnCancel = "❌ Cancel"

	// keepCurrent is the sentinel answer in edit forms: leave the field as is.
	keepCurrent = "-"
)

// Register registers all command and callback handlers on the bot instance.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)

	// Task callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "start_task_", bot.MatchTypePrefix, h.handleStartTask)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "cancel_task", bot.MatchTypeExact, h.handleCancelTask)

	// Wallet callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "withdraw", bot.MatchTypeExact, h.handleWithdrawStart)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "history", bot.MatchTypeExact, h.handleWithdrawalHistory)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "wd_method_", bot.MatchTypePrefix, h.handleWithdrawMethod)

	// Admin task management callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "task_create", bot.MatchTypeExact, h.handleTaskCreate)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "task_list", bot.MatchTypeExact, h.handleTaskList)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "task_active", bot.MatchTypeExact, h.handleActiveTasks)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "edit_task_", bot.MatchTypePrefix, h.handleEditTask)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "delete_task_", bot.MatchTypePrefix, h.handleDeleteTask)

	// Admin withdrawal callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "wd_approve_", bot.MatchTypePrefix, h.handleApproveWithdrawal)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "wd_reject_", bot.MatchTypePrefix, h.handleRejectWithdrawal)

	// Admin wallet/support callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "set_balance_", bot.MatchTypePrefix, h.handleSetBalance)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "msg_user_", bot.MatchTypePrefix, h.handleMessageUser)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "reply_support_", bot.MatchTypePrefix, h.handleReplySupport)
}

// answerCallback acknowledges a callback query, optionally with an alert.
func (h *Handler) answerCallback(ctx context.Context, update *models.Update, text string, alert bool) {
	if update.CallbackQuery == nil {
		return
	}
	h.bot.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
		Text:            text,
		ShowAlert:       alert,
	})
}

// callbackChatID extracts the chat the callback originated from.
func callbackChatID(update *models.Update) int64 {
	if update.CallbackQuery == nil {
		return 0
	}
	if msg := update.CallbackQuery.Message.Message; msg != nil {
		return msg.Chat.ID
	}
	return 0
}
