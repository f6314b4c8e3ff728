package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/taskwallet/bot/internal/domain"
	tg "github.com/taskwallet/bot/internal/telegram"
)

func (h *Handler) startSupportForm(ctx context.Context, b *bot.Bot, chatID, userID int64) {
	h.sessions.Set(ctx, userID, &domain.Conversation{Step: domain.StepSupportMessage})
	h.sendCancelKeyboard(ctx, b, chatID,
		"📞 *Contact Support*\n\n"+
			"✉️ Send your message below:\n"+
			"• Technical issues\n"+
			"• Withdrawal problems\n"+
			"• General questions\n\n"+
			"_Our support team will respond within 24 hours._")
}

// relaySupportMessage forwards a user's support message to every admin with a
// reply shortcut.
func (h *Handler) relaySupportMessage(ctx context.Context, b *bot.Bot, from *domain.User, text string) {
	for _, adminID := range h.cfg.AdminIDs {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: adminID,
			Text: fmt.Sprintf("📨 *New Support Message*\n\nFrom: %s (ID: `%d`)\n\nMessage: %s",
				from.FirstName, from.TelegramID, text),
			ParseMode: models.ParseModeMarkdownV1,
			ReplyMarkup: tg.InlineKeyboard(
				tg.ButtonRow(tg.InlineButton("↩️ Reply", fmt.Sprintf("reply_support_%d", from.TelegramID))),
			),
		})
	}
}

func (h *Handler) handleReplySupport(ctx context.Context, b *bot.Bot, update *models.Update) {
	user := h.requireAdmin(ctx, update)
	if user == nil {
		return
	}

	targetID, err := strconv.ParseInt(strings.TrimPrefix(update.CallbackQuery.Data, "reply_support_"), 10, 64)
	if err != nil {
		h.answerCallback(ctx, update, "", false)
		return
	}

	h.answerCallback(ctx, update, "", false)
	h.sessions.Set(ctx, user.TelegramID, &domain.Conversation{
		Step:         domain.StepAdminReply,
		TargetUserID: targetID,
	})
	h.sendCancelKeyboard(ctx, b, callbackChatID(update), fmt.Sprintf(
		"↩️ *Reply to User* `%d`\n\nEnter your reply:", targetID))
}
