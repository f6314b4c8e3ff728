package telegram

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sender delivers outbound notifications over the bot API. It satisfies the
// service.Notifier contract: fire-and-forget, failures are logged and never
// retried.
type Sender struct {
	bot *bot.Bot
}

func NewSender(b *bot.Bot) *Sender {
	return &Sender{bot: b}
}

func (s *Sender) Notify(ctx context.Context, userID int64, text string) {
	params := &bot.SendMessageParams{
		ChatID:    userID,
		Text:      text,
		ParseMode: models.ParseModeMarkdownV1,
	}

	_, err := s.bot.SendMessage(ctx, params)
	if err != nil {
		// Fallback to plain text in case the markdown does not parse.
		params.ParseMode = ""
		if _, err = s.bot.SendMessage(ctx, params); err != nil {
			slog.Warn("notify failed", "error", err, "user_id", userID)
		}
	}
}
