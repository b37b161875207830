package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSink delivers notifications as Telegram photo messages with a
// Markdown caption.
type TelegramSink struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSink creates a Telegram sink for the given bot token and
// destination chat.
func NewTelegramSink(token string, chatID int64) (*TelegramSink, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram sink: %w", err)
	}

	return &TelegramSink{bot: bot, chatID: chatID}, nil
}

// Send delivers one notification. The context deadline is not honored by
// the underlying client; the bot API applies its own HTTP timeout.
func (s *TelegramSink) Send(ctx context.Context, mediaURL, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	photo := tgbotapi.NewPhoto(s.chatID, tgbotapi.FileURL(mediaURL))
	photo.Caption = text
	photo.ParseMode = tgbotapi.ModeMarkdown

	if _, err := s.bot.Send(photo); err != nil {
		return fmt.Errorf("telegram send photo: %w", err)
	}

	return nil
}
