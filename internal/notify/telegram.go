package notify

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	"github.com/sirupsen/logrus"
)

// TelegramNotifier delivers messages through the Telegram Bot API. Delivery
// failures are the recipient's problem (blocked bot, deleted chat) as often
// as ours, so callers log them without failing the execution.
type TelegramNotifier struct {
	bot    *telego.Bot
	logger *logrus.Logger
}

func NewTelegramNotifier(token string, logger *logrus.Logger) (*TelegramNotifier, error) {
	bot, err := telego.NewBot(token, telego.WithDefaultLogger(false, true))
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramNotifier{
		bot:    bot,
		logger: logger,
	}, nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, userID int64, text string) error {
	_, err := t.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: userID},
		Text:      text,
		ParseMode: telego.ModeHTML,
		LinkPreviewOptions: &telego.LinkPreviewOptions{
			IsDisabled: true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message to %d: %w", userID, err)
	}
	return nil
}
