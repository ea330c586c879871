// Package bot implements the webhook dispatcher: update parsing, the
// per-chat dialogue state machine, command and callback handlers, and
// outbound message rendering.
package bot

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tennis_bot/internal/config"
	"tennis_bot/internal/sofascore"
	"tennis_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot handles Telegram updates and sends notifications.
type Bot struct {
	api    telegramAPI
	store  storage.Storage
	cfg    *config.Config
	client *sofascore.Client
	log    *slog.Logger
	now    func() time.Time
}

// New creates a Bot with the given Telegram token, storage, and config.
func New(token string, store storage.Storage, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	return &Bot{
		api:    api,
		store:  store,
		cfg:    cfg,
		client: sofascore.NewClient(httpClient),
		log:    log,
		now:    time.Now,
	}, nil
}

// SendMessage sends a text message to the given chat. Failures are
// logged, not retried.
func (b *Bot) SendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	b.SendMessage(chatID, text)
}

func (b *Bot) replyWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send message with keyboard", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) answerCallback(callbackID, text string) {
	cb := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(cb); err != nil {
		b.log.Error("answer callback query", "error", err)
	}
}
