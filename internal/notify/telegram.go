// Package notify is the outbound reminder channel. The service works fine
// without one configured; everything here degrades to a no-op.
package notify

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/MasterPumpkin/evidence-mp/internal/observability"
)

type Notifier interface {
	Notify(text string) error
}

type Noop struct{}

func (Noop) Notify(string) error { return nil }

// Telegram fans one message out to the configured chats.
type Telegram struct {
	bot   *tgbotapi.BotAPI
	chats []int64
}

func NewTelegram(token string, chats []int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{bot: bot, chats: chats}, nil
}

func (t *Telegram) Notify(text string) error {
	var last error
	for _, chat := range t.chats {
		msg := tgbotapi.NewMessage(chat, text)
		if _, err := t.bot.Send(msg); err != nil {
			if isSystemErr(err) {
				observability.CaptureErr(err)
			}
			last = err
		}
	}
	return last
}

// 5xx, 429 and timeouts count as system errors; validation-style 400s do not.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "429") ||
		strings.Contains(s, "502") ||
		strings.Contains(s, "503") ||
		strings.Contains(s, "timeout")
}
