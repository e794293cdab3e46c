package notify

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram forwards notifications to a chat through a bot.
type Telegram struct {
	api    telegramSender
	chatID int64
}

// NewTelegram connects a bot with token. It fails if the token is rejected.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

func (t *Telegram) Notify(title, body, tag string) {
	msg := tgbotapi.NewMessage(t.chatID, title+"\n"+body)
	if _, err := t.api.Send(msg); err != nil {
		log.Printf("telegram notify %s: %v", tag, err)
	}
}
