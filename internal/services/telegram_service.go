package services

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramService pushes security alerts (password changed/reset) to an
// operations chat. A nil service is a no-op, so wiring stays optional.
type TelegramService struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramService(botToken string, chatID int64) *TelegramService {
	if botToken == "" || chatID == 0 {
		return nil
	}
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Printf("[tg] bot init failed: %v", err)
		return nil
	}
	return &TelegramService{bot: bot, chatID: chatID}
}

func (t *TelegramService) SendAlert(text string) error {
	if t == nil || t.bot == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage failed: %w", err)
	}
	return nil
}

// NotifyPasswordChanged reports a credential change to the alert chat.
// Callers dispatch it off the request path and must not fail a request
// on a delivery error.
func (t *TelegramService) NotifyPasswordChanged(email, via string) error {
	if t == nil {
		return nil
	}
	return t.SendAlert(fmt.Sprintf("Password for %s changed via %s", email, via))
}
