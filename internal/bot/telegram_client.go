package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramClient оборачивает tgbotapi.BotAPI под срез domain.TelegramSender:
// сервисы уведомлений и бот оператора работают через интерфейс и в тестах
// подменяются заглушкой.
type TelegramClient struct {
	*tgbotapi.BotAPI
}

func NewTelegramClient(api *tgbotapi.BotAPI) *TelegramClient {
	return &TelegramClient{BotAPI: api}
}

// GetSelf возвращает аккаунт бота клиники, под которым прошла авторизация.
func (c *TelegramClient) GetSelf() tgbotapi.User {
	return c.Self
}

func (c *TelegramClient) StopReceivingUpdates() {
	c.BotAPI.StopReceivingUpdates()
}
