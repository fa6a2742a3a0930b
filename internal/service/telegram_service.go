package service

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/domain"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
)

type TelegramService struct {
	bot         domain.TelegramSender
	adminChatID int64
}

func NewTelegramService(bot domain.TelegramSender, adminChatID int64) *TelegramService {
	return &TelegramService{
		bot:         bot,
		adminChatID: adminChatID,
	}
}

// NotifyNewBooking отправляет оператору заявку с кнопками подтверждения.
// Ошибка отправки означает, что заявка не принята.
func (s *TelegramService) NotifyNewBooking(a *models.Appointment) error {
	msg := tgbotapi.NewMessage(s.adminChatID, FormatNewBookingMessage(a))
	msg.ReplyMarkup = AppointmentKeyboard(a.ID)
	_, err := s.bot.Send(msg)
	return err
}

// FormatNewBookingMessage собирает текст уведомления о новой заявке.
func FormatNewBookingMessage(a *models.Appointment) string {
	return fmt.Sprintf(
		"🔔 Новая заявка на запись!\n\n"+
			"👤 Имя: %s\n"+
			"📞 Телефон: %s\n"+
			"💊 Услуга: %s\n"+
			"📅 Дата: %s\n"+
			"⏰ Время: %s\n\n"+
			"#новая_заявка",
		a.ClientName, a.ClientPhone, a.ServiceLabel,
		a.Time.Format("02.01.2006"), a.Slot(),
	)
}

// AppointmentKeyboard — inline-кнопки управления заявкой.
func AppointmentKeyboard(appointmentID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Подтвердить", "confirm:"+appointmentID),
			tgbotapi.NewInlineKeyboardButtonData("❌ Отменить", "cancel:"+appointmentID),
		),
	)
}

func (s *TelegramService) SendText(chatID int64, text string) error {
	_, err := s.SendMessage(chatID, text)
	return err
}

func (s *TelegramService) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	return s.bot.Send(c)
}

func (s *TelegramService) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return s.bot.Request(c)
}

func (s *TelegramService) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	return s.bot.Send(msg)
}

func (s *TelegramService) SendMarkdown(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = models.ParseModeMarkdown
	return s.bot.Send(msg)
}

func (s *TelegramService) SendWithInlineKeyboard(
	chatID int64,
	text string,
	keyboard tgbotapi.InlineKeyboardMarkup,
) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return s.bot.Send(msg)
}

func (s *TelegramService) EditMessage(
	chatID int64,
	messageID int,
	text string,
	keyboard *tgbotapi.InlineKeyboardMarkup,
) (tgbotapi.Message, error) {
	if keyboard != nil {
		msg := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *keyboard)
		return s.bot.Send(msg)
	}
	msg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	return s.bot.Send(msg)
}

func (s *TelegramService) AnswerCallback(callbackID, text string) error {
	callback := tgbotapi.NewCallback(callbackID, text)
	_, err := s.bot.Request(callback)
	return err
}

func (s *TelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return s.bot.GetUpdatesChan(config)
}

func (s *TelegramService) GetSelf() tgbotapi.User {
	return s.bot.GetSelf()
}

func (s *TelegramService) StopReceivingUpdates() {
	s.bot.StopReceivingUpdates()
}

// AdminChatID возвращает чат оператора для напоминаний и отчетов.
func (s *TelegramService) AdminChatID() int64 {
	return s.adminChatID
}
