package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/service"
)

func (b *Bot) handleCommand(ctx context.Context, update tgbotapi.Update) {
	chatID := update.Message.Chat.ID

	switch update.Message.Command() {
	case "start", "help":
		b.reply(chatID, "Бот клиники.\n\n"+
			"/today — записи на сегодня\n"+
			"/tomorrow — записи на завтра\n"+
			"/pending — неподтвержденные заявки\n\n"+
			"Новые заявки приходят сюда автоматически с кнопками подтверждения.")
	case "today":
		b.sendSchedule(ctx, chatID, time.Now().In(b.repo.Location()), "Записи на сегодня")
	case "tomorrow":
		b.sendSchedule(ctx, chatID, time.Now().In(b.repo.Location()).AddDate(0, 0, 1), "Записи на завтра")
	case "pending":
		b.sendPending(ctx, chatID)
	default:
		b.reply(chatID, "Неизвестная команда. /help — список команд.")
	}
}

func (b *Bot) sendSchedule(ctx context.Context, chatID int64, date time.Time, title string) {
	appointments, err := b.repo.GetActiveAppointmentsByDate(ctx, date)
	if err != nil {
		b.logger.Error().Err(err).Msg("schedule: load appointments")
		b.reply(chatID, "Не удалось загрузить расписание.")
		return
	}

	if len(appointments) == 0 {
		b.reply(chatID, title+": записей нет.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%s):\n\n", title, date.Format("02.01.2006")))
	for _, a := range appointments {
		sb.WriteString(fmt.Sprintf("%s — %s, %s (%s)\n",
			a.Slot(), a.ClientName, a.ServiceLabel, statusMark(a.Status)))
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) sendPending(ctx context.Context, chatID int64) {
	loc := b.repo.Location()
	now := time.Now().In(loc)
	appointments, err := b.repo.GetAppointmentsByDateRange(ctx, now, now.AddDate(0, 0, 30))
	if err != nil {
		b.logger.Error().Err(err).Msg("pending: load appointments")
		b.reply(chatID, "Не удалось загрузить заявки.")
		return
	}

	sent := 0
	for _, a := range appointments {
		if a.Status != models.StatusPending {
			continue
		}
		msg := tgbotapi.NewMessage(chatID, formatAppointmentCard(a))
		msg.ReplyMarkup = service.AppointmentKeyboard(a.ID)
		if _, err := b.tgService.Send(msg); err != nil {
			b.logger.Error().Err(err).Str("appointment_id", a.ID).Msg("pending: send card")
		}
		sent++
	}

	if sent == 0 {
		b.reply(chatID, "Неподтвержденных заявок нет.")
	}
}

func formatAppointmentCard(a *models.Appointment) string {
	return fmt.Sprintf(
		"👤 %s\n📞 %s\n💊 %s\n📅 %s в %s\nСтатус: %s",
		a.ClientName, a.ClientPhone, a.ServiceLabel,
		a.Time.Format("02.01.2006"), a.Slot(), statusMark(a.Status),
	)
}

func statusMark(status string) string {
	switch status {
	case models.StatusPending:
		return "⏳ ожидает"
	case models.StatusConfirmed:
		return "✅ подтверждена"
	case models.StatusCancelled:
		return "❌ отменена"
	case models.StatusCompleted:
		return "✔️ завершена"
	default:
		return status
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.tgService.SendMessage(chatID, text); err != nil {
		b.logger.Error().Err(err).Msg("send message failed")
	}
}
