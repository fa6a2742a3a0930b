package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/schedule"
)

// StartReminders schedules daily reminders for next-day appointments.
func (b *Bot) StartReminders(ctx context.Context) {
	if b == nil || b.tgService == nil {
		return
	}

	go func() {
		hour := models.ReminderHour
		if b.config.Clinic.ReminderTime != "" {
			var m int
			if _, err := fmt.Sscanf(b.config.Clinic.ReminderTime, "%d:%d", &hour, &m); err != nil {
				b.logger.Error().Err(err).Str("reminder_time", b.config.Clinic.ReminderTime).Msg("Invalid reminder time format")
				return
			}
		}

		// First wait until next reminder time local time, then tick every 24h.
		wait := b.timeUntilNextHour(hour)
		timer := time.NewTimer(wait)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
				b.sendTomorrowReminders(ctx)
				timer.Reset(24 * time.Hour)
			}
		}
	}()
}

func (b *Bot) sendTomorrowReminders(ctx context.Context) {
	loc := b.repo.Location()
	tomorrow := time.Now().In(loc).AddDate(0, 0, 1)
	start, end := schedule.DayWindow(tomorrow, loc)

	appointments, err := b.repo.GetUnremindedAppointments(ctx, start, end)
	if err != nil {
		b.logger.Error().Err(err).Msg("reminder: get appointments error")
		return
	}
	if len(appointments) == 0 {
		return
	}

	// Сводка оператору одним сообщением
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Напоминание: записи на завтра (%s):\n\n", tomorrow.Format("02.01.2006")))
	for _, a := range appointments {
		sb.WriteString(fmt.Sprintf("%s — %s, %s\n", a.Slot(), a.ClientName, a.ServiceLabel))
	}
	if err := b.tgService.SendText(b.tgService.AdminChatID(), sb.String()); err != nil {
		b.logger.Error().Err(err).Msg("reminder: send digest error")
		return
	}

	for _, a := range appointments {
		// Личное напоминание только клиентам, писавшим боту
		if a.ClientTelegramID != 0 {
			text := fmt.Sprintf("Напоминание: завтра в %s у вас запись — %s.", a.Slot(), a.ServiceLabel)
			if err := b.tgService.SendText(a.ClientTelegramID, text); err != nil {
				b.logger.Error().Err(err).Int64("telegram_id", a.ClientTelegramID).Msg("reminder: send error")
			}
		}

		if err := b.repo.MarkReminded(ctx, a.ID); err != nil {
			b.logger.Error().Err(err).Str("appointment_id", a.ID).Msg("reminder: mark error")
		}
	}
}

func (b *Bot) timeUntilNextHour(hour int) time.Duration {
	now := time.Now().In(b.repo.Location())
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
