package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/database"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, update tgbotapi.Update) {
	callback := update.CallbackQuery
	data := callback.Data

	// Отвечаем на callback сразу, чтобы убрать "часики"
	_ = b.tgService.AnswerCallback(callback.ID, "")

	action, id, ok := strings.Cut(data, ":")
	if !ok || id == "" {
		return
	}

	switch action {
	case "confirm":
		b.resolveAppointment(ctx, callback, id, "confirm")
	case "cancel":
		b.resolveAppointment(ctx, callback, id, "cancel")
	case "complete":
		b.resolveAppointment(ctx, callback, id, "complete")
	}
}

func (b *Bot) resolveAppointment(ctx context.Context, callback *tgbotapi.CallbackQuery, id, action string) {
	appointment, err := b.repo.GetAppointment(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			b.editCard(callback, "Заявка не найдена (возможно, удалена).")
			return
		}
		b.logger.Error().Err(err).Str("appointment_id", id).Msg("callback: load appointment")
		return
	}

	var result string
	switch action {
	case "confirm":
		err = b.bookingService.ConfirmAppointment(ctx, id, appointment.Version, "operator")
		result = "✅ Заявка подтверждена"
	case "cancel":
		err = b.bookingService.CancelAppointment(ctx, id, appointment.Version, "operator")
		result = "❌ Заявка отменена"
	case "complete":
		err = b.bookingService.CompleteAppointment(ctx, id, appointment.Version, "operator")
		result = "✔️ Визит завершен"
	}

	if err != nil {
		if errors.Is(err, database.ErrConcurrentModification) {
			b.editCard(callback, "Статус заявки уже изменен, обновите список: /pending")
			return
		}
		b.logger.Error().Err(err).Str("appointment_id", id).Str("action", action).
			Msg("callback: status change failed")
		b.editCard(callback, "Не удалось изменить статус, попробуйте еще раз.")
		return
	}

	b.editCard(callback, formatAppointmentCard(appointment)+"\n\n"+result)
}

// editCard переписывает карточку заявки и убирает кнопки.
func (b *Bot) editCard(callback *tgbotapi.CallbackQuery, text string) {
	if callback.Message == nil {
		return
	}
	if _, err := b.tgService.EditMessage(callback.Message.Chat.ID, callback.Message.MessageID, text, nil); err != nil {
		b.logger.Error().Err(err).Msg("edit message failed")
	}
}
