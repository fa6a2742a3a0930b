package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
)

func TestStatusMark(t *testing.T) {
	assert.Equal(t, "⏳ ожидает", statusMark(models.StatusPending))
	assert.Equal(t, "✅ подтверждена", statusMark(models.StatusConfirmed))
	assert.Equal(t, "❌ отменена", statusMark(models.StatusCancelled))
	assert.Equal(t, "✔️ завершена", statusMark(models.StatusCompleted))
	// Неизвестный статус показывается как есть
	assert.Equal(t, "archived", statusMark("archived"))
}

func TestFormatAppointmentCard(t *testing.T) {
	a := &models.Appointment{
		ClientName:   "Анна",
		ClientPhone:  "+79991234567",
		ServiceLabel: "Чистка лица (3500 ₽)",
		Time:         time.Date(2026, 9, 15, 14, 30, 0, 0, time.UTC),
		Status:       models.StatusPending,
	}

	card := formatAppointmentCard(a)
	assert.Contains(t, card, "Анна")
	assert.Contains(t, card, "+79991234567")
	assert.Contains(t, card, "Чистка лица (3500 ₽)")
	assert.Contains(t, card, "15.09.2026 в 14:00")
	assert.Contains(t, card, "⏳ ожидает")
}
