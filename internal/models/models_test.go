package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentSlotTruncatesToHour(t *testing.T) {
	a := &Appointment{Time: time.Date(2026, 9, 15, 14, 23, 0, 0, time.UTC)}
	assert.Equal(t, "14:00", a.Slot())

	a.Time = time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "09:00", a.Slot())
}

func TestVacationPeriodContains(t *testing.T) {
	v := &VacationPeriod{
		StartDate: time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, v.Contains(time.Date(2026, 7, 10, 15, 30, 0, 0, time.UTC)), "start boundary inclusive")
	assert.True(t, v.Contains(time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)), "end boundary inclusive")
	assert.True(t, v.Contains(time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)))
	assert.False(t, v.Contains(time.Date(2026, 7, 9, 23, 59, 0, 0, time.UTC)))
	assert.False(t, v.Contains(time.Date(2026, 7, 21, 0, 0, 0, 0, time.UTC)))
}

func TestServiceDisplayLabel(t *testing.T) {
	s := &Service{Title: "Чистка лица", Price: "3500 ₽"}
	assert.Equal(t, "Чистка лица (3500 ₽)", s.DisplayLabel())

	s.Price = ""
	assert.Equal(t, "Чистка лица", s.DisplayLabel())
}
