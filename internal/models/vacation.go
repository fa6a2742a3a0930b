package models

import "time"

// VacationPeriod — закрытый диапазон дат, в течение которого запись недоступна.
type VacationPeriod struct {
	ID          string    `json:"id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// Contains сообщает, попадает ли календарный день в период (границы включительно).
func (v *VacationPeriod) Contains(date time.Time) bool {
	day := dateOnly(date)
	return !day.Before(dateOnly(v.StartDate)) && !day.After(dateOnly(v.EndDate))
}

// dateOnly сравнивает календарные дни без учета часового пояса метки.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
