package models

import (
	"fmt"
	"time"
)

type Appointment struct {
	ID               string    `json:"id"`
	ClientName       string    `json:"client_name"`
	ClientPhone      string    `json:"client_phone"`
	ClientTelegramID int64     `json:"client_telegram_id,omitempty"`
	ServiceID        string    `json:"service_id,omitempty"`
	ServiceLabel     string    `json:"service_label"`
	Time             time.Time `json:"appointment_time"`
	Status           string    `json:"status"` // pending, confirmed, cancelled, completed
	GoogleEventID    string    `json:"google_event_id,omitempty"`
	Reminded         bool      `json:"reminded"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	Version          int64     `json:"version"`
}

// Slot возвращает метку слота ("14:00") для времени записи.
// Запись, сделанная на 14:23, занимает слот 14:00.
func (a *Appointment) Slot() string {
	return fmt.Sprintf("%02d:00", a.Time.Hour())
}
