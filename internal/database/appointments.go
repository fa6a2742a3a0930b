package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/shadowspectr/dr-anastasia-grebenuk/internal/models"
)

const appointmentColumns = `id, client_name, client_phone, client_telegram_id, service_id,
                 service_label, appointment_time, status, google_event_id, reminded,
                 created_at, updated_at, version`

func (db *DB) scanAppointment(row interface{ Scan(...any) error }) (*models.Appointment, error) {
	var (
		a          models.Appointment
		phone      sql.NullString
		telegramID sql.NullInt64
		serviceID  sql.NullString
		eventID    sql.NullString
		timeStr    string
	)
	err := row.Scan(
		&a.ID, &a.ClientName, &phone, &telegramID, &serviceID,
		&a.ServiceLabel, &timeStr, &a.Status, &eventID, &a.Reminded,
		&a.CreatedAt, &a.UpdatedAt, &a.Version,
	)
	if err != nil {
		return nil, err
	}

	a.ClientPhone = phone.String
	a.ClientTelegramID = telegramID.Int64
	a.ServiceID = serviceID.String
	a.GoogleEventID = eventID.String

	a.Time, err = db.parseTime(timeStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse appointment time %s: %w", timeStr, err)
	}
	return &a, nil
}

// CreateAppointment вставляет запись без проверки занятости слота.
// Используется админкой; публичные заявки идут через CreateAppointmentExclusive.
func (db *DB) CreateAppointment(ctx context.Context, a *models.Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now()
	query := `INSERT INTO appointments (
                id, client_name, client_phone, client_telegram_id, service_id,
                service_label, appointment_time, status, google_event_id, reminded,
                created_at, updated_at, version
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		a.ID,
		a.ClientName,
		nullString(a.ClientPhone),
		nullInt64(a.ClientTelegramID),
		nullString(a.ServiceID),
		a.ServiceLabel,
		db.formatTime(a.Time),
		a.Status,
		nullString(a.GoogleEventID),
		a.Reminded,
		now,
		now,
		1,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	a.CreatedAt = now
	a.UpdatedAt = now
	a.Version = 1
	return nil
}

// CreateAppointmentExclusive создает запись в транзакции: сначала проверяется,
// что в часовом окне слота нет активной записи, затем выполняется вставка.
// Уникальный частичный индекс страхует от гонки между двумя заявками.
func (db *DB) CreateAppointmentExclusive(ctx context.Context, a *models.Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	slotStart := time.Date(a.Time.Year(), a.Time.Month(), a.Time.Day(), a.Time.Hour(), 0, 0, 0, db.loc)
	slotEnd := slotStart.Add(time.Hour)

	var taken int
	queryCount := `SELECT COUNT(*) FROM appointments
                   WHERE appointment_time >= ? AND appointment_time < ? AND status != ?`
	err = tx.QueryRowContext(ctx, queryCount,
		db.formatTime(slotStart), db.formatTime(slotEnd), models.StatusCancelled).Scan(&taken)
	if err != nil {
		return fmt.Errorf("failed to check slot in tx: %w", err)
	}
	if taken > 0 {
		return ErrSlotTaken
	}

	now := time.Now()
	queryInsert := `INSERT INTO appointments (
                id, client_name, client_phone, client_telegram_id, service_id,
                service_label, appointment_time, status, google_event_id, reminded,
                created_at, updated_at, version
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, queryInsert,
		a.ID,
		a.ClientName,
		nullString(a.ClientPhone),
		nullInt64(a.ClientTelegramID),
		nullString(a.ServiceID),
		a.ServiceLabel,
		db.formatTime(a.Time),
		a.Status,
		nullString(a.GoogleEventID),
		a.Reminded,
		now,
		now,
		1,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlotTaken
		}
		return fmt.Errorf("failed to insert appointment in tx: %w", err)
	}

	a.CreatedAt = now
	a.UpdatedAt = now
	a.Version = 1
	return tx.Commit()
}

func (db *DB) GetAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = ?`
	a, err := db.scanAppointment(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return a, nil
}

// GetActiveAppointmentsByDate возвращает неотмененные записи на календарный день.
func (db *DB) GetActiveAppointmentsByDate(ctx context.Context, date time.Time) ([]*models.Appointment, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, db.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	query := `SELECT ` + appointmentColumns + ` FROM appointments
              WHERE appointment_time >= ? AND appointment_time < ? AND status != ?
              ORDER BY appointment_time ASC`
	return db.queryAppointments(ctx, query, db.formatTime(dayStart), db.formatTime(dayEnd), models.StatusCancelled)
}

// GetAppointmentsByDateRange возвращает все записи за период (для админки и экспорта).
func (db *DB) GetAppointmentsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
              WHERE appointment_time >= ? AND appointment_time < ?
              ORDER BY appointment_time ASC`
	return db.queryAppointments(ctx, query, db.formatTime(start), db.formatTime(end))
}

// GetUnremindedAppointments возвращает активные записи без отправленного
// напоминания в интервале [start, end).
func (db *DB) GetUnremindedAppointments(ctx context.Context, start, end time.Time) ([]*models.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments
              WHERE appointment_time >= ? AND appointment_time < ?
                AND reminded = 0 AND status IN (?, ?)
              ORDER BY appointment_time ASC`
	return db.queryAppointments(ctx, query,
		db.formatTime(start), db.formatTime(end), models.StatusPending, models.StatusConfirmed)
}

func (db *DB) queryAppointments(ctx context.Context, query string, args ...any) ([]*models.Appointment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*models.Appointment
	for rows.Next() {
		a, err := db.scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

func (db *DB) UpdateAppointmentStatus(ctx context.Context, id, status string) error {
	query := `UPDATE appointments SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) UpdateAppointmentStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error {
	query := `UPDATE appointments SET status = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update appointment status: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// SetGoogleEventID проставляет id события календаря после успешной синхронизации.
func (db *DB) SetGoogleEventID(ctx context.Context, id, eventID string) error {
	query := `UPDATE appointments SET google_event_id = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, nullString(eventID), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set google event id: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) MarkReminded(ctx context.Context, id string) error {
	query := `UPDATE appointments SET reminded = 1, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark appointment reminded: %w", err)
	}
	return nil
}

// DeleteAppointment удаляет запись. Используется для отката заявки,
// если обязательное уведомление оператору не доставлено.
func (db *DB) DeleteAppointment(ctx context.Context, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt64(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
