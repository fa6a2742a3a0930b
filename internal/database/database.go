package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

type DB struct {
	*sql.DB
	loc    *time.Location
	logger *zerolog.Logger
}

// NewDB открывает базу и создает схему. loc — часовой пояс клиники,
// в нем хранятся и разбираются все метки времени записей.
func NewDB(path string, loc *time.Location, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(sqlDB); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if loc == nil {
		loc = time.Local
	}

	logger.Info().Str("path", path).Msg("База данных инициализирована")
	return &DB{DB: sqlDB, loc: loc, logger: logger}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS service_categories (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS services (
            id TEXT PRIMARY KEY,
            category_id TEXT,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            icon TEXT NOT NULL DEFAULT '',
            price TEXT NOT NULL DEFAULT '',
            images TEXT NOT NULL DEFAULT '[]',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Таблица записей на прием
		`CREATE TABLE IF NOT EXISTS appointments (
            id TEXT PRIMARY KEY,
            client_name TEXT NOT NULL,
            client_phone TEXT,
            client_telegram_id INTEGER,
            service_id TEXT,
            service_label TEXT NOT NULL DEFAULT '',
            appointment_time DATETIME NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            google_event_id TEXT,
            reminded BOOLEAN NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            version INTEGER NOT NULL DEFAULT 1
        )`,
		// Периоды отпуска: весь день считается занятым
		`CREATE TABLE IF NOT EXISTS vacation_periods (
            id TEXT PRIMARY KEY,
            start_date DATETIME NOT NULL,
            end_date DATETIME NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS gallery (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            image TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS team_members (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            position TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            photo_url TEXT NOT NULL DEFAULT '',
            sort_order INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS faq (
            id TEXT PRIMARY KEY,
            question TEXT NOT NULL,
            answer TEXT NOT NULL,
            sort_order INTEGER NOT NULL DEFAULT 0,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS footer_links (
            id TEXT PRIMARY KEY,
            instagram TEXT NOT NULL DEFAULT '',
            telegram TEXT NOT NULL DEFAULT '',
            telegram_channel TEXT NOT NULL DEFAULT '',
            vkontakte TEXT NOT NULL DEFAULT '',
            whatsapp TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS contacts (
            id TEXT PRIMARY KEY,
            address TEXT NOT NULL DEFAULT '',
            phone TEXT NOT NULL DEFAULT '',
            email TEXT NOT NULL DEFAULT '',
            instagram TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS main_content (
            id TEXT PRIMARY KEY,
            about_title TEXT NOT NULL DEFAULT '',
            about_description TEXT NOT NULL DEFAULT '',
            about_advantages TEXT NOT NULL DEFAULT '[]',
            main_photo_url TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS education (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL DEFAULT '',
            description TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS education_photos (
            id TEXT PRIMARY KEY,
            education_id TEXT,
            photo_url TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE TABLE IF NOT EXISTS privacy_policy (
            id TEXT PRIMARY KEY,
            title TEXT NOT NULL DEFAULT '',
            document_url TEXT NOT NULL DEFAULT '',
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		// Очередь синхронизации с Google Calendar
		`CREATE TABLE IF NOT EXISTS sync_queue (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            task_type TEXT NOT NULL,
            appointment_id TEXT NOT NULL,
            payload TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL DEFAULT 'pending',
            retry_count INTEGER NOT NULL DEFAULT 0,
            last_error TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
            processed_at DATETIME,
            next_retry_at DATETIME
        )`,

		`CREATE INDEX IF NOT EXISTS idx_appointments_time ON appointments(appointment_time)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status)`,
		`CREATE INDEX IF NOT EXISTS idx_appointments_reminded ON appointments(reminded)`,
		`CREATE INDEX IF NOT EXISTS idx_services_category_id ON services(category_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status)`,

		// Две активные записи не могут занимать одно и то же время.
		// Частичный индекс закрывает гонку между проверкой слота и вставкой.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_appointments_active_time
            ON appointments(appointment_time) WHERE status != 'cancelled'`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// Location возвращает часовой пояс клиники.
func (db *DB) Location() *time.Location {
	return db.loc
}

func (db *DB) formatTime(t time.Time) string {
	return t.In(db.loc).Format(dateTimeLayout)
}

func (db *DB) parseTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateTimeLayout, s, db.loc)
	if err != nil {
		// sqlite может вернуть дату без времени
		t, err = time.ParseInLocation(dateLayout, s, db.loc)
	}
	return t, err
}
