package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	API        APIConfig        `yaml:"api"`
	Google     GoogleConfig     `yaml:"google"`
	Clinic     ClinicConfig     `yaml:"clinic"`
	Storage    StorageConfig    `yaml:"storage"`
	Exports    ExportConfig     `yaml:"exports"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type TelegramConfig struct {
	BotToken    string `yaml:"bot_token"`
	AdminChatID int64  `yaml:"admin_chat_id"`
	Debug       bool   `yaml:"debug"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type APIConfig struct {
	Port      int                `yaml:"port"`
	CORS      CORSConfig         `yaml:"cors"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type APIAuthConfig struct {
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	CalendarID      string `yaml:"calendar_id"`
}

type ClinicConfig struct {
	Timezone          string `yaml:"timezone"`
	MaxBookingDays    int    `yaml:"max_booking_days"`
	ReminderTime      string `yaml:"reminder_time"`
	RateLimitBookings int    `yaml:"rate_limit_bookings"`
	RateLimitWindow   int    `yaml:"rate_limit_window"`
}

type StorageConfig struct {
	UploadsPath   string `yaml:"uploads_path"`
	PublicBaseURL string `yaml:"public_base_url"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// .env не обязателен: в контейнере переменные приходят из окружения
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is required")
	}
	if c.Telegram.AdminChatID == 0 {
		return errors.New("telegram admin chat id is required")
	}
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Google.CredentialsFile != "" && c.Google.CalendarID == "" {
		return errors.New("google calendar id is required when credentials are set")
	}
	if _, err := time.LoadLocation(c.Clinic.Timezone); err != nil {
		return fmt.Errorf("invalid clinic timezone %q: %w", c.Clinic.Timezone, err)
	}
	return nil
}

// Location возвращает часовой пояс клиники. Валидация гарантирует корректность.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Clinic.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) applyDefaults() {
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}

	if c.Clinic.Timezone == "" {
		c.Clinic.Timezone = "Europe/Moscow"
	}
	if c.Clinic.MaxBookingDays == 0 {
		c.Clinic.MaxBookingDays = 90
	}
	if c.Clinic.ReminderTime == "" {
		c.Clinic.ReminderTime = "09:00"
	}
	if c.Clinic.RateLimitBookings == 0 {
		c.Clinic.RateLimitBookings = 5
	}
	if c.Clinic.RateLimitWindow == 0 {
		c.Clinic.RateLimitWindow = 600
	}

	if c.Storage.UploadsPath == "" {
		c.Storage.UploadsPath = "data/uploads"
	}
	if c.Storage.PublicBaseURL == "" {
		c.Storage.PublicBaseURL = "/uploads"
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "data/exports"
	}
}
