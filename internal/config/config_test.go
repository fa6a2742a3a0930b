package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const minimalConfig = `
telegram:
  bot_token: "123456:test-token"
  admin_chat_id: 100500
database:
  path: "data/clinic.db"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, "Europe/Moscow", cfg.Clinic.Timezone)
	assert.Equal(t, 90, cfg.Clinic.MaxBookingDays)
	assert.Equal(t, "09:00", cfg.Clinic.ReminderTime)
	assert.Equal(t, 5, cfg.Clinic.RateLimitBookings)
	assert.Equal(t, 600, cfg.Clinic.RateLimitWindow)
	assert.Equal(t, "data/uploads", cfg.Storage.UploadsPath)
	assert.Equal(t, "/uploads", cfg.Storage.PublicBaseURL)

	loc := cfg.Location()
	require.NotNil(t, loc)
	assert.Equal(t, "Europe/Moscow", loc.String())
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_BOT_TOKEN", "123456:env-token")
	t.Setenv("TEST_CHAT_ID", "42")

	cfg, err := Load(writeConfig(t, `
telegram:
  bot_token: "${TEST_BOT_TOKEN}"
  admin_chat_id: ${TEST_CHAT_ID}
database:
  path: "data/clinic.db"
api:
  port: 9000
  cors:
    allowed_origins:
      - "https://dr-anastasia-grebenuk.ru"
`))
	require.NoError(t, err)

	assert.Equal(t, "123456:env-token", cfg.Telegram.BotToken)
	assert.Equal(t, int64(42), cfg.Telegram.AdminChatID)
	assert.Equal(t, 9000, cfg.API.Port)
	assert.Equal(t, []string{"https://dr-anastasia-grebenuk.ru"}, cfg.API.CORS.AllowedOrigins)
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"missing token", `
telegram:
  admin_chat_id: 1
database:
  path: "data/clinic.db"
`},
		{"placeholder token", `
telegram:
  bot_token: "YOUR_BOT_TOKEN_HERE"
  admin_chat_id: 1
database:
  path: "data/clinic.db"
`},
		{"missing chat id", `
telegram:
  bot_token: "123456:t"
database:
  path: "data/clinic.db"
`},
		{"missing database path", `
telegram:
  bot_token: "123456:t"
  admin_chat_id: 1
`},
		{"credentials without calendar id", `
telegram:
  bot_token: "123456:t"
  admin_chat_id: 1
database:
  path: "data/clinic.db"
google:
  credentials_file: "creds.json"
`},
		{"bad timezone", `
telegram:
  bot_token: "123456:t"
  admin_chat_id: 1
database:
  path: "data/clinic.db"
clinic:
  timezone: "Mars/Olympus"
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
