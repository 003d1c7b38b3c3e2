package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"carspa/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("CARSPA_TEST_TOKEN", "123:abc")

	configPath := writeFile(t, tmpDir, "config.yaml", `
app:
  name: "carspa-test"
database:
  path: "test.db"
telegram:
  bot_token: "${CARSPA_TEST_TOKEN}"
  manager_chat_ids: [1001, 1002]
booking:
  closed_days: ["sunday", "sat"]
auth:
  api_keys:
    - name: "office"
      key: "k1"
      permissions: ["read:inquiries"]
`)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "carspa-test", cfg.App.Name)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, []int64{1001, 1002}, cfg.Telegram.ManagerChatIDs)
	assert.Len(t, cfg.Auth.APIKeys, 1)

	days, err := cfg.Booking.ClosedWeekdays()
	require.NoError(t, err)
	assert.Equal(t, []time.Weekday{time.Sunday, time.Saturday}, days)
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeFile(t, tmpDir, "config.yaml", "database:\n  path: \"test.db\"\n")

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "x-api-key", cfg.Auth.HeaderAPIKey)
	assert.Equal(t, models.DefaultTimezone, cfg.Booking.Timezone)
	assert.Equal(t, []string{"sunday"}, cfg.Booking.ClosedDays)
	assert.Equal(t, 24*time.Hour, cfg.Session.Duration())
	assert.Equal(t, time.Hour, cfg.Booking.Window())
	assert.Equal(t, models.SubmitRateLimit, cfg.Booking.SubmitLimit)
	assert.Equal(t, models.WorkerQueueSize, cfg.Worker.QueueSize)
	assert.Equal(t, 0, cfg.Monitoring.PrometheusPort)
	assert.Equal(t, "backups", cfg.Backup.StoragePath)
	assert.Equal(t, 24*time.Hour, cfg.Backup.IntervalDuration())

	base, max := cfg.Worker.Delays()
	assert.Equal(t, 500*time.Millisecond, base)
	assert.Equal(t, 30*time.Second, max)

	loc, err := cfg.Booking.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Montreal", loc.String())
}

func TestLoadErrors(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(filepath.Join(tmpDir, "missing.yaml"))
	assert.Error(t, err)

	bad := writeFile(t, tmpDir, "bad.yaml", "database: [")
	_, err = Load(bad)
	assert.Error(t, err)

	invalid := writeFile(t, tmpDir, "invalid.yaml", "http:\n  port: 8080\n")
	_, err = Load(invalid)
	assert.ErrorContains(t, err, "database path is required")
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		return Config{
			HTTP:     HTTPConfig{Port: 8080},
			Database: DatabaseConfig{Path: "path"},
			Booking:  BookingConfig{Timezone: "UTC", ClosedDays: []string{"sunday"}},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}},
		{name: "missing database", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.HTTP.Port = 70000 }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Booking.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "bad closed day", mutate: func(c *Config) { c.Booking.ClosedDays = []string{"funday"} }, wantErr: true},
		{name: "bad backup interval", mutate: func(c *Config) { c.Backup.Interval = "daily" }, wantErr: true},
		{name: "redis without address", mutate: func(c *Config) { c.Redis.Enabled = true }, wantErr: true},
		{name: "placeholder token", mutate: func(c *Config) {
			c.Telegram.BotToken = "YOUR_BOT_TOKEN_HERE"
			c.Telegram.ManagerChatIDs = []int64{1}
		}, wantErr: true},
		{name: "token without managers", mutate: func(c *Config) { c.Telegram.BotToken = "t" }, wantErr: true},
		{name: "token with managers", mutate: func(c *Config) {
			c.Telegram.BotToken = "t"
			c.Telegram.ManagerChatIDs = []int64{1}
		}},
		{name: "empty api key", mutate: func(c *Config) {
			c.Auth.APIKeys = []APIClientKey{{Name: "x"}}
		}, wantErr: true},
		{name: "duplicate api key", mutate: func(c *Config) {
			c.Auth.APIKeys = []APIClientKey{{Name: "a", Key: "k"}, {Name: "b", Key: "k"}}
		}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		c, err := LoadCatalog("")
		require.NoError(t, err)
		assert.Len(t, c.Areas, 6)
		assert.Len(t, c.TimeSlots, 8)
		assert.Equal(t, "9:00", c.TimeSlots[0].Value)
		assert.NoError(t, ValidateCatalog(c))
	})

	t.Run("File", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "catalog.yaml", `
business:
  name: "Test Spa"
  phone: "555"
  email: "a@b.c"
areas:
  - id: "downtown"
    name: "Downtown"
    address: "Somewhere"
time_slots:
  - value: "9:00"
    label: "9:00 AM"
`)
		c, err := LoadCatalog(path)
		require.NoError(t, err)
		assert.Equal(t, "Test Spa", c.Business.Name)
		require.Len(t, c.Areas, 1)
		assert.Equal(t, "downtown", c.Areas[0].ID)
	})

	t.Run("DuplicateArea", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "catalog.yaml", `
areas:
  - id: "a"
  - id: "a"
`)
		_, err := LoadCatalog(path)
		assert.ErrorContains(t, err, "duplicate area id")
	})

	t.Run("NoAreas", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "catalog.yaml", "time_slots: []\n")
		_, err := LoadCatalog(path)
		assert.Error(t, err)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
