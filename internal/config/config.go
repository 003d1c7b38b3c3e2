package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"carspa/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App         AppConfig        `yaml:"app"`
	HTTP        HTTPConfig       `yaml:"http"`
	Auth        AuthConfig       `yaml:"auth"`
	Database    DatabaseConfig   `yaml:"database"`
	Backup      BackupConfig     `yaml:"backup"`
	Redis       RedisConfig      `yaml:"redis"`
	Session     SessionConfig    `yaml:"session"`
	Booking     BookingConfig    `yaml:"booking"`
	Telegram    TelegramConfig   `yaml:"telegram"`
	Worker      WorkerConfig     `yaml:"worker"`
	Monitoring  MonitoringConfig `yaml:"monitoring"`
	Logging     LoggingConfig    `yaml:"logging"`
	Exports     ExportConfig     `yaml:"exports"`
	CatalogPath string           `yaml:"catalog_path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Port            int             `yaml:"port"`
	ReadTimeout     int             `yaml:"read_timeout"`
	WriteTimeout    int             `yaml:"write_timeout"`
	ShutdownTimeout int             `yaml:"shutdown_timeout"`
	AllowedOrigins  []string        `yaml:"allowed_origins"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type AuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	HeaderExtra  string         `yaml:"header_extra"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Extra       string   `yaml:"extra"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Interval      string `yaml:"interval"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type SessionConfig struct {
	// TTL in seconds
	TTL int `yaml:"ttl"`
}

type BookingConfig struct {
	Timezone   string   `yaml:"timezone"`
	ClosedDays []string `yaml:"closed_days"`
	// SubmitLimit form submissions per client within SubmitWindow seconds
	SubmitLimit  int `yaml:"submit_limit"`
	SubmitWindow int `yaml:"submit_window"`
}

type TelegramConfig struct {
	BotToken       string  `yaml:"bot_token"`
	Debug          bool    `yaml:"debug"`
	ManagerChatIDs []int64 `yaml:"manager_chat_ids"`
}

type WorkerConfig struct {
	QueueSize  int `yaml:"queue_size"`
	MaxRetries int `yaml:"max_retries"`
	// delays in milliseconds
	BaseDelay int `yaml:"base_delay"`
	MaxDelay  int `yaml:"max_delay"`
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

type ExportConfig struct {
	Path string `yaml:"path"`
}

func Load(configPath string) (*Config, error) {
	// Load .env if it exists
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Expand environment variables in the YAML before parsing
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
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTP.Port)
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return errors.New("redis address is required when redis is enabled")
	}
	if _, err := c.Booking.Location(); err != nil {
		return err
	}
	if _, err := c.Booking.ClosedWeekdays(); err != nil {
		return err
	}
	if c.Backup.Interval != "" {
		if _, err := time.ParseDuration(c.Backup.Interval); err != nil {
			return fmt.Errorf("invalid backup interval %q: %w", c.Backup.Interval, err)
		}
	}
	if c.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		return errors.New("telegram bot token is a placeholder")
	}
	if c.Telegram.BotToken != "" && len(c.Telegram.ManagerChatIDs) == 0 {
		return errors.New("telegram manager_chat_ids are required when bot_token is set")
	}
	return ValidateAPIKeys(c.Auth.APIKeys)
}

func ValidateAPIKeys(keys []APIClientKey) error {
	seen := make(map[string]bool)
	for _, k := range keys {
		if strings.TrimSpace(k.Key) == "" {
			return fmt.Errorf("api key '%s' is empty", k.Name)
		}
		if seen[k.Key] {
			return fmt.Errorf("duplicate api key for client '%s'", k.Name)
		}
		seen[k.Key] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "carspa"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 15
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 5
	}
	if c.HTTP.RateLimit.RPS == 0 {
		c.HTTP.RateLimit.RPS = 5
	}
	if c.HTTP.RateLimit.Burst == 0 {
		c.HTTP.RateLimit.Burst = 10
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Auth.HeaderAPIKey == "" {
		c.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.Auth.HeaderExtra == "" {
		c.Auth.HeaderExtra = "x-api-extra"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}

	if c.Session.TTL == 0 {
		c.Session.TTL = models.DefaultSessionTTL
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = models.DefaultTimezone
	}
	if c.Booking.ClosedDays == nil {
		c.Booking.ClosedDays = []string{"sunday"}
	}
	if c.Booking.SubmitLimit == 0 {
		c.Booking.SubmitLimit = models.SubmitRateLimit
	}
	if c.Booking.SubmitWindow == 0 {
		c.Booking.SubmitWindow = models.SubmitRateWindow
	}

	if c.Worker.QueueSize == 0 {
		c.Worker.QueueSize = models.WorkerQueueSize
	}
	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 5
	}
	if c.Worker.BaseDelay == 0 {
		c.Worker.BaseDelay = 500
	}
	if c.Worker.MaxDelay == 0 {
		c.Worker.MaxDelay = 30000
	}

	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}

	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}

func (s SessionConfig) Duration() time.Duration {
	return time.Duration(s.TTL) * time.Second
}

func (b BookingConfig) Window() time.Duration {
	return time.Duration(b.SubmitWindow) * time.Second
}

// Location resolves the business time zone used for "today".
func (b BookingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid booking timezone %q: %w", b.Timezone, err)
	}
	return loc, nil
}

func (b BookingConfig) ClosedWeekdays() ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(b.ClosedDays))
	for _, raw := range b.ClosedDays {
		wd, ok := parseWeekday(raw)
		if !ok {
			return nil, fmt.Errorf("invalid closed day %q", raw)
		}
		days = append(days, wd)
	}
	return days, nil
}

func parseWeekday(raw string) (time.Weekday, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if raw == name || raw == name[:3] {
			return wd, true
		}
	}
	return 0, false
}

// IntervalDuration parses Interval and falls back to 24h.
func (b BackupConfig) IntervalDuration() time.Duration {
	if d, err := time.ParseDuration(b.Interval); err == nil && d > 0 {
		return d
	}
	return 24 * time.Hour
}

func (w WorkerConfig) Delays() (base, max time.Duration) {
	return time.Duration(w.BaseDelay) * time.Millisecond, time.Duration(w.MaxDelay) * time.Millisecond
}
