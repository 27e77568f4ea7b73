package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"biblequest/internal/telemetry"
)

// Config controls storage, gameplay constants and the outward services.
// Every field can be set from a BIBLEQUEST_* environment variable; unset
// variables keep the DefaultConfig value.
type Config struct {
	DataDir  string `env:"BIBLEQUEST_DATA_DIR"`
	LogPath  string `env:"BIBLEQUEST_LOG_PATH"`
	LogLevel string `env:"BIBLEQUEST_LOG_LEVEL"`

	Backend     string `env:"BIBLEQUEST_BACKEND"`
	PostgresDSN string `env:"BIBLEQUEST_POSTGRES_DSN"`
	Profile     string `env:"BIBLEQUEST_PROFILE"`
	ContentPath string `env:"BIBLEQUEST_CONTENT"`

	CoinsPerLevel  int64         `env:"BIBLEQUEST_COINS_PER_LEVEL"`
	InteractionCap int           `env:"BIBLEQUEST_INTERACTION_CAP"`
	WriteTimeout   time.Duration `env:"BIBLEQUEST_WRITE_TIMEOUT"`

	AnalyticsURL     string `env:"BIBLEQUEST_ANALYTICS_URL"`
	NotificationsURL string `env:"BIBLEQUEST_NOTIFICATIONS_URL"`
	Compress         bool   `env:"BIBLEQUEST_COMPRESS"`
	ReminderHour     int    `env:"BIBLEQUEST_REMINDER_HOUR"`
	ReminderMinute   int    `env:"BIBLEQUEST_REMINDER_MINUTE"`

	Dev          bool   `env:"BIBLEQUEST_DEV"`
	DevHTTP      string `env:"BIBLEQUEST_DEV_HTTP"`
	DemoScenario string `env:"BIBLEQUEST_DEMO"`
	ASCIIOnly    bool   `env:"BIBLEQUEST_ASCII"`
	Quiet        bool   `env:"BIBLEQUEST_QUIET"`
}

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

func DefaultConfig() Config {
	return Config{
		LogLevel:       "warn",
		Backend:        BackendSQLite,
		Profile:        "default",
		CoinsPerLevel:  10,
		InteractionCap: 3,
		WriteTimeout:   5 * time.Second,
		ReminderHour:   9,
		DevHTTP:        "127.0.0.1:17321",
	}
}

// LoadConfig starts from DefaultConfig and applies the process environment.
func LoadConfig() (Config, error) {
	return loadConfig(env.Options{})
}

func loadConfig(opts env.Options) (Config, error) {
	cfg := DefaultConfig()
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case "":
		c.Backend = BackendSQLite
	case BackendSQLite, BackendMemory:
	case BackendPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return errors.New("postgres backend requires BIBLEQUEST_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("invalid storage backend %q", c.Backend)
	}

	if _, err := telemetry.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	c.Profile = strings.TrimSpace(c.Profile)
	if c.Profile == "" {
		c.Profile = "default"
	}
	if strings.ContainsAny(c.Profile, `/\`) {
		return fmt.Errorf("invalid profile %q", c.Profile)
	}
	if c.CoinsPerLevel <= 0 {
		c.CoinsPerLevel = 10
	}
	if c.InteractionCap <= 0 {
		c.InteractionCap = 3
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.ReminderHour < 0 || c.ReminderHour > 23 || c.ReminderMinute < 0 || c.ReminderMinute > 59 {
		return fmt.Errorf("invalid reminder time %02d:%02d", c.ReminderHour, c.ReminderMinute)
	}
	if c.DevHTTP == "" {
		c.DevHTTP = "127.0.0.1:17321"
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "biblequest")
	}
	return nil
}

// StatePath is the SQLite file for the configured profile.
func (c Config) StatePath() string {
	if c.Profile == "" || c.Profile == "default" {
		return filepath.Join(c.DataDir, "state.db")
	}
	return filepath.Join(c.DataDir, "state-"+c.Profile+".db")
}
