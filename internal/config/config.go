package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Supported database drivers
const (
	DriverSQLite   = "sqlite3"
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
)

type Config struct {
	LogLevel string   `yaml:"log_level" env:"TNM_LOG_LEVEL" env-default:"INFO"`
	LogFile  string   `yaml:"log_file" env:"TNM_LOG_FILE"`
	Database Database `yaml:"database"`
	Notify   Notify   `yaml:"notify"`
}

type Database struct {
	Driver   string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite3"`
	Path     string `yaml:"path" env:"DB_PATH"` // sqlite only; empty means the XDG data dir
	Host     string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Name     string `yaml:"name" env:"DB_NAME" env-default:"tasks"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	MaxConns int    `yaml:"max_conns" env:"DB_MAX_CONNS" env-default:"1"`
}

type Notify struct {
	Interval time.Duration `yaml:"interval" env:"TNM_NOTIFY_INTERVAL" env-default:"1h"`
	Discord  Discord       `yaml:"discord"`
}

// Discord webhook used for due-tomorrow reminders. Both fields empty disables it.
type Discord struct {
	WebhookID    string `yaml:"webhook_id" env:"DISCORD_WEBHOOK_ID"`
	WebhookToken string `yaml:"webhook_token" env:"DISCORD_WEBHOOK_TOKEN"`
}

func (d Discord) Enabled() bool {
	return d.WebhookID != "" && d.WebhookToken != ""
}

// URL builds the postgres connection string
func (d Database) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + strconv.Itoa(d.Port),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// Load reads the config file at path, falling back to the environment when the file does not exist.
func Load(path string) (Config, error) {
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("cannot read env: %w", err)
		}
		return cfg, cfg.validate()
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("cannot read config %q: %w", path, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return Config{}, fmt.Errorf("cannot read env: %w", err)
		}
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPgx, DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("database.max_conns must be at least 1, got %d", c.Database.MaxConns)
	}
	if c.Notify.Interval <= 0 {
		return fmt.Errorf("notify.interval must be positive, got %s", c.Notify.Interval)
	}
	return nil
}

// DefaultPath returns the config file location under the XDG config dir
func DefaultPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "tnm", "config.yaml")
}
