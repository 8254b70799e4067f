package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config holds the configuration for the application.
type Config struct {
	DatabaseDriver string `yaml:"database_driver"`
	DatabasePath   string `yaml:"database_path"`
	PostgresDSN    string `yaml:"postgres_dsn"`

	HTTPPort           string        `yaml:"http_port"`
	JWTSecret          string        `yaml:"jwt_secret"`
	TokenTTL           time.Duration `yaml:"token_ttl"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`

	// Shopping list document
	FontPath             string `yaml:"font_path"`
	ShoppingListFilename string `yaml:"shopping_list_filename"`
	ArchivePath          string `yaml:"archive_path"` // exported lists, one per user

	LogLevel       string `yaml:"log_level"`
	LogDevelopment bool   `yaml:"log_development"`

	// Telegram Config
	TelegramBotToken       string  `yaml:"telegram_bot_token"`
	TelegramWebhookURL     string  `yaml:"telegram_webhook_url"`
	TelegramAllowedUserIDs []int64 `yaml:"telegram_allowed_user_ids"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		DatabaseDriver:       DriverSQLite,
		DatabasePath:         "data/foodgram.db",
		HTTPPort:             "8080",
		TokenTTL:             24 * time.Hour,
		ShoppingListFilename: "shopping_list.pdf",
		ArchivePath:          "data/lists",
		LogLevel:             "info",
	}
}

// NewFromEnv creates a new Config object from an optional YAML file (FOODGRAM_CONFIG)
// and environment variables. Environment variables win over the file.
func NewFromEnv() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("FOODGRAM_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	setString(&cfg.DatabaseDriver, "DATABASE_DRIVER")
	setString(&cfg.DatabasePath, "DATABASE_PATH")
	setString(&cfg.PostgresDSN, "POSTGRES_DSN")
	setString(&cfg.HTTPPort, "PORT")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.FontPath, "FONT_PATH")
	setString(&cfg.ShoppingListFilename, "SHOPPING_LIST_FILENAME")
	setString(&cfg.ArchivePath, "ARCHIVE_PATH")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.TelegramBotToken, "TELEGRAM_BOT_TOKEN")
	setString(&cfg.TelegramWebhookURL, "TELEGRAM_WEBHOOK_URL")

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
		}
		cfg.TokenTTL = ttl
	}

	if v := os.Getenv("LOG_DEVELOPMENT"); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_DEVELOPMENT %q: %w", v, err)
		}
		cfg.LogDevelopment = dev
	}

	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitList(v)
	}

	if v := os.Getenv("TELEGRAM_ALLOW_USER_IDS"); v != "" {
		ids, err := parseIDs(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ALLOW_USER_IDS: %w", err)
		}
		cfg.TelegramAllowedUserIDs = ids
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateHTTP checks the settings the HTTP API can not run without.
func (c *Config) ValidateHTTP() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}
	return nil
}

// ValidateTelegram checks the settings the Telegram bot can not run without.
func (c *Config) ValidateTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable not set")
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("TELEGRAM_WEBHOOK_URL environment variable not set")
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH must not be empty for the sqlite driver")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN environment variable not set")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}

	if c.ShoppingListFilename == "" {
		return fmt.Errorf("SHOPPING_LIST_FILENAME must not be empty")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseIDs(v string) ([]int64, error) {
	var ids []int64
	for _, part := range splitList(v) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a telegram user id", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
