// Package config defines the explicit configuration struct constructed at
// process entry. Components receive it by injection; there is no ambient
// global configuration state.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings (webhook run mode only).
type WebhookConfig struct {
	// URL is the publicly reachable base URL; Path is appended to it when
	// registering the webhook with Telegram.
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Path   string `yaml:"path" envconfig:"WEBHOOK_PATH"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"PORT"`
	Secret string `yaml:"secret" envconfig:"WEBHOOK_SECRET"`
}

// StoreConfig selects the key store driver.
type StoreConfig struct {
	// Driver is either "rest" (Supabase PostgREST, default) or "postgres"
	// (direct connection, requires Database settings).
	Driver string `yaml:"driver" envconfig:"STORE_DRIVER"`
}

// SupabaseConfig holds PostgREST access settings for the rest driver.
// AnonKey is deliberately a single field: the same credential is sent as
// both the apikey header and the bearer token.
type SupabaseConfig struct {
	URL     string `yaml:"url" envconfig:"SUPABASE_URL"`
	AnonKey string `yaml:"anon_key" envconfig:"SUPABASE_ANON_KEY"`
	Table   string `yaml:"table" envconfig:"SUPABASE_TABLE"`
}

// DatabaseConfig holds direct Postgres settings for the postgres driver.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format string `yaml:"format" envconfig:"LOG_FORMAT"`
	Dir    string `yaml:"dir" envconfig:"LOG_DIR"`
	File   string `yaml:"file" envconfig:"LOG_FILE"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"

	// StoreDriverREST selects the Supabase PostgREST store.
	StoreDriverREST = "rest"
	// StoreDriverPostgres selects the direct Postgres store.
	StoreDriverPostgres = "postgres"

	// DefaultWebhookPath is appended to the public URL when no path is set.
	DefaultWebhookPath = "/webhook"
	// DefaultWebhookPort is used when no listening port is configured.
	DefaultWebhookPort = 10000
)

// Config aggregates all settings of the bot.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Store    StoreConfig    `yaml:"store"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// Load reads configuration from an optional YAML file and environment
// variables. A missing file is not an error: deployments that configure
// the bot purely through the environment pass an empty path.
func Load(path string) (*Config, error) {
	var cfg Config

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" { // accept alias
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Secret) == "" {
			return fmt.Errorf("webhook.secret is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			cfg.Webhook.Listen = "0.0.0.0"
		}
		if cfg.Webhook.Port == 0 {
			cfg.Webhook.Port = DefaultWebhookPort
		}
		if cfg.Webhook.Port < 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
		path := strings.TrimSpace(cfg.Webhook.Path)
		if path == "" {
			path = DefaultWebhookPath
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		cfg.Webhook.Path = path
		cfg.Webhook.URL = strings.TrimRight(strings.TrimSpace(cfg.Webhook.URL), "/")
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	driver := strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	if driver == "" {
		driver = StoreDriverREST
	}
	switch driver {
	case StoreDriverREST:
		if strings.TrimSpace(cfg.Supabase.URL) == "" {
			return fmt.Errorf("supabase.url is required when store.driver is 'rest'")
		}
		if strings.TrimSpace(cfg.Supabase.AnonKey) == "" {
			return fmt.Errorf("supabase.anon_key is required when store.driver is 'rest'")
		}
	case StoreDriverPostgres:
		if strings.TrimSpace(cfg.Database.Host) == "" {
			return fmt.Errorf("database.host is required when store.driver is 'postgres'")
		}
		if strings.TrimSpace(cfg.Database.Name) == "" {
			return fmt.Errorf("database.name is required when store.driver is 'postgres'")
		}
		if strings.TrimSpace(cfg.Database.Port) == "" {
			cfg.Database.Port = "5432"
		}
		if strings.TrimSpace(cfg.Database.SSLMode) == "" {
			cfg.Database.SSLMode = "disable"
		}
		if cfg.Database.MaxConnections <= 0 {
			cfg.Database.MaxConnections = 4
		}
	default:
		return fmt.Errorf("invalid store.driver %q; allowed: rest, postgres", cfg.Store.Driver)
	}
	cfg.Store.Driver = driver

	return nil
}

// WebhookPublicURL returns the full endpoint registered with Telegram.
func (c *Config) WebhookPublicURL() string {
	return c.Webhook.URL + c.Webhook.Path
}
