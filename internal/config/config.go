// Package config loads and validates application configuration.
//
// Configuration is read from a YAML file (./config.yaml by default) with
// environment variable overrides under the SALEWATCH_ prefix, e.g.
// SALEWATCH_DATABASE_PASSWORD or SALEWATCH_TELEGRAM_TOKEN.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/salewatch/salewatch/internal/domain"
)

// Config is the root configuration for the service.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Database DatabaseConfig `mapstructure:"database"`
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Server   ServerConfig   `mapstructure:"server"`
	Sources  []SourceConfig `mapstructure:"sources"`
}

// AppConfig represents application-specific configuration settings.
type AppConfig struct {
	// Name is the name of the application.
	Name string `mapstructure:"name"`
	// Environment is the application environment (development, staging, production).
	Environment string `mapstructure:"environment"`
	// Debug indicates whether debug mode is enabled.
	Debug bool `mapstructure:"debug"`
}

// LoggingConfig holds logging-specific configuration settings.
type LoggingConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string `mapstructure:"level"`
	// Encoding is the log encoding format (json, console).
	Encoding string `mapstructure:"encoding"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// CrawlerConfig holds settings for the crawl pipeline.
type CrawlerConfig struct {
	// BaseURL is the upstream listing API origin.
	BaseURL string `mapstructure:"base_url"`
	// UserAgent and Cookie are required request metadata for the upstream
	// service; requests without them are rejected.
	UserAgent string `mapstructure:"user_agent"`
	Cookie    string `mapstructure:"cookie"`
	// Concurrency bounds the number of in-flight page fetches per feed.
	Concurrency int `mapstructure:"concurrency"`
	// RequestTimeout is the per-request HTTP timeout.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	// RequestsPerSecond caps the outbound request rate against the
	// upstream API. Zero disables client-side rate limiting.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	// Schedule is the cron expression used by the schedule command.
	Schedule string `mapstructure:"schedule"`
}

// TelegramConfig holds notification sink settings.
type TelegramConfig struct {
	// Token is the bot token. When empty, notifications are logged
	// instead of delivered.
	Token string `mapstructure:"token"`
	// ChatID is the destination chat.
	ChatID int64 `mapstructure:"chat_id"`
	// ProductBaseURL prefixes relative product paths in messages.
	ProductBaseURL string `mapstructure:"product_base_url"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Address is the read API listen address used by the httpd command.
	Address string `mapstructure:"address"`
	// MetricsAddress is the metrics listen address used by the schedule
	// command. Empty disables the metrics listener.
	MetricsAddress string `mapstructure:"metrics_address"`
}

// SourceConfig describes one feed in the catalog.
type SourceConfig struct {
	Name string `mapstructure:"name"`
	Path string `mapstructure:"path"`
}

const (
	// DefaultConcurrency bounds in-flight page fetches. The upstream
	// behavior places no explicit bound; low tens keeps connection use
	// conservative.
	DefaultConcurrency = 16

	// DefaultRequestTimeout is the defensive per-request timeout.
	DefaultRequestTimeout = 30 * time.Second
)

// defaultSources is the built-in feed catalog, used when the config file
// defines no sources.
var defaultSources = []SourceConfig{
	{Name: "newBalance_footwear", Path: "15892?attribute_10992=61388&"},
	{Name: "levis_jeans_jeans", Path: "7083?attribute_10992=61377&attribute_1047=8393&"},
	{Name: "levis_sweats", Path: "7083?attribute_10992=61382&"},
	{Name: "theNorthFace_outerwear", Path: "19899?attribute_10992=61380&"},
	{Name: "converse_footwear_trainers", Path: "2611?attribute_10992=61388&attribute_1047=8606&"},
	{Name: "newEra_accessories_cap", Path: "17372?attribute_1047=8275&"},
	{Name: "hugo", Path: "27909?"},
	{Name: "birkenstock", Path: "7421?"},
	{Name: "ugg_footwear_boots", Path: "2609?attribute_10992=61388&attribute_1047=8585&"},
	{Name: "vans_footwear_trainers", Path: "14751?attribute_10992=61388&attribute_1047=8606&"},
	{Name: "drMartens", Path: "4650?attribute_10992=61388&"},
}

// Load reads configuration from the given file (or the default search
// path when empty), applies environment overrides, and validates the
// result.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("SALEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file is fine; defaults and env cover everything.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultSources
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values on the viper instance.
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "salewatch")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "salewatch")
	v.SetDefault("database.dbname", "salewatch")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("crawler.base_url", "https://www.asos.com")
	v.SetDefault("crawler.user_agent",
		"Mozilla/5.0 (Linux; Android 6.0; Nexus 5 Build/MRA58N) "+
			"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Mobile Safari/537.36")
	v.SetDefault("crawler.cookie", "browseCountry=TR; browseCurrency=GBP;")
	v.SetDefault("crawler.concurrency", DefaultConcurrency)
	v.SetDefault("crawler.request_timeout", DefaultRequestTimeout)
	v.SetDefault("crawler.requests_per_second", 0)
	v.SetDefault("crawler.schedule", "0 9 * * *")

	v.SetDefault("telegram.product_base_url", "https://www.asos.com/")

	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.metrics_address", ":9090")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.App.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid environment: %s", c.App.Environment)
	}

	if c.Crawler.BaseURL == "" {
		return errors.New("crawler base_url must be specified")
	}
	if c.Crawler.Concurrency < 1 {
		return errors.New("crawler concurrency must be at least 1")
	}
	if c.Crawler.RequestTimeout <= 0 {
		return errors.New("crawler request_timeout must be positive")
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		return errors.New("telegram chat_id must be set when token is configured")
	}

	for i, s := range c.Sources {
		if s.Name == "" || s.Path == "" {
			return fmt.Errorf("source %d: name and path must be specified", i)
		}
	}

	return nil
}

// Feeds returns the configured sources as immutable feed descriptors.
func (c *Config) Feeds() []domain.Feed {
	feeds := make([]domain.Feed, len(c.Sources))
	for i, s := range c.Sources {
		feeds[i] = domain.Feed{Name: s.Name, Path: s.Path}
	}
	return feeds
}
