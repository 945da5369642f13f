package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/samvad-hq/spreedly-client/pkg/spreedly"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName        string        `mapstructure:"app_name" validate:"required"`
	Env            string        `mapstructure:"app_env"`
	LogLevel       string        `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	Key            string        `mapstructure:"spreedly_key"`
	Secret         string        `mapstructure:"spreedly_secret"`
	BaseURL        string        `mapstructure:"spreedly_base_url"`
	TimeoutSeconds int64         `mapstructure:"spreedly_timeout_seconds" validate:"gt=0"`
	Timeout        time.Duration `mapstructure:"-"`
	PublishersFile string        `mapstructure:"publishers_file"`

	MetricsEnabled  bool   `mapstructure:"metrics_enabled"`
	MetricsTextfile string `mapstructure:"metrics_textfile"`
	MetricsPushURL  string `mapstructure:"metrics_push_url" validate:"omitempty,url"`
	MetricsJob      string `mapstructure:"metrics_job" validate:"required"`

	StorageType           string        `mapstructure:"storage_type" validate:"oneof=bbolt none disabled"`
	JournalPath           string        `mapstructure:"journal_path" validate:"required_if=StorageType bbolt"`
	JournalTTLSeconds     int64         `mapstructure:"journal_ttl_seconds" validate:"gt=0"`
	StorageCleanupSeconds int64         `mapstructure:"storage_cleanup_interval_seconds" validate:"gt=0"`
	JournalTTL            time.Duration `mapstructure:"-"`
	StorageCleanup        time.Duration `mapstructure:"-"`
}

// Load reads configuration from configs/.env and the environment.
func Load() (*Config, error) {
	return LoadFrom("configs/.env")
}

// LoadFrom reads configuration from the given dotenv file (optional) and the environment.
func LoadFrom(envFile string) (*Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	v := viper.New()

	v.SetDefault("app_name", "spreedly-client")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("spreedly_key", "")
	v.SetDefault("spreedly_secret", "")
	v.SetDefault("spreedly_base_url", spreedly.DefaultBaseURL)
	v.SetDefault("spreedly_timeout_seconds", 30)
	v.SetDefault("publishers_file", "")
	v.SetDefault("metrics_enabled", false)
	v.SetDefault("metrics_textfile", "")
	v.SetDefault("metrics_push_url", "")
	v.SetDefault("metrics_job", "spreedly_cli")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("journal_path", "./data/journal.db")
	v.SetDefault("journal_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("storage_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.StorageType = strings.ToLower(strings.TrimSpace(cfg.StorageType))

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, formatValidationError(err)
	}

	cfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	cfg.JournalTTL = time.Duration(cfg.JournalTTLSeconds) * time.Second
	cfg.StorageCleanup = time.Duration(cfg.StorageCleanupSeconds) * time.Second

	return &cfg, nil
}

// Spreedly returns the client options carried by the config.
func (c *Config) Spreedly() spreedly.Options {
	return spreedly.Options{
		Key:     c.Key,
		Secret:  c.Secret,
		BaseURL: c.BaseURL,
		Timeout: c.Timeout,
	}
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	out := *c
	if out.Key != "" {
		out.Key = "[redacted]"
	}
	if out.Secret != "" {
		out.Secret = "[redacted]"
	}
	return out
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("invalid %s (%s)", strings.ToLower(e.Field()), e.Tag()))
	}
	return fmt.Errorf("validate config: %s", strings.Join(msgs, "; "))
}
