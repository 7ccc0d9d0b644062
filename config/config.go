package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"ms-loyalty/loyalty"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Auth modes supported by the MoySklad client
const (
	AuthModeBearer = "bearer"
	AuthModeBasic  = "basic"
)

// Config holds the whole service configuration. It is built once at start-up
// by Load and passed to every component; nothing reads the environment later.
type Config struct {
	MoySklad      MoySkladConfig   `yaml:"moysklad"`
	Loyalty       loyalty.Settings `yaml:"loyalty"`
	Server        ServerConfig     `yaml:"server"`
	Database      DatabaseConfig   `yaml:"database"`
	DocumentTypes []string         `yaml:"document_types"`

	// DiscountSumAttr names a document attribute that receives the loyalty
	// discount total on write-back. Empty disables it.
	DiscountSumAttr string `yaml:"discount_sum_attr"`
	DryRun          bool   `yaml:"dry_run"`
	LogLevel        string `yaml:"log_level"`
}

// MoySkladConfig configures the upstream API client.
type MoySkladConfig struct {
	BaseURL        string  `yaml:"base_url"`
	AuthMode       string  `yaml:"auth_mode"`
	Token          string  `yaml:"token"`
	Login          string  `yaml:"login"`
	Password       string  `yaml:"password"`
	RequestTimeout float64 `yaml:"request_timeout"` // seconds
}

// ServerConfig configures the webhook HTTP server.
type ServerConfig struct {
	Port               string `yaml:"port"`
	WebhookBearerToken string `yaml:"webhook_bearer_token"`
	WebhookConcurrency int    `yaml:"webhook_concurrency"`
}

// DatabaseConfig configures the optional Postgres run journal.
type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		MoySklad: MoySkladConfig{
			BaseURL:        "https://api.moysklad.ru/api/remap/1.2",
			AuthMode:       AuthModeBearer,
			RequestTimeout: 20,
		},
		Loyalty: loyalty.DefaultSettings(),
		Server: ServerConfig{
			Port:               "8080",
			WebhookConcurrency: 4,
		},
		DocumentTypes: []string{"customerorder", "demand"},
		LogLevel:      "info",
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// LOYALTY_CONFIG_FILE (if any), then environment variables. The result is
// validated.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("LOYALTY_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variables on top of the current values.
func (c *Config) applyEnvOverrides() error {
	envString("MS_BASE_URL", &c.MoySklad.BaseURL)
	envString("MS_AUTH_MODE", &c.MoySklad.AuthMode)
	envString("MS_TOKEN", &c.MoySklad.Token)
	envString("MS_LOGIN", &c.MoySklad.Login)
	envString("MS_PASSWORD", &c.MoySklad.Password)
	envList("DOCUMENT_TYPES", &c.DocumentTypes)

	envString("LOYALTY_ENABLED_ATTR", &c.Loyalty.LoyaltyEnabledAttr)
	envString("LOYALTY_DISCOUNT_ATTR", &c.Loyalty.LoyaltyDiscountAttr)
	envString("WHOLESALER_TAG", &c.Loyalty.WholesalerTag)
	envBool("REQUIRE_WHOLESALER_TAG", &c.Loyalty.RequireWholesalerTag)
	if v, ok := os.LookupEnv("PROMO_MODE"); ok {
		c.Loyalty.PromoMode = loyalty.PromoMode(strings.ToLower(strings.TrimSpace(v)))
	}
	envString("PROMO_GROUP_NAME", &c.Loyalty.PromoGroupName)
	envString("PROMO_FLAG_ATTR", &c.Loyalty.PromoFlagAttr)
	envString("PROMO_TAG", &c.Loyalty.PromoTag)
	envString("DISABLE_LOYALTY_ATTR", &c.Loyalty.DisableLoyaltyAttr)
	envBool("RESPECT_MANUAL_DISCOUNT", &c.Loyalty.RespectManualDiscount)
	if v, ok := os.LookupEnv("WRITE_MODE"); ok {
		c.Loyalty.WriteMode = loyalty.WriteMode(strings.ToLower(strings.TrimSpace(v)))
	}

	envString("DISCOUNT_SUM_ATTR", &c.DiscountSumAttr)
	envBool("DRY_RUN", &c.DryRun)
	envString("LOG_LEVEL", &c.LogLevel)

	envString("PORT", &c.Server.Port)
	envString("WEBHOOK_BEARER_TOKEN", &c.Server.WebhookBearerToken)

	envString("DATABASE_URL", &c.Database.URL)
	envString("DB_HOST", &c.Database.Host)
	envString("DB_PORT", &c.Database.Port)
	envString("DB_USER", &c.Database.User)
	envString("DB_PASSWORD", &c.Database.Password)
	envString("DB_NAME", &c.Database.Name)
	envString("DB_SSLMODE", &c.Database.SSLMode)

	if v, ok := os.LookupEnv("REQUEST_TIMEOUT"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%w: REQUEST_TIMEOUT %q is not a number", ErrInvalidConfig, v)
		}
		c.MoySklad.RequestTimeout = f
	}
	if v, ok := os.LookupEnv("WEBHOOK_CONCURRENCY"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: WEBHOOK_CONCURRENCY %q is not an integer", ErrInvalidConfig, v)
		}
		c.Server.WebhookConcurrency = n
	}

	c.MoySklad.BaseURL = strings.TrimRight(c.MoySklad.BaseURL, "/")
	c.MoySklad.AuthMode = strings.ToLower(strings.TrimSpace(c.MoySklad.AuthMode))
	return nil
}

// Validate checks the configuration for errors that must stop start-up.
func (c *Config) Validate() error {
	if err := c.Loyalty.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.MoySklad.AuthMode != AuthModeBearer && c.MoySklad.AuthMode != AuthModeBasic {
		return fmt.Errorf("%w: unsupported MS_AUTH_MODE %q", ErrInvalidConfig, c.MoySklad.AuthMode)
	}
	if c.MoySklad.RequestTimeout <= 0 {
		return fmt.Errorf("%w: REQUEST_TIMEOUT must be positive", ErrInvalidConfig)
	}
	if c.Server.WebhookConcurrency < 1 {
		return fmt.Errorf("%w: WEBHOOK_CONCURRENCY must be at least 1", ErrInvalidConfig)
	}
	if len(c.DocumentTypes) == 0 {
		return fmt.Errorf("%w: DOCUMENT_TYPES is empty", ErrInvalidConfig)
	}
	return nil
}

// RequireCredentials checks that the configured auth mode has its credentials.
// Only components that talk to MoySklad need this.
func (c *Config) RequireCredentials() error {
	switch c.MoySklad.AuthMode {
	case AuthModeBearer:
		if c.MoySklad.Token == "" {
			return fmt.Errorf("%w: MS_TOKEN is required for bearer auth", ErrInvalidConfig)
		}
	case AuthModeBasic:
		if c.MoySklad.Login == "" {
			return fmt.Errorf("%w: MS_LOGIN is required for basic auth", ErrInvalidConfig)
		}
	}
	return nil
}

// RequestTimeout returns the upstream request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.MoySklad.RequestTimeout * float64(time.Second))
}

// HandlesDocumentType reports whether webhook events for docType are processed.
func (c *Config) HandlesDocumentType(docType string) bool {
	for _, t := range c.DocumentTypes {
		if t == docType {
			return true
		}
	}
	return false
}

// Configured reports whether a database is configured at all.
func (d DatabaseConfig) Configured() bool {
	return d.URL != "" || d.Host != ""
}

// DSN returns the connection string for the pgx driver.
func (d DatabaseConfig) DSN() (string, error) {
	if d.URL != "" {
		return d.URL, nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return "", fmt.Errorf("%w: database connection variables not set. Set DATABASE_URL or DB_HOST, DB_USER, DB_NAME", ErrInvalidConfig)
	}

	port := d.Port
	if port == "" {
		port = "5432"
	}
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, port, d.User, d.Password, d.Name, sslmode), nil
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = loyalty.IsTruthy(v)
	}
}

func envList(key string, dst *[]string) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}
