package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/payments/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

type Configuration struct {
	Server   ServerConfig   `validate:"required"`
	Logging  LoggingConfig  `validate:"required"`
	Payments PaymentsConfig `validate:"required"`
	Webhooks WebhooksConfig
	Events   EventsConfig
	Postgres PostgresConfig
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

// PaymentsConfig selects the active provider and carries per-provider
// credentials. It is constructed once at startup and passed explicitly;
// nothing reads it through ambient global state.
type PaymentsConfig struct {
	// Path and WebhookPath together form the webhook endpoint:
	// POST /<path>/<webhook_path>
	Path        string `mapstructure:"path"`
	WebhookPath string `mapstructure:"webhook_path"`

	// Provider is the active provider for this deployment.
	Provider types.ProviderType `mapstructure:"provider"`

	// AllowMissingProviders disables the allow-list check on Provider.
	AllowMissingProviders bool `mapstructure:"allow_missing_providers"`

	// AllowAnonymousBillables permits webhook payloads without billable
	// identity in their custom data.
	AllowAnonymousBillables bool `mapstructure:"allow_anonymous_billables"`

	Providers map[string]ProviderConfig `mapstructure:"providers"`
}

// ProviderConfig holds credentials and settings for one provider.
type ProviderConfig struct {
	APIKey         string `mapstructure:"api_key"`
	StoreID        string `mapstructure:"store_id"`
	SigningSecret  string `mapstructure:"signing_secret"`
	RedirectURL    string `mapstructure:"redirect_url"`
	CurrencyLocale string `mapstructure:"currency_locale"`
}

// WebhooksConfig controls the optional durability layer for inbound webhooks.
type WebhooksConfig struct {
	// Store persists every raw payload and enables duplicate detection.
	Store bool `mapstructure:"store"`
	// Async acknowledges stored webhooks immediately and defers handler
	// invocation to the raw-webhook topic consumer. Implies Store.
	Async bool   `mapstructure:"async"`
	Topic string `mapstructure:"topic"`
}

// EventsConfig controls the domain event publisher and its consumer retries.
type EventsConfig struct {
	Topic           string        `mapstructure:"topic"`
	PubSub          types.PubSubType
	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}

func NewConfig() (*Configuration, error) {
	// Best effort; a missing .env file is not an error.
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/payments")

	v.SetEnvPrefix("PAYMENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("payments.path", "payments")
	v.SetDefault("payments.webhook_path", "webhooks")
	v.SetDefault("webhooks.topic", "payments.webhooks.raw")
	v.SetDefault("events.topic", "payments.events")
	v.SetDefault("events.pubsub", "memory")
	v.SetDefault("events.max_retries", 3)
	v.SetDefault("events.initial_interval", "100ms")
	v.SetDefault("events.max_interval", "5s")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Payments.Provider != "" && !c.Payments.AllowMissingProviders {
		if err := c.Payments.Provider.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ProviderConfigured reports whether the webhook endpoint should exist at
// all. When false the endpoint responds 404 so nothing is leaked about it.
func (c *Configuration) ProviderConfigured() bool {
	provider := c.Payments.Provider
	if provider == "" {
		return false
	}
	if c.Payments.AllowMissingProviders {
		return true
	}
	return lo.Contains(types.AllowedProviders, provider)
}

// ActiveProvider returns the credential block of the active provider.
// The second return is false when the provider has no configuration entry.
func (c *Configuration) ActiveProvider() (ProviderConfig, bool) {
	pc, ok := c.Payments.Providers[c.Payments.Provider.String()]
	return pc, ok
}

// SigningSecret returns the webhook signing secret of the active provider,
// empty when signature verification is not configured.
func (c *Configuration) SigningSecret() string {
	pc, ok := c.ActiveProvider()
	if !ok {
		return ""
	}
	return pc.SigningSecret
}

// WebhookRoute is the full route path of the webhook endpoint.
func (c *Configuration) WebhookRoute() string {
	return "/" + c.Payments.Path + "/" + c.Payments.WebhookPath
}

// GetDefaultConfig returns a default configuration for local development
// and tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Server:  ServerConfig{Address: ":8080"},
		Logging: LoggingConfig{Level: types.LogLevelDebug},
		Payments: PaymentsConfig{
			Path:        "payments",
			WebhookPath: "webhooks",
			Provider:    types.ProviderLemonSqueezy,
			Providers: map[string]ProviderConfig{
				types.ProviderLemonSqueezy.String(): {},
			},
		},
		Events: EventsConfig{
			Topic:           "payments.events",
			PubSub:          types.MemoryPubSub,
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		Webhooks: WebhooksConfig{Topic: "payments.webhooks.raw"},
	}
}
