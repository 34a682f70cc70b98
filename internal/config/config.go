package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"phone_ordering_backend/pkg/utils"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full process configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Auth         AuthConfig         `yaml:"auth"`
	Voice        VoiceConfig        `yaml:"voice"`
	Pricing      PricingConfig      `yaml:"pricing"`
	Integrations IntegrationsConfig `yaml:"integrations"`
	RabbitMQ     RabbitMQConfig     `yaml:"rabbitmq"`
	Payments     PaymentsConfig     `yaml:"payments"`
	Log          LogConfig          `yaml:"log"`
}

type ServerConfig struct {
	Port            string        `yaml:"port"`
	GinMode         string        `yaml:"gin_mode"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// PublicURL is used to build callback URLs handed to the telephony layer.
	PublicURL string `yaml:"public_url"`
}

type DatabaseConfig struct {
	Host        string `yaml:"host"`
	Port        string `yaml:"port"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Name        string `yaml:"name"`
	SSLMode     string `yaml:"sslmode"`
	ApplySchema bool   `yaml:"apply_schema"`
}

// DSN builds the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type VoiceConfig struct {
	FallbackTenantID string `yaml:"fallback_tenant_id"`
	AssistantID      string `yaml:"assistant_id"`
	Greeting         string `yaml:"greeting"`
	NotConfigured    string `yaml:"not_configured_message"`
	StaffTimeoutSec  int    `yaml:"staff_timeout_seconds"`
	WebhookSecret    string `yaml:"webhook_secret"`
}

type PricingConfig struct {
	CurrencySymbol string `yaml:"currency_symbol"`
	// Timezone applies to restaurants without their own.
	Timezone string `yaml:"timezone"`
}

// Location resolves Timezone, defaulting to the process zone.
func (p PricingConfig) Location() *time.Location {
	if p.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ServiceEndpoint is an external HTTP collaborator. An empty BaseURL selects the log-only mock.
type ServiceEndpoint struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

type IntegrationsConfig struct {
	SMS     ServiceEndpoint `yaml:"sms"`
	Payment ServiceEndpoint `yaml:"payment"`
	Print   ServiceEndpoint `yaml:"print"`
	Timeout time.Duration   `yaml:"timeout"`
}

type RabbitMQConfig struct {
	URL      string `yaml:"url"`
	Exchange string `yaml:"exchange"`
}

type PaymentsConfig struct {
	WebhookSecret string `yaml:"webhook_secret"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			GinMode:         "debug",
			AllowedOrigins:  []string{"http://localhost:3000", "http://localhost:3001"},
			ShutdownTimeout: 10 * time.Second,
			PublicURL:       "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "phone_ordering_user",
			Name:    "phone_ordering_db",
			SSLMode: "disable",
		},
		Auth: AuthConfig{TokenTTL: 7 * 24 * time.Hour},
		Voice: VoiceConfig{
			Greeting:        "Thanks for calling! Our AI assistant will take your order.",
			NotConfigured:   "Sorry, this number is not configured to take orders.",
			StaffTimeoutSec: 20,
		},
		Pricing:      PricingConfig{CurrencySymbol: "£"},
		Integrations: IntegrationsConfig{Timeout: 10 * time.Second},
		RabbitMQ:     RabbitMQConfig{Exchange: "orders_topic"},
		Log:          LogConfig{Level: "info", Pretty: true},
	}
}

// Load reads .env (when present), then the YAML file named by CONFIG_FILE (when set),
// then applies environment variable overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = utils.Getenv("PORT", c.Server.Port)
	c.Server.GinMode = utils.Getenv("GIN_MODE", c.Server.GinMode)
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitList(origins)
	}
	c.Server.ShutdownTimeout = utils.GetenvDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.PublicURL = utils.Getenv("PUBLIC_URL", c.Server.PublicURL)

	c.Database.Host = utils.Getenv("DB_HOST", c.Database.Host)
	c.Database.Port = utils.Getenv("DB_PORT", c.Database.Port)
	c.Database.User = utils.Getenv("DB_USER", c.Database.User)
	c.Database.Password = utils.Getenv("DB_PASSWORD", c.Database.Password)
	c.Database.Name = utils.Getenv("DB_NAME", c.Database.Name)
	c.Database.SSLMode = utils.Getenv("DB_SSLMODE", c.Database.SSLMode)
	c.Database.ApplySchema = utils.GetenvBool("DB_APPLY_SCHEMA", c.Database.ApplySchema)

	c.Auth.JWTSecret = utils.Getenv("JWT_SECRET_KEY", c.Auth.JWTSecret)
	c.Auth.TokenTTL = utils.GetenvDuration("JWT_TTL", c.Auth.TokenTTL)

	c.Voice.FallbackTenantID = utils.Getenv("VOICE_FALLBACK_TENANT_ID", c.Voice.FallbackTenantID)
	c.Voice.AssistantID = utils.Getenv("VOICE_ASSISTANT_ID", c.Voice.AssistantID)
	c.Voice.Greeting = utils.Getenv("VOICE_GREETING", c.Voice.Greeting)
	c.Voice.NotConfigured = utils.Getenv("VOICE_NOT_CONFIGURED_MESSAGE", c.Voice.NotConfigured)
	c.Voice.StaffTimeoutSec = utils.GetenvInt("VOICE_STAFF_TIMEOUT_SECONDS", c.Voice.StaffTimeoutSec)
	c.Voice.WebhookSecret = utils.Getenv("VOICE_WEBHOOK_SECRET", c.Voice.WebhookSecret)

	c.Pricing.CurrencySymbol = utils.Getenv("CURRENCY_SYMBOL", c.Pricing.CurrencySymbol)
	c.Pricing.Timezone = utils.Getenv("DEFAULT_TIMEZONE", c.Pricing.Timezone)

	c.Integrations.SMS.BaseURL = utils.Getenv("SMS_API_URL", c.Integrations.SMS.BaseURL)
	c.Integrations.SMS.APIKey = utils.Getenv("SMS_API_KEY", c.Integrations.SMS.APIKey)
	c.Integrations.Payment.BaseURL = utils.Getenv("PAYMENT_API_URL", c.Integrations.Payment.BaseURL)
	c.Integrations.Payment.APIKey = utils.Getenv("PAYMENT_API_KEY", c.Integrations.Payment.APIKey)
	c.Integrations.Print.BaseURL = utils.Getenv("PRINT_API_URL", c.Integrations.Print.BaseURL)
	c.Integrations.Print.APIKey = utils.Getenv("PRINT_API_KEY", c.Integrations.Print.APIKey)
	c.Integrations.Timeout = utils.GetenvDuration("INTEGRATION_TIMEOUT", c.Integrations.Timeout)

	c.RabbitMQ.URL = utils.Getenv("RABBITMQ_URL", c.RabbitMQ.URL)
	c.RabbitMQ.Exchange = utils.Getenv("RABBITMQ_EXCHANGE", c.RabbitMQ.Exchange)

	c.Payments.WebhookSecret = utils.Getenv("PAYMENT_WEBHOOK_SECRET", c.Payments.WebhookSecret)

	c.Log.Level = utils.Getenv("LOG_LEVEL", c.Log.Level)
	c.Log.Pretty = utils.GetenvBool("LOG_PRETTY", c.Log.Pretty)
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("token TTL must be positive")
	}
	if c.Voice.StaffTimeoutSec <= 0 {
		return errors.New("staff timeout must be positive")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
