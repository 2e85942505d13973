// Package config loads the service configuration from the environment.
//
// Keys map to environment variables with dots replaced by underscores
// (mongo.uri => MONGO_URI). A .env file, when present, is loaded first by
// bootstrap.Loadenv.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Email providers.
const (
	EmailProviderResend = "resend"
	EmailProviderSMTP   = "smtp"
	EmailProviderLog    = "log"
)

// Config is the root configuration structure.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Mongo  MongoConfig  `mapstructure:"mongo"`
	JWT    JWTConfig    `mapstructure:"jwt"`
	Log    LogConfig    `mapstructure:"log"`
	CORS   CORSConfig   `mapstructure:"cors"`
	Email  EmailConfig  `mapstructure:"email"`
	Resend ResendConfig `mapstructure:"resend"`
	SMTP   SMTPConfig   `mapstructure:"smtp"`
	SMS    SMSConfig    `mapstructure:"sms"`
	Notify NotifyConfig `mapstructure:"notify"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type JWTConfig struct {
	Key string `mapstructure:"key"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds a comma separated origin list.
type CORSConfig struct {
	Origin string `mapstructure:"origin"`
}

// Origins splits the origin list.
func (c CORSConfig) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.Origin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

type EmailConfig struct {
	// Provider is resend, smtp or log. Empty picks the first configured one.
	Provider string `mapstructure:"provider"`
	From     string `mapstructure:"from"`
}

type ResendConfig struct {
	APIKey string `mapstructure:"api_key"`
	APIURL string `mapstructure:"api_url"`
}

type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
}

// SMSConfig points at a JSON HTTP gateway. An empty URL logs messages
// instead of sending them.
type SMSConfig struct {
	GatewayURL string `mapstructure:"gateway_url"`
	APIKey     string `mapstructure:"api_key"`
}

// NotifyConfig tunes notification delivery.
type NotifyConfig struct {
	SendTimeout     time.Duration `mapstructure:"send_timeout"`
	EventWorkers    int           `mapstructure:"event_workers"`
	DeliveryWorkers int           `mapstructure:"delivery_workers"`
	RetryInterval   time.Duration `mapstructure:"retry_interval"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Names that do not follow the section_key pattern.
	if err := v.BindEnv("email.from", "FROM_EMAIL"); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Email.Provider = cfg.EmailProvider()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// EmailProvider returns the configured provider, or the first one with
// credentials present when none is named.
func (c *Config) EmailProvider() string {
	if p := strings.ToLower(strings.TrimSpace(c.Email.Provider)); p != "" {
		return p
	}
	switch {
	case c.Resend.APIKey != "":
		return EmailProviderResend
	case c.SMTP.Host != "" && c.SMTP.User != "" && c.SMTP.Pass != "":
		return EmailProviderSMTP
	default:
		return EmailProviderLog
	}
}

// Validate checks for configuration errors.
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri must not be empty (MONGO_URI)")
	}
	if c.Mongo.Database == "" {
		return fmt.Errorf("mongo.database must not be empty (MONGO_DATABASE)")
	}
	if c.JWT.Key == "" {
		return fmt.Errorf("jwt.key must not be empty (JWT_KEY)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	switch c.Email.Provider {
	case EmailProviderResend:
		if c.Resend.APIKey == "" || c.Email.From == "" {
			return fmt.Errorf("resend provider needs RESEND_API_KEY and FROM_EMAIL")
		}
	case EmailProviderSMTP:
		if c.SMTP.Host == "" || c.SMTP.Port <= 0 || c.Email.From == "" {
			return fmt.Errorf("smtp provider needs SMTP_HOST, SMTP_PORT and FROM_EMAIL")
		}
	case EmailProviderLog:
	default:
		return fmt.Errorf("unknown email provider %q", c.Email.Provider)
	}

	n := c.Notify
	if n.SendTimeout <= 0 || n.RetryInterval <= 0 {
		return fmt.Errorf("notify timeouts must be positive")
	}
	if n.EventWorkers <= 0 || n.DeliveryWorkers <= 0 {
		return fmt.Errorf("notify worker counts must be positive")
	}
	if n.MaxAttempts <= 0 {
		return fmt.Errorf("notify.max_attempts must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "complaint_desk")
	v.SetDefault("mongo.connect_timeout", "10s")

	v.SetDefault("jwt.key", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("cors.origin", "http://localhost:5173")

	v.SetDefault("email.provider", "")
	v.SetDefault("email.from", "no-reply@chanakyauniversity.edu.in")
	v.SetDefault("resend.api_key", "")
	v.SetDefault("resend.api_url", "")
	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.pass", "")

	v.SetDefault("sms.gateway_url", "")
	v.SetDefault("sms.api_key", "")

	v.SetDefault("notify.send_timeout", "10s")
	v.SetDefault("notify.event_workers", 32)
	v.SetDefault("notify.delivery_workers", 16)
	v.SetDefault("notify.retry_interval", "1m")
	v.SetDefault("notify.max_attempts", 5)
}
