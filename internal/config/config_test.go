package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_KEY", "test-signing-key")
	for _, k := range []string{"EMAIL_PROVIDER", "RESEND_API_KEY", "SMTP_HOST", "SMTP_USER", "SMTP_PASS", "SMS_GATEWAY_URL"} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "complaint_desk", cfg.Mongo.Database)
	assert.Equal(t, 10*time.Second, cfg.Mongo.ConnectTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, EmailProviderLog, cfg.Email.Provider)
	assert.Equal(t, 10*time.Second, cfg.Notify.SendTimeout)
	assert.Equal(t, 32, cfg.Notify.EventWorkers)
	assert.Equal(t, 16, cfg.Notify.DeliveryWorkers)
	assert.Equal(t, time.Minute, cfg.Notify.RetryInterval)
	assert.Equal(t, 5, cfg.Notify.MaxAttempts)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.Origins())
}

func TestLoadFromEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("MONGO_DATABASE", "ccms")
	t.Setenv("FROM_EMAIL", "desk@example.edu")
	t.Setenv("RESEND_API_KEY", "re_123")
	t.Setenv("NOTIFY_SEND_TIMEOUT", "3s")
	t.Setenv("NOTIFY_MAX_ATTEMPTS", "2")
	t.Setenv("CORS_ORIGIN", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "ccms", cfg.Mongo.Database)
	assert.Equal(t, "desk@example.edu", cfg.Email.From)
	assert.Equal(t, EmailProviderResend, cfg.Email.Provider)
	assert.Equal(t, 3*time.Second, cfg.Notify.SendTimeout)
	assert.Equal(t, 2, cfg.Notify.MaxAttempts)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.Origins())
}

func TestLoadRequiresMongoAndJWT(t *testing.T) {
	setRequired(t)
	t.Setenv("MONGO_URI", "")
	_, err := Load()
	assert.ErrorContains(t, err, "MONGO_URI")

	setRequired(t)
	t.Setenv("JWT_KEY", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_KEY")
}

func TestEmailProviderSelection(t *testing.T) {
	cfg := &Config{SMTP: SMTPConfig{Host: "smtp.example", User: "u", Pass: "p"}}
	assert.Equal(t, EmailProviderSMTP, cfg.EmailProvider())

	cfg.Resend.APIKey = "re_1"
	assert.Equal(t, EmailProviderResend, cfg.EmailProvider())

	cfg.Email.Provider = " SMTP "
	assert.Equal(t, EmailProviderSMTP, cfg.EmailProvider())
}

func TestValidateProviderSettings(t *testing.T) {
	base := func() *Config {
		return &Config{
			Server: ServerConfig{Port: 8080},
			Mongo:  MongoConfig{URI: "mongodb://x", Database: "d"},
			JWT:    JWTConfig{Key: "k"},
			Email:  EmailConfig{Provider: EmailProviderLog},
			Notify: NotifyConfig{SendTimeout: time.Second, RetryInterval: time.Second, EventWorkers: 1, DeliveryWorkers: 1, MaxAttempts: 1},
		}
	}
	require.NoError(t, base().Validate())

	cfg := base()
	cfg.Email.Provider = EmailProviderResend
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Email.Provider = EmailProviderSMTP
	cfg.Email.From = "a@b.c"
	assert.Error(t, cfg.Validate())
	cfg.SMTP = SMTPConfig{Host: "h", Port: 25}
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.Email.Provider = "pigeon"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Notify.DeliveryWorkers = 0
	assert.Error(t, cfg.Validate())
}
