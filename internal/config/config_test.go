package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("SMSOFFICE_API_KEY", "")
	t.Setenv("SMSOFFICE_ENDPOINT", "")
	t.Setenv("RETENTION_MAX_AGE", "")
	t.Setenv("DB_PORT", "")

	cfg := New()

	assert.Equal(t, "", cfg.SMSOffice.APIKey)
	assert.Equal(t, "https://smsoffice.ge/api/v2/send/", cfg.SMSOffice.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.SMSOffice.Timeout)
	assert.Equal(t, 30*24*time.Hour, cfg.Retention.MaxAge)
	assert.Equal(t, 5432, cfg.DB.Port)
}

func TestNew_FromEnv(t *testing.T) {
	t.Setenv("SMSOFFICE_API_KEY", " K ")
	t.Setenv("SMSOFFICE_SENDER", "T")
	t.Setenv("SMSOFFICE_TIMEOUT", "3s")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("APP_ENV", "production")

	cfg := New()

	assert.Equal(t, "K", cfg.SMSOffice.APIKey)
	assert.Equal(t, "T", cfg.SMSOffice.MessageTitle)
	assert.Equal(t, 3*time.Second, cfg.SMSOffice.Timeout)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.False(t, cfg.IsDevelopment())
}

func TestNew_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-port")
	t.Setenv("RETENTION_INTERVAL", "soon")

	cfg := New()

	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, time.Hour, cfg.Retention.Interval)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{}
	cfg.DB.Host = "localhost"
	cfg.DB.Port = 5433
	cfg.DB.User = "u"
	cfg.DB.Password = "p"
	cfg.DB.Name = "n"
	cfg.DB.SSLMode = "disable"

	assert.Equal(t, "host=localhost port=5433 user=u password=p dbname=n sslmode=disable", cfg.PostgresDSN())
}
