package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// SMSOfficeConfig configures the provider client.
type SMSOfficeConfig struct {
	APIKey       string
	MessageTitle string
	Endpoint     string
	// Timeout bounds one provider request. Non-positive keeps the client default.
	Timeout time.Duration
}

type Config struct {
	App struct {
		Name string
		Env  string
	}

	Log struct {
		Level string
	}

	API struct {
		Host string
		Port string
	}

	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	SMSOffice SMSOfficeConfig

	Retention struct {
		Interval time.Duration
		Timeout  time.Duration
		MaxAge   time.Duration
	}

	Idempotency struct {
		TTL time.Duration
	}
}

func New() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	// App
	cfg.App.Name = getEnv("APP_NAME", "smsoffice-gateway")
	cfg.App.Env = getEnv("APP_ENV", "development")
	cfg.Log.Level = getEnv("LOG_LEVEL", "info")

	// API
	cfg.API.Host = getEnv("API_HOST", "0.0.0.0")
	cfg.API.Port = getEnv("API_PORT", "8080")

	// DB
	cfg.DB.Host = getEnv("DB_HOST", "db")
	cfg.DB.Port = getInt("DB_PORT", 5432)
	cfg.DB.User = getEnv("DB_USER", "root")
	cfg.DB.Password = getEnv("DB_PASSWORD", "123456")
	cfg.DB.Name = getEnv("DB_NAME", "db_smsoffice")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	// Redis
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "redis:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getInt("REDIS_DB", 0)

	// SMSOffice provider. Key and title are passed through even when empty.
	cfg.SMSOffice.APIKey = getEnv("SMSOFFICE_API_KEY", "")
	cfg.SMSOffice.MessageTitle = getEnv("SMSOFFICE_SENDER", "")
	cfg.SMSOffice.Endpoint = getEnv("SMSOFFICE_ENDPOINT", "https://smsoffice.ge/api/v2/send/")
	cfg.SMSOffice.Timeout = getDuration("SMSOFFICE_TIMEOUT", 10*time.Second)

	// Dispatch journal retention
	cfg.Retention.Interval = getDuration("RETENTION_INTERVAL", time.Hour)
	cfg.Retention.Timeout = getDuration("RETENTION_TIMEOUT", 30*time.Second)
	cfg.Retention.MaxAge = getDuration("RETENTION_MAX_AGE", 30*24*time.Hour)

	cfg.Idempotency.TTL = getDuration("IDEMPOTENCY_TTL", 24*time.Hour)

	return cfg
}

func getEnv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func getInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// IsDevelopment reports whether the app runs with a development profile.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.App.Env) {
	case "development", "dev", "local":
		return true
	default:
		return false
	}
}

func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}
