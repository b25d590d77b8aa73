package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config is the server's environment-driven configuration.
type Config struct {
	HTTP     HTTPConfig
	SQLite   SQLiteConfig
	Redis    RedisConfig
	Notify   NotifyConfig
	Geocoder GeocoderConfig
	Otel     OtelConfig
}

type HTTPConfig struct {
	Addr string
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	// Addr empty means no redis: the fan-out falls back to the in-process
	// broker (single-binary deployments).
	Addr string
}

// NotifyConfig selects the outbound notification transports. All fields
// optional; with nothing configured, messages are logged only.
type NotifyConfig struct {
	WhatsAppToken   string
	WhatsAppPhoneID string
	WebhookURL      string
}

type GeocoderConfig struct {
	// BaseURL empty disables geocoding; address-only delivery checks are
	// then admitted fail-open.
	BaseURL string
}

type OtelConfig struct {
	ServiceName string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTP:   HTTPConfig{Addr: getEnv("HTTP_ADDR", ":8080")},
		SQLite: SQLiteConfig{Path: getEnv("SQLITE_PATH", "./data/storefront.db")},
		Redis:  RedisConfig{Addr: getEnv("REDIS_ADDR", "")},
		Notify: NotifyConfig{
			WhatsAppToken:   getEnv("WHATSAPP_TOKEN", ""),
			WhatsAppPhoneID: getEnv("WHATSAPP_PHONE_ID", ""),
			WebhookURL:      getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Geocoder: GeocoderConfig{BaseURL: getEnv("GEOCODER_BASE_URL", "")},
		Otel:     OtelConfig{ServiceName: getEnv("OTEL_SERVICE_NAME", "storefront")},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("config: HTTP_ADDR must not be empty")
	}
	if c.SQLite.Path == "" {
		return fmt.Errorf("config: SQLITE_PATH must not be empty")
	}
	// A WhatsApp credential pair is all-or-nothing.
	if (c.Notify.WhatsAppToken == "") != (c.Notify.WhatsAppPhoneID == "") {
		return fmt.Errorf("config: WHATSAPP_TOKEN and WHATSAPP_PHONE_ID must be set together")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
