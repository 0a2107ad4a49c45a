package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Surfaces
	HTTPAddr    string
	MetricsAddr string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	SQLitePath    string

	// Quote feed
	QuoteWSURL string

	// Ledger
	OpeningBalance string

	// Notifications (empty disables the backend)
	AlertWebhookURL  string
	TelegramBotToken string
	TelegramChatID   string

	LogLevel string
}

// Load reads configuration from the environment with sensible defaults.
// A .env file in the working directory is merged in first, if present.
func Load() *Config {
	// A missing .env is fine; a malformed one is a configuration bug and
	// must not be silently ignored.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			log.Fatalf("[config] .env load failed: %v", err)
		}
		log.Printf("[config] loaded .env")
	}

	return &Config{
		HTTPAddr:    getEnv("HTTP_ADDR", ":8000"),
		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SQLitePath:    getEnv("SQLITE_PATH", "data/desk.db"),

		QuoteWSURL: getEnv("QUOTE_WS_URL", "ws://localhost:9001/ws"),

		OpeningBalance: getEnv("OPENING_BALANCE", "1000000"),

		AlertWebhookURL:  getEnv("ALERT_WEBHOOK_URL", ""),
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}
}

// ParseOpeningBalance parses OpeningBalance, falling back to the standard
// ten-lakh paper account on an invalid value.
func (c *Config) ParseOpeningBalance() decimal.Decimal {
	d, err := decimal.NewFromString(c.OpeningBalance)
	if err != nil || d.IsNegative() {
		log.Printf("[config] invalid OPENING_BALANCE %q, using 1000000", c.OpeningBalance)
		return decimal.NewFromInt(1_000_000)
	}
	return d
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
