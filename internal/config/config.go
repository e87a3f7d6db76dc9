// Package config loads the bot settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// tokenSecretPath is where a Docker secret with the bot token is mounted.
var tokenSecretPath = "/run/secrets/telegram_bot_token"

type Config struct {
	TelegramToken string // TELEGRAM_BOT_TOKEN or the Docker secret
	DBFile        string // DB_FILE

	// Trending
	UpdateHour, UpdateMinute, UpdateSecond int            // UPDATE_TIME
	Location                               *time.Location // TIME_ZONE
	TrendingOnStart                        bool           // TRENDING_ON_START

	InlineCacheSeconds int // INLINE_CACHE_SECONDS

	// Logging / metrics
	LogLevel    string // debug|info|warn|error
	LogPretty   bool
	MetricsAddr string // empty disables the listener
}

// Load reads .env (when present) and the environment, applies defaults and
// validates the result. The bot token is not required here; commands that
// talk to Telegram check it themselves.
func Load() (Config, error) {
	_ = godotenv.Load() // a missing .env is fine

	cfg := Config{
		TelegramToken:      botToken(),
		DBFile:             getenv("DB_FILE", "sticker.db"),
		TrendingOnStart:    getbool("TRENDING_ON_START", false),
		InlineCacheSeconds: getint("INLINE_CACHE_SECONDS", 300),
		LogLevel:           strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		LogPretty:          getbool("LOG_PRETTY", false),
		MetricsAddr:        strings.TrimSpace(os.Getenv("METRICS_ADDR")),
	}

	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error")
	}

	var err error
	cfg.UpdateHour, cfg.UpdateMinute, cfg.UpdateSecond, err = parseClock(getenv("UPDATE_TIME", "00:00:00"))
	if err != nil {
		return cfg, fmt.Errorf("UPDATE_TIME: %w", err)
	}

	cfg.Location = time.Local
	if tz := strings.TrimSpace(os.Getenv("TIME_ZONE")); tz != "" {
		if cfg.Location, err = time.LoadLocation(tz); err != nil {
			return cfg, fmt.Errorf("TIME_ZONE: %w", err)
		}
	}

	if strings.TrimSpace(cfg.DBFile) == "" {
		return cfg, errors.New("DB_FILE must not be empty")
	}
	if cfg.InlineCacheSeconds < 0 {
		return cfg, errors.New("INLINE_CACHE_SECONDS must be >= 0")
	}
	return cfg, nil
}

// UpdateTime renders the daily scoring time as HH:MM:SS.
func (c Config) UpdateTime() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.UpdateHour, c.UpdateMinute, c.UpdateSecond)
}

func botToken() string {
	if data, err := os.ReadFile(tokenSecretPath); err == nil {
		if token := strings.TrimSpace(string(data)); token != "" {
			return token
		}
	}
	return strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
}

// parseClock accepts HH:MM or HH:MM:SS.
func parseClock(s string) (h, m, sec int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, fmt.Errorf("%q is not HH:MM[:SS]", s)
	}
	vals := make([]int, 3)
	limits := []int{23, 59, 59}
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 || v > limits[i] {
			return 0, 0, 0, fmt.Errorf("%q is not HH:MM[:SS]", s)
		}
		vals[i] = v
	}
	return vals[0], vals[1], vals[2], nil
}

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}
