package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string
	HTTPAddr    string
	Location    *time.Location
	LogLevel    string
	Env         string // dev|prod
	SentryDSN   string

	// Optional Telegram notification channel. Empty token disables it.
	BotToken    string
	NotifyChats []int64
}

func Load() (*Config, error) {
	tz := getenv("TZ", "Europe/Prague")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	chats, err := parseIDs(os.Getenv("NOTIFY_CHAT_IDS"))
	if err != nil {
		return nil, fmt.Errorf("NOTIFY_CHAT_IDS: %w", err)
	}

	cfg := &Config{
		DatabaseURL: mustEnv("DATABASE_URL"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		Location:    loc,
		LogLevel:    getenv("LOG_LEVEL", "info"),
		Env:         getenv("ENV", "dev"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
		BotToken:    os.Getenv("BOT_TOKEN"),
		NotifyChats: chats,
	}
	return cfg, nil
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("required env " + k + " is empty")
	}
	return v
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func parseIDs(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad id %q: %w", p, err)
		}
		out = append(out, n)
	}
	return out, nil
}
