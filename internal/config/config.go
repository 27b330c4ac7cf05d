package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port string

	// Empty DatabaseURL selects the in-memory store.
	DatabaseURL string
	// Empty RedisURL disables rate limiting.
	RedisURL string

	JWTSecret string

	DefaultRoomDuration time.Duration
	MaxRoomDuration     time.Duration
	HistoryLimit        int
	StoreTimeout        time.Duration

	RateLimit       int
	RateLimitWindow time.Duration
}

func Load() Config {
	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change"),

		DefaultRoomDuration: getEnvMinutes("DEFAULT_ROOM_DURATION_MINUTES", 60),
		MaxRoomDuration:     getEnvMinutes("MAX_ROOM_DURATION_MINUTES", 24*60),
		HistoryLimit:        getEnvInt("HISTORY_LIMIT", 200),
		StoreTimeout:        time.Duration(getEnvInt("STORE_TIMEOUT_SECONDS", 5)) * time.Second,

		RateLimit:       getEnvInt("RATE_LIMIT", 100),
		RateLimitWindow: time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 15*60)) * time.Second,
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
	}
	return def
}

func getEnvMinutes(key string, def int) time.Duration {
	return time.Duration(getEnvInt(key, def)) * time.Minute
}
