package config

import (
	"os"
	"strconv"
	"time"
)

// Service constants with env var override support.
var (
	HTTPAddr      = stringEnv("HTTP_ADDR", ":9300")
	DBTimeout     = durationEnv("DB_TIMEOUT", 10*time.Second)
	MeiliTimeout  = durationEnv("MEILI_TIMEOUT", 15*time.Second)
	SearchTimeout = durationEnv("SEARCH_TIMEOUT", 5*time.Second)
	ReindexLimit  = intEnv("REINDEX_BATCH_SIZE", 100)
)

func stringEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func intEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func durationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
