// Package config loads catalog-service settings from the environment.
// Platform-level settings (addr, log level, env) live in platform/config.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type IMDBConfig struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

type Config struct {
	IMDB              IMDBConfig
	ImportConcurrency int
	RedisURL          string
	MediaCacheTTL     time.Duration
}

func Load() Config {
	return Config{
		IMDB: IMDBConfig{
			BaseURL:    strings.TrimSpace(os.Getenv("IMDB_BASE_URL")),
			Timeout:    envDuration("IMDB_TIMEOUT", 15*time.Second),
			MaxRetries: envInt("IMDB_MAX_RETRIES", 2),
		},
		ImportConcurrency: envInt("IMPORT_CONCURRENCY", 4),
		RedisURL:          strings.TrimSpace(os.Getenv("REDIS_URL")),
		MediaCacheTTL:     envDuration("MEDIA_CACHE_TTL", 15*time.Minute),
	}
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
