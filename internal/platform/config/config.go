package config

import (
	"os"
	"strings"
	"time"
)

// Config captures everything main needs to wire the server. Values come
// from QUILL_* environment variables with development defaults, so main
// stays lean.
type Config struct {
	Addr string

	// DatabaseURL is the authoritative store (articles, revisions, users).
	// Empty means in-memory stores.
	DatabaseURL string
	// SearchDatabaseURL is the search index's own connection; it defaults
	// to DatabaseURL but may point at a different server since the index
	// is a rebuildable cache.
	SearchDatabaseURL string
	// RedisURL backs the feature-flag store when set.
	RedisURL string
	// KafkaBrokers switches the commit feed from in-process to Kafka.
	KafkaBrokers []string
	KafkaTopic   string

	JWTSigningKey     string
	ReconcileInterval time.Duration
}

// FromEnv builds the config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:              envOr("QUILL_ADDR", ":8080"),
		DatabaseURL:       os.Getenv("QUILL_DATABASE_URL"),
		SearchDatabaseURL: os.Getenv("QUILL_SEARCH_DATABASE_URL"),
		RedisURL:          os.Getenv("QUILL_REDIS_URL"),
		KafkaTopic:        envOr("QUILL_KAFKA_TOPIC", "quill.commits"),
		JWTSigningKey:     envOr("QUILL_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		ReconcileInterval: 5 * time.Minute,
	}
	if cfg.SearchDatabaseURL == "" {
		cfg.SearchDatabaseURL = cfg.DatabaseURL
	}
	if brokers := os.Getenv("QUILL_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	if raw := os.Getenv("QUILL_RECONCILE_INTERVAL"); raw != "" {
		if interval, err := time.ParseDuration(raw); err == nil && interval > 0 {
			cfg.ReconcileInterval = interval
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
