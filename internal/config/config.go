package config

import (
	"os"
	"strings"
	"time"
)

type AppConfig struct {
	// Server
	HTTPAddr  string
	RedisAddr string
	RedisPass string

	// Batch endpoint authorization
	AdminAPIKey string

	// Payments
	StripeAPIKey string
	Currency     string

	// Scheduler
	SchedulerEnabled bool
	RenewalSchedule  string
	ArchivalSchedule string
	RenewalLockTTL   time.Duration
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr:  getEnv("HTTP_ADDR", ":8000"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass: getEnv("REDIS_PASS", ""),

		AdminAPIKey: getEnv("ADMIN_API_KEY", ""),

		StripeAPIKey: getEnv("STRIPE_API_KEY", ""),
		Currency:     getEnv("CURRENCY", "eur"),

		SchedulerEnabled: strings.ToLower(getEnv("SCHEDULER_ENABLED", "true")) == "true",
		RenewalSchedule:  getEnv("RENEWAL_SCHEDULE", "0 3 * * *"),
		ArchivalSchedule: getEnv("ARCHIVAL_SCHEDULE", "30 3 * * *"),
		RenewalLockTTL:   getEnvDuration("RENEWAL_LOCK_TTL", 2*time.Minute),
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
