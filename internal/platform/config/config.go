package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr               string
	Environment        string
	JWTSecret          string
	TokenTTL           time.Duration
	SeedData           bool
	SeedTenantID       string
	SeedAdminEmail     string
	SeedAdminPassword  string
	RequestSLADays     int
	DefaultMaxAttempts int
	MetricsEnabled     bool
}

func Load() Config {
	return Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		Environment:        getEnv("APP_ENV", "development"),
		JWTSecret:          getEnv("JWT_SECRET", "dev-secret"),
		TokenTTL:           getEnvDuration("TOKEN_TTL", 12*time.Hour),
		SeedData:           getEnvBool("SEED_DATA", true),
		SeedTenantID:       getEnv("SEED_TENANT_ID", "tenant-demo"),
		SeedAdminEmail:     getEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
		SeedAdminPassword:  getEnv("SEED_ADMIN_PASSWORD", "change-me"),
		RequestSLADays:     getEnvInt("REQUEST_SLA_DAYS", 30),
		DefaultMaxAttempts: getEnvInt("DEFAULT_MAX_ATTEMPTS", 3),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Validate() error {
	if c.Environment == "production" {
		return fmt.Errorf("APP_ENV=production is not supported: this build emulates the data service in process")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.RequestSLADays <= 0 {
		return fmt.Errorf("REQUEST_SLA_DAYS must be positive")
	}
	if c.DefaultMaxAttempts <= 0 {
		return fmt.Errorf("DEFAULT_MAX_ATTEMPTS must be positive")
	}
	return nil
}
