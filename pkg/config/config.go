package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the application configuration
type Config struct {
	Environment string
	ServerPort  int
	LogLevel    string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisURL string // empty disables Redis

	JWTSecret     string
	TokenTTLHours int

	RateLimitPerMinute      int
	SnapshotIntervalMinutes int

	// Metric fallbacks; defaults are long-standing placeholder figures.
	GopparMargin            float64
	DefaultLeadTimeDays     float64
	LeadTimeSanityCapDays   float64
	DefaultCancellationRate float64

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	tokenTTL, err := strconv.Atoi(getEnv("TOKEN_TTL_HOURS", "24"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL_HOURS: %w", err)
	}

	rateLimit, err := strconv.Atoi(getEnv("RATE_LIMIT_PER_MINUTE", "120"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
	}

	snapshotInterval, err := strconv.Atoi(getEnv("SNAPSHOT_INTERVAL_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid SNAPSHOT_INTERVAL_MINUTES: %w", err)
	}

	gopparMargin, err := parseFloatEnv("GOPPAR_MARGIN", 0.7)
	if err != nil {
		return nil, err
	}

	defaultLeadTime, err := parseFloatEnv("DEFAULT_LEAD_TIME_DAYS", 18.0)
	if err != nil {
		return nil, err
	}

	leadTimeCap, err := parseFloatEnv("LEAD_TIME_SANITY_CAP_DAYS", 60.0)
	if err != nil {
		return nil, err
	}

	defaultCancellation, err := parseFloatEnv("DEFAULT_CANCELLATION_RATE", 9.6)
	if err != nil {
		return nil, err
	}

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  port,
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "insightforge"),
		DBPassword: getEnv("DB_PASSWORD", "dev"),
		DBName:     getEnv("DB_NAME", "insightforge"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret:     getEnv("JWT_SECRET", "change-me-in-production"),
		TokenTTLHours: tokenTTL,

		RateLimitPerMinute:      rateLimit,
		SnapshotIntervalMinutes: snapshotInterval,

		GopparMargin:            gopparMargin,
		DefaultLeadTimeDays:     defaultLeadTime,
		LeadTimeSanityCapDays:   leadTimeCap,
		DefaultCancellationRate: defaultCancellation,

		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
