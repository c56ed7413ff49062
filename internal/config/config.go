package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"healthcare-portal/internal/models"
)

// Config holds all configuration for our application
type Config struct {
	Port        string
	Origin      string
	Environment string
	JWTSecret   string
	LoginPath   string
	ClinicalAPI ClinicalAPIConfig
	Redis       RedisConfig
	Logger      LoggerConfig
	// PollInterval is how often a mounted consultation feed refreshes.
	PollInterval time.Duration
	SessionTTL   time.Duration
	Location     *time.Location
	FeedRoles    []models.Role
}

// ClinicalAPIConfig holds the remote clinical API connection details
type ClinicalAPIConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
}

// RedisConfig holds the session store connection details. An empty Addr
// keeps sessions in memory.
type RedisConfig struct {
	Addr     string
	Password string
}

type LoggerConfig struct {
	Level string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	timeoutSeconds, err := strconv.Atoi(getEnv("CLINICAL_API_TIMEOUT_SECONDS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid CLINICAL_API_TIMEOUT_SECONDS: %w", err)
	}

	ratePerSecond, err := strconv.ParseFloat(getEnv("CLINICAL_API_RATE_PER_SECOND", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CLINICAL_API_RATE_PER_SECOND: %w", err)
	}

	pollSeconds, err := strconv.Atoi(getEnv("POLL_INTERVAL_SECONDS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid POLL_INTERVAL_SECONDS: %w", err)
	}
	if pollSeconds <= 0 {
		return nil, fmt.Errorf("invalid POLL_INTERVAL_SECONDS: must be positive, got %d", pollSeconds)
	}

	sessionTTLMinutes, err := strconv.Atoi(getEnv("SESSION_TTL_MINUTES", "720")) // 12 hours
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL_MINUTES: %w", err)
	}

	// An empty APP_TIMEZONE resolves to UTC.
	location, err := time.LoadLocation(getEnv("APP_TIMEZONE", "Local"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}

	feedRoles, err := ParseRoles(getEnv("FEED_ROLES", "doctor,admin"))
	if err != nil {
		return nil, fmt.Errorf("invalid FEED_ROLES: %w", err)
	}

	return &Config{
		Port:        getEnv("PORT", "3001"),
		Origin:      getEnv("ORIGIN", "http://localhost:4200"),
		Environment: getEnv("NODE_ENV", "development"),
		JWTSecret:   getEnv("JWT_SECRET", "default_jwt_secret"),
		LoginPath:   getEnv("LOGIN_PATH", "/login"),
		ClinicalAPI: ClinicalAPIConfig{
			BaseURL:       strings.TrimRight(getEnv("CLINICAL_API_BASE_URL", "http://localhost:8000/api"), "/"),
			Timeout:       time.Duration(timeoutSeconds) * time.Second,
			RatePerSecond: ratePerSecond,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOGGER_LEVEL", "info"),
		},
		PollInterval: time.Duration(pollSeconds) * time.Second,
		SessionTTL:   time.Duration(sessionTTLMinutes) * time.Minute,
		Location:     location,
		FeedRoles:    feedRoles,
	}, nil
}

// ParseRoles parses a comma separated role list such as "doctor,hospital_admin".
func ParseRoles(s string) ([]models.Role, error) {
	var roles []models.Role
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		role, ok := models.ParseRole(part)
		if !ok {
			return nil, fmt.Errorf("unknown role %q", part)
		}
		roles = append(roles, role)
	}
	return roles, nil
}

// Helper function to get environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
