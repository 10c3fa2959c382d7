package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DBUrl     string
	JWTSecret string
	AppEnv    string

	EnableDocs bool

	// Working-hours policy applied to every practitioner.
	WorkStartHour  int
	WorkEndHour    int
	LunchStartHour int
	LunchEndHour   int
	SlotMinutes    int

	SweepInterval time.Duration
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DBUrl:          getEnv("DB_URL", ""),
		JWTSecret:      jwtSecret,
		AppEnv:         normalizeEnv(getEnv("APP_ENV", "production")),
		EnableDocs:     getEnvBool("ENABLE_API_DOCS", false),
		WorkStartHour:  getEnvInt("WORK_START_HOUR", 9),
		WorkEndHour:    getEnvInt("WORK_END_HOUR", 18),
		LunchStartHour: getEnvInt("LUNCH_START_HOUR", 13),
		LunchEndHour:   getEnvInt("LUNCH_END_HOUR", 14),
		SlotMinutes:    getEnvInt("SLOT_MINUTES", 30),
		SweepInterval:  getEnvDuration("SWEEP_INTERVAL", 30*time.Minute),
	}

	if cfg.WorkStartHour >= cfg.WorkEndHour {
		return nil, fmt.Errorf("WORK_START_HOUR must be before WORK_END_HOUR")
	}
	if cfg.SlotMinutes <= 0 {
		return nil, fmt.Errorf("SLOT_MINUTES must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}

func (c *Config) DocsEnabled() bool {
	return c != nil && c.EnableDocs && c.AppEnv == "development"
}

// WorkingHours exposes the policy knobs in the shape the availability
// resolver consumes.
func (c *Config) WorkingHours() (startHour, endHour, lunchStartHour, lunchEndHour, slotMinutes int) {
	return c.WorkStartHour, c.WorkEndHour, c.LunchStartHour, c.LunchEndHour, c.SlotMinutes
}
