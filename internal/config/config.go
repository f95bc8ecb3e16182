package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const prodString = "prod"

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction bool
	ProdOrigins  string
	HTTPAddr     string
	DBDSN        string
	LogLevel     string

	// Slot cache
	RedisAddr     string // empty disables redis; an in-process cache is used
	RedisPassword string
	RedisDB       int
	SlotCacheTTL  time.Duration
	BusyCacheTTL  time.Duration

	// External calendar
	GoogleClientID     string
	GoogleClientSecret string
	CalendarTimeout    time.Duration

	// Payment provider
	StripeSecretKey string
	PaymentTimeout  time.Duration

	// Webhook signature secrets per provider
	PaymentWebhookSecret  string
	IdentityWebhookSecret string

	// Notifications
	AMQPURL string // empty disables the AMQP publisher

	// Rate limits, requests per minute per client IP.
	// All three endpoints fail open when the limiter is unavailable; this is
	// a deliberate tunable favoring availability over strict abuse prevention.
	AvailabilityRPM  int
	BookRPM          int
	PaymentIntentRPM int
	CancelRPM        int
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := &Config{}

	appEnv := getEnv("APP_ENV", "dev")
	cfg.IsProduction = appEnv == prodString
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")

	cfg.DBDSN = os.Getenv("DB_DSN")
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required")
	}

	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")

	var err error
	if cfg.RedisDB, err = getEnvAsInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.SlotCacheTTL, err = getEnvAsDuration("SLOT_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.BusyCacheTTL, err = getEnvAsDuration("BUSY_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	cfg.GoogleClientID = getEnv("GOOGLE_CLIENT_ID", "")
	cfg.GoogleClientSecret = getEnv("GOOGLE_CLIENT_SECRET", "")
	if cfg.CalendarTimeout, err = getEnvAsDuration("CALENDAR_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.StripeSecretKey = getEnv("STRIPE_SECRET_KEY", "")
	if cfg.PaymentTimeout, err = getEnvAsDuration("PAYMENT_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}

	cfg.PaymentWebhookSecret = getEnv("PAYMENT_WEBHOOK_SECRET", "")
	cfg.IdentityWebhookSecret = getEnv("IDENTITY_WEBHOOK_SECRET", "")

	cfg.AMQPURL = getEnv("AMQP_URL", "")

	if cfg.AvailabilityRPM, err = getEnvAsInt("RATE_AVAILABILITY_RPM", 120); err != nil {
		return nil, err
	}
	if cfg.BookRPM, err = getEnvAsInt("RATE_BOOK_RPM", 20); err != nil {
		return nil, err
	}
	if cfg.PaymentIntentRPM, err = getEnvAsInt("RATE_PAYMENT_INTENT_RPM", 30); err != nil {
		return nil, err
	}
	// Cancellation budget is deliberately tight to resist token enumeration.
	if cfg.CancelRPM, err = getEnvAsInt("RATE_CANCEL_RPM", 5); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}
	return val, nil
}

// getEnvAsDuration retrieves an environment variable as a time.Duration
// (e.g. "30s", "5m"). It returns the default value if the variable is not set.
func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}
	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid duration: %w", key, valStr, err)
	}
	return val, nil
}
