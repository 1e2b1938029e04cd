package config

import (
	"errors"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultPlatformFeeRate = 0.30
	DefaultPaymentCurrency = "brl"
	DefaultSystemActorID   = "system"
	DefaultAppURL          = "http://localhost:3000"
)

var (
	ErrMissingSecretKey     = errors.New("STRIPE_SECRET_KEY is not configured")
	ErrMissingWebhookSecret = errors.New("STRIPE_WEBHOOK_SECRET is not configured")
)

// This function will Load the ENVIORNMENT VARIABLES from .env if GO_ENV variable is not set
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		// a missing .env is fine when the variables come from the process environment
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	return nil
}

type EnviornmentVariable struct {
	GO_ENV       string
	DB_USER_NAME string
	DB_PASSWORD  string
	DB_NAME      string
	DB_HOST      string
	DB_PORT      string
	DB_SSL_MODE  string
	PORT         int
	// JWT Configuration
	JWT_SECRET string
	JWT_ISSUER string
	// Redis Configuration
	REDIS_URL string
	// Object storage (DigitalOcean Spaces / S3) for webhook archives
	SPACES_ACCESS_KEY string
	SPACES_SECRET_KEY string
	SPACES_BUCKET     string
	SPACES_REGION     string
	SPACES_ENDPOINT   string
	// Background processing
	CRON_ENABLED       bool
	RIVER_ENABLED      bool
	RIVER_WORKER_COUNT int
	// Webhook bookkeeping
	WEBHOOK_EVENT_RETENTION_DAYS int
}

func Get() (*EnviornmentVariable, error) {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil {
		port = 8080
	}

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}

	dbPort := os.Getenv("DB_PORT")
	if dbPort == "" {
		dbPort = "5432"
	}

	sslMode := os.Getenv("DB_SSL_MODE")
	if sslMode == "" {
		sslMode = "disable"
	}

	envVariables := &EnviornmentVariable{
		GO_ENV:       os.Getenv("GO_ENV"),
		DB_USER_NAME: os.Getenv("DB_USER_NAME"),
		DB_PASSWORD:  os.Getenv("DB_PASSWORD"),
		DB_NAME:      os.Getenv("DB_NAME"),
		DB_HOST:      dbHost,
		DB_PORT:      dbPort,
		DB_SSL_MODE:  sslMode,
		PORT:         port,
		// JWT
		JWT_SECRET: os.Getenv("JWT_SECRET"),
		JWT_ISSUER: os.Getenv("JWT_ISSUER"),
		// Redis
		REDIS_URL: os.Getenv("REDIS_URL"),
		// Spaces
		SPACES_ACCESS_KEY: os.Getenv("SPACES_ACCESS_KEY"),
		SPACES_SECRET_KEY: os.Getenv("SPACES_SECRET_KEY"),
		SPACES_BUCKET:     os.Getenv("SPACES_BUCKET"),
		SPACES_REGION:     getEnvOrDefault("SPACES_REGION", "nyc3"),
		SPACES_ENDPOINT:   getEnvOrDefault("SPACES_ENDPOINT", "nyc3.digitaloceanspaces.com"),
		// Background processing
		CRON_ENABLED:       os.Getenv("CRON_ENABLED") != "false",
		RIVER_ENABLED:      os.Getenv("RIVER_ENABLED") != "false",
		RIVER_WORKER_COUNT: getEnvInt("RIVER_WORKER_COUNT", 2),

		WEBHOOK_EVENT_RETENTION_DAYS: getEnvInt("WEBHOOK_EVENT_RETENTION_DAYS", 90),
	}

	return envVariables, nil
}

// DSN builds the PostgreSQL connection string shared by GORM and the job queue pool.
func (e *EnviornmentVariable) DSN() string {
	return "host=" + e.DB_HOST +
		" user=" + e.DB_USER_NAME +
		" password=" + e.DB_PASSWORD +
		" dbname=" + e.DB_NAME +
		" port=" + e.DB_PORT +
		" sslmode=" + e.DB_SSL_MODE +
		" TimeZone=UTC"
}

// PlatformFeeRate returns the platform's share of every course sale as a fraction in [0, 1].
// PLATFORM_FEE_PERCENT accepts either a fraction (0.3) or a percentage (30).
func PlatformFeeRate() float64 {
	raw := strings.TrimSpace(os.Getenv("PLATFORM_FEE_PERCENT"))
	if raw == "" {
		return DefaultPlatformFeeRate
	}

	rate, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
	if err != nil || math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return DefaultPlatformFeeRate
	}
	if rate > 1 {
		rate = rate / 100
	}
	if rate > 1 {
		return 1
	}
	return rate
}

// StripeSecretKey returns the processor API key or ErrMissingSecretKey.
func StripeSecretKey() (string, error) {
	key := os.Getenv("STRIPE_SECRET_KEY")
	if key == "" {
		return "", ErrMissingSecretKey
	}
	return key, nil
}

// StripeWebhookSecret returns the webhook signing secret or ErrMissingWebhookSecret.
func StripeWebhookSecret() (string, error) {
	secret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if secret == "" {
		return "", ErrMissingWebhookSecret
	}
	return secret, nil
}

func PaymentCurrency() string {
	return strings.ToLower(getEnvOrDefault("PAYMENT_CURRENCY", DefaultPaymentCurrency))
}

func AppURL() string {
	return strings.TrimRight(getEnvOrDefault("APP_URL", DefaultAppURL), "/")
}

// SubscriptionPriceID returns the processor price configured for a plan,
// read from STRIPE_PRICE_STUDENT_SUBSCRIPTION / STRIPE_PRICE_TEACHER_SUBSCRIPTION.
func SubscriptionPriceID(plan string) string {
	return os.Getenv("STRIPE_PRICE_" + strings.ToUpper(plan))
}

// SystemActorID is the audit actor recorded for events that have no end user.
func SystemActorID() string {
	return getEnvOrDefault("SYSTEM_ACTOR_ID", DefaultSystemActorID)
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
