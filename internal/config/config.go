package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	FrontendBaseURL string

	AuthJWTSecret string

	DBType            string
	DBDSN             string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitEnabled bool
	RateLimitRate    float64
	RateLimitBurst   int

	Stripe StripeConfig

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	InvoiceStorageDir    string
	BinaryStorageDir     string
	DownloadLinkTTLHours int
	DownloadMaxCount     int
}

// DatabaseDSN assembles the connection string for the configured driver.
// DATABASE_DSN, when set, overrides the per-field form entirely.
func (c Config) DatabaseDSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	switch c.DBType {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	case "postgres":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
	case "sqlite":
		return c.DBName + ".db"
	default:
		return ""
	}
}

// StripeConfig selects the webhook secret from the test/live mode flag,
// falling back to the shared secret when no mode-specific one is set.
type StripeConfig struct {
	SecretKey         string
	TestMode          bool
	WebhookSecretTest string
	WebhookSecretLive string
	WebhookSecret     string
}

func (s StripeConfig) ActiveWebhookSecret() string {
	if s.TestMode && s.WebhookSecretTest != "" {
		return s.WebhookSecretTest
	}
	if !s.TestMode && s.WebhookSecretLive != "" {
		return s.WebhookSecretLive
	}
	return s.WebhookSecret
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:     getenv("APP_SERVICE", "backoffice"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		FrontendBaseURL: strings.TrimRight(getenv("FRONTEND_BASE_URL", "http://localhost:3000"), "/"),

		AuthJWTSecret: strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBDSN:             strings.TrimSpace(getenv("DATABASE_DSN", "")),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "backoffice"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", "postgres"),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		RateLimitEnabled: getenvBool("RATE_LIMIT_ENABLED", false),
		RateLimitRate:    getenvFloat("RATE_LIMIT_RATE", 5),
		RateLimitBurst:   getenvInt("RATE_LIMIT_BURST", 20),

		Stripe: StripeConfig{
			SecretKey:         strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			TestMode:          getenvBool("STRIPE_TEST_MODE", true),
			WebhookSecretTest: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET_TEST", "")),
			WebhookSecretLive: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET_LIVE", "")),
			WebhookSecret:     strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
		},

		SMTPHost:     getenv("SMTP_HOST", "localhost"),
		SMTPPort:     getenvInt("SMTP_PORT", 587),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", "facturation@comptaline.fr"),

		InvoiceStorageDir:    getenv("INVOICE_STORAGE_DIR", "./storage/invoices"),
		BinaryStorageDir:     getenv("BINARY_STORAGE_DIR", "./storage/binaries"),
		DownloadLinkTTLHours: getenvInt("DOWNLOAD_LINK_TTL_HOURS", 72),
		DownloadMaxCount:     getenvInt("DOWNLOAD_MAX_COUNT", 5),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
