package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Processing ProcessingConfig
	Worker     WorkerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	URL      string // if set, used as-is (e.g. postgres://localhost:5432/gateway?sslmode=disable)
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT signing and validation settings for dashboard sessions.
type JWTConfig struct {
	Secret      string
	ExpireHours int
}

// ProcessingConfig selects the outcome/delay strategies for the simulated
// acquirer step. TestMode makes processing deterministic: fixed delay and
// fixed outcome instead of random ones.
type ProcessingConfig struct {
	TestMode                  bool
	TestDelayMS               int  // fixed payment processing delay in test mode
	TestPaymentSuccess        bool // forced outcome in test mode
	WebhookRetryIntervalsTest bool // use the compressed webhook retry schedule
	RefundDelayMS             int  // refund processing delay
}

// WorkerConfig bounds concurrent job handling per queue.
type WorkerConfig struct {
	PaymentConcurrency int
	WebhookConcurrency int
	RefundConcurrency  int
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	readTimeout, _ := strconv.Atoi(getEnv("READ_TIMEOUT_SEC", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("WRITE_TIMEOUT_SEC", "30"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	jwtExpire, _ := strconv.Atoi(getEnv("JWT_EXPIRE_HOURS", "24"))

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8000"),
			ReadTimeout:        readTimeout,
			WriteTimeout:       writeTimeout,
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", "postgres://localhost:5432/gateway?sslmode=disable"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "gateway"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production"),
			ExpireHours: jwtExpire,
		},
		Processing: ProcessingConfig{
			TestMode:                  getEnvBool("TEST_MODE", false),
			TestDelayMS:               getEnvInt("TEST_PROCESSING_DELAY", 1000),
			TestPaymentSuccess:        getEnvBool("TEST_PAYMENT_SUCCESS", true),
			WebhookRetryIntervalsTest: getEnvBool("WEBHOOK_RETRY_INTERVALS_TEST", false),
			RefundDelayMS:             getEnvInt("REFUND_PROCESSING_DELAY", 3000),
		},
		Worker: WorkerConfig{
			PaymentConcurrency: getEnvInt("PAYMENT_WORKER_CONCURRENCY", 4),
			WebhookConcurrency: getEnvInt("WEBHOOK_WORKER_CONCURRENCY", 4),
			RefundConcurrency:  getEnvInt("REFUND_WORKER_CONCURRENCY", 2),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}
