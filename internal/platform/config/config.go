package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Addr                       string
	Environment                string
	DatabaseURL                string
	StoreDriver                string
	JWTSecret                  string
	TokenTTL                   time.Duration
	RunMigrations              bool
	RunSeed                    bool
	SeedCompanyName            string
	MaxBodyBytes               int64
	CORSAllowedOrigins         []string
	SourceFetchTimeout         time.Duration
	SummaryConcurrency         int
	RedisURL                   string
	NotifyQueueKey             string
	NotifyQueueSize            int
	NotifyTimeout              time.Duration
	BlobBaseURL                string
	BlobSigningKey             string
	BlobURLTTL                 time.Duration
	ReferralCreditAmount       decimal.Decimal
	SingleCountLeaveDeductions bool
	PayslipCurrency            string
	MetricsEnabled             bool
	RateLimitPerMinute         int
	LogLevel                   string
	LogFormat                  string
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:                       getEnv("APP_ADDR", ":8080"),
		Environment:                getEnv("APP_ENV", "development"),
		DatabaseURL:                getEnv("DATABASE_URL", ""),
		StoreDriver:                strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		JWTSecret:                  getEnv("JWT_SECRET", ""),
		TokenTTL:                   getEnvDuration("JWT_TTL", 24*time.Hour),
		RunMigrations:              getEnvBool("RUN_MIGRATIONS", true),
		RunSeed:                    getEnvBool("RUN_SEED", false),
		SeedCompanyName:            getEnv("SEED_COMPANY_NAME", "Demo Kitchen"),
		MaxBodyBytes:               int64(getEnvInt("MAX_BODY_BYTES", 1048576)),
		CORSAllowedOrigins:         getEnvList("CORS_ALLOWED_ORIGINS", nil),
		SourceFetchTimeout:         getEnvDuration("SOURCE_FETCH_TIMEOUT", 3*time.Second),
		SummaryConcurrency:         getEnvInt("SUMMARY_CONCURRENCY", 8),
		RedisURL:                   getEnv("REDIS_URL", ""),
		NotifyQueueKey:             getEnv("NOTIFY_QUEUE_KEY", "payledger:notifications"),
		NotifyQueueSize:            getEnvInt("NOTIFY_QUEUE_SIZE", 128),
		NotifyTimeout:              getEnvDuration("NOTIFY_TIMEOUT", 5*time.Second),
		BlobBaseURL:                getEnv("BLOB_BASE_URL", ""),
		BlobSigningKey:             getEnv("BLOB_SIGNING_KEY", ""),
		BlobURLTTL:                 getEnvDuration("BLOB_URL_TTL", 15*time.Minute),
		ReferralCreditAmount:       getEnvDecimal("REFERRAL_CREDIT_AMOUNT", decimal.NewFromInt(100)),
		SingleCountLeaveDeductions: getEnvBool("SINGLE_COUNT_LEAVE_DEDUCTIONS", false),
		PayslipCurrency:            getEnv("PAYSLIP_CURRENCY", "INR"),
		MetricsEnabled:             getEnvBool("METRICS_ENABLED", true),
		RateLimitPerMinute:         getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		LogLevel:                   getEnv("LOG_LEVEL", "info"),
		LogFormat:                  getEnv("LOG_FORMAT", "json"),
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

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q", StoreDriverPostgres, StoreDriverMemory)
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.StoreDriver == StoreDriverMemory {
			return fmt.Errorf("STORE_DRIVER=memory is not allowed in production")
		}
		if c.BlobBaseURL != "" && strings.TrimSpace(c.BlobSigningKey) == "" {
			return fmt.Errorf("BLOB_SIGNING_KEY must be set when BLOB_BASE_URL is configured in production")
		}
	}
	if c.RunSeed && strings.TrimSpace(c.SeedCompanyName) == "" {
		return fmt.Errorf("SEED_COMPANY_NAME is required when RUN_SEED is set")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.SourceFetchTimeout <= 0 {
		return fmt.Errorf("SOURCE_FETCH_TIMEOUT must be positive")
	}
	if c.SummaryConcurrency <= 0 {
		return fmt.Errorf("SUMMARY_CONCURRENCY must be positive")
	}
	if c.NotifyQueueSize <= 0 {
		return fmt.Errorf("NOTIFY_QUEUE_SIZE must be positive")
	}
	if c.ReferralCreditAmount.IsNegative() {
		return fmt.Errorf("REFERRAL_CREDIT_AMOUNT must not be negative")
	}
	return nil
}
