// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetAutoMigrate() bool
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
	GetRequestTimeout() time.Duration
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// UmblerConfig provides settings for the messaging provider API.
// Token and organization act as fallback when a bar has no stored credentials.
type UmblerConfig interface {
	GetUmblerBaseURL() string
	GetUmblerAPIToken() string
	GetUmblerOrganizationID() string
	GetUmblerTimeout() time.Duration
	GetUmblerRequestsPerSecond() float64
	GetUmblerMaxRetries() int
}

// ReconciliationConfig provides the knobs of the campaign reconciliation run.
type ReconciliationConfig interface {
	GetDeliveryPageSize() int
	GetDeliveryHardCap() int
	GetDirectoryBatchSize() int
	GetFallbackCoverageRatio() float64
	GetDefaultBarID() int
	GetMinBulkSends() int
	GetAnalysisLocation() *time.Location
	GetListingConcurrency() int
}

// WebhookConfig provides settings for inbound provider webhooks.
type WebhookConfig interface {
	GetWebhookSecret() string
	GetWebhookDedupTTL() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                   string
	HTTPAddr              string
	DatabaseURL           string
	AutoMigrate           bool
	JWTAccessSecret       string
	CORSAllowAll          bool
	CORSOrigins           []string
	CORSAllowCreds        bool
	RequestTimeout        time.Duration
	RedisURL              string
	RedisTLSInsecure      bool
	AsynqQueueName        string
	AsynqConcurrency      int
	UmblerBaseURL         string
	UmblerAPIToken        string
	UmblerOrganizationID  string
	UmblerTimeout         time.Duration
	UmblerRequestsPerSec  float64
	UmblerMaxRetries      int
	DeliveryPageSize      int
	DeliveryHardCap       int
	DirectoryBatchSize    int
	FallbackCoverageRatio float64
	DefaultBarID          int
	MinBulkSends          int
	AnalysisTimezone      string
	AnalysisLocation      *time.Location
	ListingConcurrency    int
	WebhookSecret         string
	WebhookDedupTTL       time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }
func (c *Config) GetAutoMigrate() bool   { return c.AutoMigrate }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string              { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool            { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string         { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool          { return c.CORSAllowCreds }
func (c *Config) GetRequestTimeout() time.Duration { return c.RequestTimeout }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// UmblerConfig implementation
func (c *Config) GetUmblerBaseURL() string            { return c.UmblerBaseURL }
func (c *Config) GetUmblerAPIToken() string           { return c.UmblerAPIToken }
func (c *Config) GetUmblerOrganizationID() string     { return c.UmblerOrganizationID }
func (c *Config) GetUmblerTimeout() time.Duration     { return c.UmblerTimeout }
func (c *Config) GetUmblerRequestsPerSecond() float64 { return c.UmblerRequestsPerSec }
func (c *Config) GetUmblerMaxRetries() int            { return c.UmblerMaxRetries }

// ReconciliationConfig implementation
func (c *Config) GetDeliveryPageSize() int          { return c.DeliveryPageSize }
func (c *Config) GetDeliveryHardCap() int           { return c.DeliveryHardCap }
func (c *Config) GetDirectoryBatchSize() int        { return c.DirectoryBatchSize }
func (c *Config) GetFallbackCoverageRatio() float64 { return c.FallbackCoverageRatio }
func (c *Config) GetDefaultBarID() int              { return c.DefaultBarID }
func (c *Config) GetMinBulkSends() int              { return c.MinBulkSends }
func (c *Config) GetListingConcurrency() int        { return c.ListingConcurrency }
func (c *Config) GetAnalysisLocation() *time.Location {
	if c.AnalysisLocation == nil {
		return time.UTC
	}
	return c.AnalysisLocation
}

// WebhookConfig implementation
func (c *Config) GetWebhookSecret() string          { return c.WebhookSecret }
func (c *Config) GetWebhookDedupTTL() time.Duration { return c.WebhookDedupTTL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	var parseErrs []error
	cfg := &Config{
		Env:                   getEnv("APP_ENV", "development"),
		HTTPAddr:              getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		AutoMigrate:           strings.EqualFold(getEnv("DB_AUTO_MIGRATE", "true"), "true"),
		JWTAccessSecret:       getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:          corsAllowAll,
		CORSOrigins:           corsOrigins,
		CORSAllowCreds:        strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RequestTimeout:        envDuration(&parseErrs, "HTTP_REQUEST_TIMEOUT", "60s"),
		RedisURL:              getEnv("REDIS_URL", ""),
		RedisTLSInsecure:      strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:        getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:      envInt(&parseErrs, "ASYNQ_CONCURRENCY", "10"),
		UmblerBaseURL:         strings.TrimRight(getEnv("UMBLER_BASE_URL", "https://app-utalk.umbler.com/api"), "/"),
		UmblerAPIToken:        getEnv("UMBLER_API_TOKEN", ""),
		UmblerOrganizationID:  getEnv("UMBLER_ORGANIZATION_ID", ""),
		UmblerTimeout:         envDuration(&parseErrs, "UMBLER_TIMEOUT", "20s"),
		UmblerRequestsPerSec:  envFloat(&parseErrs, "UMBLER_REQUESTS_PER_SECOND", "5"),
		UmblerMaxRetries:      envInt(&parseErrs, "UMBLER_MAX_RETRIES", "3"),
		DeliveryPageSize:      envInt(&parseErrs, "RECON_DELIVERY_PAGE_SIZE", "250"),
		DeliveryHardCap:       envInt(&parseErrs, "RECON_DELIVERY_HARD_CAP", "10000"),
		DirectoryBatchSize:    envInt(&parseErrs, "RECON_DIRECTORY_BATCH_SIZE", "500"),
		FallbackCoverageRatio: envFloat(&parseErrs, "RECON_FALLBACK_COVERAGE_RATIO", "0.5"),
		DefaultBarID:          envInt(&parseErrs, "RECON_DEFAULT_BAR_ID", "3"),
		MinBulkSends:          envInt(&parseErrs, "RECON_MIN_BULK_SENDS", "90"),
		AnalysisTimezone:      getEnv("RECON_TIMEZONE", "America/Sao_Paulo"),
		ListingConcurrency:    envInt(&parseErrs, "RECON_LISTING_CONCURRENCY", "5"),
		WebhookSecret:         getEnv("UMBLER_WEBHOOK_SECRET", ""),
		WebhookDedupTTL:       envDuration(&parseErrs, "UMBLER_WEBHOOK_DEDUP_TTL", "24h"),
	}

	if err := errors.Join(parseErrs...); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.DeliveryPageSize <= 0 || cfg.DeliveryHardCap <= 0 {
		return nil, fmt.Errorf("RECON_DELIVERY_PAGE_SIZE and RECON_DELIVERY_HARD_CAP must be positive")
	}
	if cfg.DirectoryBatchSize <= 0 {
		return nil, fmt.Errorf("RECON_DIRECTORY_BATCH_SIZE must be positive")
	}
	if cfg.FallbackCoverageRatio <= 0 || cfg.FallbackCoverageRatio > 1 {
		return nil, fmt.Errorf("RECON_FALLBACK_COVERAGE_RATIO must be in (0, 1]")
	}

	loc, err := time.LoadLocation(cfg.AnalysisTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid RECON_TIMEZONE %q: %w", cfg.AnalysisTimezone, err)
	}
	cfg.AnalysisLocation = loc

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func envDuration(errs *[]error, key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s %q: %w", key, raw, err))
		return 0
	}
	return d
}

func envInt(errs *[]error, key, fallback string) int {
	raw := getEnv(key, fallback)
	result, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s %q: %w", key, raw, err))
		return 0
	}
	return result
}

func envFloat(errs *[]error, key, fallback string) float64 {
	raw := getEnv(key, fallback)
	result, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s %q: %w", key, raw, err))
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
