package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"
)

const (
	defaultEnv             = "development"
	defaultHTTPHost        = "0.0.0.0"
	defaultHTTPPort        = 8080
	defaultRedisAddr       = "localhost:6379"
	defaultRedisDB         = 0
	defaultCacheTTLSeconds = 30

	defaultRabbitPrefetch       = 64
	defaultRabbitBatchSize      = 200
	defaultRabbitBatchTimeoutMS = 500
	defaultTicksExchange        = "market.ticks"
	defaultReportsExchange      = "trade.reports"

	defaultDTCCAssetClass       = "CREDITS"
	defaultDTCCMaxSliceAttempts = 20

	defaultLatencyToleranceSeconds = 30
	defaultSpreadScale             = 10000
	defaultConvention              = "spread"
	defaultRecoveryRate            = 0.4
	defaultCouponBps               = 100
)

// Config keeps the runtime configuration for the service.
type Config struct {
	Env        string
	HTTP       HTTPConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Cache      CacheConfig
	RabbitMQ   RabbitMQConfig
	DTCC       DTCCConfig
	Classifier ClassifierConfig
}

// HTTPConfig holds HTTP server related settings.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr renders the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// PostgresConfig stores database connection parameters.
type PostgresConfig struct {
	DSN string
}

// RedisConfig stores Redis connection parameters.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// CacheConfig stores cache behavior.
type CacheConfig struct {
	TTLSeconds int
}

// RabbitMQConfig stores broker connection and batching parameters.
type RabbitMQConfig struct {
	URL             string
	TicksExchange   string
	ReportsExchange string
	Prefetch        int
	BatchSize       int
	BatchTimeout    time.Duration
}

// DTCCConfig stores regulatory repository retrieval parameters. Empty URL
// fields fall back to the fetcher's built-in endpoints.
type DTCCConfig struct {
	SliceBaseURL     string
	EODBaseURL       string
	AssetClass       string
	MaxSliceAttempts int
	Referer          string
}

// ClassifierConfig stores classification engine settings.
type ClassifierConfig struct {
	LatencyTolerance time.Duration
	SpreadScale      float64
	Convention       string
	TargetUPI        string
	ProductPattern   *regexp.Regexp
	Ticker           string
	RecoveryRate     float64
	CouponBps        float64
}

// Load builds Config from environment variables.
func Load() (*Config, error) {
	host := getString("HTTP_HOST", defaultHTTPHost)
	port, err := getInt("HTTP_PORT", defaultHTTPPort)
	if err != nil {
		return nil, fmt.Errorf("parse HTTP_PORT: %w", err)
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		return nil, errors.New("DATABASE_DSN is required")
	}

	redisDB, err := getInt("REDIS_DB", defaultRedisDB)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_DB: %w", err)
	}

	cacheTTL, err := getInt("CACHE_TTL_SECONDS", defaultCacheTTLSeconds)
	if err != nil {
		return nil, fmt.Errorf("parse CACHE_TTL_SECONDS: %w", err)
	}

	rabbit, err := loadRabbitMQ()
	if err != nil {
		return nil, err
	}

	dtcc, err := loadDTCC()
	if err != nil {
		return nil, err
	}

	classifier, err := loadClassifier()
	if err != nil {
		return nil, err
	}

	return &Config{
		Env:  getString("APP_ENV", defaultEnv),
		HTTP: HTTPConfig{Host: host, Port: port},
		Postgres: PostgresConfig{
			DSN: dsn,
		},
		Redis: RedisConfig{
			Addr:     getString("REDIS_ADDR", defaultRedisAddr),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Cache: CacheConfig{
			TTLSeconds: cacheTTL,
		},
		RabbitMQ:   rabbit,
		DTCC:       dtcc,
		Classifier: classifier,
	}, nil
}

func loadRabbitMQ() (RabbitMQConfig, error) {
	prefetch, err := getInt("RABBITMQ_PREFETCH", defaultRabbitPrefetch)
	if err != nil {
		return RabbitMQConfig{}, fmt.Errorf("parse RABBITMQ_PREFETCH: %w", err)
	}
	batchSize, err := getInt("RABBITMQ_BATCH_SIZE", defaultRabbitBatchSize)
	if err != nil {
		return RabbitMQConfig{}, fmt.Errorf("parse RABBITMQ_BATCH_SIZE: %w", err)
	}
	batchTimeoutMS, err := getInt("RABBITMQ_BATCH_TIMEOUT_MS", defaultRabbitBatchTimeoutMS)
	if err != nil {
		return RabbitMQConfig{}, fmt.Errorf("parse RABBITMQ_BATCH_TIMEOUT_MS: %w", err)
	}
	return RabbitMQConfig{
		URL:             os.Getenv("RABBITMQ_URL"),
		TicksExchange:   getString("RABBITMQ_TICKS_EXCHANGE", defaultTicksExchange),
		ReportsExchange: getString("RABBITMQ_REPORTS_EXCHANGE", defaultReportsExchange),
		Prefetch:        prefetch,
		BatchSize:       batchSize,
		BatchTimeout:    time.Duration(batchTimeoutMS) * time.Millisecond,
	}, nil
}

func loadDTCC() (DTCCConfig, error) {
	attempts, err := getInt("DTCC_MAX_SLICE_ATTEMPTS", defaultDTCCMaxSliceAttempts)
	if err != nil {
		return DTCCConfig{}, fmt.Errorf("parse DTCC_MAX_SLICE_ATTEMPTS: %w", err)
	}
	return DTCCConfig{
		SliceBaseURL:     os.Getenv("DTCC_SLICE_BASE_URL"),
		EODBaseURL:       os.Getenv("DTCC_EOD_BASE_URL"),
		AssetClass:       getString("DTCC_ASSET_CLASS", defaultDTCCAssetClass),
		MaxSliceAttempts: attempts,
		Referer:          os.Getenv("DTCC_REFERER"),
	}, nil
}

func loadClassifier() (ClassifierConfig, error) {
	toleranceSeconds, err := getInt("CLASSIFIER_LATENCY_TOLERANCE_SECONDS", defaultLatencyToleranceSeconds)
	if err != nil {
		return ClassifierConfig{}, fmt.Errorf("parse CLASSIFIER_LATENCY_TOLERANCE_SECONDS: %w", err)
	}
	spreadScale, err := getFloat("CLASSIFIER_SPREAD_SCALE", defaultSpreadScale)
	if err != nil {
		return ClassifierConfig{}, fmt.Errorf("parse CLASSIFIER_SPREAD_SCALE: %w", err)
	}
	recoveryRate, err := getFloat("CLASSIFIER_RECOVERY_RATE", defaultRecoveryRate)
	if err != nil {
		return ClassifierConfig{}, fmt.Errorf("parse CLASSIFIER_RECOVERY_RATE: %w", err)
	}
	couponBps, err := getFloat("CLASSIFIER_COUPON_BPS", defaultCouponBps)
	if err != nil {
		return ClassifierConfig{}, fmt.Errorf("parse CLASSIFIER_COUPON_BPS: %w", err)
	}

	var pattern *regexp.Regexp
	if raw := os.Getenv("CLASSIFIER_PRODUCT_PATTERN"); raw != "" {
		pattern, err = regexp.Compile(raw)
		if err != nil {
			return ClassifierConfig{}, fmt.Errorf("compile CLASSIFIER_PRODUCT_PATTERN: %w", err)
		}
	}

	return ClassifierConfig{
		LatencyTolerance: time.Duration(toleranceSeconds) * time.Second,
		SpreadScale:      spreadScale,
		Convention:       getString("CLASSIFIER_CONVENTION", defaultConvention),
		TargetUPI:        os.Getenv("CLASSIFIER_TARGET_UPI"),
		ProductPattern:   pattern,
		Ticker:           os.Getenv("CLASSIFIER_TICKER"),
		RecoveryRate:     recoveryRate,
		CouponBps:        couponBps,
	}, nil
}

func getString(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to int: %w", key, value, err)
	}
	return parsed, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("convert %s value %q to float: %w", key, value, err)
	}
	return parsed, nil
}
