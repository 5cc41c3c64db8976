package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"quickhost/internal/domain/pricing"
	"quickhost/internal/domain/shared/money"
)

// Blob backends accepted by BLOB_BACKEND.
const (
	BlobFS     = "fs"
	BlobS3     = "s3"
	BlobMemory = "memory"
)

// Config aggregates application configuration values loaded from environment variables.
// Empty MongoURI or KafkaBrokers mean the in-memory fallbacks are used.
type Config struct {
	Env                string
	LogLevel           string
	HTTPAddr           string
	MongoURI           string
	MongoDB            string
	KafkaBrokers       []string
	KafkaTopicPrefix   string
	KafkaClientID      string
	EventSource        string
	IdempotencyTTL     time.Duration
	OutboxPollInterval time.Duration
	RetryBackoff       []time.Duration
	BlobBackend        string
	MediaRoot          string
	S3Endpoint         string
	S3PublicEndpoint   string
	S3AccessKey        string
	S3SecretKey        string
	S3Bucket           string
	S3UseSSL           bool
	S3PublicRead       bool
	Commission         pricing.Commission
	CORSOrigins        []string
}

// Load parses configuration from the current environment.
func Load() (Config, error) {
	cfg := Config{
		Env:              getEnv("APP_ENV", "dev"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		HTTPAddr:         getEnv("HTTP_ADDR", ":8080"),
		MongoURI:         os.Getenv("MONGO_URI"),
		MongoDB:          getEnv("MONGO_DB", "quickhost"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", "qh"),
		KafkaClientID:    getEnv("KAFKA_CLIENT_ID", "quickhost"),
		EventSource:      getEnv("EVENT_SOURCE", "app://quickhost"),
		BlobBackend:      strings.ToLower(getEnv("BLOB_BACKEND", BlobFS)),
		MediaRoot:        getEnv("MEDIA_ROOT", "./media"),
		S3Endpoint:       getEnv("S3_ENDPOINT", "http://localhost:9000"),
		S3PublicEndpoint: getEnv("S3_PUBLIC_ENDPOINT", ""),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", "minioadmin"),
		S3SecretKey:      getEnv("S3_SECRET_KEY", "minioadmin"),
		S3Bucket:         getEnv("S3_BUCKET", "quickhost-media"),
	}
	cfg.KafkaBrokers = splitList(os.Getenv("KAFKA_BROKERS"))
	cfg.CORSOrigins = splitList(getEnv("CORS_ORIGINS", "*"))

	idempotencyTTL, err := parseDurationEnv("IDEMP_TTL", 168*time.Hour)
	if err != nil {
		return Config{}, err
	}
	cfg.IdempotencyTTL = idempotencyTTL

	poll, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)
	if err != nil {
		return Config{}, err
	}
	cfg.OutboxPollInterval = poll

	for _, raw := range splitList(getEnv("RETRY_BACKOFF", "1s,5s,30s")) {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RETRY_BACKOFF component %q: %w", raw, err)
		}
		cfg.RetryBackoff = append(cfg.RetryBackoff, d)
	}

	useSSL, err := parseBoolEnv("S3_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg.S3UseSSL = useSSL
	publicRead, err := parseBoolEnv("S3_PUBLIC_READ", false)
	if err != nil {
		return Config{}, err
	}
	cfg.S3PublicRead = publicRead
	if cfg.S3PublicEndpoint == "" {
		cfg.S3PublicEndpoint = cfg.S3Endpoint
	}

	switch cfg.BlobBackend {
	case BlobFS, BlobS3, BlobMemory:
	default:
		return Config{}, fmt.Errorf("invalid BLOB_BACKEND %q", cfg.BlobBackend)
	}

	commission, err := loadCommission()
	if err != nil {
		return Config{}, err
	}
	cfg.Commission = commission
	return cfg, nil
}

func loadCommission() (pricing.Commission, error) {
	c := pricing.Commission{
		MinRate: new(big.Rat).Set(pricing.DefaultCommission.MinRate),
		MaxRate: new(big.Rat).Set(pricing.DefaultCommission.MaxRate),
		Ceiling: pricing.DefaultCommission.Ceiling,
	}
	var err error
	if c.MinRate, err = parseRateEnv("COMMISSION_MIN_RATE", c.MinRate); err != nil {
		return pricing.Commission{}, err
	}
	if c.MaxRate, err = parseRateEnv("COMMISSION_MAX_RATE", c.MaxRate); err != nil {
		return pricing.Commission{}, err
	}
	if raw := strings.TrimSpace(os.Getenv("COMMISSION_CEILING")); raw != "" {
		ceiling, err := money.ParseAmount(raw)
		if err != nil || ceiling.Amount <= 0 {
			return pricing.Commission{}, fmt.Errorf("invalid COMMISSION_CEILING amount: %q", raw)
		}
		c.Ceiling = ceiling
	}
	if c.MinRate.Cmp(c.MaxRate) > 0 {
		return pricing.Commission{}, fmt.Errorf("COMMISSION_MIN_RATE must not exceed COMMISSION_MAX_RATE")
	}
	return c, nil
}

// parseRateEnv reads a fraction such as "0.03" or "3/100" in [0, 1].
func parseRateEnv(key string, def *big.Rat) (*big.Rat, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	r, ok := new(big.Rat).SetString(raw)
	if !ok || r.Sign() < 0 || r.Cmp(big.NewRat(1, 1)) > 0 {
		return nil, fmt.Errorf("invalid %s rate: %q", key, raw)
	}
	return r, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", key, err)
	}
	return d, nil
}

func parseBoolEnv(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "yes", "y", "on":
		return true, nil
	case "0", "f", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid %s boolean: %q", key, raw)
	}
}
