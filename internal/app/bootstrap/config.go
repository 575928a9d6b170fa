package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID   string
	Environment string
	LogLevel    string

	HTTPPort int
	GRPCPort int

	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string

	MaxDBConns                 int32
	KafkaConsumerGroup         string
	KafkaTopicInvoiceSubmitted string
	KafkaTopicStatsRefreshed   string
	KafkaTopicDLQ              string
	ConsumerPollInterval       time.Duration

	BackendBaseURL string
	BackendTimeout time.Duration

	JWTSecret string
	JWTIssuer string

	IdempotencyTTL      time.Duration
	SubmissionLockTTL   time.Duration
	StatsCacheTTL       time.Duration
	EventPublishTimeout time.Duration
	DefaultPageSize     int
	MaxPageSize         int
}

type configFile struct {
	Service struct {
		ID          string `yaml:"id"`
		Environment string `yaml:"environment"`
		LogLevel    string `yaml:"log_level"`
		HTTPPort    int    `yaml:"http_port"`
		GRPCPort    int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		PostgresURL                string   `yaml:"postgres_url"`
		RedisURL                   string   `yaml:"redis_url"`
		KafkaBrokers               []string `yaml:"kafka_brokers"`
		KafkaConsumerGroup         string   `yaml:"kafka_consumer_group"`
		KafkaTopicInvoiceSubmitted string   `yaml:"kafka_topic_invoice_submitted"`
		KafkaTopicStatsRefreshed   string   `yaml:"kafka_topic_stats_refreshed"`
		KafkaTopicDLQ              string   `yaml:"kafka_topic_dlq"`
		BackendBaseURL             string   `yaml:"backend_base_url"`
		BackendTimeout             string   `yaml:"backend_timeout"`
	} `yaml:"dependencies"`
	Auth struct {
		JWTIssuer string `yaml:"jwt_issuer"`
	} `yaml:"auth"`
	Invoicing struct {
		IdempotencyTTL      string `yaml:"idempotency_ttl"`
		SubmissionLockTTL   string `yaml:"submission_lock_ttl"`
		StatsCacheTTL       string `yaml:"stats_cache_ttl"`
		EventPublishTimeout string `yaml:"event_publish_timeout"`
		DefaultPageSize     int    `yaml:"default_page_size"`
		MaxPageSize         int    `yaml:"max_page_size"`
	} `yaml:"invoicing"`
}

// LoadConfig applies defaults, then the yaml file (if present), then env.
// Postgres, redis and kafka are optional; when unset the runtime falls back to
// in-process adapters.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:                  "invoicing-service",
		Environment:                "development",
		LogLevel:                   "info",
		HTTPPort:                   8080,
		GRPCPort:                   9090,
		MaxDBConns:                 20,
		KafkaConsumerGroup:         "invoicing-service",
		KafkaTopicInvoiceSubmitted: "invoice.submitted",
		KafkaTopicStatsRefreshed:   "stats.refreshed",
		KafkaTopicDLQ:              "invoicing.dlq",
		ConsumerPollInterval:       2 * time.Second,
		BackendTimeout:             10 * time.Second,
		IdempotencyTTL:             24 * time.Hour,
		SubmissionLockTTL:          30 * time.Second,
		StatsCacheTTL:              5 * time.Minute,
		EventPublishTimeout:        5 * time.Second,
		DefaultPageSize:            50,
		MaxPageSize:                200,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if applyErr := cfg.applyFile(f); applyErr != nil {
			return Config{}, applyErr
		}
	}

	cfg.ServiceID = envOrDefault("SERVICE_ID", cfg.ServiceID)
	cfg.Environment = envOrDefault("APP_ENV", cfg.Environment)
	cfg.LogLevel = envOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.KafkaConsumerGroup = envOrDefault("KAFKA_CONSUMER_GROUP", cfg.KafkaConsumerGroup)
	cfg.KafkaTopicInvoiceSubmitted = envOrDefault("KAFKA_TOPIC_INVOICE_SUBMITTED", cfg.KafkaTopicInvoiceSubmitted)
	cfg.KafkaTopicStatsRefreshed = envOrDefault("KAFKA_TOPIC_STATS_REFRESHED", cfg.KafkaTopicStatsRefreshed)
	cfg.KafkaTopicDLQ = envOrDefault("KAFKA_TOPIC_DLQ", cfg.KafkaTopicDLQ)
	cfg.BackendBaseURL = envOrDefault("BACKEND_BASE_URL", cfg.BackendBaseURL)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.JWTIssuer = envOrDefault("JWT_ISSUER", cfg.JWTIssuer)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.MaxDBConns = int32(envInt("DB_MAX_CONNS", int(cfg.MaxDBConns)))
	cfg.DefaultPageSize = envInt("DEFAULT_PAGE_SIZE", cfg.DefaultPageSize)
	cfg.MaxPageSize = envInt("MAX_PAGE_SIZE", cfg.MaxPageSize)
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.BackendTimeout = envDuration("BACKEND_TIMEOUT", cfg.BackendTimeout)
	cfg.SubmissionLockTTL = envDuration("SUBMISSION_LOCK_TTL", cfg.SubmissionLockTTL)
	cfg.StatsCacheTTL = envDuration("STATS_CACHE_TTL", cfg.StatsCacheTTL)
	cfg.EventPublishTimeout = envDuration("EVENT_PUBLISH_TIMEOUT", cfg.EventPublishTimeout)

	if cfg.BackendBaseURL == "" {
		return Config{}, fmt.Errorf("missing BACKEND_BASE_URL")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing JWT_SECRET")
	}
	if cfg.MaxPageSize < cfg.DefaultPageSize {
		return Config{}, fmt.Errorf("max page size %d is below default page size %d", cfg.MaxPageSize, cfg.DefaultPageSize)
	}
	return cfg, nil
}

func (c *Config) applyFile(f configFile) error {
	if f.Service.ID != "" {
		c.ServiceID = f.Service.ID
	}
	if f.Service.Environment != "" {
		c.Environment = f.Service.Environment
	}
	if f.Service.LogLevel != "" {
		c.LogLevel = f.Service.LogLevel
	}
	if f.Service.HTTPPort > 0 {
		c.HTTPPort = f.Service.HTTPPort
	}
	if f.Service.GRPCPort > 0 {
		c.GRPCPort = f.Service.GRPCPort
	}
	if f.Dependencies.PostgresURL != "" {
		c.DatabaseURL = f.Dependencies.PostgresURL
	}
	if f.Dependencies.RedisURL != "" {
		c.RedisURL = f.Dependencies.RedisURL
	}
	if len(f.Dependencies.KafkaBrokers) > 0 {
		c.KafkaBrokers = trimNonEmpty(f.Dependencies.KafkaBrokers)
	}
	if f.Dependencies.KafkaConsumerGroup != "" {
		c.KafkaConsumerGroup = f.Dependencies.KafkaConsumerGroup
	}
	if f.Dependencies.KafkaTopicInvoiceSubmitted != "" {
		c.KafkaTopicInvoiceSubmitted = f.Dependencies.KafkaTopicInvoiceSubmitted
	}
	if f.Dependencies.KafkaTopicStatsRefreshed != "" {
		c.KafkaTopicStatsRefreshed = f.Dependencies.KafkaTopicStatsRefreshed
	}
	if f.Dependencies.KafkaTopicDLQ != "" {
		c.KafkaTopicDLQ = f.Dependencies.KafkaTopicDLQ
	}
	if f.Dependencies.BackendBaseURL != "" {
		c.BackendBaseURL = f.Dependencies.BackendBaseURL
	}
	if f.Auth.JWTIssuer != "" {
		c.JWTIssuer = f.Auth.JWTIssuer
	}
	if f.Invoicing.DefaultPageSize > 0 {
		c.DefaultPageSize = f.Invoicing.DefaultPageSize
	}
	if f.Invoicing.MaxPageSize > 0 {
		c.MaxPageSize = f.Invoicing.MaxPageSize
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"dependencies.backend_timeout", f.Dependencies.BackendTimeout, &c.BackendTimeout},
		{"invoicing.idempotency_ttl", f.Invoicing.IdempotencyTTL, &c.IdempotencyTTL},
		{"invoicing.submission_lock_ttl", f.Invoicing.SubmissionLockTTL, &c.SubmissionLockTTL},
		{"invoicing.stats_cache_ttl", f.Invoicing.StatsCacheTTL, &c.StatsCacheTTL},
		{"invoicing.event_publish_timeout", f.Invoicing.EventPublishTimeout, &c.EventPublishTimeout},
	}
	for _, d := range durations {
		if strings.TrimSpace(d.raw) == "" {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil || v <= 0 {
			return fmt.Errorf("parse config file: invalid %s %q", d.name, d.raw)
		}
		*d.dst = v
	}
	return nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envCSV(name string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	return trimNonEmpty(strings.Split(raw, ","))
}

func trimNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
