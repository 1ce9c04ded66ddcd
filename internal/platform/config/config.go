package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures everything the campaign service needs at boot. FromEnv keeps
// main lean; every value has a development default so `go run ./cmd/server`
// works without any environment.
type Server struct {
	Addr          string
	JWTSigningKey string

	// PostgresDSN selects the persistent store; empty means in-memory stores.
	PostgresDSN string

	Redis RedisConfig

	Kafka KafkaConfig

	Invoice InvoiceConfig

	// InvoiceTTL is the validity window of a pledge invoice; a pledge whose
	// invoice lapses unpaid becomes expired.
	InvoiceTTL time.Duration

	// SettleInterval is how often the settlement watcher polls the invoice
	// backend for pending pledges.
	SettleInterval time.Duration

	// SweepInterval is how often overdue pending pledges are marked expired.
	SweepInterval time.Duration

	// CampaignCacheTTL bounds staleness of the Redis campaign read cache.
	CampaignCacheTTL time.Duration
}

// RedisConfig carries go-redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the pledge event publisher. Empty brokers means the
// in-memory publisher is used instead.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// InvoiceConfig points at the Lightning invoice backend (LNbits-compatible
// REST API). Empty URL selects the in-process fake, which settles nothing.
type InvoiceConfig struct {
	URL    string
	APIKey string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	return Server{
		Addr:          envString("EVENTO_ADDR", ":8080"),
		JWTSigningKey: envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: envList("KAFKA_BROKERS"),
			Topic:   envString("KAFKA_PLEDGE_TOPIC", "campaign.pledges"),
		},
		Invoice: InvoiceConfig{
			URL:    os.Getenv("INVOICE_API_URL"),
			APIKey: os.Getenv("INVOICE_API_KEY"),
		},
		InvoiceTTL:       envDuration("INVOICE_TTL", 10*time.Minute),
		SettleInterval:   envDuration("SETTLE_INTERVAL", 2*time.Second),
		SweepInterval:    envDuration("SWEEP_INTERVAL", 30*time.Second),
		CampaignCacheTTL: envDuration("CAMPAIGN_CACHE_TTL", 30*time.Second),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
