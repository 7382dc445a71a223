package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration. Postgres, Redis, and Kafka are
// optional: unset values leave the in-memory stores and channel-only audit
// trail in place.
type Config struct {
	Addr          string
	Admin         string
	JWTSigningKey string
	PostgresDSN   string
	RedisURL      string
	KafkaBrokers  []string
	AuditTopic    string
	CacheTTL      time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	addr := os.Getenv("HERDBOOK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	// The deployer account becomes the initial admin.
	admin := os.Getenv("HERDBOOK_ADMIN")
	if admin == "" {
		admin = "admin"
	}

	jwtSigningKey := os.Getenv("HERDBOOK_JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	topic := os.Getenv("HERDBOOK_AUDIT_TOPIC")
	if topic == "" {
		topic = "herdbook.audit"
	}

	var brokers []string
	if raw := os.Getenv("HERDBOOK_KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	return Config{
		Addr:          addr,
		Admin:         admin,
		JWTSigningKey: jwtSigningKey,
		PostgresDSN:   os.Getenv("HERDBOOK_POSTGRES_DSN"),
		RedisURL:      os.Getenv("HERDBOOK_REDIS_URL"),
		KafkaBrokers:  brokers,
		AuditTopic:    topic,
		CacheTTL:      5 * time.Minute,
	}
}
