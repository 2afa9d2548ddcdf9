package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration. FromEnv builds it from
// environment variables so main stays lean.
type Config struct {
	Addr              string
	PostgresURL       string
	RedisURL          string
	KafkaBrokers      []string
	AuditTopic        string
	NotificationTopic string
	JWTSigningKey     string

	// AuditRetentionDays is the sweep horizon used when cleaning expired
	// ledger entries. Per-entry retention policies still extend it.
	AuditRetentionDays int

	// RetentionSweepInterval controls how often the audit retention worker
	// runs its cleanup pass.
	RetentionSweepInterval time.Duration
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// FromEnv builds a Config from environment variables with dev defaults.
func FromEnv() Config {
	cfg := Config{
		Addr:                   getenv("PEOPLEOPS_ADDR", ":8080"),
		PostgresURL:            os.Getenv("PEOPLEOPS_POSTGRES_URL"),
		RedisURL:               os.Getenv("PEOPLEOPS_REDIS_URL"),
		AuditTopic:             getenv("PEOPLEOPS_AUDIT_TOPIC", "peopleops.audit"),
		NotificationTopic:      getenv("PEOPLEOPS_NOTIFICATION_TOPIC", "peopleops.notifications"),
		JWTSigningKey:          getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		AuditRetentionDays:     getInt("PEOPLEOPS_AUDIT_RETENTION_DAYS", 365),
		RetentionSweepInterval: getDuration("PEOPLEOPS_RETENTION_SWEEP_INTERVAL", 24*time.Hour),
		ShutdownTimeout:        getDuration("PEOPLEOPS_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
	if brokers := os.Getenv("PEOPLEOPS_KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return n
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	// Accept bare seconds for operator convenience.
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
