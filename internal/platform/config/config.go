package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures task-service level configuration. Loaded once at startup;
// immutable thereafter.
type Server struct {
	Addr          string
	JWTSigningKey string

	// Downstream base URLs.
	MembershipBaseURL string
	HistoryBaseURL    string

	// PropagatedHeaders is the allow-list of inbound header names forwarded
	// on every outbound inter-service call. Deployment-time configuration,
	// never mutated per request.
	PropagatedHeaders []string

	// Client timeouts for the two network suspension points.
	MembershipTimeout time.Duration
	HistoryTimeout    time.Duration

	// MembershipCacheTTL bounds how long a positive membership verdict may
	// be served from cache.
	MembershipCacheTTL time.Duration

	PostgresDSN string
	Redis       RedisConfig

	// KafkaBrokers enables the optional event stream mirror when non-empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// History captures audit-store service configuration.
type History struct {
	Addr        string
	PostgresDSN string
}

// RedisConfig carries connection settings for the membership cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// OrgHeader is the inbound header naming the organization a caller acts in.
const OrgHeader = "X-Org-ID"

// DefaultPropagatedHeaders covers caller identity and organization; anything
// else stays on the inbound request.
var DefaultPropagatedHeaders = []string{"Authorization", OrgHeader}

// FromEnv builds the task-service config from environment variables so main
// stays lean. Defaults suit local development.
func FromEnv() Server {
	return Server{
		Addr:               envOr("TASKHUB_ADDR", ":8080"),
		JWTSigningKey:      envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		MembershipBaseURL:  envOr("MEMBERSHIP_BASE_URL", "http://localhost:8082"),
		HistoryBaseURL:     envOr("HISTORY_BASE_URL", "http://localhost:8081"),
		PropagatedHeaders:  envList("PROPAGATED_HEADERS", DefaultPropagatedHeaders),
		MembershipTimeout:  envDuration("MEMBERSHIP_TIMEOUT", 3*time.Second),
		HistoryTimeout:     envDuration("HISTORY_TIMEOUT", 5*time.Second),
		MembershipCacheTTL: envDuration("MEMBERSHIP_CACHE_TTL", 5*time.Minute),
		PostgresDSN:        os.Getenv("TASKHUB_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("TASKHUB_REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		KafkaBrokers: envList("KAFKA_BROKERS", nil),
		KafkaTopic:   envOr("KAFKA_AUDIT_TOPIC", "taskhub.task-events"),
	}
}

// HistoryFromEnv builds the audit-store service config.
func HistoryFromEnv() History {
	return History{
		Addr:        envOr("THISTORY_ADDR", ":8081"),
		PostgresDSN: os.Getenv("THISTORY_POSTGRES_DSN"),
	}
}

func envOr(key, fallback string) string {
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

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
