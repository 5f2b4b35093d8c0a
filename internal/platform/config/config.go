package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Audit backends selectable through AUDIT_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Server captures process level configuration.
type Server struct {
	Addr            string
	JWTSigningKey   string
	PermissionsFile string

	LogLevel  string
	LogFormat string

	AuditBackend      string
	AuditDefaultLimit int
	AuditMaxLimit     int

	AdminRateLimit    float64
	HierarchyMaxDepth int
	ShutdownTimeout   time.Duration
	DatabaseURL       string
	Redis             RedisConfig
}

// RedisConfig holds connection settings for the redis audit backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
// Malformed numbers fall back to their defaults; call Validate before use.
func FromEnv() Server {
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:              envString("HRCORE_ADDR", ":8080"),
		JWTSigningKey:     jwtSigningKey,
		PermissionsFile:   os.Getenv("PERMISSIONS_FILE"),
		LogLevel:          envString("LOG_LEVEL", "info"),
		LogFormat:         envString("LOG_FORMAT", "json"),
		AuditBackend:      strings.ToLower(envString("AUDIT_BACKEND", BackendMemory)),
		AuditDefaultLimit: envInt("AUDIT_DEFAULT_LIMIT", 100),
		AuditMaxLimit:     envInt("AUDIT_MAX_LIMIT", 1000),
		AdminRateLimit:    envFloat("ADMIN_RATE_LIMIT", 10),
		HierarchyMaxDepth: envInt("HIERARCHY_MAX_DEPTH", 1000),
		ShutdownTimeout:   10 * time.Second,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}
}

// Validate reports settings the process cannot start with.
func (s Server) Validate() error {
	switch s.AuditBackend {
	case BackendMemory:
	case BackendPostgres:
		if s.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s audit backend", s.AuditBackend)
		}
	case BackendRedis:
		if s.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required for the %s audit backend", s.AuditBackend)
		}
	default:
		return fmt.Errorf("unknown AUDIT_BACKEND %q", s.AuditBackend)
	}
	if s.AuditDefaultLimit <= 0 || s.AuditMaxLimit <= 0 {
		return fmt.Errorf("audit limits must be positive")
	}
	if s.AuditDefaultLimit > s.AuditMaxLimit {
		return fmt.Errorf("AUDIT_DEFAULT_LIMIT %d exceeds AUDIT_MAX_LIMIT %d", s.AuditDefaultLimit, s.AuditMaxLimit)
	}
	if s.HierarchyMaxDepth <= 0 {
		return fmt.Errorf("HIERARCHY_MAX_DEPTH must be positive")
	}
	if s.AdminRateLimit <= 0 {
		return fmt.Errorf("ADMIN_RATE_LIMIT must be positive")
	}
	return nil
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil {
		return fallback
	}
	return f
}
