package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		for _, k := range []string{"HRCORE_ADDR", "AUDIT_BACKEND", "AUDIT_DEFAULT_LIMIT", "AUDIT_MAX_LIMIT", "HIERARCHY_MAX_DEPTH", "ADMIN_RATE_LIMIT", "LOG_FORMAT"} {
			t.Setenv(k, "")
		}
		cfg := FromEnv()
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, BackendMemory, cfg.AuditBackend)
		assert.Equal(t, 100, cfg.AuditDefaultLimit)
		assert.Equal(t, 1000, cfg.AuditMaxLimit)
		assert.Equal(t, 1000, cfg.HierarchyMaxDepth)
		assert.Equal(t, 10.0, cfg.AdminRateLimit)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.NotEmpty(t, cfg.JWTSigningKey)
		require.NoError(t, cfg.Validate())
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv("HRCORE_ADDR", ":9090")
		t.Setenv("AUDIT_BACKEND", "Postgres")
		t.Setenv("DATABASE_URL", "postgres://hr@localhost/hr")
		t.Setenv("AUDIT_DEFAULT_LIMIT", "50")
		t.Setenv("AUDIT_MAX_LIMIT", "not-a-number")
		cfg := FromEnv()
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, BackendPostgres, cfg.AuditBackend)
		assert.Equal(t, 50, cfg.AuditDefaultLimit)
		assert.Equal(t, 1000, cfg.AuditMaxLimit)
		require.NoError(t, cfg.Validate())
	})
}

func TestValidate(t *testing.T) {
	base := func() Server {
		return Server{AuditBackend: BackendMemory, AuditDefaultLimit: 100, AuditMaxLimit: 1000, HierarchyMaxDepth: 10, AdminRateLimit: 1}
	}

	tests := []struct {
		name   string
		mutate func(*Server)
	}{
		{"unknown backend", func(s *Server) { s.AuditBackend = "kafka" }},
		{"postgres without dsn", func(s *Server) { s.AuditBackend = BackendPostgres }},
		{"redis without url", func(s *Server) { s.AuditBackend = BackendRedis }},
		{"default above max", func(s *Server) { s.AuditDefaultLimit = 2000 }},
		{"zero depth", func(s *Server) { s.HierarchyMaxDepth = 0 }},
		{"zero rate", func(s *Server) { s.AdminRateLimit = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := base()
	cfg.AuditBackend = BackendRedis
	cfg.Redis.URL = "redis://localhost:6379/0"
	assert.NoError(t, cfg.Validate())
}
