package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaultsWithRequiredEnv(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend.local/api")
	t.Setenv("JWT_SECRET", "secret")
	for _, name := range []string{"DB_URL", "POSTGRES_URL", "REDIS_URL", "KAFKA_BROKERS", "HTTP_PORT", "GRPC_PORT"} {
		t.Setenv(name, "")
	}

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.HTTPPort != 8080 || cfg.GRPCPort != 9090 {
		t.Fatalf("unexpected ports %d/%d", cfg.HTTPPort, cfg.GRPCPort)
	}
	if cfg.DatabaseURL != "" || cfg.RedisURL != "" || len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("expected optional dependencies to stay empty: %+v", cfg)
	}
	if cfg.StatsCacheTTL != 5*time.Minute || cfg.SubmissionLockTTL != 30*time.Second || cfg.EventPublishTimeout != 5*time.Second {
		t.Fatalf("unexpected ttl defaults: %+v", cfg)
	}
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
service:
  id: invoicing-eu
  http_port: 8181
  log_level: debug
dependencies:
  postgres_url: postgres://file/db
  kafka_brokers: [" k1:9092 ", ""]
  backend_base_url: http://file-backend
  backend_timeout: 3s
auth:
  jwt_issuer: viralforge-auth
invoicing:
  stats_cache_ttl: 90s
  event_publish_timeout: 2s
  max_page_size: 100
`)
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_URL", "postgres://env/db")
	t.Setenv("KAFKA_BROKERS", "a:1, b:2")
	t.Setenv("SUBMISSION_LOCK_TTL", "45s")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.ServiceID != "invoicing-eu" || cfg.HTTPPort != 8181 || cfg.LogLevel != "debug" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.DatabaseURL != "postgres://env/db" {
		t.Fatalf("expected env to win, got %q", cfg.DatabaseURL)
	}
	if strings.Join(cfg.KafkaBrokers, ",") != "a:1,b:2" {
		t.Fatalf("unexpected brokers %v", cfg.KafkaBrokers)
	}
	if cfg.BackendBaseURL != "http://file-backend" || cfg.BackendTimeout != 3*time.Second {
		t.Fatalf("unexpected backend config %q %v", cfg.BackendBaseURL, cfg.BackendTimeout)
	}
	if cfg.StatsCacheTTL != 90*time.Second || cfg.SubmissionLockTTL != 45*time.Second {
		t.Fatalf("unexpected ttls %v %v", cfg.StatsCacheTTL, cfg.SubmissionLockTTL)
	}
	if cfg.EventPublishTimeout != 2*time.Second {
		t.Fatalf("unexpected publish timeout %v", cfg.EventPublishTimeout)
	}
	if cfg.JWTIssuer != "viralforge-auth" || cfg.MaxPageSize != 100 {
		t.Fatalf("unexpected auth/paging config %+v", cfg)
	}
}

func TestLoadConfigRequiresBackendAndSecret(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	t.Setenv("BACKEND_BASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")
	if _, err := LoadConfig(missing); err == nil || !strings.Contains(err.Error(), "BACKEND_BASE_URL") {
		t.Fatalf("expected missing backend error, got %v", err)
	}

	t.Setenv("BACKEND_BASE_URL", "http://backend")
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadConfig(missing); err == nil || !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected missing secret error, got %v", err)
	}
}

func TestLoadConfigRejectsBadFile(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "http://backend")
	t.Setenv("JWT_SECRET", "secret")

	if _, err := LoadConfig(writeConfig(t, "service: [")); err == nil {
		t.Fatalf("expected yaml parse error")
	}
	if _, err := LoadConfig(writeConfig(t, "invoicing:\n  stats_cache_ttl: soon\n")); err == nil {
		t.Fatalf("expected invalid duration error")
	}
}

func TestEnvDurationFallsBack(t *testing.T) {
	t.Setenv("X_DURATION", "nonsense")
	if got := envDuration("X_DURATION", time.Second); got != time.Second {
		t.Fatalf("expected fallback, got %v", got)
	}
	t.Setenv("X_DURATION", "250ms")
	if got := envDuration("X_DURATION", time.Second); got != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", got)
	}
}
