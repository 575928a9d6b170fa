package bootstrap

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/viralforge/invoicing-service/internal/adapters/security"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func memoryEnv(t *testing.T) string {
	t.Helper()
	for _, name := range []string{"DB_URL", "POSTGRES_URL", "REDIS_URL", "KAFKA_BROKERS"} {
		t.Setenv(name, "")
	}
	t.Setenv("BACKEND_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("JWT_SECRET", "runtime-secret")
	t.Setenv("APP_ENV", "test")
	t.Setenv("HTTP_PORT", "0")
	t.Setenv("GRPC_PORT", "0")
	return filepath.Join(t.TempDir(), "missing.yaml")
}

func TestNewRuntimeFallsBackToInProcessAdapters(t *testing.T) {
	rt, err := NewRuntime(context.Background(), memoryEnv(t))
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	defer rt.cleanupFn(context.Background())

	if !rt.inProcessEvents {
		t.Fatalf("expected in-process events without kafka")
	}
	rec := httptest.NewRecorder()
	rt.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected readyz 200, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	rt.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/invoices/next-number", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestRunAPIStopsOnContextCancel(t *testing.T) {
	rt, err := NewRuntime(context.Background(), memoryEnv(t))
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- rt.RunAPI(ctx) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run api: %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatalf("runtime did not shut down")
	}
}

func TestNewRuntimeRejectsUnreachableRedis(t *testing.T) {
	path := memoryEnv(t)
	t.Setenv("REDIS_URL", "redis://127.0.0.1:1/0")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := NewRuntime(ctx, path); err == nil {
		t.Fatalf("expected redis connect failure")
	}
}

func TestAnnounceDevTokenKeepsTokenOutOfLogs(t *testing.T) {
	t.Parallel()
	verifier, err := security.NewHMACVerifier("dev-secret", "")
	if err != nil {
		t.Fatalf("new verifier: %v", err)
	}
	core, logs := observer.New(zapcore.InfoLevel)
	var out bytes.Buffer
	if err := announceDevToken(verifier, &out, zap.New(core)); err != nil {
		t.Fatalf("announce: %v", err)
	}

	token := strings.TrimSpace(strings.TrimPrefix(out.String(), "development bearer token (12h): "))
	claims, err := verifier.Verify(context.Background(), token)
	if err != nil || claims.Role != "admin" {
		t.Fatalf("printed token should verify as admin: %+v %v", claims, err)
	}
	entries := logs.FilterMessage("development bearer token issued").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	logged := entries[0].ContextMap()["token"].(string)
	if logged == token || strings.Contains(logged, token[:len(token)-4]) {
		t.Fatalf("structured log must only carry the masked token, got %q", logged)
	}
	if !strings.HasSuffix(logged, token[len(token)-4:]) {
		t.Fatalf("masked token should keep its last four characters, got %q", logged)
	}
}
