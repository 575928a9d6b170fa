package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContextPrefersScopedLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	scoped := zap.New(core).With(zap.String("request_id", "req-1"))

	ctx := WithContext(context.Background(), scoped)
	FromContext(ctx).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["request_id"] != "req-1" {
		t.Fatalf("expected request_id field, got %v", entries[0].ContextMap())
	}
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	orig := zap.L()
	zap.ReplaceGlobals(zap.New(core))
	defer zap.ReplaceGlobals(orig)

	FromContext(context.Background()).Info("global")
	if logs.Len() != 1 {
		t.Fatalf("expected global logger to receive the entry")
	}
}

func TestComponentTagsModuleAndLayer(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.InfoLevel)
	Component(zap.New(core), "http", "adapter").Info("tagged")

	fields := logs.All()[0].ContextMap()
	if fields["module"] != "http" || fields["layer"] != "adapter" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New("svc", "loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	l, err := New("svc", "debug")
	if err != nil {
		t.Fatalf("build logger: %v", err)
	}
	_ = l.Sync()
}

func TestMaskBearer(t *testing.T) {
	if got := MaskBearer("Bearer abcdefgh"); got != "Bearer ****efgh" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := MaskBearer("abc"); got != "***" {
		t.Fatalf("unexpected short mask %q", got)
	}
	if MaskBearer("  ") != "" {
		t.Fatalf("blank input should stay blank")
	}
}
