package cache

import (
	"context"
	"testing"
	"time"
)

func TestKeysAreTenantScoped(t *testing.T) {
	t.Parallel()
	if got := statsKey("t1", "30d"); got != "invoicing:stats:t1:30d" {
		t.Fatalf("unexpected stats key %s", got)
	}
	if got := statsIndexKey("t1"); got != "invoicing:stats-index:t1" {
		t.Fatalf("unexpected index key %s", got)
	}
	if got := lockKey("submit:t1:number:INV-1"); got != "invoicing:lock:submit:t1:number:INV-1" {
		t.Fatalf("unexpected lock key %s", got)
	}
	day := time.Date(2026, 7, 8, 23, 30, 0, 0, time.FixedZone("X", -3*3600))
	if got := sequenceKey("t1", day); got != "invoicing:invoice-seq:t1:20260709" {
		t.Fatalf("sequence key should use the UTC day, got %s", got)
	}
}

func TestConnectRejectsBadURL(t *testing.T) {
	t.Parallel()
	if _, err := Connect(context.Background(), "redis://:bad:port:x"); err == nil {
		t.Fatalf("expected parse error")
	}
}
