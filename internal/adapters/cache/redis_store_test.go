package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/viralforge/invoicing-service/internal/domain"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return srv, client
}

func TestConnectPingsServer(t *testing.T) {
	t.Parallel()
	srv := miniredis.RunT(t)
	client, err := Connect(context.Background(), "redis://"+srv.Addr())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	_ = client.Close()

	if _, err := Connect(context.Background(), "127.0.0.1:1"); err == nil {
		t.Fatalf("expected ping failure against a closed port")
	}
}

func TestRedisStatsCacheRoundTripAndInvalidate(t *testing.T) {
	t.Parallel()
	srv, client := newMiniRedis(t)
	cache := NewRedisStatsCache(client)
	ctx := context.Background()

	summary := domain.AggregateAdminStats(domain.AdminStats{
		Period: "7d",
		Users:  []domain.StatPoint{{Value: 10}, {Value: 20}},
	})
	if err := cache.Put(ctx, "t1", summary, time.Minute); err != nil {
		t.Fatalf("put: %v", err)
	}
	other := summary
	other.Period = "30d"
	if err := cache.Put(ctx, "t1", other, time.Minute); err != nil {
		t.Fatalf("put second period: %v", err)
	}
	if err := cache.Put(ctx, "t2", summary, time.Minute); err != nil {
		t.Fatalf("put other tenant: %v", err)
	}

	got, err := cache.Get(ctx, "t1", "7d")
	if err != nil || got == nil {
		t.Fatalf("get: %v %v", got, err)
	}
	if got.Users.Max != 20 || got.Users.TrendPercent == nil || *got.Users.TrendPercent != 100 {
		t.Fatalf("unexpected cached summary %+v", got.Users)
	}
	if ttl := srv.TTL(statsKey("t1", "7d")); ttl != time.Minute {
		t.Fatalf("expected entry ttl of 1m, got %v", ttl)
	}

	if err := cache.Invalidate(ctx, "t1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	for _, period := range []string{"7d", "30d"} {
		if got, err := cache.Get(ctx, "t1", period); err != nil || got != nil {
			t.Fatalf("period %s should be gone, got %v %v", period, got, err)
		}
	}
	if srv.Exists(statsIndexKey("t1")) {
		t.Fatalf("index key should be removed")
	}
	if got, _ := cache.Get(ctx, "t2", "7d"); got == nil {
		t.Fatalf("other tenants must keep their entries")
	}

	srv.FastForward(2 * time.Minute)
	if got, _ := cache.Get(ctx, "t2", "7d"); got != nil {
		t.Fatalf("entry should expire with its ttl")
	}
}

func TestRedisStatsCacheRejectsCorruptEntry(t *testing.T) {
	t.Parallel()
	srv, client := newMiniRedis(t)
	if err := srv.Set(statsKey("t1", "7d"), "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := NewRedisStatsCache(client).Get(context.Background(), "t1", "7d"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestRedisSubmissionLockOwnership(t *testing.T) {
	t.Parallel()
	srv, client := newMiniRedis(t)
	locks := NewRedisSubmissionLock(client)
	ctx := context.Background()
	key := "submit:t1:number:INV-1"

	first, ok, err := locks.Acquire(ctx, key, time.Second)
	if err != nil || !ok || first == "" {
		t.Fatalf("first acquire: %q %v %v", first, ok, err)
	}
	if _, ok, err := locks.Acquire(ctx, key, time.Second); err != nil || ok {
		t.Fatalf("second acquire should be refused while held: %v %v", ok, err)
	}

	// The first holder outlives its ttl and a second holder takes over.
	srv.FastForward(2 * time.Second)
	second, ok, err := locks.Acquire(ctx, key, time.Second)
	if err != nil || !ok || second == first {
		t.Fatalf("expected a fresh holder after expiry: %q %v %v", second, ok, err)
	}

	if err := locks.Release(ctx, key, first); err != nil {
		t.Fatalf("stale release: %v", err)
	}
	if got, _ := srv.Get(lockKey(key)); got != second {
		t.Fatalf("stale holder must not free the new lock, value=%q", got)
	}
	if err := locks.Release(ctx, key, ""); err != nil || !srv.Exists(lockKey(key)) {
		t.Fatalf("empty token release must be a no-op: %v", err)
	}

	if err := locks.Release(ctx, key, second); err != nil {
		t.Fatalf("owner release: %v", err)
	}
	if srv.Exists(lockKey(key)) {
		t.Fatalf("owner release should delete the key")
	}
	if _, ok, _ := locks.Acquire(ctx, key, time.Second); !ok {
		t.Fatalf("lock should be free after release")
	}
}

func TestRedisInvoiceSequenceIsPerTenantAndDay(t *testing.T) {
	t.Parallel()
	srv, client := newMiniRedis(t)
	seq := NewRedisInvoiceSequence(client)
	ctx := context.Background()
	day := time.Date(2026, 7, 8, 10, 0, 0, 0, time.UTC)

	for want := int64(1); want <= 3; want++ {
		got, err := seq.Next(ctx, "t1", day)
		if err != nil || got != want {
			t.Fatalf("next: expected %d, got %d %v", want, got, err)
		}
	}
	if got, _ := seq.Next(ctx, "t2", day); got != 1 {
		t.Fatalf("tenants must not share a counter, got %d", got)
	}
	if got, _ := seq.Next(ctx, "t1", day.Add(24*time.Hour)); got != 1 {
		t.Fatalf("a new day restarts the counter, got %d", got)
	}
	if ttl := srv.TTL(sequenceKey("t1", day)); ttl != 48*time.Hour {
		t.Fatalf("expected 48h ttl on the counter, got %v", ttl)
	}
}
