package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/viralforge/invoicing-service/internal/domain"
)

const keyPrefix = "invoicing"

// Connect initializes a Redis client from URL or host:port input and pings it.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func statsKey(tenantID, period string) string {
	return keyPrefix + ":stats:" + tenantID + ":" + period
}

// statsIndexKey is a set of every cached period for a tenant, so invalidation
// never needs a keyspace scan.
func statsIndexKey(tenantID string) string {
	return keyPrefix + ":stats-index:" + tenantID
}

func lockKey(key string) string {
	return keyPrefix + ":lock:" + key
}

func sequenceKey(tenantID string, day time.Time) string {
	return keyPrefix + ":invoice-seq:" + tenantID + ":" + day.UTC().Format("20060102")
}

type RedisStatsCache struct {
	client redis.UniversalClient
}

func NewRedisStatsCache(client redis.UniversalClient) *RedisStatsCache {
	return &RedisStatsCache{client: client}
}

func (c *RedisStatsCache) Get(ctx context.Context, tenantID, period string) (*domain.AdminStatsSummary, error) {
	raw, err := c.client.Get(ctx, statsKey(tenantID, period)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var out domain.AdminStatsSummary
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode cached stats: %w", err)
	}
	return &out, nil
}

func (c *RedisStatsCache) Put(ctx context.Context, tenantID string, summary domain.AdminStatsSummary, ttl time.Duration) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	key := statsKey(tenantID, summary.Period)
	index := statsIndexKey(tenantID)
	_, err = c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, key, raw, ttl)
		p.SAdd(ctx, index, key)
		p.Expire(ctx, index, ttl+time.Minute)
		return nil
	})
	return err
}

func (c *RedisStatsCache) Invalidate(ctx context.Context, tenantID string) error {
	index := statsIndexKey(tenantID)
	keys, err := c.client.SMembers(ctx, index).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys = append(keys, index)
	return c.client.Del(ctx, keys...).Err()
}

// RedisSubmissionLock is a SET NX lock with a TTL so a crashed holder cannot
// block an invoice forever. The value is a per-holder token and release is a
// compare-and-delete, so a holder that outlived its TTL cannot free the next
// holder's lock.
type RedisSubmissionLock struct {
	client redis.UniversalClient
}

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func NewRedisSubmissionLock(client redis.UniversalClient) *RedisSubmissionLock {
	return &RedisSubmissionLock{client: client}
}

func (l *RedisSubmissionLock) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockKey(key), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

func (l *RedisSubmissionLock) Release(ctx context.Context, key, token string) error {
	if token == "" {
		return nil
	}
	return releaseLockScript.Run(ctx, l.client, []string{lockKey(key)}, token).Err()
}

type RedisInvoiceSequence struct {
	client redis.UniversalClient
}

func NewRedisInvoiceSequence(client redis.UniversalClient) *RedisInvoiceSequence {
	return &RedisInvoiceSequence{client: client}
}

func (s *RedisInvoiceSequence) Next(ctx context.Context, tenantID string, day time.Time) (int64, error) {
	key := sequenceKey(tenantID, day)
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		p.Expire(ctx, key, 48*time.Hour)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
