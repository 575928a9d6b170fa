package ports

import (
	"context"
	"time"

	"github.com/viralforge/invoicing-service/internal/domain"
)

type StatsCache interface {
	Get(ctx context.Context, tenantID, period string) (*domain.AdminStatsSummary, error)
	Put(ctx context.Context, tenantID string, summary domain.AdminStatsSummary, ttl time.Duration) error
	Invalidate(ctx context.Context, tenantID string) error
}

// SubmissionLock is a short-lived mutual exclusion around one submit.
// Acquire returns the holder token, or ok=false when another holder owns the
// key. Release only removes the lock while token still owns it.
type SubmissionLock interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Release(ctx context.Context, key, token string) error
}

type InvoiceNumberSequence interface {
	Next(ctx context.Context, tenantID string, day time.Time) (int64, error)
}
