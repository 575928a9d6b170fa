package ports

import (
	"context"
	"time"

	"github.com/viralforge/invoicing-service/internal/domain"
)

type IdempotencyRecord struct {
	Key          string
	RequestHash  string
	Status       string
	ResponseCode int
	ResponseBody []byte
	ExpiresAt    time.Time
}

const (
	IdempotencyPending   = "PENDING"
	IdempotencyCompleted = "COMPLETED"
)

type IdempotencyRepository interface {
	Get(ctx context.Context, key string, now time.Time) (*IdempotencyRecord, error)
	Reserve(ctx context.Context, key, requestHash string, expiresAt time.Time) error
	Complete(ctx context.Context, key string, responseCode int, responseBody []byte, at time.Time) error
	Release(ctx context.Context, key string) error
}

type SubmissionQuery struct {
	TenantID  string
	Outcome   string
	Operation string
	Limit     int
	Offset    int
}

type SubmissionRepository interface {
	Record(ctx context.Context, submission domain.Submission) error
	List(ctx context.Context, query SubmissionQuery) ([]domain.Submission, int, error)
}
