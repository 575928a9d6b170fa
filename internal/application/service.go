package application

import (
	"context"
	"time"

	"github.com/viralforge/invoicing-service/internal/platform/logger"
	"github.com/viralforge/invoicing-service/internal/platform/metrics"
	"github.com/viralforge/invoicing-service/internal/ports"
	"go.uber.org/zap"
)

type Service struct {
	cfg         Config
	backend     ports.InvoiceBackend
	idempotency ports.IdempotencyRepository
	submissions ports.SubmissionRepository
	statsCache  ports.StatsCache
	locks       ports.SubmissionLock
	sequence    ports.InvoiceNumberSequence
	publisher   ports.EventPublisher
	log         *zap.Logger
	metrics     *metrics.Metrics
	nowFn       func() time.Time
}

type Dependencies struct {
	Config      Config
	Backend     ports.InvoiceBackend
	Idempotency ports.IdempotencyRepository
	Submissions ports.SubmissionRepository
	StatsCache  ports.StatsCache
	Locks       ports.SubmissionLock
	Sequence    ports.InvoiceNumberSequence
	Publisher   ports.EventPublisher
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "invoicing-service"
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.SubmissionLockTTL <= 0 {
		cfg.SubmissionLockTTL = 30 * time.Second
	}
	if cfg.StatsCacheTTL <= 0 {
		cfg.StatsCacheTTL = 5 * time.Minute
	}
	if cfg.EventPublishTimeout <= 0 {
		cfg.EventPublishTimeout = 5 * time.Second
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 50
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = 200
	}
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		cfg:         cfg,
		backend:     deps.Backend,
		idempotency: deps.Idempotency,
		submissions: deps.Submissions,
		statsCache:  deps.StatsCache,
		locks:       deps.Locks,
		sequence:    deps.Sequence,
		publisher:   deps.Publisher,
		log:         log,
		metrics:     deps.Metrics,
		nowFn:       func() time.Time { return time.Now().UTC() },
	}
}

// logger prefers the request-scoped logger so request_id travels with every line.
func (s *Service) logger(ctx context.Context, operation string) *zap.Logger {
	base := s.log
	if scoped, ok := logger.Lookup(ctx); ok {
		base = scoped
	}
	return logger.Component(base, "application", "service").With(zap.String("operation", operation))
}
