package application

import (
	"context"
	"fmt"

	"github.com/viralforge/invoicing-service/internal/contracts"
	"github.com/viralforge/invoicing-service/internal/domain"
	"github.com/viralforge/invoicing-service/internal/ports"
	"go.uber.org/zap"
)

// AdminStats returns the aggregated dashboard for one period, served from the
// cache while it is fresh. Cache failures degrade to a backend fetch.
func (s *Service) AdminStats(ctx context.Context, actor Actor, rawPeriod string) (domain.AdminStatsSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.AdminStatsSummary{}, err
	}
	period, err := domain.NormalizePeriod(rawPeriod)
	if err != nil {
		return domain.AdminStatsSummary{}, err
	}
	log := s.logger(ctx, "admin_stats").With(zap.String("period", period))

	if s.statsCache != nil {
		cached, cacheErr := s.statsCache.Get(ctx, actor.TenantID, period)
		switch {
		case cacheErr != nil:
			s.metrics.RecordStatsCache("error")
			log.Warn("stats cache read failed", zap.Error(cacheErr))
		case cached != nil:
			s.metrics.RecordStatsCache("hit")
			return *cached, nil
		default:
			s.metrics.RecordStatsCache("miss")
		}
	}

	stats, err := s.backend.FetchAdminStats(ctx, actor.credentials(), period)
	if err != nil {
		log.Error("fetch admin stats failed", zap.String("outcome", "failure"), zap.Error(err))
		return domain.AdminStatsSummary{}, err
	}
	summary := domain.AggregateAdminStats(stats)
	summary.Period = period

	if s.statsCache != nil {
		if err := s.statsCache.Put(ctx, actor.TenantID, summary, s.cfg.StatsCacheTTL); err != nil {
			log.Warn("stats cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// AggregateStats reduces caller-supplied series without touching the backend.
func (s *Service) AggregateStats(stats domain.AdminStats) (domain.AdminStatsSummary, error) {
	period, err := domain.NormalizePeriod(stats.Period)
	if err != nil {
		return domain.AdminStatsSummary{}, err
	}
	stats.Period = period
	return domain.AggregateAdminStats(stats), nil
}

func (s *Service) ListSubmissions(ctx context.Context, actor Actor, input ListSubmissionsInput) ([]domain.Submission, contracts.Pagination, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, contracts.Pagination{}, err
	}
	switch domain.SubmissionOutcome(input.Outcome) {
	case "", domain.SubmissionSucceeded, domain.SubmissionFailed:
	default:
		return nil, contracts.Pagination{}, fmt.Errorf("%w: unknown outcome %q", domain.ErrInvalidInput, input.Outcome)
	}
	switch domain.SubmissionOperation(input.Operation) {
	case "", domain.SubmissionCreate, domain.SubmissionUpdate:
	default:
		return nil, contracts.Pagination{}, fmt.Errorf("%w: unknown operation %q", domain.ErrInvalidInput, input.Operation)
	}
	limit := input.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultPageSize
	}
	if limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}

	items, total, err := s.submissions.List(ctx, ports.SubmissionQuery{
		TenantID:  actor.TenantID,
		Outcome:   input.Outcome,
		Operation: input.Operation,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, contracts.Pagination{}, fmt.Errorf("list submissions: %w", err)
	}
	return items, contracts.Pagination{Limit: limit, Offset: offset, Total: total}, nil
}
