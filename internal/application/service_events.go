package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/viralforge/invoicing-service/internal/contracts"
	"github.com/viralforge/invoicing-service/internal/domain"
	"go.uber.org/zap"
)

// HandleEvent drops the tenant's cached admin stats whenever invoices or the
// backend's stats change.
func (s *Service) HandleEvent(ctx context.Context, event contracts.EventEnvelope) error {
	if err := validateEnvelope(event); err != nil {
		s.metrics.RecordEvent(event.EventType, "invalid")
		return err
	}
	switch event.EventType {
	case contracts.EventInvoiceSubmitted:
		var payload contracts.InvoiceSubmittedPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			s.metrics.RecordEvent(event.EventType, "invalid")
			return fmt.Errorf("%w: decode %s payload: %v", domain.ErrInvalidInput, event.EventType, err)
		}
	case contracts.EventStatsRefreshed:
	default:
		s.metrics.RecordEvent(event.EventType, "unsupported")
		return fmt.Errorf("%w: %s", domain.ErrUnsupportedEvent, event.EventType)
	}

	if s.statsCache != nil {
		if err := s.statsCache.Invalidate(ctx, event.TenantID); err != nil {
			s.metrics.RecordEvent(event.EventType, "failure")
			return fmt.Errorf("invalidate stats cache: %w", err)
		}
	}
	s.metrics.RecordEvent(event.EventType, "success")
	s.logger(ctx, "handle_event").Debug("stats cache invalidated",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType),
		zap.String("tenant_id", event.TenantID),
	)
	return nil
}

func validateEnvelope(event contracts.EventEnvelope) error {
	if strings.TrimSpace(event.EventID) == "" || strings.TrimSpace(event.EventType) == "" || event.OccurredAt.IsZero() {
		return fmt.Errorf("%w: incomplete event envelope", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(event.TenantID) == "" {
		return fmt.Errorf("%w: event %s has no tenant", domain.ErrInvalidInput, event.EventID)
	}
	return nil
}
