package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/viralforge/invoicing-service/internal/domain"
	"github.com/viralforge/invoicing-service/internal/ports"
	"go.uber.org/zap"
)

func hashPayload(v any) string {
	raw, _ := json.Marshal(v)
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func idempotencyKey(actor Actor) string {
	return actor.TenantID + ":" + strings.TrimSpace(actor.IdempotencyKey)
}

// runIdempotent executes run at most once per tenant and Idempotency-Key.
// A completed key replays the stored response; a key reused with a different
// payload is a conflict; a key still pending is reported as in flight.
func runIdempotent[T any](ctx context.Context, s *Service, actor Actor, request any, responseCode int, run func(context.Context) (T, error)) (T, error) {
	var zero T
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return zero, domain.ErrIdempotencyRequired
	}
	key := idempotencyKey(actor)
	hash := hashPayload(request)
	now := s.nowFn()

	rec, err := s.idempotency.Get(ctx, key, now)
	if err != nil {
		return zero, fmt.Errorf("load idempotency record: %w", err)
	}
	if rec != nil {
		if rec.RequestHash != hash {
			return zero, domain.ErrIdempotencyConflict
		}
		if rec.Status != ports.IdempotencyCompleted {
			return zero, domain.ErrSubmissionInFlight
		}
		var replay T
		if err := json.Unmarshal(rec.ResponseBody, &replay); err != nil {
			return zero, fmt.Errorf("decode idempotent replay: %w", err)
		}
		return replay, nil
	}

	if err := s.idempotency.Reserve(ctx, key, hash, now.Add(s.cfg.IdempotencyTTL)); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return zero, domain.ErrSubmissionInFlight
		}
		return zero, fmt.Errorf("reserve idempotency key: %w", err)
	}

	out, err := run(ctx)
	if err != nil {
		if relErr := s.idempotency.Release(ctx, key); relErr != nil {
			s.logger(ctx, "idempotency_release").Warn("release idempotency key failed", zap.Error(relErr))
		}
		return zero, err
	}
	body, err := json.Marshal(out)
	if err != nil {
		return out, nil
	}
	if err := s.idempotency.Complete(ctx, key, responseCode, body, s.nowFn()); err != nil {
		s.logger(ctx, "idempotency_complete").Warn("complete idempotency key failed", zap.Error(err))
	}
	return out, nil
}

func requireTenant(actor Actor) error {
	if strings.TrimSpace(actor.SubjectID) == "" || strings.TrimSpace(actor.TenantID) == "" {
		return domain.ErrUnauthorized
	}
	return nil
}

func requireAdmin(actor Actor) error {
	if err := requireTenant(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}
