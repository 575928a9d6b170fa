package ports

import (
	"context"

	"github.com/viralforge/invoicing-service/internal/contracts"
)

type EventPublisher interface {
	Publish(ctx context.Context, event contracts.EventEnvelope) error
}

type EventConsumer interface {
	Receive(ctx context.Context) (*contracts.EventEnvelope, error)
}

type DLQPublisher interface {
	PublishDLQ(ctx context.Context, record contracts.DLQRecord) error
}
