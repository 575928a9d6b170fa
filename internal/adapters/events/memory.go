package events

import (
	"context"
	"io"
	"sync"

	"github.com/viralforge/invoicing-service/internal/contracts"
	"go.uber.org/zap"
)

type MemoryConsumer struct {
	mu     sync.Mutex
	events []contracts.EventEnvelope
}

func NewMemoryConsumer() *MemoryConsumer { return &MemoryConsumer{events: []contracts.EventEnvelope{}} }

func (c *MemoryConsumer) Seed(events ...contracts.EventEnvelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, events...)
}

func (c *MemoryConsumer) Receive(_ context.Context) (*contracts.EventEnvelope, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.events) == 0 {
		return nil, io.EOF
	}
	e := c.events[0]
	c.events = c.events[1:]
	return &e, nil
}

const memoryPublisherHistory = 1000

// MemoryPublisher keeps the most recent published events and, when a consumer is attached,
// feeds them straight back into it so a single-process runtime still
// invalidates its caches.
type MemoryPublisher struct {
	mu       sync.Mutex
	Events   []contracts.EventEnvelope
	consumer *MemoryConsumer
}

func NewMemoryPublisher(consumer *MemoryConsumer) *MemoryPublisher {
	return &MemoryPublisher{Events: []contracts.EventEnvelope{}, consumer: consumer}
}

func (p *MemoryPublisher) Publish(_ context.Context, event contracts.EventEnvelope) error {
	p.mu.Lock()
	p.Events = append(p.Events, event)
	if len(p.Events) > memoryPublisherHistory {
		p.Events = append([]contracts.EventEnvelope(nil), p.Events[len(p.Events)-memoryPublisherHistory:]...)
	}
	p.mu.Unlock()
	if p.consumer != nil {
		p.consumer.Seed(event)
	}
	return nil
}

func (p *MemoryPublisher) Published() []contracts.EventEnvelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]contracts.EventEnvelope(nil), p.Events...)
}

type LoggingDLQPublisher struct {
	logger *zap.Logger
}

func NewLoggingDLQPublisher(logger *zap.Logger) *LoggingDLQPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingDLQPublisher{logger: logger}
}

func (p *LoggingDLQPublisher) PublishDLQ(_ context.Context, record contracts.DLQRecord) error {
	p.logger.Warn("event parked in dlq",
		zap.String("module", "events"),
		zap.String("layer", "adapter"),
		zap.String("event_id", record.OriginalEvent.EventID),
		zap.String("event_type", record.OriginalEvent.EventType),
		zap.String("source_topic", record.SourceTopic),
		zap.String("error", record.ErrorSummary),
		zap.Int("raw_payload_bytes", len(record.RawPayload)),
	)
	return nil
}
