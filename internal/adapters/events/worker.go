package events

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/viralforge/invoicing-service/internal/contracts"
	"github.com/viralforge/invoicing-service/internal/platform/logger"
	"github.com/viralforge/invoicing-service/internal/ports"
	"go.uber.org/zap"
)

type EventHandler interface {
	HandleEvent(ctx context.Context, event contracts.EventEnvelope) error
}

type Worker struct {
	logger       *zap.Logger
	consumer     ports.EventConsumer
	dlqPublisher ports.DLQPublisher
	handler      EventHandler
	pollInterval time.Duration
	batchSize    int
	nowFn        func() time.Time
}

func NewWorker(log *zap.Logger, consumer ports.EventConsumer, dlqPublisher ports.DLQPublisher, handler EventHandler, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Worker{
		logger:       logger.Component(log, "events.worker", "adapter"),
		consumer:     consumer,
		dlqPublisher: dlqPublisher,
		handler:      handler,
		pollInterval: pollInterval,
		batchSize:    50,
		nowFn:        func() time.Time { return time.Now().UTC() },
	}
}

// Run drains the consumer on every tick until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := w.ProcessBatch(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Error("consumer iteration failed",
					zap.String("operation", "process_batch"),
					zap.String("outcome", "failure"),
					zap.Error(err),
				)
			}
		}
	}
}

// ProcessBatch handles up to batchSize events. Handler failures go to the DLQ
// and do not stop the batch; consumer failures do.
func (w *Worker) ProcessBatch(ctx context.Context) error {
	if w.consumer == nil || w.handler == nil {
		return nil
	}
	for i := 0; i < w.batchSize; i++ {
		event, err := w.consumer.Receive(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			var decodeErr *DecodeError
			if errors.As(err, &decodeErr) {
				w.park(ctx, contracts.EventEnvelope{EventType: decodeErr.Topic}, decodeErr.Topic, decodeErr.Payload, err)
				continue
			}
			return err
		}
		if event == nil {
			continue
		}
		if err := w.handler.HandleEvent(ctx, *event); err != nil {
			w.park(ctx, *event, event.EventType, nil, err)
		}
	}
	return nil
}

// park sends a failed event to the DLQ. raw is set only for messages that
// never decoded; it stays out of Data so the record always marshals.
func (w *Worker) park(ctx context.Context, event contracts.EventEnvelope, sourceTopic string, raw []byte, cause error) {
	w.logger.Error("event handling failed",
		zap.String("operation", "handle_event"),
		zap.String("outcome", "failure"),
		zap.String("event_type", event.EventType),
		zap.String("event_id", event.EventID),
		zap.Error(cause),
	)
	if w.dlqPublisher == nil {
		return
	}
	now := w.nowFn()
	record := contracts.DLQRecord{
		OriginalEvent: event,
		ErrorSummary:  cause.Error(),
		RetryCount:    1,
		FirstSeenAt:   now,
		LastErrorAt:   now,
		SourceTopic:   sourceTopic,
		RawPayload:    raw,
	}
	if err := w.dlqPublisher.PublishDLQ(ctx, record); err != nil {
		w.logger.Error("dlq publish failed", zap.String("event_id", event.EventID), zap.Error(err))
	}
}
