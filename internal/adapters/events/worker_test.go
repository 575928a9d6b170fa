package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/viralforge/invoicing-service/internal/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeHandler struct {
	mu      sync.Mutex
	handled []string
	failOn  string
}

func (h *fakeHandler) HandleEvent(_ context.Context, event contracts.EventEnvelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if event.EventID == h.failOn {
		return errors.New("boom")
	}
	h.handled = append(h.handled, event.EventID)
	return nil
}

type recordingDLQ struct {
	mu      sync.Mutex
	records []contracts.DLQRecord
}

func (d *recordingDLQ) PublishDLQ(_ context.Context, record contracts.DLQRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = append(d.records, record)
	return nil
}

type failingConsumer struct{ err error }

func (c failingConsumer) Receive(context.Context) (*contracts.EventEnvelope, error) {
	return nil, c.err
}

func TestProcessBatchParksFailuresAndContinues(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zapcore.InfoLevel)
	consumer := NewMemoryConsumer()
	consumer.Seed(
		contracts.EventEnvelope{EventID: "e1", EventType: contracts.EventInvoiceSubmitted},
		contracts.EventEnvelope{EventID: "e2", EventType: contracts.EventStatsRefreshed},
		contracts.EventEnvelope{EventID: "e3", EventType: contracts.EventStatsRefreshed},
	)
	handler := &fakeHandler{failOn: "e2"}
	dlq := &recordingDLQ{}
	worker := NewWorker(zap.New(core), consumer, dlq, handler, time.Millisecond)

	if err := worker.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(handler.handled) != 2 || handler.handled[1] != "e3" {
		t.Fatalf("expected e1 and e3 handled, got %v", handler.handled)
	}
	if len(dlq.records) != 1 || dlq.records[0].OriginalEvent.EventID != "e2" || dlq.records[0].ErrorSummary != "boom" {
		t.Fatalf("unexpected dlq records %+v", dlq.records)
	}
	if logs.FilterMessage("event handling failed").Len() != 1 {
		t.Fatalf("expected the failure to be logged")
	}
}

func TestProcessBatchParksUndecodableMessages(t *testing.T) {
	t.Parallel()
	dlq := &recordingDLQ{}
	consumer := &sequenceConsumer{errs: []error{
		&DecodeError{Topic: "invoice.submitted", Payload: []byte("{"), Err: errors.New("unexpected end")},
		io.EOF,
	}}
	worker := NewWorker(nil, consumer, dlq, &fakeHandler{}, time.Millisecond)
	if err := worker.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("process batch: %v", err)
	}
	if len(dlq.records) != 1 || dlq.records[0].SourceTopic != "invoice.submitted" {
		t.Fatalf("expected undecodable message in dlq, got %+v", dlq.records)
	}
	record := dlq.records[0]
	if string(record.RawPayload) != "{" || len(record.OriginalEvent.Data) != 0 {
		t.Fatalf("raw bytes belong in RawPayload, got %+v", record)
	}
	msg, err := dlqMessage(record)
	if err != nil {
		t.Fatalf("undecodable payload should still encode: %v", err)
	}
	var decoded contracts.DLQRecord
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("decode dlq message: %v", err)
	}
	if string(decoded.RawPayload) != "{" || decoded.SourceTopic != "invoice.submitted" {
		t.Fatalf("unexpected dlq message %+v", decoded)
	}
}

type sequenceConsumer struct {
	errs []error
}

func (c *sequenceConsumer) Receive(context.Context) (*contracts.EventEnvelope, error) {
	if len(c.errs) == 0 {
		return nil, io.EOF
	}
	err := c.errs[0]
	c.errs = c.errs[1:]
	return nil, err
}

func TestProcessBatchSurfacesConsumerErrors(t *testing.T) {
	t.Parallel()
	worker := NewWorker(nil, failingConsumer{err: errors.New("broker down")}, nil, &fakeHandler{}, time.Millisecond)
	if err := worker.ProcessBatch(context.Background()); err == nil {
		t.Fatalf("expected consumer error")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()
	consumer := NewMemoryConsumer()
	handler := &fakeHandler{}
	worker := NewWorker(nil, consumer, nil, handler, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	consumer.Seed(contracts.EventEnvelope{EventID: "late", EventType: contracts.EventStatsRefreshed})
	deadline := time.After(2 * time.Second)
	for {
		handler.mu.Lock()
		n := len(handler.handled)
		handler.mu.Unlock()
		if n == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("worker never handled the seeded event")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run should return nil on cancel, got %v", err)
	}
}

func TestMemoryPublisherFeedsConsumer(t *testing.T) {
	t.Parallel()
	consumer := NewMemoryConsumer()
	publisher := NewMemoryPublisher(consumer)
	if err := publisher.Publish(context.Background(), contracts.EventEnvelope{EventID: "e1"}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(publisher.Published()) != 1 {
		t.Fatalf("expected published event to be kept")
	}
	got, err := consumer.Receive(context.Background())
	if err != nil || got.EventID != "e1" {
		t.Fatalf("expected event fed to consumer, got %v %v", got, err)
	}
	if _, err := consumer.Receive(context.Background()); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF on empty consumer, got %v", err)
	}
}

func TestEnvelopeCodec(t *testing.T) {
	t.Parallel()
	event := contracts.EventEnvelope{
		EventID:      "e1",
		EventType:    contracts.EventInvoiceSubmitted,
		OccurredAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		PartitionKey: "tenant-1",
		TenantID:     "tenant-1",
		Data:         []byte(`{"invoice_id":"inv-1"}`),
	}
	msg, err := envelopeMessage("invoicing.invoice-submitted", event)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(msg.Key) != "tenant-1" || msg.Topic != "invoicing.invoice-submitted" {
		t.Fatalf("unexpected message key/topic %s %s", msg.Key, msg.Topic)
	}
	decoded, err := decodeEnvelope(msg.Topic, msg.Value)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.EventID != "e1" || decoded.TenantID != "tenant-1" || string(decoded.Data) != `{"invoice_id":"inv-1"}` {
		t.Fatalf("unexpected decoded envelope %+v", decoded)
	}

	_, err = decodeEnvelope("stats.refreshed", []byte("not json"))
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) || decodeErr.Topic != "stats.refreshed" {
		t.Fatalf("expected decode error, got %v", err)
	}
	fallback, err := decodeEnvelope("stats.refreshed", []byte(`{"event_id":"e2"}`))
	if err != nil || fallback.EventType != "stats.refreshed" {
		t.Fatalf("missing event type should fall back to topic, got %+v %v", fallback, err)
	}
}

func TestKafkaConstructorsValidateInput(t *testing.T) {
	t.Parallel()
	if _, err := NewKafkaPublisher(nil, nil); err == nil {
		t.Fatalf("publisher without brokers should fail")
	}
	if _, err := NewKafkaConsumer([]string{"localhost:9092"}, "", []string{"t"}); err == nil {
		t.Fatalf("consumer without group should fail")
	}
	if _, err := NewKafkaDLQPublisher([]string{"localhost:9092"}, ""); err == nil {
		t.Fatalf("dlq publisher without topic should fail")
	}
	pub, err := NewKafkaPublisher([]string{"localhost:9092"}, map[string]string{contracts.EventInvoiceSubmitted: "invoicing.invoice-submitted"})
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	defer pub.Close()
	if pub.topic(contracts.EventInvoiceSubmitted) != "invoicing.invoice-submitted" || pub.topic("other") != "other" {
		t.Fatalf("unexpected topic routing")
	}
	if pub.writer.BatchTimeout != writerBatchTimeout {
		t.Fatalf("publisher should not wait on the default batch timeout, got %v", pub.writer.BatchTimeout)
	}
	dlq, err := NewKafkaDLQPublisher([]string{"localhost:9092"}, "invoicing.dlq")
	if err != nil {
		t.Fatalf("new dlq publisher: %v", err)
	}
	defer dlq.Close()
	if dlq.writer.BatchTimeout != writerBatchTimeout {
		t.Fatalf("dlq publisher should not wait on the default batch timeout, got %v", dlq.writer.BatchTimeout)
	}
}
