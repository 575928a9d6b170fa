package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/viralforge/invoicing-service/internal/contracts"
)

// writerBatchTimeout keeps single-event writes from waiting on kafka-go's 1s default.
const writerBatchTimeout = 10 * time.Millisecond

type KafkaPublisher struct {
	writer       *kafka.Writer
	topicByEvent map[string]string
}

func NewKafkaPublisher(brokers []string, topicByEvent map[string]string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           writerBatchTimeout,
			AllowAutoTopicCreation: true,
		},
		topicByEvent: topicByEvent,
	}, nil
}

func (p *KafkaPublisher) topic(eventType string) string {
	if mapped, ok := p.topicByEvent[eventType]; ok && mapped != "" {
		return mapped
	}
	return eventType
}

func (p *KafkaPublisher) Publish(ctx context.Context, event contracts.EventEnvelope) error {
	msg, err := envelopeMessage(p.topic(event.EventType), event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaDLQPublisher parks events the worker could not handle on one topic.
type KafkaDLQPublisher struct {
	writer *kafka.Writer
	topic  string
}

func NewKafkaDLQPublisher(brokers []string, topic string) (*KafkaDLQPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka dlq publisher requires at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka dlq publisher requires a topic")
	}
	return &KafkaDLQPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			RequiredAcks:           kafka.RequireAll,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           writerBatchTimeout,
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}, nil
}

func (p *KafkaDLQPublisher) PublishDLQ(ctx context.Context, record contracts.DLQRecord) error {
	msg, err := dlqMessage(record)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *KafkaDLQPublisher) Close() error {
	return p.writer.Close()
}

func envelopeMessage(topic string, event contracts.EventEnvelope) (kafka.Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode event %s: %w", event.EventID, err)
	}
	return kafka.Message{
		Topic: topic,
		Key:   []byte(event.PartitionKey),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}, nil
}

func dlqMessage(record contracts.DLQRecord) (kafka.Message, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode dlq record: %w", err)
	}
	return kafka.Message{
		Key:   []byte(record.OriginalEvent.PartitionKey),
		Value: payload,
		Time:  record.LastErrorAt,
	}, nil
}
