package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/viralforge/invoicing-service/internal/contracts"
)

type KafkaConsumer struct {
	reader *kafka.Reader
}

func NewKafkaConsumer(brokers []string, groupID string, topics []string) (*KafkaConsumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one broker")
	}
	if groupID == "" {
		return nil, fmt.Errorf("kafka consumer requires group id")
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("kafka consumer requires at least one topic")
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		GroupTopics: topics,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
	})
	return &KafkaConsumer{reader: reader}, nil
}

// Receive returns the next envelope, or io.EOF when nothing arrived in time.
func (c *KafkaConsumer) Receive(ctx context.Context) (*contracts.EventEnvelope, error) {
	readCtx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	msg, err := c.reader.ReadMessage(readCtx)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			return nil, io.EOF
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			return nil, err
		}
	}
	return decodeEnvelope(msg.Topic, msg.Value)
}

func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}

func decodeEnvelope(topic string, payload []byte) (*contracts.EventEnvelope, error) {
	var event contracts.EventEnvelope
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, &DecodeError{Topic: topic, Payload: payload, Err: err}
	}
	if event.EventType == "" {
		event.EventType = topic
	}
	return &event, nil
}

// DecodeError carries a message that could not be parsed so the worker can park it.
type DecodeError struct {
	Topic   string
	Payload []byte
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode event from %s: %v", e.Topic, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
