package contracts

import (
	"encoding/json"
	"time"
)

const (
	EventInvoiceSubmitted = "invoice.submitted"
	EventStatsRefreshed   = "stats.refreshed"
)

type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	PartitionKey  string          `json:"partition_key"`
	SourceService string          `json:"source_service"`
	TenantID      string          `json:"tenant_id"`
	SchemaVersion string          `json:"schema_version"`
	Data          json.RawMessage `json:"data"`
}

type InvoiceSubmittedPayload struct {
	SubmissionID  string  `json:"submission_id"`
	InvoiceID     string  `json:"invoice_id"`
	InvoiceNumber string  `json:"invoice_number"`
	ClientID      string  `json:"client_id"`
	Operation     string  `json:"operation"`
	Total         float64 `json:"total"`
}

type DLQRecord struct {
	OriginalEvent EventEnvelope `json:"original_event"`
	ErrorSummary  string        `json:"error_summary"`
	RetryCount    int           `json:"retry_count"`
	FirstSeenAt   time.Time     `json:"first_seen_at"`
	LastErrorAt   time.Time     `json:"last_error_at"`
	SourceTopic   string        `json:"source_topic,omitempty"`
	// RawPayload holds the message bytes when they never decoded into an envelope.
	RawPayload []byte `json:"raw_payload,omitempty"`
}
