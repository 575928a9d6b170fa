package domain

import (
	"fmt"
	"time"
)

type SubmissionOperation string

type SubmissionOutcome string

const (
	SubmissionCreate SubmissionOperation = "create"
	SubmissionUpdate SubmissionOperation = "update"

	SubmissionSucceeded SubmissionOutcome = "succeeded"
	SubmissionFailed    SubmissionOutcome = "failed"
)

// Submission is one attempt to push a draft to the backend, kept for the admin panel.
type Submission struct {
	SubmissionID  string              `json:"submission_id"`
	TenantID      string              `json:"tenant_id"`
	ActorID       string              `json:"actor_id"`
	Operation     SubmissionOperation `json:"operation"`
	InvoiceID     string              `json:"invoice_id,omitempty"`
	InvoiceNumber string              `json:"invoice_number"`
	ClientID      string              `json:"client_id"`
	Total         float64             `json:"total"`
	Outcome       SubmissionOutcome   `json:"outcome"`
	FailureReason string              `json:"failure_reason,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// FormatInvoiceNumber renders the per-day sequence, e.g. INV-20260101-000042.
func FormatInvoiceNumber(day time.Time, sequence int64) string {
	return fmt.Sprintf("INV-%s-%06d", day.UTC().Format("20060102"), sequence)
}
