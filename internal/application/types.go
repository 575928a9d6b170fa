package application

import (
	"strings"
	"time"

	"github.com/viralforge/invoicing-service/internal/domain"
	"github.com/viralforge/invoicing-service/internal/ports"
)

const RoleAdmin = "admin"

type Config struct {
	ServiceName         string
	IdempotencyTTL      time.Duration
	SubmissionLockTTL   time.Duration
	StatsCacheTTL       time.Duration
	EventPublishTimeout time.Duration
	DefaultPageSize     int
	MaxPageSize         int
}

// Actor is the authenticated caller of one request.
type Actor struct {
	SubjectID      string
	Role           string
	TenantID       string
	RequestID      string
	IdempotencyKey string
	BearerToken    string
}

func (a Actor) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(a.Role), RoleAdmin)
}

func (a Actor) credentials() ports.Credentials {
	return ports.Credentials{
		BearerToken: a.BearerToken,
		TenantID:    a.TenantID,
		RequestID:   a.RequestID,
	}
}

type ListSubmissionsInput struct {
	Outcome   string
	Operation string
	Limit     int
	Offset    int
}

type submitRequest struct {
	Operation string              `json:"operation"`
	InvoiceID string              `json:"invoice_id,omitempty"`
	Draft     domain.InvoiceDraft `json:"draft"`
}
