package ports

import (
	"context"

	"github.com/viralforge/invoicing-service/internal/domain"
)

// Credentials are forwarded to the backend on every call so it can enforce its own rules.
type Credentials struct {
	BearerToken string
	TenantID    string
	RequestID   string
}

// InvoiceBackend is the REST backend that owns invoices, clients and admin stats.
type InvoiceBackend interface {
	CreateInvoice(ctx context.Context, creds Credentials, draft domain.InvoiceDraft) (domain.Invoice, error)
	UpdateInvoice(ctx context.Context, creds Credentials, invoiceID string, draft domain.InvoiceDraft) (domain.Invoice, error)
	GetInvoice(ctx context.Context, creds Credentials, invoiceID string) (domain.Invoice, error)
	CreateClient(ctx context.Context, creds Credentials, client domain.ClientDraft) (domain.Client, error)
	FetchAdminStats(ctx context.Context, creds Credentials, period string) (domain.AdminStats, error)
}
