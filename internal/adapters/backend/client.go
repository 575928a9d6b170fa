package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/viralforge/invoicing-service/internal/domain"
	"github.com/viralforge/invoicing-service/internal/ports"
)

const maxErrorBody = 4 << 10

// Client talks to the invoicing backend over REST with camelCase JSON bodies.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("backend client requires a base url")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: base, httpClient: httpClient}, nil
}

// invoicePayload is the draft plus the totals the backend persists alongside it.
type invoicePayload struct {
	domain.InvoiceDraft
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

func newInvoicePayload(draft domain.InvoiceDraft) invoicePayload {
	totals := draft.Totals()
	return invoicePayload{InvoiceDraft: draft, Subtotal: totals.Subtotal, Tax: totals.Tax, Total: totals.Total}
}

func (c *Client) CreateInvoice(ctx context.Context, creds ports.Credentials, draft domain.InvoiceDraft) (domain.Invoice, error) {
	var out domain.Invoice
	err := c.do(ctx, creds, http.MethodPost, "/invoices", newInvoicePayload(draft), &out)
	return out, err
}

func (c *Client) UpdateInvoice(ctx context.Context, creds ports.Credentials, invoiceID string, draft domain.InvoiceDraft) (domain.Invoice, error) {
	var out domain.Invoice
	err := c.do(ctx, creds, http.MethodPut, "/invoices/"+url.PathEscape(invoiceID), newInvoicePayload(draft), &out)
	return out, err
}

func (c *Client) GetInvoice(ctx context.Context, creds ports.Credentials, invoiceID string) (domain.Invoice, error) {
	var out domain.Invoice
	err := c.do(ctx, creds, http.MethodGet, "/invoices/"+url.PathEscape(invoiceID), nil, &out)
	return out, err
}

func (c *Client) CreateClient(ctx context.Context, creds ports.Credentials, client domain.ClientDraft) (domain.Client, error) {
	var out domain.Client
	err := c.do(ctx, creds, http.MethodPost, "/clients", client, &out)
	return out, err
}

func (c *Client) FetchAdminStats(ctx context.Context, creds ports.Credentials, period string) (domain.AdminStats, error) {
	var out domain.AdminStats
	err := c.do(ctx, creds, http.MethodGet, "/admin/stats?period="+url.QueryEscape(period), nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, creds ports.Credentials, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode backend request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build backend request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+creds.BearerToken)
	}
	if creds.RequestID != "" {
		req.Header.Set("X-Request-Id", creds.RequestID)
	}
	if creds.TenantID != "" {
		req.Header.Set("X-Tenant-Id", creds.TenantID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %s %s: %v", domain.ErrBackendUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return statusError(resp.StatusCode, method, path, strings.TrimSpace(string(detail)))
	}
	if out == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read backend response: %v", domain.ErrBackendUnavailable, err)
	}
	return decodeBody(raw, out)
}

// decodeBody accepts either a bare object or one wrapped as {"data": ...}.
func decodeBody(raw []byte, out any) error {
	var wrapped struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Data) > 0 && !bytes.Equal(wrapped.Data, []byte("null")) {
		raw = wrapped.Data
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode backend response: %v", domain.ErrBackendUnavailable, err)
	}
	return nil
}

func statusError(status int, method, path, detail string) error {
	var kind error
	switch {
	case status == http.StatusNotFound:
		kind = domain.ErrNotFound
	case status == http.StatusUnauthorized:
		kind = domain.ErrUnauthorized
	case status == http.StatusForbidden:
		kind = domain.ErrForbidden
	case status == http.StatusConflict:
		kind = domain.ErrConflict
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		kind = domain.ErrInvalidInput
	default:
		kind = domain.ErrBackendUnavailable
	}
	if detail == "" {
		return fmt.Errorf("%w: backend %s %s returned %d", kind, method, path, status)
	}
	return fmt.Errorf("%w: backend %s %s returned %d: %s", kind, method, path, status, detail)
}
