package contracts

import "github.com/viralforge/invoicing-service/internal/domain"

type RecalculateLineRequest struct {
	Item  domain.InvoiceLineItem `json:"item"`
	Field string                 `json:"field"`
	Value string                 `json:"value"`
}

// DraftEditRequest is one editor action against a whole draft.
// Action is "edit", "add" or "remove"; Field and Value apply to "edit" only.
type DraftEditRequest struct {
	Draft  domain.InvoiceDraft `json:"draft"`
	Action string              `json:"action"`
	Index  int                 `json:"index"`
	Field  string              `json:"field,omitempty"`
	Value  string              `json:"value,omitempty"`
}

type DraftEditResponse struct {
	PreviewResponse
	Coerced bool   `json:"coerced"`
	Message string `json:"message,omitempty"`
}

type DraftTotals struct {
	Raw     domain.Totals `json:"raw"`
	Rounded domain.Totals `json:"rounded"`
	Display DisplayTotals `json:"display"`
}

type DisplayTotals struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

type PreviewResponse struct {
	Draft      domain.InvoiceDraft     `json:"draft"`
	Totals     DraftTotals             `json:"totals"`
	Validation domain.ValidationResult `json:"validation"`
}

type SubmitResponse struct {
	Invoice      domain.Invoice `json:"invoice"`
	SubmissionID string         `json:"submissionId"`
	Totals       DraftTotals    `json:"totals"`
}

type NextInvoiceNumberResponse struct {
	InvoiceNumber string `json:"invoiceNumber"`
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status string       `json:"status"`
	Error  ErrorPayload `json:"error"`
}

type ErrorPayload struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"request_id,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

type SubmissionListResponse struct {
	Items      []domain.Submission `json:"items"`
	Pagination Pagination          `json:"pagination"`
}
