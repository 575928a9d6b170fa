package domain

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
)

const ValidationBanner = "Please fix the highlighted fields before submitting."

// ValidationResult collects every rule violation keyed by field path.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

func newValidationResult() ValidationResult {
	return ValidationResult{Valid: true, Errors: map[string]string{}}
}

func (r *ValidationResult) add(field, message string) {
	r.Valid = false
	r.Errors[field] = message
}

// Fields returns the failing field keys in stable order.
func (r ValidationResult) Fields() []string {
	out := make([]string, 0, len(r.Errors))
	for field := range r.Errors {
		out = append(out, field)
	}
	sort.Strings(out)
	return out
}

// Err converts a failed result into an ErrInvalidInput-wrapped error.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Result: r}
}

type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(e.Result.Fields(), ", "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// ValidateDraft checks a draft before submission. Rules are independent and all
// violations are reported.
func ValidateDraft(draft InvoiceDraft) ValidationResult {
	result := newValidationResult()
	if strings.TrimSpace(draft.ClientID) == "" {
		result.add("clientId", "Client is required")
	}
	if strings.TrimSpace(draft.InvoiceNumber) == "" {
		result.add("invoiceNumber", "Invoice number is required")
	}
	if len(draft.Items) == 0 {
		result.add("items", "At least one line item is required")
	}
	for i, item := range draft.Items {
		prefix := fmt.Sprintf("items[%d]", i)
		if strings.TrimSpace(item.Description) == "" {
			result.add(prefix+".description", "Description is required")
		}
		if item.Quantity <= 0 {
			result.add(prefix+".quantity", "Quantity must be greater than 0")
		}
		if item.UnitPrice < 0 {
			result.add(prefix+".unitPrice", "Unit price cannot be negative")
		}
	}
	return result
}

type ClientDraft struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func ValidateClientDraft(client ClientDraft) ValidationResult {
	result := newValidationResult()
	if strings.TrimSpace(client.Name) == "" {
		result.add("name", "Name is required")
	}
	email := strings.TrimSpace(client.Email)
	switch {
	case email == "":
		result.add("email", "Email is required")
	case !isEmail(email):
		result.add("email", "Email is not valid")
	}
	return result
}

func isEmail(raw string) bool {
	addr, err := mail.ParseAddress(raw)
	return err == nil && addr.Address == raw
}

type Client struct {
	ClientID string `json:"id"`
	ClientDraft
	CreatedAt string `json:"createdAt,omitempty"`
}
