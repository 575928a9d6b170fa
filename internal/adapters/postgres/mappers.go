package postgres

import (
	"github.com/viralforge/invoicing-service/internal/domain"
	"github.com/viralforge/invoicing-service/internal/ports"
)

func toSubmissionModel(s domain.Submission) submissionModel {
	return submissionModel{
		SubmissionID:  s.SubmissionID,
		TenantID:      s.TenantID,
		ActorID:       s.ActorID,
		Operation:     string(s.Operation),
		InvoiceID:     optionalString(s.InvoiceID),
		InvoiceNumber: s.InvoiceNumber,
		ClientID:      s.ClientID,
		Total:         s.Total,
		Outcome:       string(s.Outcome),
		FailureReason: optionalString(s.FailureReason),
		CreatedAt:     s.CreatedAt.UTC(),
	}
}

func fromSubmissionModel(m submissionModel) domain.Submission {
	return domain.Submission{
		SubmissionID:  m.SubmissionID,
		TenantID:      m.TenantID,
		ActorID:       m.ActorID,
		Operation:     domain.SubmissionOperation(m.Operation),
		InvoiceID:     derefString(m.InvoiceID),
		InvoiceNumber: m.InvoiceNumber,
		ClientID:      m.ClientID,
		Total:         m.Total,
		Outcome:       domain.SubmissionOutcome(m.Outcome),
		FailureReason: derefString(m.FailureReason),
		CreatedAt:     m.CreatedAt.UTC(),
	}
}

func fromIdempotencyModel(m idempotencyModel) *ports.IdempotencyRecord {
	out := &ports.IdempotencyRecord{
		Key:          m.IdempotencyKey,
		RequestHash:  m.RequestHash,
		Status:       m.Status,
		ResponseCode: m.ResponseCode,
		ExpiresAt:    m.ExpiresAt,
	}
	if m.ResponseBody != nil {
		out.ResponseBody = []byte(*m.ResponseBody)
	}
	return out
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
