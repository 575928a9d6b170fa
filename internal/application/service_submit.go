package application

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/viralforge/invoicing-service/internal/contracts"
	"github.com/viralforge/invoicing-service/internal/domain"
	"go.uber.org/zap"
)

// SubmitInvoice creates an invoice on the backend. Invalid drafts never reach it.
func (s *Service) SubmitInvoice(ctx context.Context, actor Actor, draft domain.InvoiceDraft) (contracts.SubmitResponse, error) {
	return s.submit(ctx, actor, domain.SubmissionCreate, "", draft)
}

func (s *Service) UpdateInvoice(ctx context.Context, actor Actor, invoiceID string, draft domain.InvoiceDraft) (contracts.SubmitResponse, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return contracts.SubmitResponse{}, fmt.Errorf("%w: invoice id is required", domain.ErrInvalidInput)
	}
	return s.submit(ctx, actor, domain.SubmissionUpdate, invoiceID, draft)
}

func (s *Service) submit(ctx context.Context, actor Actor, op domain.SubmissionOperation, invoiceID string, draft domain.InvoiceDraft) (contracts.SubmitResponse, error) {
	if err := requireTenant(actor); err != nil {
		return contracts.SubmitResponse{}, err
	}
	if strings.TrimSpace(actor.IdempotencyKey) == "" {
		return contracts.SubmitResponse{}, domain.ErrIdempotencyRequired
	}
	draft.Normalize()
	if err := domain.ValidateDraft(draft).Err(); err != nil {
		return contracts.SubmitResponse{}, err
	}

	request := submitRequest{Operation: string(op), InvoiceID: invoiceID, Draft: draft}
	responseCode := 200
	if op == domain.SubmissionCreate {
		responseCode = 201
	}
	return runIdempotent(ctx, s, actor, request, responseCode, func(ctx context.Context) (contracts.SubmitResponse, error) {
		resp, submission, err := s.lockedPush(ctx, actor, op, invoiceID, draft)
		if err != nil {
			return contracts.SubmitResponse{}, err
		}
		s.publishSubmitted(ctx, submission)
		return resp, nil
	})
}

// lockedPush holds the submission lock for the backend call and ledger write
// only. The event is published after the lock is gone.
func (s *Service) lockedPush(ctx context.Context, actor Actor, op domain.SubmissionOperation, invoiceID string, draft domain.InvoiceDraft) (contracts.SubmitResponse, domain.Submission, error) {
	lockKey := submissionLockKey(actor.TenantID, op, invoiceID, draft.InvoiceNumber)
	token, acquired, err := s.locks.Acquire(ctx, lockKey, s.cfg.SubmissionLockTTL)
	if err != nil {
		return contracts.SubmitResponse{}, domain.Submission{}, fmt.Errorf("acquire submission lock: %w", err)
	}
	if !acquired {
		return contracts.SubmitResponse{}, domain.Submission{}, domain.ErrSubmissionInFlight
	}
	defer func() {
		if relErr := s.locks.Release(context.WithoutCancel(ctx), lockKey, token); relErr != nil {
			s.logger(ctx, "submit_invoice").Warn("release submission lock failed", zap.Error(relErr))
		}
	}()
	return s.pushToBackend(ctx, actor, op, invoiceID, draft)
}

// submissionLockKey guards one invoice at a time, so a double submit with two
// fresh idempotency keys still serializes.
func submissionLockKey(tenantID string, op domain.SubmissionOperation, invoiceID, invoiceNumber string) string {
	if op == domain.SubmissionUpdate {
		return "submit:" + tenantID + ":id:" + invoiceID
	}
	return "submit:" + tenantID + ":number:" + strings.TrimSpace(invoiceNumber)
}

func (s *Service) pushToBackend(ctx context.Context, actor Actor, op domain.SubmissionOperation, invoiceID string, draft domain.InvoiceDraft) (contracts.SubmitResponse, domain.Submission, error) {
	log := s.logger(ctx, "submit_invoice").With(
		zap.String("submission_operation", string(op)),
		zap.String("invoice_number", draft.InvoiceNumber),
	)
	totals := draft.Totals()
	submission := domain.Submission{
		SubmissionID:  uuid.NewString(),
		TenantID:      actor.TenantID,
		ActorID:       actor.SubjectID,
		Operation:     op,
		InvoiceID:     invoiceID,
		InvoiceNumber: draft.InvoiceNumber,
		ClientID:      draft.ClientID,
		Total:         totals.Total,
		CreatedAt:     s.nowFn(),
	}

	var (
		invoice domain.Invoice
		err     error
	)
	switch op {
	case domain.SubmissionUpdate:
		invoice, err = s.backend.UpdateInvoice(ctx, actor.credentials(), invoiceID, draft)
	default:
		invoice, err = s.backend.CreateInvoice(ctx, actor.credentials(), draft)
	}
	if err != nil {
		submission.Outcome = domain.SubmissionFailed
		submission.FailureReason = err.Error()
		s.recordSubmission(ctx, submission)
		s.metrics.RecordSubmission(string(op), string(domain.SubmissionFailed))
		log.Error("backend rejected submission", zap.String("outcome", "failure"), zap.Error(err))
		return contracts.SubmitResponse{}, submission, err
	}

	submission.Outcome = domain.SubmissionSucceeded
	submission.InvoiceID = invoice.InvoiceID
	s.recordSubmission(ctx, submission)
	s.metrics.RecordSubmission(string(op), string(domain.SubmissionSucceeded))
	log.Info("invoice submitted",
		zap.String("invoice_id", invoice.InvoiceID),
		zap.String("submission_id", submission.SubmissionID),
		zap.String("outcome", "success"),
	)
	return contracts.SubmitResponse{
		Invoice:      invoice,
		SubmissionID: submission.SubmissionID,
		Totals:       draftTotals(totals),
	}, submission, nil
}

// recordSubmission never fails the request: the backend call already happened.
func (s *Service) recordSubmission(ctx context.Context, submission domain.Submission) {
	if s.submissions == nil {
		return
	}
	if err := s.submissions.Record(context.WithoutCancel(ctx), submission); err != nil {
		s.logger(ctx, "record_submission").Error("write submission ledger failed",
			zap.String("submission_id", submission.SubmissionID),
			zap.Error(err),
		)
	}
}

// publishSubmitted is bounded by EventPublishTimeout so a stalled broker
// cannot hold the request open.
func (s *Service) publishSubmitted(ctx context.Context, submission domain.Submission) {
	if s.publisher == nil {
		return
	}
	data, _ := json.Marshal(contracts.InvoiceSubmittedPayload{
		SubmissionID:  submission.SubmissionID,
		InvoiceID:     submission.InvoiceID,
		InvoiceNumber: submission.InvoiceNumber,
		ClientID:      submission.ClientID,
		Operation:     string(submission.Operation),
		Total:         submission.Total,
	})
	event := contracts.EventEnvelope{
		EventID:       uuid.NewString(),
		EventType:     contracts.EventInvoiceSubmitted,
		OccurredAt:    s.nowFn(),
		PartitionKey:  submission.TenantID,
		SourceService: s.cfg.ServiceName,
		TenantID:      submission.TenantID,
		SchemaVersion: "1.0",
		Data:          data,
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.EventPublishTimeout)
	defer cancel()
	if err := s.publisher.Publish(pubCtx, event); err != nil {
		s.logger(ctx, "publish_invoice_submitted").Warn("publish event failed",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}
}

func (s *Service) NextInvoiceNumber(ctx context.Context, actor Actor) (contracts.NextInvoiceNumberResponse, error) {
	if err := requireTenant(actor); err != nil {
		return contracts.NextInvoiceNumberResponse{}, err
	}
	now := s.nowFn()
	seq, err := s.sequence.Next(ctx, actor.TenantID, now)
	if err != nil {
		return contracts.NextInvoiceNumberResponse{}, fmt.Errorf("next invoice sequence: %w", err)
	}
	return contracts.NextInvoiceNumberResponse{InvoiceNumber: domain.FormatInvoiceNumber(now, seq)}, nil
}
