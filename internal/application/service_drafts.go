package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/viralforge/invoicing-service/internal/contracts"
	"github.com/viralforge/invoicing-service/internal/domain"
	"go.uber.org/zap"
)

func (s *Service) NewDraft() domain.InvoiceDraft {
	return domain.NewDraft()
}

// RecalculateLine applies one field edit. Coerced input is reported, not rejected.
func (s *Service) RecalculateLine(ctx context.Context, req contracts.RecalculateLineRequest) (domain.LineEdit, error) {
	field, err := domain.ParseField(req.Field)
	if err != nil {
		return domain.LineEdit{}, err
	}
	edit := domain.RecalculateLine(req.Item, field, req.Value)
	if edit.Coerced {
		s.logger(ctx, "recalculate_line").Debug("non-numeric line input coerced to zero",
			zap.String("field", string(field)),
		)
	}
	return edit, nil
}

const (
	DraftActionEdit   = "edit"
	DraftActionAdd    = "add"
	DraftActionRemove = "remove"
)

// EditDraft applies one line action and returns the refreshed preview.
func (s *Service) EditDraft(ctx context.Context, req contracts.DraftEditRequest) (contracts.DraftEditResponse, error) {
	draft := req.Draft
	draft.Normalize()
	var out contracts.DraftEditResponse
	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case DraftActionEdit:
		field, err := domain.ParseField(req.Field)
		if err != nil {
			return contracts.DraftEditResponse{}, err
		}
		edit, err := draft.ApplyLineEdit(req.Index, field, req.Value)
		if err != nil {
			return contracts.DraftEditResponse{}, err
		}
		out.Coerced = edit.Coerced
		out.Message = edit.Message
	case DraftActionAdd:
		draft.AddItem()
	case DraftActionRemove:
		if err := draft.RemoveItem(req.Index); err != nil {
			return contracts.DraftEditResponse{}, err
		}
	default:
		return contracts.DraftEditResponse{}, fmt.Errorf("%w: unknown draft action %q", domain.ErrInvalidInput, req.Action)
	}
	s.logger(ctx, "edit_draft").Debug("draft edited",
		zap.String("action", req.Action),
		zap.Int("items", len(draft.Items)),
	)
	out.PreviewResponse = s.Preview(draft)
	return out, nil
}

func (s *Service) Preview(draft domain.InvoiceDraft) contracts.PreviewResponse {
	draft.Normalize()
	return contracts.PreviewResponse{
		Draft:      draft,
		Totals:     draftTotals(draft.Totals()),
		Validation: domain.ValidateDraft(draft),
	}
}

func (s *Service) Validate(draft domain.InvoiceDraft) domain.ValidationResult {
	draft.Normalize()
	return domain.ValidateDraft(draft)
}

// HydrateDraft loads a saved invoice and turns it back into an editable draft.
func (s *Service) HydrateDraft(ctx context.Context, actor Actor, invoiceID string) (contracts.PreviewResponse, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return contracts.PreviewResponse{}, fmt.Errorf("%w: invoice id is required", domain.ErrInvalidInput)
	}
	inv, err := s.backend.GetInvoice(ctx, actor.credentials(), invoiceID)
	if err != nil {
		s.logger(ctx, "hydrate_draft").Warn("load invoice failed",
			zap.String("invoice_id", invoiceID),
			zap.String("outcome", "failure"),
			zap.Error(err),
		)
		return contracts.PreviewResponse{}, err
	}
	return s.Preview(domain.DraftFromInvoice(inv)), nil
}

func draftTotals(totals domain.Totals) contracts.DraftTotals {
	return contracts.DraftTotals{
		Raw:     totals,
		Rounded: totals.Rounded(),
		Display: contracts.DisplayTotals{
			Subtotal: domain.FormatForDisplay(totals.Subtotal),
			Tax:      domain.FormatForDisplay(totals.Tax),
			Total:    domain.FormatForDisplay(totals.Total),
		},
	}
}
