package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/invoicing-service/internal/contracts"
	"github.com/viralforge/invoicing-service/internal/domain"
)

func (h *Handler) newDraft(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, h.service.NewDraft())
}

func (h *Handler) recalculateLine(w http.ResponseWriter, r *http.Request) {
	var req contracts.RecalculateLineRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	edit, err := h.service.RecalculateLine(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, "recalculate_line", err)
		return
	}
	writeSuccess(w, http.StatusOK, edit)
}

func (h *Handler) editDraft(w http.ResponseWriter, r *http.Request) {
	var req contracts.DraftEditRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.service.EditDraft(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, "edit_draft", err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) previewInvoice(w http.ResponseWriter, r *http.Request) {
	var draft domain.InvoiceDraft
	if !decodeJSON(w, r, &draft) {
		return
	}
	writeSuccess(w, http.StatusOK, h.service.Preview(draft))
}

func (h *Handler) validateInvoice(w http.ResponseWriter, r *http.Request) {
	var draft domain.InvoiceDraft
	if !decodeJSON(w, r, &draft) {
		return
	}
	writeSuccess(w, http.StatusOK, h.service.Validate(draft))
}

func (h *Handler) submitInvoice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeDomainError(w, r, "submit_invoice", domain.ErrUnauthorized)
		return
	}
	var draft domain.InvoiceDraft
	if !decodeJSON(w, r, &draft) {
		return
	}
	resp, err := h.service.SubmitInvoice(r.Context(), actor, draft)
	if err != nil {
		writeDomainError(w, r, "submit_invoice", err)
		return
	}
	writeSuccess(w, http.StatusCreated, resp)
}

func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeDomainError(w, r, "update_invoice", domain.ErrUnauthorized)
		return
	}
	var draft domain.InvoiceDraft
	if !decodeJSON(w, r, &draft) {
		return
	}
	resp, err := h.service.UpdateInvoice(r.Context(), actor, chi.URLParam(r, "invoice_id"), draft)
	if err != nil {
		writeDomainError(w, r, "update_invoice", err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) getInvoiceDraft(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeDomainError(w, r, "get_invoice_draft", domain.ErrUnauthorized)
		return
	}
	resp, err := h.service.HydrateDraft(r.Context(), actor, chi.URLParam(r, "invoice_id"))
	if err != nil {
		writeDomainError(w, r, "get_invoice_draft", err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}

func (h *Handler) nextInvoiceNumber(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeDomainError(w, r, "next_invoice_number", domain.ErrUnauthorized)
		return
	}
	resp, err := h.service.NextInvoiceNumber(r.Context(), actor)
	if err != nil {
		writeDomainError(w, r, "next_invoice_number", err)
		return
	}
	writeSuccess(w, http.StatusOK, resp)
}
