package http

import (
	"net/http"

	"github.com/viralforge/invoicing-service/internal/domain"
)

func (h *Handler) validateClient(w http.ResponseWriter, r *http.Request) {
	var client domain.ClientDraft
	if !decodeJSON(w, r, &client) {
		return
	}
	writeSuccess(w, http.StatusOK, h.service.ValidateClient(client))
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeDomainError(w, r, "create_client", domain.ErrUnauthorized)
		return
	}
	var client domain.ClientDraft
	if !decodeJSON(w, r, &client) {
		return
	}
	created, err := h.service.CreateClient(r.Context(), actor, client)
	if err != nil {
		writeDomainError(w, r, "create_client", err)
		return
	}
	writeSuccess(w, http.StatusCreated, created)
}
