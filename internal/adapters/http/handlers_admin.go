package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/viralforge/invoicing-service/internal/application"
	"github.com/viralforge/invoicing-service/internal/contracts"
	"github.com/viralforge/invoicing-service/internal/domain"
)

func (h *Handler) adminStats(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeDomainError(w, r, "admin_stats", domain.ErrUnauthorized)
		return
	}
	summary, err := h.service.AdminStats(r.Context(), actor, r.URL.Query().Get("period"))
	if err != nil {
		writeDomainError(w, r, "admin_stats", err)
		return
	}
	writeSuccess(w, http.StatusOK, summary)
}

func (h *Handler) aggregateStats(w http.ResponseWriter, r *http.Request) {
	var stats domain.AdminStats
	if !decodeJSON(w, r, &stats) {
		return
	}
	summary, err := h.service.AggregateStats(stats)
	if err != nil {
		writeDomainError(w, r, "aggregate_stats", err)
		return
	}
	writeSuccess(w, http.StatusOK, summary)
}

func (h *Handler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeDomainError(w, r, "list_submissions", domain.ErrUnauthorized)
		return
	}
	q := r.URL.Query()
	limit, err := queryInt(q.Get("limit"), "limit")
	if err != nil {
		writeDomainError(w, r, "list_submissions", err)
		return
	}
	offset, err := queryInt(q.Get("offset"), "offset")
	if err != nil {
		writeDomainError(w, r, "list_submissions", err)
		return
	}
	items, page, err := h.service.ListSubmissions(r.Context(), actor, application.ListSubmissionsInput{
		Outcome:   strings.TrimSpace(q.Get("outcome")),
		Operation: strings.TrimSpace(q.Get("operation")),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeDomainError(w, r, "list_submissions", err)
		return
	}
	if items == nil {
		items = []domain.Submission{}
	}
	writeSuccess(w, http.StatusOK, contracts.SubmissionListResponse{Items: items, Pagination: page})
}

func queryInt(raw, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, name)
	}
	return v, nil
}
