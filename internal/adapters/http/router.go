package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/viralforge/invoicing-service/internal/application"
	"github.com/viralforge/invoicing-service/internal/platform/logger"
	"github.com/viralforge/invoicing-service/internal/platform/metrics"
	"github.com/viralforge/invoicing-service/internal/ports"
	"go.uber.org/zap"
)

type Handler struct {
	service  *application.Service
	verifier ports.TokenVerifier
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewHandler(service *application.Service, verifier ports.TokenVerifier, log *zap.Logger, m *metrics.Metrics) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		service:  service,
		verifier: verifier,
		logger:   logger.Component(log, "http", "adapter"),
		metrics:  m,
	}
}

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(handler.loggingMiddleware)
	r.Use(handler.recoverMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ok") })
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) { writeSuccess(w, http.StatusOK, "ready") })
	r.Method(http.MethodGet, "/metrics", handler.metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(handler.authMiddleware)

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/drafts", handler.newDraft)
			r.Post("/drafts/edit", handler.editDraft)
			r.Post("/lines/recalculate", handler.recalculateLine)
			r.Post("/preview", handler.previewInvoice)
			r.Post("/validate", handler.validateInvoice)
			r.Get("/next-number", handler.nextInvoiceNumber)
			r.Get("/{invoice_id}/draft", handler.getInvoiceDraft)

			r.Group(func(r chi.Router) {
				r.Use(requireIdempotencyKey)
				r.Post("/", handler.submitInvoice)
				r.Put("/{invoice_id}", handler.updateInvoice)
			})
		})

		r.Route("/clients", func(r chi.Router) {
			r.Post("/validate", handler.validateClient)
			r.With(requireIdempotencyKey).Post("/", handler.createClient)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/stats", handler.adminStats)
			r.Post("/stats/aggregate", handler.aggregateStats)
			r.Get("/submissions", handler.listSubmissions)
		})
	})
	return r
}
