package http

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/viralforge/invoicing-service/internal/application"
	"github.com/viralforge/invoicing-service/internal/domain"
	"github.com/viralforge/invoicing-service/internal/platform/logger"
	"github.com/viralforge/invoicing-service/internal/ports"
	"go.uber.org/zap"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
	ctxKeyClaims    ctxKey = "claims"
	ctxKeyTokenRaw  ctxKey = "token_raw"
)

const idempotencyHeader = "Idempotency-Key"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", reqID)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID, reqID)))
	})
}

func (h *Handler) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.FromContext(r.Context()).Error("panic recovered",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", requestIDFromContext(r.Context()), nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// loggingMiddleware scopes a logger to the request and records one access line
// plus the latency metric, labelled by route pattern rather than raw path.
func (h *Handler) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqLogger := h.logger.With(zap.String("request_id", requestIDFromContext(r.Context())))
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(logger.WithContext(r.Context(), reqLogger)))

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		h.metrics.ObserveRequest(r.Method, route, status, elapsed)

		fields := []zap.Field{
			zap.String("operation", "http_request"),
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status_code", status),
			zap.Duration("duration", elapsed),
		}
		if auth := r.Header.Get("Authorization"); auth != "" {
			fields = append(fields, zap.String("authorization", logger.MaskBearer(auth)))
		}
		if status >= 500 {
			reqLogger.Error("request served", fields...)
			return
		}
		reqLogger.Info("request served", fields...)
	})
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := requestIDFromContext(r.Context())
		raw, err := bearerTokenFromHeader(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials", reqID, nil)
			return
		}
		if h.verifier == nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials", reqID, nil)
			return
		}
		claims, err := h.verifier.Verify(r.Context(), raw)
		if err != nil {
			logger.FromContext(r.Context()).Warn("token rejected", zap.String("outcome", "failure"), zap.Error(err))
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials", reqID, nil)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyClaims, claims)
		ctx = context.WithValue(ctx, ctxKeyTokenRaw, raw)
		scoped := logger.FromContext(ctx).With(
			zap.String("tenant_id", claims.TenantID),
			zap.String("subject_id", claims.SubjectID),
		)
		next.ServeHTTP(w, r.WithContext(logger.WithContext(ctx, scoped)))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok || !strings.EqualFold(claims.Role, application.RoleAdmin) {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "admin role required", requestIDFromContext(r.Context()), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireIdempotencyKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.TrimSpace(r.Header.Get(idempotencyHeader)) == "" {
			writeError(w, http.StatusBadRequest, "IDEMPOTENCY_KEY_REQUIRED", domain.ErrIdempotencyRequired.Error(), requestIDFromContext(r.Context()), nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerTokenFromHeader(header string) (string, error) {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", domain.ErrUnauthorized
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" {
		return "", domain.ErrUnauthorized
	}
	return token, nil
}

func claimsFromContext(ctx context.Context) (ports.AuthClaims, bool) {
	claims, ok := ctx.Value(ctxKeyClaims).(ports.AuthClaims)
	return claims, ok
}

func requestIDFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeyRequestID).(string); ok {
		return s
	}
	return ""
}

func actorFromRequest(r *http.Request) (application.Actor, bool) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		return application.Actor{}, false
	}
	token, _ := r.Context().Value(ctxKeyTokenRaw).(string)
	return application.Actor{
		SubjectID:      claims.SubjectID,
		Role:           claims.Role,
		TenantID:       claims.TenantID,
		RequestID:      requestIDFromContext(r.Context()),
		IdempotencyKey: strings.TrimSpace(r.Header.Get(idempotencyHeader)),
		BearerToken:    token,
	}, true
}
