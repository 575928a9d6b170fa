package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordersIncrementCounters(t *testing.T) {
	m := New(Config{ServiceName: "invoicing-test", Environment: "test"})

	m.ObserveRequest(http.MethodPost, "/v1/invoices", http.StatusCreated, 20*time.Millisecond)
	m.RecordSubmission("create", "succeeded")
	m.RecordSubmission("create", "succeeded")
	m.RecordStatsCache("hit")

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues(http.MethodPost, "/v1/invoices", "201")); got != 1 {
		t.Fatalf("expected 1 request, got %v", got)
	}
	if got := testutil.ToFloat64(m.submissionsTotal.WithLabelValues("create", "succeeded")); got != 2 {
		t.Fatalf("expected 2 submissions, got %v", got)
	}
	if got := testutil.ToFloat64(m.statsCacheLookups.WithLabelValues("hit")); got != 1 {
		t.Fatalf("expected 1 cache hit, got %v", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New(Config{})
	m.RecordEvent("invoice.submitted", "success")

	res := httptest.NewRecorder()
	m.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), "invoicing_events_handled_total") {
		t.Fatalf("expected events counter in exposition")
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRequest(http.MethodGet, "/healthz", http.StatusOK, time.Millisecond)
	m.RecordSubmission("update", "failed")
	m.RecordStatsCache("miss")
	m.RecordEvent("stats.refreshed", "failure")
	res := httptest.NewRecorder()
	m.Handler().ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if res.Code != http.StatusNotFound {
		t.Fatalf("nil metrics should not expose anything, got %d", res.Code)
	}
}
