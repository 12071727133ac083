package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCountsQuizEvents(t *testing.T) {
	c := New(nil)
	c.SessionCreated("mixed")
	c.SessionCreated("mixed")
	c.SessionCompleted()
	c.AnswerRecorded("duplicate")

	if got := testutil.ToFloat64(c.sessionsCreated.WithLabelValues("mixed")); got != 2 {
		t.Fatalf("expected 2 mixed sessions, got %v", got)
	}
	if got := testutil.ToFloat64(c.sessionsCompleted); got != 1 {
		t.Fatalf("expected 1 completion, got %v", got)
	}
	if got := testutil.ToFloat64(c.answers.WithLabelValues("duplicate")); got != 1 {
		t.Fatalf("expected 1 duplicate, got %v", got)
	}
}

func TestInstrumentRecordsStatus(t *testing.T) {
	c := New(nil)
	h := c.Instrument("/api/answers", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/answers", nil))

	if got := testutil.ToFloat64(c.requests.WithLabelValues(http.MethodPost, "/api/answers", "409")); got != 1 {
		t.Fatalf("expected one 409, got %v", got)
	}

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "http_requests_total") {
		t.Fatalf("expected exposition to include request counter")
	}
}
