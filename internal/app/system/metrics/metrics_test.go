package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/analytics/daily/{userId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/analytics/daily/"+id, nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/api/analytics/daily/{userId}", "403"))
	if got != 3 {
		t.Errorf("requests_total = %v, want 3", got)
	}
}

func TestIngestedAndJobRuns(t *testing.T) {
	m := New()
	m.Ingested("single", 1)
	m.Ingested("batch", 3)
	m.JobRun("goal-overdue", nil)
	m.JobRun("goal-overdue", errors.New("boom"))

	if got := testutil.ToFloat64(m.ingested.WithLabelValues("batch")); got != 3 {
		t.Errorf("batch ingested = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.jobRuns.WithLabelValues("goal-overdue", "error")); got != 1 {
		t.Errorf("job errors = %v, want 1", got)
	}
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.Ingested("single", 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	if !strings.Contains(string(body), `codetrackr_ingest_activities_total{mode="single"} 2`) {
		t.Errorf("exposition missing ingest counter:\n%s", body)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.Ingested("single", 1)
	m.JobRun("x", nil)

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
