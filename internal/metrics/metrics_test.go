package metrics

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveExport(t *testing.T) {
	m := New()
	m.ObserveExport("pdf", 2048, time.Second, nil)
	m.ObserveExport("pdf", 0, 0, errors.New("boom"))
	m.ObserveExport("xlsx", 4096, time.Second, nil)

	if got := testutil.ToFloat64(m.exports.WithLabelValues("pdf", "ok")); got != 1 {
		t.Errorf("pdf ok = %v", got)
	}
	if got := testutil.ToFloat64(m.exports.WithLabelValues("pdf", "error")); got != 1 {
		t.Errorf("pdf error = %v", got)
	}
	if got := testutil.CollectAndCount(m.exportBytes); got != 2 {
		t.Errorf("size series = %d, want 2", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
	m.ObserveExport("pdf", 1, time.Millisecond, nil)
	m.RateLimited()
	m.ExportJobFinished("done")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 404 {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/api/v1/pages", 200, 10*time.Millisecond)
	m.RateLimited()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	for _, want := range []string{
		`fooddiary_http_requests_total{method="GET",route="/api/v1/pages",status="200"} 1`,
		"fooddiary_rate_limited_total 1",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
