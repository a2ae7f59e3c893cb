package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewEngineCollectorRegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewEngineCollector(reg)
	if err != nil {
		t.Fatalf("NewEngineCollector: %v", err)
	}

	collector.VisiblePoints.Set(1234)
	collector.QueriesDispatched.WithLabelValues("rectangle").Inc()
	collector.QueriesStale.Inc()

	if got := testutil.ToFloat64(collector.VisiblePoints); got != 1234 {
		t.Errorf("pointfield_visible_points = %v, want 1234", got)
	}
	if got := testutil.ToFloat64(collector.QueriesDispatched.WithLabelValues("rectangle")); got != 1 {
		t.Errorf("pointfield_queries_dispatched_total{kind=rectangle} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.QueriesStale); got != 1 {
		t.Errorf("pointfield_queries_stale_total = %v, want 1", got)
	}
}

func TestNewEngineCollectorTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewEngineCollector(reg)
	if err != nil {
		t.Fatalf("first NewEngineCollector: %v", err)
	}
	second, err := NewEngineCollector(reg)
	if err != nil {
		t.Fatalf("second NewEngineCollector: %v", err)
	}

	first.QueriesApplied.Inc()
	second.QueriesApplied.Inc()

	if got := testutil.ToFloat64(first.QueriesApplied); got != 2 {
		t.Errorf("re-registered counter diverged: %v, want 2", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewEngineCollector(reg)
	if err != nil {
		t.Fatalf("NewEngineCollector: %v", err)
	}
	collector.HoverChanges.Inc()

	srv := httptest.NewServer(collector.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(raw), "pointfield_hover_changes_total") {
		t.Errorf("metrics output does not expose pointfield_hover_changes_total")
	}
}
