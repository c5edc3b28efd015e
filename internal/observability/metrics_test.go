package observability

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ItemGenerated()
	m.CategorySkipped("Hat")
	m.DecodeFailed("v1")
	m.RunCompleted(1, 0, time.Second)
	m.RunStarted()
	m.RunFinished("done")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status: got=%d", rec.Code)
	}
}

func TestMetricsExposition(t *testing.T) {
	m := newMetrics()
	m.ObserveAPI("GET", "/api/collections", "200", 20*time.Millisecond)
	m.ItemGenerated()
	m.ItemGenerated()
	for i := 0; i < 50; i++ {
		m.CategorySkipped(fmt.Sprintf("category-%d", i))
		m.DecodeFailed(fmt.Sprintf("variant-%d", i))
	}
	m.RunCompleted(2, 1, time.Second)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	body := string(raw)
	for _, want := range []string{
		"tf_generation_items_total 2",
		"tf_generation_category_skipped_total 50",
		"tf_generation_decode_failures_total 50",
		"tf_generation_quota_shortfalls_total 1",
		`tf_api_requests_total{method="GET",route="/api/collections",status="200"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in exposition", want)
		}
	}
	if strings.Contains(body, "category-7") || strings.Contains(body, "variant-7") {
		t.Fatalf("uploaded ids must not become metric labels")
	}
}
