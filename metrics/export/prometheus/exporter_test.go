package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
)

type fakeSource struct {
	snapshot goSession.MetricsSnapshot
}

func (f fakeSource) Snapshot() goSession.MetricsSnapshot { return f.snapshot }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewExporterFromSource(goSession.NewMetrics(goSession.MetricsConfig{}))

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderIncludesCounterAndHistogram(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricSignInSuccess: 7,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricLoadLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
	})

	out := exp.Render()
	for _, want := range []string{
		"gosession_sign_in_success_total 7",
		"gosession_sign_in_failure_total 0",
		"gosession_load_latency_seconds_bucket{le=\"0.001\"} 1",
		"gosession_load_latency_seconds_bucket{le=\"+Inf\"} 36",
		"gosession_load_latency_seconds_count 36",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestRenderOmitsDisabledHistogram(t *testing.T) {
	m := goSession.NewMetrics(goSession.MetricsConfig{Enabled: true})
	m.Inc(goSession.MetricGuardRejected)
	m.Observe(goSession.MetricLoadLatency, time.Millisecond)

	out := NewExporterFromSource(m).Render()
	if !strings.Contains(out, "gosession_guard_rejected_total 1") {
		t.Fatalf("expected guard counter, got:\n%s", out)
	}
	if strings.Contains(out, "gosession_load_latency_seconds") {
		t.Fatalf("histogram rendered while disabled:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters:   map[goSession.MetricID]uint64{goSession.MetricSignInSuccess: 1},
			Histograms: map[goSession.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewExporterFromSource(fakeSource{
		snapshot: goSession.MetricsSnapshot{
			Counters: map[goSession.MetricID]uint64{
				goSession.MetricSignInSuccess:     1000,
				goSession.MetricSignInFailure:     40,
				goSession.MetricSessionCreated:    800,
				goSession.MetricSessionDestroyed:  20,
				goSession.MetricSignatureRejected: 3,
			},
			Histograms: map[goSession.MetricID][]uint64{
				goSession.MetricLoadLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}
