package goSession

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricSignInSuccess)

	if got := m.Value(MetricSignInSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if snap := m.Snapshot(); len(snap.Counters) != 0 {
		t.Fatalf("expected empty snapshot, got %v", snap.Counters)
	}
}

func TestMetricsNilIsSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricSignInFailure)
	m.Observe(MetricLoadLatency, time.Millisecond)
	if m.Value(MetricSignInFailure) != 0 || m.Enabled() {
		t.Fatal("nil metrics must record nothing")
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricSessionCreated)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricSessionCreated); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		500 * time.Microsecond,
		2 * time.Millisecond,
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		time.Second,
	}

	for _, d := range observations {
		m.Observe(MetricLoadLatency, d)
	}
	m.Observe(MetricSignInSuccess, time.Millisecond)

	buckets := m.Snapshot().Histograms[MetricLoadLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("expected %d buckets, got %d", histBucketCount, len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
}

func TestMetricsSnapshotConsistency(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricSignInSuccess)
	m.Inc(MetricSignInFailure)
	m.Inc(MetricSignInFailure)
	m.Observe(MetricLoadLatency, 2*time.Millisecond)

	snap := m.Snapshot()
	if snap.Counters[MetricSignInSuccess] != 1 {
		t.Fatalf("expected MetricSignInSuccess=1 got %d", snap.Counters[MetricSignInSuccess])
	}
	if snap.Counters[MetricSignInFailure] != 2 {
		t.Fatalf("expected MetricSignInFailure=2 got %d", snap.Counters[MetricSignInFailure])
	}
	if _, ok := snap.Histograms[MetricLoadLatency]; ok {
		t.Fatal("histogram must be absent when latency is disabled")
	}
}
