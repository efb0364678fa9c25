package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef names one engine counter.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef names one engine histogram.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricSignInSuccess, Name: "gosession_sign_in_success_total", Help: "Successful sign-ins."},
	{ID: goSession.MetricSignInFailure, Name: "gosession_sign_in_failure_total", Help: "Sign-ins rejected for bad credentials."},
	{ID: goSession.MetricSessionCreated, Name: "gosession_session_created_total", Help: "Sessions minted."},
	{ID: goSession.MetricSessionDestroyed, Name: "gosession_session_destroyed_total", Help: "Sessions destroyed by sign-out."},
	{ID: goSession.MetricSignatureRejected, Name: "gosession_signature_rejected_total", Help: "Session tokens that failed verification."},
	{ID: goSession.MetricPrincipalVanished, Name: "gosession_principal_vanished_total", Help: "Sessions whose account no longer exists."},
	{ID: goSession.MetricStoreUnavailable, Name: "gosession_store_unavailable_total", Help: "Session store failures."},
	{ID: goSession.MetricGuardRejected, Name: "gosession_guard_rejected_total", Help: "Requests refused for missing authentication."},
	{ID: goSession.MetricSignInThrottled, Name: "gosession_sign_in_throttled_total", Help: "Sign-ins refused after too many failures."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricLoadLatency, Name: "gosession_load_latency_seconds", Help: "Session load latency."},
}

// HistogramBounds are the bucket upper bounds in seconds.
var HistogramBounds = []string{
	"0.001",
	"0.002",
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"+Inf",
}

// HistogramBoundSuffix spells HistogramBounds for use in instrument names.
var HistogramBoundSuffix = []string{
	"0_001",
	"0_002",
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"inf",
}

// NormalizeBuckets copies raw into a fixed array, zero-filling short input.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
