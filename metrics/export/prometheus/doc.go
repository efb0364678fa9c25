// Package prometheus renders engine metrics in the Prometheus text
// exposition format.
//
// The exporter does not touch any global registry. Mount Handler wherever
// the service exposes /metrics.
package prometheus
