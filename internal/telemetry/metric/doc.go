// Package metric provides Prometheus metrics for loresync.
//
//   - prometheus.go: coordinator counters and histograms, /metrics handler
//   - collector.go: gauges read from the coordinator at scrape time
//
// A nil *Metrics is valid and records nothing, so the coordinator can
// run without a registry in tests and small tools.
package metric
