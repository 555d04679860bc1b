// Package observability provides structured logging, Prometheus metrics,
// and health checking for eoltrack.
//
// The metrics server exposes /metrics; the health server exposes /health
// and /ready on a separate port.
package observability
