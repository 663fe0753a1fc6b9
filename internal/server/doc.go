// Package server exposes the toolkit over HTTP: cache reads and replicated
// writes, latency-aware routing, a cluster health report, and Prometheus
// metrics. Writes are stamped through the consistency manager and guarded by
// a circuit breaker.
package server
