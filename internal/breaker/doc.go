// Package breaker implements a closed/open/half-open circuit breaker around
// arbitrary calls. Repeated failures trip the circuit; after a recovery
// timeout a single trial call decides whether it closes again.
package breaker
