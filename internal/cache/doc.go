// Package cache provides a replica-aware cache over a consistent-hash ring.
// Writes land on the key's primary owner and its ring successors; reads
// consult only the primary.
package cache
