// Package clock provides vector clocks for ordering writes across nodes.
// A clock carries one counter per node; counters capture happened-before
// relationships and let callers detect concurrent writes.
package clock
