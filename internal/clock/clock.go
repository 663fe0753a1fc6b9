package clock

import (
	"fmt"
	"sort"
	"strings"
)

// VectorClock maps node IDs to monotonically increasing counters. A node's
// counter only advances when that node performs a local write, so each
// counter slot is single-writer. Concurrent use of one clock value must be
// serialized by the caller.
type VectorClock map[string]uint64

// New returns an empty vector clock.
func New() VectorClock {
	return make(VectorClock)
}

// Tick advances the counter for nodeID by one.
func (vc VectorClock) Tick(nodeID string) {
	vc[nodeID]++
}

// Counter returns the counter for nodeID, zero if absent.
func (vc VectorClock) Counter(nodeID string) uint64 {
	return vc[nodeID]
}

// Merge folds another clock into this one, keeping the maximum counter for
// every node.
func (vc VectorClock) Merge(other VectorClock) {
	for nodeID, c := range other {
		if vc[nodeID] < c {
			vc[nodeID] = c
		}
	}
}

// Clone returns an independent copy of the clock.
func (vc VectorClock) Clone() VectorClock {
	out := make(VectorClock, len(vc))
	for nodeID, c := range vc {
		out[nodeID] = c
	}
	return out
}

// MaxCounter returns the largest counter across all nodes, zero for an
// empty clock. Last-write-wins resolution compares writes on this value.
func (vc VectorClock) MaxCounter() uint64 {
	var max uint64
	for _, c := range vc {
		if c > max {
			max = c
		}
	}
	return max
}

// Ordering is the causal relationship between two clocks.
type Ordering int

const (
	// Before means this clock happened before the other.
	Before Ordering = iota
	// After means this clock happened after the other.
	After
	// Concurrent means neither clock dominates the other.
	Concurrent
	// Identical means the clocks are equal.
	Identical
)

// String returns the ordering name.
func (o Ordering) String() string {
	switch o {
	case Before:
		return "before"
	case After:
		return "after"
	case Concurrent:
		return "concurrent"
	case Identical:
		return "identical"
	default:
		return "unknown"
	}
}

// Compare reports the causal relationship of vc to other. Missing entries
// count as zero on either side.
func (vc VectorClock) Compare(other VectorClock) Ordering {
	var less, greater bool

	for nodeID, c := range vc {
		switch oc := other[nodeID]; {
		case c < oc:
			less = true
		case c > oc:
			greater = true
		}
	}
	for nodeID, oc := range other {
		if _, ok := vc[nodeID]; !ok && oc > 0 {
			less = true
		}
	}

	switch {
	case less && greater:
		return Concurrent
	case less:
		return Before
	case greater:
		return After
	default:
		return Identical
	}
}

// Equal reports whether both clocks carry the same counters.
func (vc VectorClock) Equal(other VectorClock) bool {
	return vc.Compare(other) == Identical
}

// String renders the clock as "{node:counter, ...}" with nodes sorted for
// stable output.
func (vc VectorClock) String() string {
	if len(vc) == 0 {
		return "{}"
	}

	nodeIDs := make([]string, 0, len(vc))
	for nodeID := range vc {
		nodeIDs = append(nodeIDs, nodeID)
	}
	sort.Strings(nodeIDs)

	parts := make([]string, 0, len(nodeIDs))
	for _, nodeID := range nodeIDs {
		parts = append(parts, fmt.Sprintf("%s:%d", nodeID, vc[nodeID]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
