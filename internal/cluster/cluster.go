package cluster

import (
	"sync"
	"time"
)

// Region identifies a deployment region.
type Region string

// Known regions.
const (
	USEast  Region = "us-east"
	USWest  Region = "us-west"
	EUWest  Region = "eu-west"
	APSouth Region = "ap-south"
)

// DefaultLatency is the conservative estimate returned for region pairs
// without a measured entry.
const DefaultLatency = 200 * time.Millisecond

// healthThreshold is the fraction of capacity above which a node is
// considered unhealthy.
const healthThreshold = 0.9

type regionPair struct {
	from Region
	to   Region
}

// regionLatencies holds static estimates for known region pairs. Entries are
// symmetric; Latency checks both directions.
var regionLatencies = map[regionPair]time.Duration{
	{USEast, USWest}:  60 * time.Millisecond,
	{USEast, EUWest}:  80 * time.Millisecond,
	{USWest, EUWest}:  140 * time.Millisecond,
	{USEast, APSouth}: 190 * time.Millisecond,
	{USWest, APSouth}: 150 * time.Millisecond,
	{EUWest, APSouth}: 120 * time.Millisecond,
}

// Latency returns the estimated network latency between two regions.
// Same-region traffic is 0. Known pairs get fixed estimates; unknown pairs
// get DefaultLatency.
func Latency(from, to Region) time.Duration {
	if from == to {
		return 0
	}
	if d, ok := regionLatencies[regionPair{from, to}]; ok {
		return d
	}
	if d, ok := regionLatencies[regionPair{to, from}]; ok {
		return d
	}
	return DefaultLatency
}

// Node is a compute location in the cluster. Load is an external signal fed
// by whatever component tracks real traffic; the node itself only derives
// health from it.
type Node struct {
	id       string
	region   Region
	capacity float64
	store    *Store

	mu   sync.RWMutex
	load float64
}

// NewNode creates a node with zero load and an empty local store.
func NewNode(id string, region Region, capacity float64) *Node {
	return &Node{
		id:       id,
		region:   region,
		capacity: capacity,
		store:    NewStore(),
	}
}

// ID returns the node's unique identity.
func (n *Node) ID() string { return n.id }

// Region returns the node's region.
func (n *Node) Region() Region { return n.region }

// Capacity returns the node's load capacity.
func (n *Node) Capacity() float64 { return n.capacity }

// Store returns the node's local key-value store.
func (n *Node) Store() *Store { return n.store }

// Load returns the current load.
func (n *Node) Load() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.load
}

// SetLoad records the current load. Negative values clamp to zero to keep
// the load invariant.
func (n *Node) SetLoad(load float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if load < 0 {
		load = 0
	}
	n.load = load
}

// Healthy reports whether the node is below 90% of its capacity.
func (n *Node) Healthy() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.load < healthThreshold*n.capacity
}

// LoadRatio returns load divided by capacity. A zero-capacity node reports
// ratio 1 so it never looks idle.
func (n *Node) LoadRatio() float64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.capacity <= 0 {
		return 1
	}
	return n.load / n.capacity
}

// LatencyTo estimates network latency from this node to another.
func (n *Node) LatencyTo(other *Node) time.Duration {
	return Latency(n.region, other.region)
}
