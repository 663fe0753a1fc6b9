package balancer

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"edgekit/internal/cluster"
)

// FallbackPenalty is the latency reported when no node is healthy and the
// request degrades to the fallback node.
const FallbackPenalty = 500 * time.Millisecond

// Route is the outcome of a routing decision. Fallback marks degraded
// service: no healthy node was available and the designated fallback was
// chosen with FallbackPenalty as the estimate.
type Route struct {
	Node     *cluster.Node
	Latency  time.Duration
	Fallback bool
}

// NodeHealth is one node's entry in a health report.
type NodeHealth struct {
	Healthy   bool
	LoadRatio float64
}

// Balancer picks nodes for client requests. Node order is fixed at
// construction; ties and the fallback choice resolve to the earliest
// configured node, so equal inputs always produce equal routes.
type Balancer struct {
	nodes  []*cluster.Node
	logger *zap.Logger
}

// New creates a balancer over the given nodes in the given order.
// A nil logger disables logging.
func New(nodes []*cluster.Node, logger *zap.Logger) (*Balancer, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("balancer requires at least one node")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Balancer{nodes: nodes, logger: logger}, nil
}

// RouteRequest picks the healthy node with the lowest estimated latency to
// the client's region. The service name is accepted for forward
// compatibility with per-service pools and does not affect the decision.
// With no healthy node it returns the first configured node flagged as
// fallback; routing never fails outright.
func (b *Balancer) RouteRequest(clientRegion cluster.Region, service string) Route {
	var best *cluster.Node
	var bestLatency time.Duration

	for _, n := range b.nodes {
		if !n.Healthy() {
			continue
		}
		lat := cluster.Latency(n.Region(), clientRegion)
		if best == nil || lat < bestLatency {
			best = n
			bestLatency = lat
		}
	}

	if best == nil {
		fallback := b.nodes[0]
		b.logger.Warn("no healthy nodes, routing to fallback",
			zap.String("service", service),
			zap.String("region", string(clientRegion)),
			zap.String("fallback", fallback.ID()))
		return Route{Node: fallback, Latency: FallbackPenalty, Fallback: true}
	}

	b.logger.Debug("routed request",
		zap.String("service", service),
		zap.String("region", string(clientRegion)),
		zap.String("node", best.ID()),
		zap.Duration("latency", bestLatency))

	return Route{Node: best, Latency: bestLatency}
}

// HealthCheck reports health and load ratio for every node. It has no side
// effects.
func (b *Balancer) HealthCheck() map[string]NodeHealth {
	report := make(map[string]NodeHealth, len(b.nodes))
	for _, n := range b.nodes {
		report[n.ID()] = NodeHealth{
			Healthy:   n.Healthy(),
			LoadRatio: n.LoadRatio(),
		}
	}
	return report
}

// Nodes returns the configured nodes in routing order.
func (b *Balancer) Nodes() []*cluster.Node {
	out := make([]*cluster.Node, len(b.nodes))
	copy(out, b.nodes)
	return out
}
