package cache

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"edgekit/internal/cluster"
	"edgekit/internal/ring"
)

// ErrReplicationFactor indicates the configured replication factor cannot be
// satisfied by the available distinct nodes.
var ErrReplicationFactor = errors.New("replication factor exceeds distinct nodes")

// Cache maps keys to nodes via a consistent-hash ring and replicates every
// write to the primary plus replicationFactor-1 distinct successors. There is
// no atomicity across replicas: a failed process mid-Set leaves a partially
// replicated value, and convergence among replicas is eventual only.
type Cache struct {
	ring   *ring.Ring
	nodes  map[string]*cluster.Node
	rf     int
	logger *zap.Logger
}

// New builds a cache over the given nodes. It fails fast when
// replicationFactor exceeds the number of distinct nodes rather than
// silently degrading replication. A non-positive vnodesPerNode selects the
// ring default; a nil logger disables logging.
func New(nodes []*cluster.Node, replicationFactor, vnodesPerNode int, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if replicationFactor <= 0 {
		return nil, fmt.Errorf("replication factor must be positive, got %d", replicationFactor)
	}

	byID := make(map[string]*cluster.Node, len(nodes))
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := byID[n.ID()]; dup {
			return nil, fmt.Errorf("duplicate node ID: %s", n.ID())
		}
		byID[n.ID()] = n
		ids = append(ids, n.ID())
	}

	if replicationFactor > len(byID) {
		return nil, fmt.Errorf("%w: factor=%d nodes=%d", ErrReplicationFactor, replicationFactor, len(byID))
	}

	r, err := ring.New(ids, vnodesPerNode)
	if err != nil {
		return nil, fmt.Errorf("building ring: %w", err)
	}

	return &Cache{
		ring:   r,
		nodes:  byID,
		rf:     replicationFactor,
		logger: logger,
	}, nil
}

// Owner returns the primary node for a key.
func (c *Cache) Owner(key string) *cluster.Node {
	return c.nodes[c.ring.Owner(key)]
}

// Replicas returns the replicationFactor-1 distinct nodes that hold copies
// of the key besides the primary.
func (c *Cache) Replicas(key string) []*cluster.Node {
	ids := c.ring.Successors(key, c.rf-1)
	out := make([]*cluster.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.nodes[id])
	}
	return out
}

// Set writes the value to the primary and every replica. After Set returns,
// all replicationFactor copies hold the value; replicas are written in ring
// order with no cross-node transaction.
func (c *Cache) Set(key, value string) {
	primary := c.Owner(key)
	primary.Store().Put(key, value)

	replicas := c.Replicas(key)
	for _, n := range replicas {
		n.Store().Put(key, value)
	}

	c.logger.Debug("cached value",
		zap.String("key", key),
		zap.String("primary", primary.ID()),
		zap.Int("replicas", len(replicas)))
}

// Get reads the value from the key's primary only. It does not fall back to
// replicas when the primary is unavailable; callers wanting read
// availability across replica loss need a quorum read on top of this.
func (c *Cache) Get(key string) (string, bool) {
	return c.Owner(key).Store().Get(key)
}

// ReplicationFactor returns the configured replication factor.
func (c *Cache) ReplicationFactor() int { return c.rf }

// Ring exposes the underlying ring for ownership introspection.
func (c *Cache) Ring() *ring.Ring { return c.ring }
