// Package config holds daemon configuration and the node-list format
// parsing shared by the CLI and tests.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"edgekit/internal/cluster"
)

// Defaults applied by Validate when fields are unset.
const (
	DefaultVirtualNodes      = 100
	DefaultReplicationFactor = 2
	DefaultFailureThreshold  = 5
	DefaultRecoveryTimeout   = 30 * time.Second
	DefaultListenAddress     = "0.0.0.0:8480"
)

// NodeSpec describes one node from configuration.
type NodeSpec struct {
	ID       string
	Region   cluster.Region
	Capacity float64
}

// Config is the daemon configuration.
type Config struct {
	ListenAddress     string
	Nodes             []NodeSpec
	VirtualNodes      int
	ReplicationFactor int
	FailureThreshold  int
	RecoveryTimeout   time.Duration
	LogLevel          string
}

// ParseNodeSpecs parses a comma-separated node list in the format:
// "id1=region:capacity,id2=region:capacity"
func ParseNodeSpecs(specsStr string) ([]NodeSpec, error) {
	if strings.TrimSpace(specsStr) == "" {
		return nil, nil
	}

	parts := strings.Split(specsStr, ",")
	specs := make([]NodeSpec, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid node spec: %s (expected id=region:capacity)", part)
		}

		id := strings.TrimSpace(kv[0])
		rc := strings.SplitN(strings.TrimSpace(kv[1]), ":", 2)
		if id == "" || len(rc) != 2 {
			return nil, fmt.Errorf("invalid node spec: %s (expected id=region:capacity)", part)
		}

		region := strings.TrimSpace(rc[0])
		if region == "" {
			return nil, fmt.Errorf("node %s: region cannot be empty", id)
		}

		capacity, err := strconv.ParseFloat(strings.TrimSpace(rc[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("node %s: invalid capacity %q: %w", id, rc[1], err)
		}
		if capacity <= 0 {
			return nil, fmt.Errorf("node %s: capacity must be positive, got %v", id, capacity)
		}

		specs = append(specs, NodeSpec{
			ID:       id,
			Region:   cluster.Region(region),
			Capacity: capacity,
		})
	}

	return specs, nil
}

// Validate fills defaults and rejects configurations the components would
// fail on at construction, so misconfiguration surfaces before any server
// starts.
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		c.ListenAddress = DefaultListenAddress
	}
	if c.VirtualNodes <= 0 {
		c.VirtualNodes = DefaultVirtualNodes
	}
	if c.ReplicationFactor <= 0 {
		c.ReplicationFactor = DefaultReplicationFactor
	}
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = DefaultFailureThreshold
	}
	if c.RecoveryTimeout <= 0 {
		c.RecoveryTimeout = DefaultRecoveryTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if len(c.Nodes) == 0 {
		return fmt.Errorf("at least one node must be configured")
	}

	seen := make(map[string]bool, len(c.Nodes))
	for _, spec := range c.Nodes {
		if seen[spec.ID] {
			return fmt.Errorf("duplicate node ID: %s", spec.ID)
		}
		seen[spec.ID] = true
	}

	if c.ReplicationFactor > len(c.Nodes) {
		return fmt.Errorf("replication factor %d exceeds configured nodes %d", c.ReplicationFactor, len(c.Nodes))
	}

	return nil
}

// BuildNodes constructs cluster nodes from the configured specs, in
// configuration order.
func (c *Config) BuildNodes() []*cluster.Node {
	nodes := make([]*cluster.Node, 0, len(c.Nodes))
	for _, spec := range c.Nodes {
		nodes = append(nodes, cluster.NewNode(spec.ID, spec.Region, spec.Capacity))
	}
	return nodes
}
