// Package it provides an in-process harness wiring the whole stack the way
// cmd/edgekit does, for end-to-end scenario tests.
package it

import (
	"fmt"
	"net/http/httptest"

	"edgekit/internal/balancer"
	"edgekit/internal/breaker"
	"edgekit/internal/cache"
	"edgekit/internal/cluster"
	"edgekit/internal/config"
	"edgekit/internal/consistency"
	"edgekit/internal/server"
)

// Stack is a fully wired toolkit instance behind an httptest server.
type Stack struct {
	Nodes       []*cluster.Node
	Cache       *cache.Cache
	Balancer    *balancer.Balancer
	Consistency *consistency.Manager
	Breaker     *breaker.Breaker
	HTTP        *httptest.Server
}

// NewStack builds the stack from a node-spec string, mirroring the daemon's
// construction path from configuration through serving.
func NewStack(nodeSpecs string, replicationFactor int) (*Stack, error) {
	specs, err := config.ParseNodeSpecs(nodeSpecs)
	if err != nil {
		return nil, fmt.Errorf("parsing node specs: %w", err)
	}

	cfg := &config.Config{
		Nodes:             specs,
		ReplicationFactor: replicationFactor,
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	nodes := cfg.BuildNodes()

	c, err := cache.New(nodes, cfg.ReplicationFactor, cfg.VirtualNodes, nil)
	if err != nil {
		return nil, fmt.Errorf("building cache: %w", err)
	}

	b, err := balancer.New(nodes, nil)
	if err != nil {
		return nil, fmt.Errorf("building balancer: %w", err)
	}

	m := consistency.NewManager(nil)
	brk := breaker.New(cfg.FailureThreshold, cfg.RecoveryTimeout)

	srv := server.New(server.Options{
		Cache:       c,
		Balancer:    b,
		Consistency: m,
		Breaker:     brk,
	})

	return &Stack{
		Nodes:       nodes,
		Cache:       c,
		Balancer:    b,
		Consistency: m,
		Breaker:     brk,
		HTTP:        httptest.NewServer(srv.Router()),
	}, nil
}

// Close shuts down the HTTP server.
func (s *Stack) Close() {
	s.HTTP.Close()
}

// Node returns the node with the given ID, nil if absent.
func (s *Stack) Node(id string) *cluster.Node {
	for _, n := range s.Nodes {
		if n.ID() == id {
			return n
		}
	}
	return nil
}

// ResetLoad marks every node idle. Useful after a test drove nodes
// unhealthy.
func (s *Stack) ResetLoad() {
	for _, n := range s.Nodes {
		n.SetLoad(0)
	}
}
