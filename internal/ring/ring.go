package ring

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// DefaultVirtualNodes is the number of ring positions per physical node when
// none is configured.
const DefaultVirtualNodes = 100

// vnode is a single ring position owned by a physical node.
type vnode struct {
	pos    uint64
	nodeID string
}

// Ring maps keys to physical nodes via consistent hashing. It is immutable
// after construction: rebuild and swap the whole ring on membership change.
type Ring struct {
	vnodes  []vnode
	nodeIDs []string // distinct physical nodes, construction order
}

// New builds a ring from the given node IDs with vnodesPerNode positions per
// node. Node IDs must be non-empty and unique. If vnodesPerNode is not
// positive, DefaultVirtualNodes is used.
func New(nodeIDs []string, vnodesPerNode int) (*Ring, error) {
	if len(nodeIDs) == 0 {
		return nil, fmt.Errorf("ring requires at least one node")
	}
	if vnodesPerNode <= 0 {
		vnodesPerNode = DefaultVirtualNodes
	}

	seen := make(map[string]bool, len(nodeIDs))
	r := &Ring{
		vnodes:  make([]vnode, 0, len(nodeIDs)*vnodesPerNode),
		nodeIDs: make([]string, 0, len(nodeIDs)),
	}

	for _, id := range nodeIDs {
		if id == "" {
			return nil, fmt.Errorf("ring node ID cannot be empty")
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate ring node ID: %s", id)
		}
		seen[id] = true
		r.nodeIDs = append(r.nodeIDs, id)

		for i := 0; i < vnodesPerNode; i++ {
			r.vnodes = append(r.vnodes, vnode{
				pos:    Hash(fmt.Sprintf("%s:%d", id, i)),
				nodeID: id,
			})
		}
	}

	// Sort by position; break position collisions by owner ID so equal
	// hashes still order deterministically.
	sort.Slice(r.vnodes, func(i, j int) bool {
		if r.vnodes[i].pos != r.vnodes[j].pos {
			return r.vnodes[i].pos < r.vnodes[j].pos
		}
		return r.vnodes[i].nodeID < r.vnodes[j].nodeID
	})

	return r, nil
}

// Hash returns the ring position for a label or key.
func Hash(s string) uint64 {
	return xxhash.Sum64String(s)
}

// Owner returns the ID of the node owning the given key: the node at the
// first ring position at or after the key's hash, wrapping to the smallest
// position when the hash exceeds every vnode.
func (r *Ring) Owner(key string) string {
	idx := r.ownerIndex(key)
	return r.vnodes[idx].nodeID
}

// Successors returns up to n distinct node IDs encountered walking the ring
// forward from the key's owner, excluding the owner itself. These are the
// replica targets for the key.
func (r *Ring) Successors(key string, n int) []string {
	if n <= 0 {
		return nil
	}

	idx := r.ownerIndex(key)
	owner := r.vnodes[idx].nodeID

	seen := map[string]bool{owner: true}
	out := make([]string, 0, n)
	for i := 1; i < len(r.vnodes) && len(out) < n; i++ {
		id := r.vnodes[(idx+i)%len(r.vnodes)].nodeID
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Nodes returns the distinct physical node IDs in construction order.
func (r *Ring) Nodes() []string {
	out := make([]string, len(r.nodeIDs))
	copy(out, r.nodeIDs)
	return out
}

// Len returns the number of distinct physical nodes on the ring.
func (r *Ring) Len() int {
	return len(r.nodeIDs)
}

// ownerIndex finds the vnode index owning the key's hash.
func (r *Ring) ownerIndex(key string) int {
	h := Hash(key)
	idx := sort.Search(len(r.vnodes), func(i int) bool {
		return r.vnodes[i].pos >= h
	})
	if idx == len(r.vnodes) {
		idx = 0 // the ring is circular
	}
	return idx
}
