package consistency

import (
	"sync"

	"go.uber.org/zap"

	"edgekit/internal/clock"
)

// Write is a recorded write for a key, stamped with a snapshot of the key's
// vector clock taken when the write was applied.
type Write struct {
	Key    string
	Value  string
	NodeID string
	Clock  clock.VectorClock
}

// Manager maintains per-key vector clocks and a log of applied writes.
// All methods are safe for concurrent use.
type Manager struct {
	logger *zap.Logger

	mu     sync.Mutex
	clocks map[string]clock.VectorClock
	writes map[string][]Write
}

// NewManager creates an empty manager. A nil logger disables logging.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		logger: logger,
		clocks: make(map[string]clock.VectorClock),
		writes: make(map[string][]Write),
	}
}

// Write applies a local write for the given node: it advances the node's
// counter under the key's clock, appends the write to the key's log, and
// returns a snapshot of the resulting clock.
func (m *Manager) Write(key, value, nodeID string) clock.VectorClock {
	m.mu.Lock()
	defer m.mu.Unlock()

	vc, ok := m.clocks[key]
	if !ok {
		vc = clock.New()
		m.clocks[key] = vc
	}
	vc.Tick(nodeID)

	snapshot := vc.Clone()
	m.writes[key] = append(m.writes[key], Write{
		Key:    key,
		Value:  value,
		NodeID: nodeID,
		Clock:  snapshot,
	})

	m.logger.Debug("recorded write",
		zap.String("key", key),
		zap.String("node", nodeID),
		zap.Stringer("clock", snapshot))

	return snapshot.Clone()
}

// CheckCausal reports whether a write carrying the supplied clock is
// causally ready: for every node entry in the supplied clock, the locally
// recorded counter must not have advanced past the supplied value. A key
// with no local history is always ready.
func (m *Manager) CheckCausal(key string, supplied clock.VectorClock) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	local, ok := m.clocks[key]
	if !ok {
		return true
	}

	for nodeID, counter := range supplied {
		if local.Counter(nodeID) > counter {
			return false
		}
	}
	return true
}

// ResolveConflict picks the winner among candidate writes for a key:
// the write whose clock has the largest maximum component. Ties go to the
// latest candidate in the slice, so the most recently appended write wins.
// Returns false when the candidate list is empty.
func (m *Manager) ResolveConflict(key string, candidates []Write) (Write, bool) {
	if len(candidates) == 0 {
		return Write{}, false
	}

	winner := candidates[0]
	for _, w := range candidates[1:] {
		if w.Clock.MaxCounter() >= winner.Clock.MaxCounter() {
			winner = w
		}
	}

	m.logger.Debug("resolved conflict",
		zap.String("key", key),
		zap.Int("candidates", len(candidates)),
		zap.String("winner", winner.NodeID))

	return winner, true
}

// PendingWrites returns a copy of the write log for a key, oldest first.
func (m *Manager) PendingWrites(key string) []Write {
	m.mu.Lock()
	defer m.mu.Unlock()

	log := m.writes[key]
	out := make([]Write, len(log))
	copy(out, log)
	return out
}

// ClockFor returns a snapshot of the key's current clock, empty if the key
// has no history.
func (m *Manager) ClockFor(key string) clock.VectorClock {
	m.mu.Lock()
	defer m.mu.Unlock()

	vc, ok := m.clocks[key]
	if !ok {
		return clock.New()
	}
	return vc.Clone()
}
