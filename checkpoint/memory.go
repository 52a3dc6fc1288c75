package checkpoint

import (
	"fmt"
	"sync"

	"github.com/randalmurphal/orion/flow"
)

// MemoryStore keeps checkpoints in process memory. Useful for tests and
// for runs that do not need to survive a crash.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string][]*flow.Checkpoint // ascending by seq
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string][]*flow.Checkpoint)}
}

// Save implements flow.CheckpointStore.
func (s *MemoryStore) Save(cp *flow.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cps := s.runs[cp.RunID]
	if len(cps) > 0 && cp.Seq <= cps[len(cps)-1].Seq {
		return fmt.Errorf("%w: run %s already at seq %d, got %d",
			ErrSequenceConflict, cp.RunID, cps[len(cps)-1].Seq, cp.Seq)
	}
	s.runs[cp.RunID] = append(cps, snapshot(cp))
	return nil
}

// Latest implements flow.CheckpointStore.
func (s *MemoryStore) Latest(runID string) (*flow.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cps := s.runs[runID]
	if len(cps) == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, flow.ErrNoCheckpoint)
	}
	return snapshot(cps[len(cps)-1]), nil
}

// List implements flow.CheckpointStore.
func (s *MemoryStore) List(runID string) ([]*flow.Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cps := s.runs[runID]
	out := make([]*flow.Checkpoint, len(cps))
	for i, cp := range cps {
		out[i] = snapshot(cp)
	}
	return out, nil
}

// Prune drops all but the newest keep checkpoints for the run. The latest
// checkpoint is always retained.
func (s *MemoryStore) Prune(runID string, keep int) error {
	if keep < 1 {
		keep = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cps := s.runs[runID]
	if len(cps) > keep {
		s.runs[runID] = append([]*flow.Checkpoint(nil), cps[len(cps)-keep:]...)
	}
	return nil
}

// snapshot copies a checkpoint so callers and the store never share
// mutable state.
func snapshot(cp *flow.Checkpoint) *flow.Checkpoint {
	out := *cp
	out.State = cp.State.Clone()
	out.Nodes = make([]flow.NodeRecord, len(cp.Nodes))
	copy(out.Nodes, cp.Nodes)
	return &out
}
