package flow

import "time"

// NodeRecord is the committed result of one node: its final outcome and
// the edges the router fired from it. Records are the unit of replay
// avoidance — a resumed run reuses the recorded patch and routing instead
// of re-invoking the node.
type NodeRecord struct {
	NodeID   string    `json:"node_id"`
	Outcome  Outcome   `json:"outcome"`
	Next     []string  `json:"next,omitempty"`
	Finished time.Time `json:"finished"`
}

// Checkpoint is an immutable snapshot of workflow progress: the state as
// of the last committed node plus every node record so far, monotonically
// sequenced per run. Loading the latest checkpoint and continuing is
// behaviorally equivalent to an uninterrupted run paused at that point.
type Checkpoint struct {
	RunID     string       `json:"run_id"`
	Graph     string       `json:"graph"`
	Seq       int64        `json:"seq"`
	State     State        `json:"state"`
	Nodes     []NodeRecord `json:"nodes"`
	CreatedAt time.Time    `json:"created_at"`
}

// Completed returns the ids of nodes with a committed outcome.
func (c *Checkpoint) Completed() []string {
	ids := make([]string, len(c.Nodes))
	for i, rec := range c.Nodes {
		ids[i] = rec.NodeID
	}
	return ids
}

// CheckpointStore persists checkpoints keyed by run id. Checkpoints are
// append-only and monotonically sequenced; Latest always returns the
// highest sequence number. Implementations live in the checkpoint package
// (memory, file, SQLite) and must be safe for concurrent use.
type CheckpointStore interface {
	// Save appends a checkpoint. Saving a sequence number at or below an
	// existing one for the same run is an error.
	Save(cp *Checkpoint) error

	// Latest returns the highest-sequenced checkpoint for the run, or
	// ErrNoCheckpoint.
	Latest(runID string) (*Checkpoint, error)

	// List returns all retained checkpoints for the run in ascending
	// sequence order.
	List(runID string) ([]*Checkpoint, error)
}
