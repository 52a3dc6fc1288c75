package flow

import "fmt"

// Status is the terminal status of a workflow run.
type Status string

const (
	// Succeeded means the frontier drained with every executed node
	// succeeding.
	Succeeded Status = "succeeded"

	// Failed means a node failed fatally with no fallback edge.
	Failed Status = "failed"

	// PartiallySucceeded means a fatal failure was recovered through a
	// fallback edge while sibling branches succeeded; both the successful
	// and failed branch outcomes are recorded.
	PartiallySucceeded Status = "partial"
)

// Result is the terminal artifact of a run: final status, the final state
// record, and the ordered log of node records with attempt counts and
// causes — enough for post-mortem without re-running the workflow.
type Result struct {
	RunID  string       `json:"run_id"`
	Graph  string       `json:"graph"`
	Status Status       `json:"status"`
	State  State        `json:"state"`
	Log    []NodeRecord `json:"log"`
}

// Failures returns the records of nodes that ended in fatal failure.
func (r *Result) Failures() []NodeRecord {
	var out []NodeRecord
	for _, rec := range r.Log {
		if rec.Outcome.Class == FatalFailure {
			out = append(out, rec)
		}
	}
	return out
}

// Summary returns a one-line human-readable description of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf("run %s [%s]: %s (%d nodes, %d failed)",
		r.RunID, r.Status, r.Graph, len(r.Log), len(r.Failures()))
}
