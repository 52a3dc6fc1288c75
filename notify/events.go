package notify

import (
	"fmt"
	"time"

	"github.com/randalmurphal/orion/flow"
)

// =============================================================================
// Event Constructors
// =============================================================================

// RunStarted builds an event announcing a new run.
func RunStarted(runID, graph string) Event {
	return Event{
		Type:      EventRunStarted,
		RunID:     runID,
		Graph:     graph,
		Message:   fmt.Sprintf("Run %s started on graph %s", runID, graph),
		Severity:  SeverityInfo,
		Timestamp: time.Now(),
	}
}

// RunResumed builds an event announcing a resumed run.
func RunResumed(runID, graph string, seq int64) Event {
	return Event{
		Type:      EventRunResumed,
		RunID:     runID,
		Graph:     graph,
		Message:   fmt.Sprintf("Run %s resumed from checkpoint %d", runID, seq),
		Severity:  SeverityInfo,
		Timestamp: time.Now(),
		Metadata:  map[string]any{"checkpoint_seq": seq},
	}
}

// RunFinished builds an event from a terminal run result.
func RunFinished(result *flow.Result) Event {
	e := Event{
		RunID:     result.RunID,
		Graph:     result.Graph,
		Message:   result.Summary(),
		Timestamp: time.Now(),
	}

	switch result.Status {
	case flow.Succeeded:
		e.Type = EventRunSucceeded
		e.Severity = SeverityInfo
	case flow.PartiallySucceeded:
		e.Type = EventRunPartial
		e.Severity = SeverityWarning
	default:
		e.Type = EventRunFailed
		e.Severity = SeverityError
	}

	if failures := result.Failures(); len(failures) > 0 {
		nodes := make([]string, len(failures))
		for i, f := range failures {
			nodes[i] = f.NodeID
		}
		e.Metadata = map[string]any{"failed_nodes": nodes}
	}

	return e
}

// RunCanceled builds an event announcing a canceled run.
func RunCanceled(runID, graph string) Event {
	return Event{
		Type:      EventRunCanceled,
		RunID:     runID,
		Graph:     graph,
		Message:   fmt.Sprintf("Run %s canceled", runID),
		Severity:  SeverityWarning,
		Timestamp: time.Now(),
	}
}

// NodeFailed builds an event for a node that failed fatally.
func NodeFailed(runID, graph string, rec flow.NodeRecord) Event {
	return Event{
		Type:      EventNodeFailed,
		RunID:     runID,
		Graph:     graph,
		Node:      rec.NodeID,
		Message:   fmt.Sprintf("Node %s failed: %s", rec.NodeID, rec.Outcome.Cause),
		Severity:  SeverityError,
		Timestamp: time.Now(),
		Metadata: map[string]any{
			"attempts": rec.Outcome.Attempts,
			"class":    string(rec.Outcome.Class),
		},
	}
}

// PRCreated builds an event announcing a new pull request.
func PRCreated(runID, graph, url string) Event {
	return Event{
		Type:      EventPRCreated,
		RunID:     runID,
		Graph:     graph,
		Message:   fmt.Sprintf("Pull request created: %s", url),
		Severity:  SeverityInfo,
		Timestamp: time.Now(),
		Metadata:  map[string]any{"pr_url": url},
	}
}
