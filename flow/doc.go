// Package flow implements the workflow orchestration engine: a directed
// graph executor that sequences and parallelizes steps, routes conditionally
// on accumulated state, retries transient failures, and checkpoints progress
// for resumable execution.
//
// Core types:
//   - Graph: declarative workflow structure (nodes, edges, predicates)
//   - State: the canonical record of workflow-accumulated facts
//   - Step: the uniform contract every pluggable executor implements
//   - Outcome: the classified result of one executor invocation
//   - Executor: walks the graph, merges patches, persists checkpoints
//
// The engine owns the canonical State exclusively. Steps receive a read-only
// View and return a Patch covering only their declared write-set; all merging
// happens on the executor's coordinator goroutine, so concurrent branches
// never share a writable handle.
//
// Basic usage:
//
//	g := flow.NewGraph("ship-it").
//	    AddNode(flow.Node{ID: "build", Capability: "builder", WriteSet: []string{"artifact"}}).
//	    AddNode(flow.Node{ID: "publish", Capability: "publisher", WriteSet: []string{"url"}}).
//	    AddEdge(flow.Edge{From: "build", To: "publish"}).
//	    SetEntry("build")
//
//	reg := flow.NewRegistry()
//	reg.Register("builder", buildStep)
//	reg.Register("publisher", publishStep)
//
//	exec := flow.NewExecutor(reg, flow.WithStore(store))
//	result, err := exec.Run(ctx, g, flow.State{}, runID)
//
// Crash recovery resumes from the latest checkpoint without re-invoking
// completed nodes:
//
//	result, err = exec.Resume(ctx, g, runID)
package flow
