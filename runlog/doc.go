// Package runlog provides recording and management of workflow run journals.
//
// Core types:
//   - Record: A recorded run with metadata and per-node events
//   - Event: A single node execution (outcome class, attempts, timing)
//   - Store: Interface for run journal lifecycle management
//   - FileStore: File-based journal storage implementation
//   - Searcher: Grep-based journal search
//   - Viewer: Journal display and export
//
// Example usage:
//
//	store := runlog.NewFileStore(runlog.StoreConfig{
//	    BaseDir: ".orion/runs",
//	})
//	err := store.StartRun("run-123", runlog.RunMetadata{
//	    Graph: "task-to-pr",
//	})
//	err = store.RecordEvent("run-123", runlog.Event{
//	    Node:  "generate",
//	    Class: "success",
//	})
package runlog
