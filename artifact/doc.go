// Package artifact stores the files a run produces and applies a
// retention policy to old run directories.
//
// Core types:
//   - Manager: saves and loads artifacts for workflow runs
//   - Retention: archives and deletes old runs per a Policy
//
// Typed helpers store the standard run artifacts: rendered prompts,
// generation results, test and lint output, diffs, and the terminal run
// result.
//
// Example usage:
//
//	mgr := artifact.NewManager(artifact.Config{
//	    BaseDir:       ".orion",
//	    CompressAbove: 1024,
//	})
//	err := mgr.Save("run-123", "output.json", data)
//	data, err := mgr.Load("run-123", "output.json")
//
//	ret := artifact.NewRetention(".orion", artifact.DefaultPolicy())
//	report, err := ret.Sweep()
package artifact
