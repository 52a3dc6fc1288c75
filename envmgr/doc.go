// Package envmgr prepares the execution environment for a workflow run:
// detecting the project kind, creating isolated Python virtualenvs, and
// installing dependencies before generated code is tested.
//
// Core types:
//   - Manager: per-repository environment operations
//   - Kind: detected project kind (python, go, node)
//
// Example usage:
//
//	mgr := envmgr.New(worktree)
//	if err := mgr.Setup(); err != nil { ... }
package envmgr
