// Package generate wraps the claude CLI binary for structured code
// generation from workflow steps.
//
// Core types:
//   - Generator: CLI wrapper with per-run options (model, tools, session)
//   - Result: Output text plus token usage, cost, and session ID
//   - ContextBuilder: Assembles file context with size limits
//   - FileSelector: Selects files for context based on glob patterns
//
// Example usage:
//
//	gen, err := generate.New(generate.Config{Model: "claude-sonnet-4-20250514"})
//	result, err := gen.Run(ctx, "Implement the task",
//	    generate.WithWorkDir(worktree),
//	    generate.WithContext("*.go", "README.md"),
//	)
package generate
