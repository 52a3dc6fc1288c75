// Package prompt provides prompt template loading and management.
//
// A Loader resolves templates from project dirs or embedded defaults.
//
// Templates are text/template files named <name>.txt, searched in
// .orion/prompts/, then prompts/, then the embedded defaults
// (implement, fix_tests, pr_description, commit_message).
//
// Example usage:
//
//	loader := prompt.NewLoader(".")
//	text, err := loader.LoadWithVars("implement", map[string]any{
//	    "RepoPath": repo.Path(),
//	    "Task":     "Add authentication",
//	})
package prompt
