// Package task provides task-based model selection for generation runs.
//
// A Type names the kind of work the generator is asked to do. Code-producing
// tasks (implement, fix_tests) run on the default tier; prose tasks
// (pr_description, commit_message) run on the fast tier.
//
// Example usage:
//
//	selector := task.NewSelector()
//	name := selector.Select(task.Implement)
package task
