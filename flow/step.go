package flow

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Step is the uniform contract every pluggable task executor implements.
// The engine never inspects a step's internals, only its declared Outcome.
//
// Constraints on implementers:
//   - Execute must be safely re-invokable (idempotent or side-effect
//     guarded); the retry controller may call it multiple times.
//   - The returned patch must not touch fields outside the node's declared
//     write-set.
//   - Execute must honor ctx cancellation and return promptly when the
//     engine signals a sibling's fatal failure or a node timeout.
type Step interface {
	Execute(ctx context.Context, view View) Outcome
}

// StepFunc adapts a function to the Step interface.
type StepFunc func(ctx context.Context, view View) Outcome

// Execute implements Step.
func (f StepFunc) Execute(ctx context.Context, view View) Outcome {
	return f(ctx, view)
}

// Registry resolves capability names to concrete Step implementations.
// Bindings are supplied by the embedding application and resolved once at
// graph validation time, never by runtime reflection.
type Registry struct {
	mu    sync.RWMutex
	steps map[string]Step
}

// NewRegistry creates an empty capability registry.
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// Register binds a capability name to a step. Re-registering a name
// replaces the previous binding.
func (r *Registry) Register(capability string, step Step) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps[capability] = step
}

// RegisterFunc binds a capability name to a step function.
func (r *Registry) RegisterFunc(capability string, fn StepFunc) {
	r.Register(capability, fn)
}

// Resolve returns the step bound to a capability name.
func (r *Registry) Resolve(capability string) (Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	step, ok := r.steps[capability]
	if !ok {
		return nil, fmt.Errorf("capability %q not registered", capability)
	}
	return step, nil
}

// Capabilities returns all registered capability names, sorted.
func (r *Registry) Capabilities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.steps))
	for name := range r.steps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
