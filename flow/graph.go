package flow

import (
	"fmt"
	"time"
)

// Predicate decides whether an edge fires, evaluated against the read-only
// state view and the source node's final outcome. Predicates must be pure:
// the engine may evaluate them more than once and requires identical
// answers for identical inputs.
type Predicate func(view View, out Outcome) bool

// Node is one unit of work in a workflow graph, bound to a step executor
// by capability name.
type Node struct {
	// ID uniquely identifies the node within the graph.
	ID string

	// Capability names the step executor this node invokes, resolved
	// through the Registry at validation time.
	Capability string

	// WriteSet declares the state fields this node's patches may touch.
	// Write-sets are globally disjoint across the graph so patch merging
	// can never race or conflict.
	WriteSet []string

	// Retry is the node's retry policy. Nil means a single attempt.
	Retry *RetryPolicy

	// Timeout is an optional wall-clock limit per attempt. Zero means no
	// limit. Exceeding it surfaces as a failure identically to an
	// executor-reported one, classified per the retry policy.
	Timeout time.Duration

	// FanOut marks the node as a fan-out point: every outgoing edge whose
	// predicate holds fires, and the resulting branches run concurrently.
	FanOut bool
}

// Edge is a forward-progress connection between two nodes, carrying a
// condition predicate and a priority rank for deterministic tie-break.
type Edge struct {
	From string
	To   string

	// When guards the edge. Nil means the edge always fires when its
	// outcome class matches (success for normal edges, fatal for
	// fallback edges).
	When Predicate

	// Priority ranks edges from the same node; lower fires first. Edges
	// with equal priority tie-break by declaration order.
	Priority int

	// Fallback marks the edge as the recovery path taken when the source
	// node fails fatally. Normal edges are only considered on success.
	Fallback bool
}

// Graph is a declarative workflow definition: nodes, edges, and entry
// points. Build with NewGraph and the Add/Set methods, then Validate (or
// let Executor.Run validate) before execution.
//
// Graph is not safe for concurrent mutation; once validated it is treated
// as immutable and may be shared across runs.
type Graph struct {
	name    string
	nodes   map[string]*Node
	order   []string // node declaration order
	dups    []string // duplicate ids seen by AddNode, reported by Validate
	edges   []Edge
	entries []string
}

// NewGraph creates an empty graph with the given name.
func NewGraph(name string) *Graph {
	return &Graph{
		name:  name,
		nodes: make(map[string]*Node),
	}
}

// Name returns the graph's name.
func (g *Graph) Name() string { return g.name }

// AddNode adds a node to the graph. Adding a second node with an id
// already taken is recorded and reported by Validate; the first
// definition stays in effect.
func (g *Graph) AddNode(n Node) *Graph {
	if _, exists := g.nodes[n.ID]; exists {
		g.dups = append(g.dups, n.ID)
		return g
	}
	g.order = append(g.order, n.ID)
	g.nodes[n.ID] = &n
	return g
}

// AddEdge adds an edge to the graph. Declaration order is significant for
// tie-breaking equal-priority edges.
func (g *Graph) AddEdge(e Edge) *Graph {
	g.edges = append(g.edges, e)
	return g
}

// SetEntry designates the entry node(s) executed first.
func (g *Graph) SetEntry(ids ...string) *Graph {
	g.entries = append(g.entries, ids...)
	return g
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns node ids in declaration order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Entries returns the designated entry node ids.
func (g *Graph) Entries() []string {
	out := make([]string, len(g.entries))
	copy(out, g.entries)
	return out
}

// edgesFrom returns indexes into g.edges for edges leaving the node, in
// declaration order.
func (g *Graph) edgesFrom(id string) []int {
	var out []int
	for i, e := range g.edges {
		if e.From == id {
			out = append(out, i)
		}
	}
	return out
}

// edgesTo returns indexes into g.edges for edges entering the node.
func (g *Graph) edgesTo(id string) []int {
	var out []int
	for i, e := range g.edges {
		if e.To == id {
			out = append(out, i)
		}
	}
	return out
}

// Validate checks the graph definition: unique well-formed nodes, edges
// that reference existing nodes, a non-empty entry set, acyclicity,
// globally disjoint write-sets, non-empty fan-out edge sets, and (when a
// registry is supplied) resolvable capability bindings.
//
// Returns a *ValidationError listing every issue found, or nil.
func (g *Graph) Validate(reg *Registry) error {
	var issues []string

	if len(g.order) == 0 {
		issues = append(issues, "graph has no nodes")
	}

	for _, id := range g.dups {
		issues = append(issues, fmt.Sprintf("node %s: defined more than once", id))
	}

	for _, id := range g.order {
		n := g.nodes[id]
		if n.ID == "" {
			issues = append(issues, "node with empty id")
		}
		if n.Capability == "" {
			issues = append(issues, fmt.Sprintf("node %s: no capability", id))
		} else if reg != nil {
			if _, err := reg.Resolve(n.Capability); err != nil {
				issues = append(issues, fmt.Sprintf("node %s: %v", id, err))
			}
		}
		if n.Retry != nil {
			if err := n.Retry.check(); err != nil {
				issues = append(issues, fmt.Sprintf("node %s: %v", id, err))
			}
		}
		if n.FanOut && len(g.edgesFrom(id)) == 0 {
			issues = append(issues, fmt.Sprintf("node %s: fan-out with no outgoing edges", id))
		}
	}

	for i, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			issues = append(issues, fmt.Sprintf("edge %d: unknown source %q", i, e.From))
		}
		if _, ok := g.nodes[e.To]; !ok {
			issues = append(issues, fmt.Sprintf("edge %d: unknown target %q", i, e.To))
		}
		if e.From == e.To {
			issues = append(issues, fmt.Sprintf("edge %d: self-loop on %q; retries belong to the node's retry policy", i, e.From))
		}
	}

	if len(g.entries) == 0 {
		issues = append(issues, "no entry node designated")
	}
	for _, id := range g.entries {
		if _, ok := g.nodes[id]; !ok {
			issues = append(issues, fmt.Sprintf("entry node %q not defined", id))
		}
	}

	issues = append(issues, g.checkAcyclic()...)
	issues = append(issues, g.checkWriteSets()...)

	if len(issues) > 0 {
		return &ValidationError{Graph: g.name, Issues: issues}
	}
	return nil
}

// checkAcyclic runs Kahn's algorithm; any nodes left over sit on a cycle.
func (g *Graph) checkAcyclic() []string {
	indegree := make(map[string]int, len(g.nodes))
	for _, id := range g.order {
		indegree[id] = 0
	}
	for _, e := range g.edges {
		if _, ok := g.nodes[e.From]; !ok {
			continue
		}
		if _, ok := g.nodes[e.To]; !ok {
			continue
		}
		indegree[e.To]++
	}

	queue := make([]string, 0, len(g.nodes))
	for _, id := range g.order {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, i := range g.edgesFrom(id) {
			to := g.edges[i].To
			indegree[to]--
			if indegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	if visited != len(g.nodes) {
		var cyclic []string
		for _, id := range g.order {
			if indegree[id] > 0 {
				cyclic = append(cyclic, id)
			}
		}
		return []string{fmt.Sprintf("cycle involving nodes %v; edges model forward progress only", cyclic)}
	}
	return nil
}

// checkWriteSets verifies no two nodes declare the same state field.
// Globally disjoint write-sets make overlapping patch merges a
// definition-time error, never a runtime race.
func (g *Graph) checkWriteSets() []string {
	var issues []string
	owner := make(map[string]string)
	for _, id := range g.order {
		for _, field := range g.nodes[id].WriteSet {
			if prev, taken := owner[field]; taken && prev != id {
				issues = append(issues, fmt.Sprintf("field %q written by both %s and %s", field, prev, id))
				continue
			}
			owner[field] = id
		}
	}
	return issues
}
