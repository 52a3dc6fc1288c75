package orion

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/randalmurphal/orion/flow"
	"gopkg.in/yaml.v3"
)

// GraphFile is the YAML shape of a declarative workflow definition.
//
//	name: task-to-pr
//	entry: [clone]
//	nodes:
//	  - id: clone
//	    capability: clone
//	    writes: [workdir, branch]
//	    timeout: 2m
//	    retry: {max_attempts: 3, base_delay: 2s}
//	edges:
//	  - {from: clone, to: generate}
//	  - {from: push, to: pr, when: pushed}
type GraphFile struct {
	Name  string     `yaml:"name"`
	Entry []string   `yaml:"entry"`
	Nodes []NodeSpec `yaml:"nodes"`
	Edges []EdgeSpec `yaml:"edges"`
}

// NodeSpec declares one node. Durations are Go duration strings.
type NodeSpec struct {
	ID         string     `yaml:"id"`
	Capability string     `yaml:"capability"`
	Writes     []string   `yaml:"writes,omitempty"`
	Timeout    string     `yaml:"timeout,omitempty"`
	FanOut     bool       `yaml:"fan_out,omitempty"`
	Retry      *RetrySpec `yaml:"retry,omitempty"`
}

// RetrySpec declares a node retry policy.
type RetrySpec struct {
	MaxAttempts     int     `yaml:"max_attempts"`
	BaseDelay       string  `yaml:"base_delay,omitempty"`
	MaxDelay        string  `yaml:"max_delay,omitempty"`
	Jitter          float64 `yaml:"jitter,omitempty"`
	FatalOnResource bool    `yaml:"fatal_on_resource,omitempty"`
	FatalOnTimeout  bool    `yaml:"fatal_on_timeout,omitempty"`
}

// EdgeSpec declares one edge. When names a predicate: a key registered by
// the caller, a boolean state field, or one of the builtins; a leading
// "!" negates it. Empty means the edge always fires on the matching
// outcome class.
type EdgeSpec struct {
	From     string `yaml:"from"`
	To       string `yaml:"to"`
	When     string `yaml:"when,omitempty"`
	Priority int    `yaml:"priority,omitempty"`
	Fallback bool   `yaml:"fallback,omitempty"`
}

// LoadGraphFile reads and parses a YAML graph definition. preds supplies
// named predicates for edge conditions beyond the builtins; nil is fine.
func LoadGraphFile(path string, preds map[string]flow.Predicate) (*flow.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read graph file: %w", err)
	}
	g, err := ParseGraph(data, preds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// ParseGraph builds a flow.Graph from YAML. The result still needs
// Validate against a registry before execution; the Runner does that on
// Start.
func ParseGraph(data []byte, preds map[string]flow.Predicate) (*flow.Graph, error) {
	var gf GraphFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("parse graph yaml: %w", err)
	}
	if gf.Name == "" {
		return nil, fmt.Errorf("graph file: missing name")
	}

	g := flow.NewGraph(gf.Name)
	for _, ns := range gf.Nodes {
		node := flow.Node{
			ID:         ns.ID,
			Capability: ns.Capability,
			WriteSet:   ns.Writes,
			FanOut:     ns.FanOut,
		}
		if ns.Timeout != "" {
			d, err := time.ParseDuration(ns.Timeout)
			if err != nil {
				return nil, fmt.Errorf("node %s: timeout: %w", ns.ID, err)
			}
			node.Timeout = d
		}
		if ns.Retry != nil {
			policy, err := ns.Retry.policy()
			if err != nil {
				return nil, fmt.Errorf("node %s: %w", ns.ID, err)
			}
			node.Retry = policy
		}
		g.AddNode(node)
	}

	for _, es := range gf.Edges {
		when, err := resolvePredicate(es.When, preds)
		if err != nil {
			return nil, fmt.Errorf("edge %s -> %s: %w", es.From, es.To, err)
		}
		g.AddEdge(flow.Edge{
			From:     es.From,
			To:       es.To,
			When:     when,
			Priority: es.Priority,
			Fallback: es.Fallback,
		})
	}

	g.SetEntry(gf.Entry...)
	return g, nil
}

func (rs *RetrySpec) policy() (*flow.RetryPolicy, error) {
	p := &flow.RetryPolicy{
		MaxAttempts:     rs.MaxAttempts,
		JitterFrac:      rs.Jitter,
		FatalOnResource: rs.FatalOnResource,
		FatalOnTimeout:  rs.FatalOnTimeout,
	}
	var err error
	if rs.BaseDelay != "" {
		if p.BaseDelay, err = time.ParseDuration(rs.BaseDelay); err != nil {
			return nil, fmt.Errorf("retry base_delay: %w", err)
		}
	}
	if rs.MaxDelay != "" {
		if p.MaxDelay, err = time.ParseDuration(rs.MaxDelay); err != nil {
			return nil, fmt.Errorf("retry max_delay: %w", err)
		}
	}
	return p, nil
}

// resolvePredicate maps a predicate name to a flow.Predicate. Lookup
// order: caller-supplied map, then builtins ("ok", "failed"), then any
// other name is treated as a boolean state field.
func resolvePredicate(name string, preds map[string]flow.Predicate) (flow.Predicate, error) {
	if name == "" {
		return nil, nil
	}
	if rest, ok := strings.CutPrefix(name, "!"); ok {
		p, err := resolvePredicate(rest, preds)
		if err != nil {
			return nil, err
		}
		return func(view flow.View, out flow.Outcome) bool { return !p(view, out) }, nil
	}
	if p, ok := preds[name]; ok {
		if p == nil {
			return nil, fmt.Errorf("%w: %q is nil", ErrUnknownPredicate, name)
		}
		return p, nil
	}
	switch name {
	case "ok":
		return func(_ flow.View, out flow.Outcome) bool { return out.OK() }, nil
	case "failed":
		return func(_ flow.View, out flow.Outcome) bool { return !out.OK() }, nil
	}
	if !validFieldName(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPredicate, name)
	}
	return StateTrue(name), nil
}

// validFieldName accepts snake_case state field identifiers so typos in
// builtin names fail at load instead of silently testing a missing field.
func validFieldName(name string) bool {
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return name != ""
}
