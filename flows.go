package orion

import (
	"time"

	"github.com/randalmurphal/orion/config"
	"github.com/randalmurphal/orion/flow"
)

// TaskToPR builds the standard automation graph:
//
//	clone → [env] → generate → [test ∥ lint] → commit → push → pr → notify
//
// Settings flags shape the graph itself rather than gating at runtime:
// CreateEnv inserts the env node, EnableTesting inserts the test/lint
// fan-out with a join at commit, CommitChanges cuts the graph after the
// checks, and CreatePR cuts it after push. StrictTesting changes step
// behavior, not graph shape.
func TaskToPR(s *config.Settings) *flow.Graph {
	g := flow.NewGraph("task-to-pr")
	retry := retryFrom(s)

	g.AddNode(flow.Node{
		ID:         "clone",
		Capability: CapClone,
		WriteSet:   []string{FieldWorkDir, FieldBranch, FieldCloned},
		Retry:      retry,
	})
	g.SetEntry("clone")
	prev := "clone"

	if s.CreateEnv {
		g.AddNode(flow.Node{
			ID:         "env",
			Capability: CapEnv,
			WriteSet:   []string{FieldEnvReady, FieldEnvKind},
			Retry:      retry,
		})
		g.AddEdge(flow.Edge{From: prev, To: "env"})
		prev = "env"
	}

	g.AddNode(flow.Node{
		ID:         "generate",
		Capability: CapGenerate,
		WriteSet:   []string{FieldGenerated, FieldTokensIn, FieldTokensOut, FieldCostUSD, FieldSessionID},
		Retry:      retry,
		FanOut:     s.EnableTesting,
	})
	g.AddEdge(flow.Edge{From: prev, To: "generate"})

	joinFrom := []string{"generate"}
	if s.EnableTesting {
		g.AddNode(flow.Node{
			ID:         "test",
			Capability: CapTest,
			WriteSet:   []string{FieldTestsPassed, FieldTestsRun, FieldTestsFailed},
		})
		g.AddNode(flow.Node{
			ID:         "lint",
			Capability: CapLint,
			WriteSet:   []string{FieldLintPassed, FieldLintIssues},
		})
		g.AddEdge(flow.Edge{From: "generate", To: "test"})
		g.AddEdge(flow.Edge{From: "generate", To: "lint"})
		joinFrom = []string{"test", "lint"}
	}

	if !s.CommitChanges {
		return g
	}

	g.AddNode(flow.Node{
		ID:         "commit",
		Capability: CapCommit,
		WriteSet:   []string{FieldCommitted, FieldCommitSHA},
	})
	for _, from := range joinFrom {
		g.AddEdge(flow.Edge{From: from, To: "commit"})
	}

	g.AddNode(flow.Node{
		ID:         "push",
		Capability: CapPush,
		WriteSet:   []string{FieldPushed},
		Retry:      retry,
	})
	g.AddEdge(flow.Edge{From: "commit", To: "push"})

	if !s.CreatePR {
		return g
	}

	g.AddNode(flow.Node{
		ID:         "pr",
		Capability: CapPR,
		WriteSet:   []string{FieldPRNumber, FieldPRURL},
		Retry:      retry,
	})
	g.AddEdge(flow.Edge{From: "push", To: "pr", When: StateTrue(FieldPushed)})

	g.AddNode(flow.Node{
		ID:         "notify",
		Capability: CapNotify,
		WriteSet:   []string{FieldNotified},
		Retry:      retry,
	})
	g.AddEdge(flow.Edge{From: "pr", To: "notify"})

	return g
}

// StateTrue is an edge predicate that fires when a boolean state field is
// set.
func StateTrue(field string) flow.Predicate {
	return func(view flow.View, _ flow.Outcome) bool {
		return view.GetBool(field)
	}
}

func retryFrom(s *config.Settings) *flow.RetryPolicy {
	if s.MaxAttempts <= 1 {
		return nil
	}
	return &flow.RetryPolicy{
		MaxAttempts: s.MaxAttempts,
		BaseDelay:   s.RetryDelay,
		MaxDelay:    30 * time.Second,
		JitterFrac:  0.2,
	}
}
