package flow

import (
	"fmt"
	"sort"
)

// route selects the next node ids after a node's final outcome. It is a
// pure function of (graph, view, outcome): edges are evaluated in priority
// order with declaration order as tie-break, so routing is deterministic
// and reproducible across runs on identical state.
//
// On success, normal edges are candidates; on fatal failure, only fallback
// edges are. A non-fan-out node selects at most one edge; a fan-out node
// fires every matching edge. A fan-out success with zero matching edges is
// reported as an error, since validation guarantees the edge set is
// non-empty and a fan-out is expected to branch.
func route(g *Graph, node *Node, view View, out Outcome) ([]string, error) {
	idxs := g.edgesFrom(node.ID)

	// Stable sort by priority keeps declaration order within a rank.
	sort.SliceStable(idxs, func(a, b int) bool {
		return g.edges[idxs[a]].Priority < g.edges[idxs[b]].Priority
	})

	wantFallback := out.Class == FatalFailure

	var next []string
	for _, i := range idxs {
		e := g.edges[i]
		if e.Fallback != wantFallback {
			continue
		}
		if e.When != nil && !e.When(view, out) {
			continue
		}
		next = append(next, e.To)
		if !node.FanOut {
			break
		}
	}

	if node.FanOut && !wantFallback && len(next) == 0 {
		return nil, &NodeError{NodeID: node.ID, Err: fmt.Errorf("fan-out matched no edges")}
	}
	return next, nil
}

// resolveEdges splits a completed node's outgoing edges into fired and
// dead sets given the routing decision. Dead edges release downstream join
// points that would otherwise wait forever on an untaken branch.
func resolveEdges(g *Graph, nodeID string, fired []string) (firedIdx, deadIdx []int) {
	taken := make(map[string]bool, len(fired))
	for _, to := range fired {
		taken[to] = true
	}
	for _, i := range g.edgesFrom(nodeID) {
		if taken[g.edges[i].To] {
			firedIdx = append(firedIdx, i)
		} else {
			deadIdx = append(deadIdx, i)
		}
	}
	return firedIdx, deadIdx
}
