package pipef

import (
	"fmt"
	"slices"
	"strings"
)

// Validation limits to prevent pathological cases.
const (
	MaxNodesPerGraph   = 10000
	MaxDepth           = 500
	MaxChildrenPerNode = 1000
)

// validate performs the structural checks that can only run once the
// whole graph is known: size limits, cycle detection and the sink
// terminality invariant. It runs when the first Run seals the graph.
func (g *graph) validate() error {
	if len(g.Nodes) > MaxNodesPerGraph {
		return fmt.Errorf("%w: node count %d exceeds maximum %d",
			ErrInvalidGraph, len(g.Nodes), MaxNodesPerGraph)
	}

	if err := g.detectCycles(); err != nil {
		return fmt.Errorf("graph validation failed: %w", err)
	}

	if err := g.validateSinks(); err != nil {
		return fmt.Errorf("graph validation failed: %w", err)
	}

	return nil
}

// detectCycles uses DFS to find cycles. Propagation is depth-first, so
// a cycle would recurse without bound; it is rejected up front.
func (g *graph) detectCycles() error {
	visited := make(map[NodeID]bool, len(g.Nodes))
	recStack := make(map[NodeID]bool, len(g.Nodes))

	var dfs func(NodeID, []NodeID, int) error
	dfs = func(nodeID NodeID, path []NodeID, depth int) error {
		if depth > MaxDepth {
			return fmt.Errorf("%w: maximum depth %d exceeded", ErrInvalidGraph, MaxDepth)
		}

		visited[nodeID] = true
		recStack[nodeID] = true
		path = append(path, nodeID)

		node := g.Nodes[nodeID]
		if len(node.Children) > MaxChildrenPerNode {
			return fmt.Errorf("%w: node %s has %d children, exceeds maximum %d",
				ErrInvalidGraph, nodeID, len(node.Children), MaxChildrenPerNode)
		}

		for _, childID := range node.Children {
			if !visited[childID] {
				if err := dfs(childID, path, depth+1); err != nil {
					return err
				}
			} else if recStack[childID] {
				cyclePath := append(path, childID)
				pathStr := make([]string, len(cyclePath))
				for i, id := range cyclePath {
					pathStr[i] = string(id)
				}
				return fmt.Errorf("%w: %s", ErrCycleDetected, strings.Join(pathStr, " -> "))
			}
		}

		recStack[nodeID] = false
		return nil
	}

	for _, nodeID := range g.Order {
		if !visited[nodeID] {
			if err := dfs(nodeID, nil, 0); err != nil {
				return err
			}
		}
	}

	return nil
}

// validateSinks ensures that sink nodes stayed terminal. addLink already
// rejects children on sinks; this guards the invariant end to end.
func (g *graph) validateSinks() error {
	for _, nodeID := range g.Order {
		node := g.Nodes[nodeID]
		if node.Kind == KindSink && len(node.Children) > 0 {
			childStrs := make([]string, len(node.Children))
			for i, id := range node.Children {
				childStrs[i] = string(id)
			}
			return fmt.Errorf("%w: sink node %s has children: %s",
				ErrInvalidGraph, nodeID, strings.Join(childStrs, ", "))
		}
	}
	return nil
}

// orphans returns nodes unreachable from any source, in deterministic
// order. Orphans are legal (the node simply never sees data) but almost
// always a wiring mistake, so the engine logs them at run start.
func (g *graph) orphans() []NodeID {
	reachable := make(map[NodeID]bool, len(g.Nodes))

	var mark func(NodeID)
	mark = func(nodeID NodeID) {
		if reachable[nodeID] {
			return
		}
		reachable[nodeID] = true
		for _, childID := range g.Nodes[nodeID].Children {
			mark(childID)
		}
	}

	for _, nodeID := range g.Order {
		if g.Nodes[nodeID].Kind == KindSource {
			mark(nodeID)
		}
	}

	var orphaned []NodeID
	for _, nodeID := range g.Order {
		if !reachable[nodeID] {
			orphaned = append(orphaned, nodeID)
		}
	}
	slices.Sort(orphaned)
	return orphaned
}
