// Package graph provides the sub-query dependency scheduler.
package graph

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pandulabs/pandu/pkg/models"
)

// CycleError indicates the decomposition contains a circular dependency.
// It is fatal for the whole decomposition: no sub-query executes.
type CycleError struct {
	// Unresolved lists the node IDs that could not be scheduled.
	Unresolved []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency among sub-queries: %s", strings.Join(e.Unresolved, ", "))
}

// UndefinedDependencyError indicates a node depends on an ID that is not
// part of the decomposition.
type UndefinedDependencyError struct {
	NodeID string
	DepID  string
}

func (e *UndefinedDependencyError) Error() string {
	return fmt.Sprintf("sub-query %s depends on unknown sub-query %s", e.NodeID, e.DepID)
}

// DependencyGraph holds one decomposition's nodes and their dependency
// edges, and tracks which nodes have completed.
type DependencyGraph struct {
	mu sync.RWMutex
	// nodes maps node ID to the sub-query itself.
	nodes map[string]*models.SubqueryNode
	// edges maps node ID to the IDs it depends on.
	edges map[string][]string
	// completed tracks nodes whose results are recorded.
	completed map[string]bool
}

// New creates an empty dependency graph.
func New() *DependencyGraph {
	return &DependencyGraph{
		nodes:     make(map[string]*models.SubqueryNode),
		edges:     make(map[string][]string),
		completed: make(map[string]bool),
	}
}

// Build registers all nodes and their dependency edges. It returns
// UndefinedDependencyError for an edge to a missing node and CycleError if
// the edges do not form a DAG.
func (g *DependencyGraph) Build(nodes []*models.SubqueryNode) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, node := range nodes {
		g.nodes[node.ID] = node
		g.edges[node.ID] = nil
	}

	for _, node := range nodes {
		for _, depID := range node.DependsOn {
			if _, exists := g.nodes[depID]; !exists {
				return &UndefinedDependencyError{NodeID: node.ID, DepID: depID}
			}
			g.edges[node.ID] = append(g.edges[node.ID], depID)
		}
	}

	if _, err := g.kahnOrderLocked(); err != nil {
		return err
	}
	return nil
}

// TopologicalOrder returns node IDs so that every dependency precedes its
// dependents, using Kahn's algorithm with sorted tie-breaking so the order
// is deterministic. Returns CycleError if the graph is cyclic.
func (g *DependencyGraph) TopologicalOrder() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.kahnOrderLocked()
}

// kahnOrderLocked runs Kahn's algorithm. Caller must hold the lock.
func (g *DependencyGraph) kahnOrderLocked() ([]string, error) {
	inDegree := make(map[string]int, len(g.nodes))
	dependents := make(map[string][]string, len(g.nodes))
	for id := range g.nodes {
		inDegree[id] = len(g.edges[id])
		for _, depID := range g.edges[id] {
			dependents[depID] = append(dependents[depID], id)
		}
	}

	var queue []string
	for id, deg := range inDegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	order := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)

		var freed []string
		for _, depID := range dependents[id] {
			inDegree[depID]--
			if inDegree[depID] == 0 {
				freed = append(freed, depID)
			}
		}
		sort.Strings(freed)
		queue = append(queue, freed...)
	}

	if len(order) < len(g.nodes) {
		var unresolved []string
		for id := range g.nodes {
			if inDegree[id] > 0 {
				unresolved = append(unresolved, id)
			}
		}
		sort.Strings(unresolved)
		return nil, &CycleError{Unresolved: unresolved}
	}
	return order, nil
}

// Ready returns node IDs whose dependencies are all completed and that are
// not themselves completed. These nodes may execute concurrently.
func (g *DependencyGraph) Ready() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var ready []string
	for id := range g.nodes {
		if g.completed[id] {
			continue
		}
		ok := true
		for _, depID := range g.edges[id] {
			if !g.completed[depID] {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)
	return ready
}

// MarkComplete records that a node's result is durably stored; this affects
// subsequent Ready calls.
func (g *DependencyGraph) MarkComplete(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed[id] = true
}

// Node returns the sub-query for an ID, or nil.
func (g *DependencyGraph) Node(id string) *models.SubqueryNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[id]
}

// Dependencies returns the IDs a node depends on.
func (g *DependencyGraph) Dependencies(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges[id]
}

// Size returns the number of nodes in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}
