// Package workflow builds static, named task graphs on top of the core
// scheduler. A Graph is validated with a topological sort before
// anything is admitted, then spawned node by node: single dependences
// map to dependence-anchored policies and multi-dependence nodes are
// synchronized through a when-all aggregate.
package workflow

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gammazero/toposort"

	"github.com/aristath/taskdag/task"
)

// Node is one unit of work in a named graph. Body receives the team
// member view and the results of the node's dependences keyed by ID
// (nil when the node has none).
type Node struct {
	ID        string
	DependsOn []string
	Kind      task.Kind
	Priority  task.Priority
	Body      func(m task.TeamMember, deps map[string]any) any
}

// Graph is a directed acyclic graph of named nodes.
type Graph struct {
	mu         sync.RWMutex
	nodes      map[string]*Node
	dependents map[string][]string // node ID -> IDs that depend on it
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:      make(map[string]*Node),
		dependents: make(map[string][]string),
	}
}

// Add inserts a node. Returns an error if the ID already exists or the
// node has no body.
func (g *Graph) Add(n *Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if n.Body == nil {
		return fmt.Errorf("node %q has no body", n.ID)
	}
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("node with ID %q already exists", n.ID)
	}

	g.nodes[n.ID] = n
	for _, depID := range n.DependsOn {
		g.dependents[depID] = append(g.dependents[depID], n.ID)
	}
	return nil
}

// Validate verifies every dependence names an existing node and runs a
// topological sort. Returns the spawn order or an error on cycles.
func (g *Graph) Validate() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for id, n := range g.nodes {
		for _, depID := range n.DependsOn {
			if _, exists := g.nodes[depID]; !exists {
				return nil, fmt.Errorf("node %q depends on non-existent node %q", id, depID)
			}
		}
	}

	var edges []toposort.Edge
	for id, n := range g.nodes {
		if len(n.DependsOn) == 0 {
			// Edge from nil ensures isolated nodes are included.
			edges = append(edges, toposort.Edge{nil, id})
		} else {
			for _, depID := range n.DependsOn {
				edges = append(edges, toposort.Edge{depID, id})
			}
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("graph contains cycle: %w", err)
	}

	order := make([]string, 0, len(g.nodes))
	for _, id := range sorted {
		if id != nil {
			order = append(order, id.(string))
		}
	}

	if len(order) != len(g.nodes) {
		var missing []string
		found := make(map[string]bool, len(order))
		for _, id := range order {
			found[id] = true
		}
		for id := range g.nodes {
			if !found[id] {
				missing = append(missing, id)
			}
		}
		return nil, fmt.Errorf("topological sort lost %d nodes: %s", len(missing), strings.Join(missing, ", "))
	}

	return order, nil
}

// Get returns the node with the given ID.
func (g *Graph) Get(id string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// Dependents returns the IDs of nodes depending on the given node.
func (g *Graph) Dependents(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.dependents[id]...)
}

// Len reports the number of nodes.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}
