package graph

import (
	"sort"

	"github.com/lilRK/PERT-Analysis/internal/intake"
)

// Build validates the submitted activities and constructs their dependency
// graph. Node indices follow submission order. On error no graph is returned.
func Build(acts []intake.Activity) (*Graph, error) {
	if len(acts) == 0 {
		return nil, ErrEmptyProject
	}

	n := len(acts)
	g := &Graph{
		Names: make([]string, n),
		Index: make(map[string]int, n),
		Succ:  make([][]int, n),
		Pred:  make([][]int, n),
	}

	// Index all activities
	for i, a := range acts {
		if a.Name == "" {
			return nil, &InvalidActivityNameError{Position: i + 1}
		}
		if _, dup := g.Index[a.Name]; dup {
			return nil, &DuplicateActivityNameError{Activity: a.Name}
		}
		g.Names[i] = a.Name
		g.Index[a.Name] = i
	}

	// One edge per distinct precedent reference
	for i, a := range acts {
		seen := make(map[int]bool, len(a.Precedents))
		for _, name := range a.Precedents {
			p, ok := g.Index[name]
			if !ok {
				return nil, &UnknownPrecedentError{Activity: a.Name, Precedent: name}
			}
			if seen[p] {
				continue
			}
			seen[p] = true
			g.Succ[p] = append(g.Succ[p], i)
			g.Pred[i] = append(g.Pred[i], p)
		}
	}

	for i := range g.Names {
		sort.Ints(g.Succ[i])
		sort.Ints(g.Pred[i])
		if len(g.Pred[i]) == 0 {
			g.Sources = append(g.Sources, i)
		}
		if len(g.Succ[i]) == 0 {
			g.Sinks = append(g.Sinks, i)
		}
	}

	order, ok := g.topoSort()
	if !ok {
		cycle := g.DetectCycle()
		activity := ""
		if len(cycle) > 0 {
			activity = cycle[0]
		}
		return nil, &CyclicDependencyError{Activity: activity, Cycle: cycle}
	}
	g.Order = order

	return g, nil
}

// topoSort performs Kahn's algorithm. Among ready nodes the earliest
// submitted one goes first, so the order is deterministic.
func (g *Graph) topoSort() ([]int, bool) {
	inDegree := make([]int, len(g.Names))
	for i := range g.Names {
		inDegree[i] = len(g.Pred[i])
	}

	queue := append([]int(nil), g.Sources...)
	order := make([]int, 0, len(g.Names))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, succ := range g.Succ[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
		sort.Ints(queue)
	}

	return order, len(order) == len(g.Names)
}

// DetectCycle returns one cycle as activity names, first and last equal,
// or nil if the graph is acyclic.
// Uses DFS with coloring: white (unvisited), gray (in progress), black (done).
func (g *Graph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make([]int, len(g.Names))
	parent := make([]int, len(g.Names))

	var dfs func(node int) []int
	dfs = func(node int) []int {
		color[node] = gray
		for _, next := range g.Succ[node] {
			if color[next] == gray {
				// Walk back from node to next, then reverse
				cycle := []int{node}
				for cur := node; cur != next; {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return append(cycle, next)
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	for i := range g.Names {
		if color[i] != white {
			continue
		}
		if cycle := dfs(i); cycle != nil {
			names := make([]string, len(cycle))
			for k, idx := range cycle {
				names[k] = g.Names[idx]
			}
			return names
		}
	}
	return nil
}

// NodeCount returns the number of activities in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Names)
}

// EdgeCount returns the number of dependency edges.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, succ := range g.Succ {
		total += len(succ)
	}
	return total
}

// Depths returns, per node, the length in edges of the longest path from a
// source. Used for layered layouts.
func (g *Graph) Depths() []int {
	depth := make([]int, len(g.Names))
	for _, node := range g.Order {
		for _, pred := range g.Pred[node] {
			if depth[pred]+1 > depth[node] {
				depth[node] = depth[pred] + 1
			}
		}
	}
	return depth
}
