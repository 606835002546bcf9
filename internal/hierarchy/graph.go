// Package hierarchy holds the department subordination graph and the rules
// that keep it a forest: no self loops, no duplicate edges, at most one
// direct superior per department and no cycles.
package hierarchy

// Edge is a stored subordination reduced to what the graph needs.
type Edge struct {
	ID          int64
	Superior    int64
	Subordinate int64
}

// Graph is an arena representation of the edge set. Department ids are mapped
// to dense indices so traversals work on slices instead of maps.
type Graph struct {
	index map[int64]int32
	ids   []int64
	out   [][]int32
	in    [][]int32
	pairs map[[2]int32]struct{}
}

// Build creates a graph from the given edges. Edges whose ID equals one of
// skip are left out, which lets an update validate against the graph without
// the edge being replaced.
func Build(edges []Edge, skip ...int64) *Graph {
	g := &Graph{
		index: make(map[int64]int32, len(edges)*2),
		pairs: make(map[[2]int32]struct{}, len(edges)),
	}
	for _, e := range edges {
		if skipped(e.ID, skip) {
			continue
		}
		sup := g.node(e.Superior)
		sub := g.node(e.Subordinate)
		g.out[sup] = append(g.out[sup], sub)
		g.in[sub] = append(g.in[sub], sup)
		g.pairs[[2]int32{sup, sub}] = struct{}{}
	}
	return g
}

func skipped(id int64, skip []int64) bool {
	for _, s := range skip {
		if s == id {
			return true
		}
	}
	return false
}

func (g *Graph) node(id int64) int32 {
	if idx, ok := g.index[id]; ok {
		return idx
	}
	idx := int32(len(g.ids))
	g.index[id] = idx
	g.ids = append(g.ids, id)
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return idx
}

// Len returns the number of departments that take part in at least one edge.
func (g *Graph) Len() int {
	return len(g.ids)
}

// HasEdge reports whether superior -> subordinate is present.
func (g *Graph) HasEdge(superior, subordinate int64) bool {
	sup, ok := g.index[superior]
	if !ok {
		return false
	}
	sub, ok := g.index[subordinate]
	if !ok {
		return false
	}
	_, exists := g.pairs[[2]int32{sup, sub}]
	return exists
}

// Superiors returns the direct superiors of id. A consistent graph yields at
// most one.
func (g *Graph) Superiors(id int64) []int64 {
	idx, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.toIDs(g.in[idx])
}

// Subordinates returns the direct subordinates of id.
func (g *Graph) Subordinates(id int64) []int64 {
	idx, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.toIDs(g.out[idx])
}

func (g *Graph) toIDs(indices []int32) []int64 {
	if len(indices) == 0 {
		return nil
	}
	ids := make([]int64, len(indices))
	for i, idx := range indices {
		ids[i] = g.ids[idx]
	}
	return ids
}

// PathTo returns the departments on a path from -> ... -> to following
// superior -> subordinate edges, or nil when to is unreachable. The walk is an
// iterative depth-first search with a visited set, so it terminates even on a
// graph that already contains a cycle.
func (g *Graph) PathTo(from, to int64) []int64 {
	start, ok := g.index[from]
	if !ok {
		return nil
	}
	target, ok := g.index[to]
	if !ok {
		return nil
	}
	if start == target {
		return []int64{from}
	}

	visited := make([]bool, len(g.ids))
	parent := make([]int32, len(g.ids))
	stack := []int32{start}
	visited[start] = true
	parent[start] = -1

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range g.out[cur] {
			if visited[next] {
				continue
			}
			visited[next] = true
			parent[next] = cur
			if next == target {
				return g.unwind(parent, next)
			}
			stack = append(stack, next)
		}
	}
	return nil
}

func (g *Graph) unwind(parent []int32, last int32) []int64 {
	var rev []int64
	for cur := last; cur != -1; cur = parent[cur] {
		rev = append(rev, g.ids[cur])
	}
	path := make([]int64, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}

// Reachable reports whether to can be reached from from.
func (g *Graph) Reachable(from, to int64) bool {
	return g.PathTo(from, to) != nil
}

// Descendants lists every department below id in breadth-first order.
func (g *Graph) Descendants(id int64) []int64 {
	start, ok := g.index[id]
	if !ok {
		return nil
	}
	visited := make([]bool, len(g.ids))
	visited[start] = true
	queue := []int32{start}
	var result []int64
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.out[cur] {
			if visited[next] {
				continue
			}
			visited[next] = true
			result = append(result, g.ids[next])
			queue = append(queue, next)
		}
	}
	return result
}

// Chain lists the superiors of id from the direct superior up to the root.
// When a department has more than one superior (inconsistent data) the first
// one is followed.
func (g *Graph) Chain(id int64) []int64 {
	cur, ok := g.index[id]
	if !ok {
		return nil
	}
	visited := map[int32]struct{}{cur: {}}
	var result []int64
	for len(g.in[cur]) > 0 {
		next := g.in[cur][0]
		if _, seen := visited[next]; seen {
			break
		}
		visited[next] = struct{}{}
		result = append(result, g.ids[next])
		cur = next
	}
	return result
}
