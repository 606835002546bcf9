package hierarchy

import "sort"

// ViolationKind names a broken hierarchy rule found in stored data.
type ViolationKind string

const (
	ViolationSelfReference     ViolationKind = "self_reference"
	ViolationDuplicateEdge     ViolationKind = "duplicate_edge"
	ViolationMultipleSuperiors ViolationKind = "multiple_superiors"
	ViolationCycle             ViolationKind = "cycle"
)

// Violation is one rule break. EdgeIDs lists the offending edges and
// Departments the departments involved (for cycles, in path order).
type Violation struct {
	Kind        ViolationKind
	EdgeIDs     []int64
	Departments []int64
}

// Audit inspects an edge set that was written without the current rules
// (older schema revisions, manual SQL) and reports every violation.
func Audit(edges []Edge) []Violation {
	sorted := append([]Edge(nil), edges...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var (
		violations []Violation
		clean      []Edge
		seen       = make(map[[2]int64]int64, len(sorted))
		incoming   = make(map[int64][]int64)
	)
	for _, e := range sorted {
		if e.Superior == e.Subordinate {
			violations = append(violations, Violation{
				Kind:        ViolationSelfReference,
				EdgeIDs:     []int64{e.ID},
				Departments: []int64{e.Superior},
			})
			continue
		}
		key := [2]int64{e.Superior, e.Subordinate}
		if first, dup := seen[key]; dup {
			violations = append(violations, Violation{
				Kind:        ViolationDuplicateEdge,
				EdgeIDs:     []int64{first, e.ID},
				Departments: []int64{e.Superior, e.Subordinate},
			})
			continue
		}
		seen[key] = e.ID
		incoming[e.Subordinate] = append(incoming[e.Subordinate], e.ID)
		clean = append(clean, e)
	}

	subordinates := make([]int64, 0, len(incoming))
	for sub, ids := range incoming {
		if len(ids) > 1 {
			subordinates = append(subordinates, sub)
		}
	}
	sort.Slice(subordinates, func(i, j int) bool { return subordinates[i] < subordinates[j] })
	for _, sub := range subordinates {
		violations = append(violations, Violation{
			Kind:        ViolationMultipleSuperiors,
			EdgeIDs:     incoming[sub],
			Departments: []int64{sub},
		})
	}

	g := Build(clean)
	for _, cycle := range g.cycles() {
		violations = append(violations, Violation{Kind: ViolationCycle, Departments: cycle})
	}
	return violations
}

type frame struct {
	node int32
	next int
}

// cycles finds one cycle per back edge with an iterative three-colour DFS.
func (g *Graph) cycles() [][]int64 {
	const (
		white = iota
		grey
		black
	)
	color := make([]uint8, len(g.ids))
	var found [][]int64

	for root := range g.ids {
		if color[root] != white {
			continue
		}
		stack := []frame{{node: int32(root)}}
		color[root] = grey
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			if top.next >= len(g.out[top.node]) {
				color[top.node] = black
				stack = stack[:len(stack)-1]
				continue
			}
			child := g.out[top.node][top.next]
			top.next++
			switch color[child] {
			case white:
				color[child] = grey
				stack = append(stack, frame{node: child})
			case grey:
				found = append(found, g.cycleFromStack(stack, child))
			}
		}
	}
	return found
}

func (g *Graph) cycleFromStack(stack []frame, start int32) []int64 {
	var path []int64
	for i := len(stack) - 1; i >= 0; i-- {
		path = append(path, g.ids[stack[i].node])
		if stack[i].node == start {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
