package graph

import (
	"sort"

	"github.com/hovinh/tableau-report-gen/analyzer/linage"
)

// Cycles returns the strongly connected components that form cycles, including self-loops.
// Components and their members follow node insertion order.
func (g *Graph) Cycles() [][]linage.Ref {
	t := &tarjan{
		graph:   g,
		index:   make(map[linage.Ref]int, len(g.Nodes)),
		low:     make(map[linage.Ref]int, len(g.Nodes)),
		onStack: make(map[linage.Ref]bool),
	}
	for _, node := range g.Nodes {
		if _, visited := t.index[node.ID]; !visited {
			t.visit(node.ID)
		}
	}
	order := make(map[linage.Ref]int, len(g.Nodes))
	for i, node := range g.Nodes {
		order[node.ID] = i
	}
	var result [][]linage.Ref
	for _, component := range t.components {
		if len(component) == 1 && !g.HasEdge(component[0], component[0]) {
			continue
		}
		sortByOrder(component, order)
		result = append(result, component)
	}
	sortComponents(result, order)
	return result
}

type tarjan struct {
	graph      *Graph
	counter    int
	index      map[linage.Ref]int
	low        map[linage.Ref]int
	stack      []linage.Ref
	onStack    map[linage.Ref]bool
	components [][]linage.Ref
}

func (t *tarjan) visit(id linage.Ref) {
	t.index[id] = t.counter
	t.low[id] = t.counter
	t.counter++
	t.stack = append(t.stack, id)
	t.onStack[id] = true

	for _, next := range t.graph.out[id] {
		if _, visited := t.index[next]; !visited {
			t.visit(next)
			t.low[id] = min(t.low[id], t.low[next])
		} else if t.onStack[next] {
			t.low[id] = min(t.low[id], t.index[next])
		}
	}

	if t.low[id] != t.index[id] {
		return
	}
	var component []linage.Ref
	for {
		last := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[last] = false
		component = append(component, last)
		if last == id {
			break
		}
	}
	t.components = append(t.components, component)
}

func sortByOrder(refs []linage.Ref, order map[linage.Ref]int) {
	sort.Slice(refs, func(i, j int) bool { return order[refs[i]] < order[refs[j]] })
}

func sortComponents(components [][]linage.Ref, order map[linage.Ref]int) {
	sort.Slice(components, func(i, j int) bool { return order[components[i][0]] < order[components[j][0]] })
}
