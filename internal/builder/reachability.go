package builder

import (
	ybgraph "github.com/yourbasic/graph"

	"github.com/TechGC/hasura-permission-checker/pkg/graph"
)

// indexedGraph maps the permission graph onto integer vertex ids so the
// traversal algorithms from yourbasic/graph can run over it. The index maps
// are built over sorted node keys, keeping vertex ids stable across runs.
type indexedGraph struct {
	mutable      *ybgraph.Mutable
	nodeIndexMap map[string]int
	indexNodeMap map[int]string
}

func indexGraph(g *graph.Graph) *indexedGraph {
	ig := &indexedGraph{
		mutable:      ybgraph.New(len(g.Nodes)),
		nodeIndexMap: make(map[string]int, len(g.Nodes)),
		indexNodeMap: make(map[int]string, len(g.Nodes)),
	}

	for i, node := range g.NodeList() {
		ig.nodeIndexMap[node.Key()] = i
		ig.indexNodeMap[i] = node.Key()
	}

	// Pruned edges are not traversable
	for _, edge := range g.EdgeList() {
		if edge.Pruned {
			continue
		}
		ig.mutable.Add(ig.nodeIndexMap[edge.Source.String()], ig.nodeIndexMap[edge.Target.String()])
	}

	return ig
}

// visitFrom marks every vertex reachable from start, including start itself
func (ig *indexedGraph) visitFrom(start int, visited []bool) {
	stack := []int{start}
	visited[start] = true
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ig.mutable.Visit(v, func(w int, _ int64) bool {
			if !visited[w] {
				visited[w] = true
				stack = append(stack, w)
			}
			return false
		})
	}
}

// RootReachable returns, per node key, whether the table can be reached from
// any root node over unpruned edges. Root nodes are reachable by definition.
func RootReachable(g *graph.Graph) map[string]bool {
	ig := indexGraph(g)

	visited := make([]bool, len(g.Nodes))
	for _, node := range g.NodeList() {
		if node.IsRoot {
			ig.visitFrom(ig.nodeIndexMap[node.Key()], visited)
		}
	}

	reachable := make(map[string]bool, len(g.Nodes))
	for i, ok := range visited {
		reachable[ig.indexNodeMap[i]] = ok
	}
	return reachable
}

// PathExists reports whether a directed path of unpruned edges connects the
// two node keys. Unknown keys yield false.
func PathExists(g *graph.Graph, from, to string) bool {
	ig := indexGraph(g)

	start, ok := ig.nodeIndexMap[from]
	if !ok {
		return false
	}
	end, ok := ig.nodeIndexMap[to]
	if !ok {
		return false
	}

	visited := make([]bool, len(g.Nodes))
	ig.visitFrom(start, visited)
	return visited[end]
}
