package pruner

import (
	"github.com/sirupsen/logrus"

	"github.com/TechGC/hasura-permission-checker/pkg/graph"
)

// Pruner reduces a built graph by flagging edges that no role can traverse
// once column-level filter exclusions are applied
type Pruner struct {
	Logger *logrus.Logger
}

// NewPruner creates a new pruner
func NewPruner(logger *logrus.Logger) *Pruner {
	return &Pruner{Logger: logger}
}

// Prune returns a new graph in which every edge's role set is narrowed to the
// roles whose permission rule on the source table allows the join column.
// Edges left with no traversable role are flagged Pruned but kept in the
// structure for inspection. The input graph is never mutated, and the
// pruned-flag assignment is idempotent.
func (p *Pruner) Prune(g *graph.Graph) *graph.Graph {
	pruned := g.Clone()

	for _, edge := range pruned.EdgeList() {
		source := pruned.Node(edge.Source.String())
		if source == nil {
			continue
		}

		for role := range edge.Roles {
			rule, ok := source.Rules[role]
			if !ok || !rule.AllowsColumn(edge.JoinColumn) {
				delete(edge.Roles, role)
				p.Logger.Debugf("Edge %s not traversable by role %s: join column %q not in allowed set",
					edge.Key(), role, edge.JoinColumn)
			}
		}

		if len(edge.Roles) == 0 && !edge.Pruned {
			edge.Pruned = true
			p.Logger.Infof("Pruned edge %s: no role can traverse join column %q", edge.Key(), edge.JoinColumn)
		}
	}

	return pruned
}

// DropPruned returns a new graph with pruned edges physically removed, then
// removes any node left with zero incident edges and IsRoot=false. Such a
// node is unreachable and uninteresting. Idempotent.
func (p *Pruner) DropPruned(g *graph.Graph) *graph.Graph {
	dropped := g.Clone()

	for key, edge := range dropped.Edges {
		if edge.Pruned {
			delete(dropped.Edges, key)
		}
	}

	for key, node := range dropped.Nodes {
		if node.IsRoot {
			continue
		}
		if len(dropped.IncidentEdges(key)) == 0 {
			p.Logger.Infof("Dropping isolated node %s", key)
			delete(dropped.Nodes, key)
		}
	}

	return dropped
}
