package view

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/TechGC/hasura-permission-checker/pkg/graph"
)

// Options controls which nodes and edges a projection keeps
type Options struct {
	// Roles restricts the view to nodes and edges whose role set intersects
	// this list. Empty means no role filtering.
	Roles []string
	// Label restricts the view to nodes whose label matches. Substring match
	// by default, exact match when ExactLabel is set.
	Label      string
	ExactLabel bool
	// IncludePruned keeps pruned edges in the output. They are excluded by
	// default but always retained in the underlying graph.
	IncludePruned bool
}

// GraphView produces read-only projections of a permission graph for the
// renderer and for path-testing callers. Projections never mutate the
// source graph.
type GraphView struct {
	Logger *logrus.Logger
}

// NewGraphView creates a new graph view
func NewGraphView(logger *logrus.Logger) *GraphView {
	return &GraphView{Logger: logger}
}

// Project applies the role and label filters to a copy of the graph and
// returns it. Node and edge attributes that survive filtering pass through
// unchanged: projection narrows role sets in the returned copy only and
// never touches colors, root flags or pruned flags.
func (gv *GraphView) Project(g *graph.Graph, opts Options) *graph.Graph {
	projected := g.Clone()

	roleFilter := make(map[string]bool, len(opts.Roles))
	for _, r := range opts.Roles {
		roleFilter[r] = true
	}

	for key, node := range projected.Nodes {
		if !gv.matchLabel(node.Label, opts) {
			delete(projected.Nodes, key)
			continue
		}
		if len(roleFilter) > 0 {
			intersectRoles(node.Roles, roleFilter)
			if len(node.Roles) == 0 {
				delete(projected.Nodes, key)
			}
		}
	}

	for key, edge := range projected.Edges {
		if edge.Pruned && !opts.IncludePruned {
			delete(projected.Edges, key)
			continue
		}
		// Excluded nodes drop their incident edges
		if projected.Node(edge.Source.String()) == nil || projected.Node(edge.Target.String()) == nil {
			delete(projected.Edges, key)
			continue
		}
		if len(roleFilter) > 0 {
			intersectRoles(edge.Roles, roleFilter)
			if len(edge.Roles) == 0 {
				delete(projected.Edges, key)
			}
		}
	}

	gv.Logger.Debugf("Projected graph: %d/%d nodes, %d/%d edges",
		len(projected.Nodes), len(g.Nodes), len(projected.Edges), len(g.Edges))
	return projected
}

func (gv *GraphView) matchLabel(label string, opts Options) bool {
	if opts.Label == "" {
		return true
	}
	if opts.ExactLabel {
		return label == opts.Label
	}
	return strings.Contains(label, opts.Label)
}

func intersectRoles(roles map[string]bool, keep map[string]bool) {
	for r := range roles {
		if !keep[r] {
			delete(roles, r)
		}
	}
}
