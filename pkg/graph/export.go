package graph

// ExportedNode is the node shape handed to the external renderer
type ExportedNode struct {
	ID     string   `json:"id"`
	Label  string   `json:"label"`
	IsRoot bool     `json:"is_root"`
	Roles  []string `json:"roles"`
	Color  string   `json:"color"`
}

// ExportedEdge is the edge shape handed to the external renderer
type ExportedEdge struct {
	Source     string   `json:"source"`
	Target     string   `json:"target"`
	Kind       string   `json:"kind"`
	JoinColumn string   `json:"join_column"`
	Roles      []string `json:"roles"`
	Pruned     bool     `json:"pruned"`
}

// ExportedGraph is the read-only projection consumed by the visualization
// layer. It carries only the attributes the renderer needs.
type ExportedGraph struct {
	Nodes []ExportedNode `json:"nodes"`
	Edges []ExportedEdge `json:"edges"`
}

// Export renders the graph into its renderer-facing shape, in deterministic
// key order
func (g *Graph) Export() ExportedGraph {
	out := ExportedGraph{
		Nodes: make([]ExportedNode, 0, len(g.Nodes)),
		Edges: make([]ExportedEdge, 0, len(g.Edges)),
	}
	for _, n := range g.NodeList() {
		out.Nodes = append(out.Nodes, ExportedNode{
			ID:     n.Key(),
			Label:  n.Label,
			IsRoot: n.IsRoot,
			Roles:  n.RoleList(),
			Color:  n.Color,
		})
	}
	for _, e := range g.EdgeList() {
		out.Edges = append(out.Edges, ExportedEdge{
			Source:     e.Source.String(),
			Target:     e.Target.String(),
			Kind:       string(e.Kind),
			JoinColumn: e.JoinColumn,
			Roles:      e.RoleList(),
			Pruned:     e.Pruned,
		})
	}
	return out
}
