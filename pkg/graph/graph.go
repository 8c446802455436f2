package graph

import (
	"fmt"
	"sort"

	"github.com/TechGC/hasura-permission-checker/pkg/models"
)

// Color categories assigned to nodes for the external renderer, derived from
// the root flag and role visibility
const (
	ColorRootPublic  = "green"
	ColorRootPrivate = "orange"
	ColorInternal    = "gray"
)

// PublicRole is the conventional name of the anonymous access role
const PublicRole = "public"

// Node represents one table in the permission graph
type Node struct {
	Table   models.TableName
	Label   string
	Roles   map[string]bool
	Rules   map[string]models.PermissionRule
	IsRoot  bool
	Color   string
	Columns []string
}

// Key returns the stable node identity derived from the qualified table name
func (n *Node) Key() string {
	return n.Table.String()
}

// RoleList returns the node's role set as a sorted slice
func (n *Node) RoleList() []string {
	return sortedRoles(n.Roles)
}

// Edge represents one relationship in the permission graph. Roles holds the
// roles under which the edge is still traversable; the pruner shrinks it and
// sets Pruned when it empties.
type Edge struct {
	Source     models.TableName
	Target     models.TableName
	Kind       models.RelationshipKind
	JoinColumn string
	Nullable   bool
	Roles      map[string]bool
	Pruned     bool
}

// Key returns the stable edge identity derived from source, target and join column
func (e *Edge) Key() string {
	return EdgeKey(e.Source, e.Target, e.JoinColumn)
}

// EdgeKey builds the composite identity for a (source, target, join column) triple
func EdgeKey(source, target models.TableName, joinColumn string) string {
	return fmt.Sprintf("%s->%s#%s", source, target, joinColumn)
}

// RoleList returns the edge's traversable role set as a sorted slice
func (e *Edge) RoleList() []string {
	return sortedRoles(e.Roles)
}

// Graph represents the permission graph built from the gateway metadata.
// Nodes and edges are keyed by their stable composite identity so the same
// input always produces the same graph.
type Graph struct {
	Nodes map[string]*Node
	Edges map[string]*Edge
}

// New creates an empty graph
func New() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: make(map[string]*Edge),
	}
}

// AddNode adds a node to the graph, replacing any node with the same key
func (g *Graph) AddNode(n *Node) {
	g.Nodes[n.Key()] = n
}

// AddEdge adds an edge to the graph, replacing any edge with the same key.
// It reports whether an edge with that key was already present.
func (g *Graph) AddEdge(e *Edge) bool {
	key := e.Key()
	_, existed := g.Edges[key]
	g.Edges[key] = e
	return existed
}

// Node returns the node with the given key, or nil
func (g *Graph) Node(key string) *Node {
	return g.Nodes[key]
}

// NodeByLabel returns the first node (in key order) whose label matches, or nil
func (g *Graph) NodeByLabel(label string) *Node {
	for _, n := range g.NodeList() {
		if n.Label == label {
			return n
		}
	}
	return nil
}

// NodeList returns the nodes sorted by key for deterministic iteration
func (g *Graph) NodeList() []*Node {
	keys := make([]string, 0, len(g.Nodes))
	for k := range g.Nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	nodes := make([]*Node, 0, len(keys))
	for _, k := range keys {
		nodes = append(nodes, g.Nodes[k])
	}
	return nodes
}

// EdgeList returns the edges sorted by key for deterministic iteration
func (g *Graph) EdgeList() []*Edge {
	keys := make([]string, 0, len(g.Edges))
	for k := range g.Edges {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	edges := make([]*Edge, 0, len(keys))
	for _, k := range keys {
		edges = append(edges, g.Edges[k])
	}
	return edges
}

// IncidentEdges returns the edges touching the node with the given key,
// in either direction
func (g *Graph) IncidentEdges(nodeKey string) []*Edge {
	var incident []*Edge
	for _, e := range g.EdgeList() {
		if e.Source.String() == nodeKey || e.Target.String() == nodeKey {
			incident = append(incident, e)
		}
	}
	return incident
}

// Clone returns a deep copy of the graph. Operations that reshape the graph
// (pruning, projection) work on a clone so the input stays untouched.
func (g *Graph) Clone() *Graph {
	clone := New()
	for _, n := range g.Nodes {
		clone.AddNode(cloneNode(n))
	}
	for _, e := range g.Edges {
		clone.AddEdge(cloneEdge(e))
	}
	return clone
}

func cloneNode(n *Node) *Node {
	c := &Node{
		Table:   n.Table,
		Label:   n.Label,
		Roles:   make(map[string]bool, len(n.Roles)),
		Rules:   make(map[string]models.PermissionRule, len(n.Rules)),
		IsRoot:  n.IsRoot,
		Color:   n.Color,
		Columns: append([]string(nil), n.Columns...),
	}
	for r := range n.Roles {
		c.Roles[r] = true
	}
	for r, rule := range n.Rules {
		c.Rules[r] = cloneRule(rule)
	}
	return c
}

func cloneEdge(e *Edge) *Edge {
	c := &Edge{
		Source:     e.Source,
		Target:     e.Target,
		Kind:       e.Kind,
		JoinColumn: e.JoinColumn,
		Nullable:   e.Nullable,
		Roles:      make(map[string]bool, len(e.Roles)),
		Pruned:     e.Pruned,
	}
	for r := range e.Roles {
		c.Roles[r] = true
	}
	return c
}

func cloneRule(rule models.PermissionRule) models.PermissionRule {
	c := rule
	c.FilterRootColumns = append([]string(nil), rule.FilterRootColumns...)
	if rule.AllowedColumns != nil {
		c.AllowedColumns = make(map[string]bool, len(rule.AllowedColumns))
		for col, ok := range rule.AllowedColumns {
			c.AllowedColumns[col] = ok
		}
	}
	return c
}

// NodeColor derives the renderer color category from the root flag and role set
func NodeColor(isRoot bool, roles map[string]bool) string {
	switch {
	case isRoot && roles[PublicRole]:
		return ColorRootPublic
	case isRoot:
		return ColorRootPrivate
	default:
		return ColorInternal
	}
}

func sortedRoles(roles map[string]bool) []string {
	list := make([]string, 0, len(roles))
	for r := range roles {
		list = append(list, r)
	}
	sort.Strings(list)
	return list
}
