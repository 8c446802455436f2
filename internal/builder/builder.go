package builder

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/TechGC/hasura-permission-checker/pkg/graph"
	"github.com/TechGC/hasura-permission-checker/pkg/models"
)

// GraphBuilder turns raw table descriptors into the permission graph
type GraphBuilder struct {
	Logger *logrus.Logger
}

// NewGraphBuilder creates a new graph builder
func NewGraphBuilder(logger *logrus.Logger) *GraphBuilder {
	return &GraphBuilder{Logger: logger}
}

// Build produces the permission graph: one node per descriptor, one edge per
// relationship. Duplicate role entries and duplicate relationship triples
// collapse last-wins and are reported as warning diagnostics alongside the
// graph. A relationship referencing a table absent from the descriptors fails
// with DanglingRelationshipError and no partial graph is returned.
func (gb *GraphBuilder) Build(descriptors []models.TableDescriptor) (*graph.Graph, []models.Diagnostic, error) {
	g := graph.New()
	var diagnostics []models.Diagnostic

	// Create nodes first so edge endpoints can be validated against the
	// full table set regardless of descriptor order
	for _, desc := range descriptors {
		node, diags := gb.buildNode(desc)
		diagnostics = append(diagnostics, diags...)
		g.AddNode(node)
	}

	// Create edges
	for _, desc := range descriptors {
		for _, rel := range desc.Relationships {
			if g.Node(rel.ReferencedTable.String()) == nil {
				return nil, nil, &models.DanglingRelationshipError{
					Source:       desc.Table,
					Relationship: rel.Name,
					Missing:      rel.ReferencedTable,
				}
			}

			edge := &graph.Edge{
				Source:     desc.Table,
				Target:     rel.ReferencedTable,
				Kind:       rel.Kind,
				JoinColumn: rel.JoinColumn,
				Nullable:   rel.Nullable,
				Roles:      candidateRoles(g.Node(desc.Table.String())),
			}

			if replaced := g.AddEdge(edge); replaced {
				d := models.Diagnostic{
					Code:   models.DuplicateRelationship,
					Table:  desc.Table,
					Detail: fmt.Sprintf("relationship %q collapses to existing edge %s, later entry wins", rel.Name, edge.Key()),
				}
				gb.Logger.Warningf("%s", d)
				diagnostics = append(diagnostics, d)
			}
		}
	}

	gb.Logger.Infof("Built graph with %d nodes and %d edges", len(g.Nodes), len(g.Edges))
	return g, diagnostics, nil
}

// buildNode creates the node for one descriptor, merging duplicate role
// entries last-wins
func (gb *GraphBuilder) buildNode(desc models.TableDescriptor) (*graph.Node, []models.Diagnostic) {
	var diagnostics []models.Diagnostic

	rules := make(map[string]models.PermissionRule, len(desc.Permissions))
	roles := make(map[string]bool, len(desc.Permissions))
	for _, rule := range desc.Permissions {
		if _, seen := rules[rule.Role]; seen {
			d := models.Diagnostic{
				Code:   models.DuplicatePermission,
				Table:  desc.Table,
				Role:   rule.Role,
				Detail: "role appears more than once in select permissions, later entry wins",
			}
			gb.Logger.Warningf("%s", d)
			diagnostics = append(diagnostics, d)
		}
		rules[rule.Role] = rule
		roles[rule.Role] = true
	}

	isRoot := isRootTable(desc.Permissions)

	return &graph.Node{
		Table:   desc.Table,
		Label:   desc.Table.Name,
		Roles:   roles,
		Rules:   rules,
		IsRoot:  isRoot,
		Color:   graph.NodeColor(isRoot, roles),
		Columns: append([]string(nil), desc.Columns...),
	}, diagnostics
}

// isRootTable reports whether the table is directly queryable by at least one
// role without traversing a relationship. This is a pure function of the
// permission list; it never consults edges.
func isRootTable(permissions []models.PermissionRule) bool {
	for _, rule := range permissions {
		if rule.Unrestricted || rule.TopLevel {
			return true
		}
	}
	return false
}

// candidateRoles seeds an edge's traversable role set with the source node's
// role set; the pruner narrows it down
func candidateRoles(source *graph.Node) map[string]bool {
	roles := make(map[string]bool, len(source.Roles))
	for r := range source.Roles {
		roles[r] = true
	}
	return roles
}

// AvailableRoles returns every role that holds a select permission on any of
// the given descriptors, sorted
func AvailableRoles(descriptors []models.TableDescriptor) []string {
	seen := make(map[string]bool)
	for _, desc := range descriptors {
		for _, rule := range desc.Permissions {
			seen[rule.Role] = true
		}
	}

	roles := make([]string, 0, len(seen))
	for r := range seen {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}
