package graph

import (
	"testing"

	"github.com/TechGC/hasura-permission-checker/pkg/models"
)

func tableName(name string) models.TableName {
	return models.TableName{Schema: "public", Name: name}
}

func sampleGraph() *Graph {
	g := New()
	g.AddNode(&Node{
		Table:  tableName("users"),
		Label:  "users",
		Roles:  map[string]bool{"public": true},
		Rules:  map[string]models.PermissionRule{"public": {Role: "public", Unrestricted: true}},
		IsRoot: true,
		Color:  ColorRootPublic,
	})
	g.AddNode(&Node{
		Table: tableName("orders"),
		Label: "orders",
		Roles: map[string]bool{"public": true},
		Rules: map[string]models.PermissionRule{"public": {
			Role:           "public",
			AllowedColumns: map[string]bool{"id": true},
		}},
		Color: ColorInternal,
	})
	g.AddEdge(&Edge{
		Source:     tableName("orders"),
		Target:     tableName("users"),
		Kind:       models.ObjectRelationship,
		JoinColumn: "user_id",
		Roles:      map[string]bool{"public": true},
	})
	return g
}

func TestStableKeys(t *testing.T) {
	g := sampleGraph()

	if g.Node("public.users") == nil {
		t.Error("Expected node key public.users")
	}
	if _, ok := g.Edges["public.orders->public.users#user_id"]; !ok {
		t.Errorf("Expected edge key public.orders->public.users#user_id, got %v", g.EdgeList())
	}
}

func TestNodeByLabel(t *testing.T) {
	g := sampleGraph()

	if n := g.NodeByLabel("orders"); n == nil || n.Table.Name != "orders" {
		t.Errorf("Expected to find orders by label, got %v", n)
	}
	if n := g.NodeByLabel("missing"); n != nil {
		t.Errorf("Expected nil for an unknown label, got %v", n)
	}
}

func TestAddEdgeReportsReplacement(t *testing.T) {
	g := sampleGraph()

	replaced := g.AddEdge(&Edge{
		Source:     tableName("orders"),
		Target:     tableName("users"),
		JoinColumn: "user_id",
		Roles:      map[string]bool{},
	})
	if !replaced {
		t.Error("Expected AddEdge to report replacement of the same triple")
	}
	if len(g.Edges) != 1 {
		t.Errorf("Expected the same triple to collapse to 1 edge, got %d", len(g.Edges))
	}

	replaced = g.AddEdge(&Edge{
		Source:     tableName("orders"),
		Target:     tableName("users"),
		JoinColumn: "other_id",
		Roles:      map[string]bool{},
	})
	if replaced {
		t.Error("Expected a different join column to create a distinct edge")
	}
}

func TestDeterministicIteration(t *testing.T) {
	g := New()
	for _, name := range []string{"zebra", "alpha", "mango"} {
		g.AddNode(&Node{Table: tableName(name), Label: name})
	}

	nodes := g.NodeList()
	if nodes[0].Label != "alpha" || nodes[1].Label != "mango" || nodes[2].Label != "zebra" {
		t.Errorf("Expected nodes sorted by key, got %v", []string{nodes[0].Label, nodes[1].Label, nodes[2].Label})
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := sampleGraph()
	clone := g.Clone()

	clone.Node("public.users").Roles["admin"] = true
	clone.Node("public.users").IsRoot = false
	rule := clone.Node("public.orders").Rules["public"]
	rule.AllowedColumns["total"] = true
	clone.EdgeList()[0].Pruned = true
	delete(clone.EdgeList()[0].Roles, "public")

	if g.Node("public.users").Roles["admin"] {
		t.Error("Expected node role sets to be independent of the clone")
	}
	if !g.Node("public.users").IsRoot {
		t.Error("Expected node flags to be independent of the clone")
	}
	if g.Node("public.orders").Rules["public"].AllowedColumns["total"] {
		t.Error("Expected rule column sets to be independent of the clone")
	}
	original := g.EdgeList()[0]
	if original.Pruned || !original.Roles["public"] {
		t.Error("Expected edges to be independent of the clone")
	}
}

func TestIncidentEdges(t *testing.T) {
	g := sampleGraph()

	if n := len(g.IncidentEdges("public.users")); n != 1 {
		t.Errorf("Expected 1 incident edge for users, got %d", n)
	}
	if n := len(g.IncidentEdges("public.orders")); n != 1 {
		t.Errorf("Expected 1 incident edge for orders, got %d", n)
	}
	if n := len(g.IncidentEdges("public.unknown")); n != 0 {
		t.Errorf("Expected 0 incident edges for an unknown key, got %d", n)
	}
}

func TestNodeColor(t *testing.T) {
	publicRoles := map[string]bool{"public": true}
	privateRoles := map[string]bool{"backoffice": true}

	if c := NodeColor(true, publicRoles); c != ColorRootPublic {
		t.Errorf("Expected %s for a public root, got %s", ColorRootPublic, c)
	}
	if c := NodeColor(true, privateRoles); c != ColorRootPrivate {
		t.Errorf("Expected %s for a private root, got %s", ColorRootPrivate, c)
	}
	if c := NodeColor(false, publicRoles); c != ColorInternal {
		t.Errorf("Expected %s for a non-root node, got %s", ColorInternal, c)
	}
}

func TestExport(t *testing.T) {
	g := sampleGraph()
	g.EdgeList()[0].Pruned = true

	exported := g.Export()

	if len(exported.Nodes) != 2 || len(exported.Edges) != 1 {
		t.Fatalf("Expected 2 nodes and 1 edge, got %d and %d", len(exported.Nodes), len(exported.Edges))
	}
	// nodes come out in key order
	if exported.Nodes[0].ID != "public.orders" || exported.Nodes[1].ID != "public.users" {
		t.Errorf("Expected deterministic export order, got %v", exported.Nodes)
	}
	users := exported.Nodes[1]
	if !users.IsRoot || users.Color != ColorRootPublic || len(users.Roles) != 1 {
		t.Errorf("Expected exported node attributes to match, got %+v", users)
	}
	edge := exported.Edges[0]
	if edge.Source != "public.orders" || edge.Target != "public.users" || !edge.Pruned {
		t.Errorf("Expected exported edge attributes to match, got %+v", edge)
	}
	if edge.JoinColumn != "user_id" || edge.Kind != "object" {
		t.Errorf("Expected exported edge join column and kind, got %+v", edge)
	}
}
