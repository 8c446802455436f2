package view

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechGC/hasura-permission-checker/pkg/graph"
	"github.com/TechGC/hasura-permission-checker/pkg/models"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress log output during tests
	return logger
}

func tableName(name string) models.TableName {
	return models.TableName{Schema: "public", Name: name}
}

// fixtureGraph builds a small pruned-state graph by hand:
//
//	users (root, public+admin) <- orders (public) <- order_items (admin), pruned edge
func fixtureGraph() *graph.Graph {
	g := graph.New()
	g.AddNode(&graph.Node{
		Table:  tableName("users"),
		Label:  "users",
		Roles:  map[string]bool{"public": true, "admin": true},
		Rules:  map[string]models.PermissionRule{},
		IsRoot: true,
		Color:  graph.ColorRootPublic,
	})
	g.AddNode(&graph.Node{
		Table: tableName("orders"),
		Label: "orders",
		Roles: map[string]bool{"public": true},
		Rules: map[string]models.PermissionRule{},
		Color: graph.ColorInternal,
	})
	g.AddNode(&graph.Node{
		Table: tableName("order_items"),
		Label: "order_items",
		Roles: map[string]bool{"admin": true},
		Rules: map[string]models.PermissionRule{},
		Color: graph.ColorInternal,
	})
	g.AddEdge(&graph.Edge{
		Source:     tableName("orders"),
		Target:     tableName("users"),
		Kind:       models.ObjectRelationship,
		JoinColumn: "user_id",
		Roles:      map[string]bool{"public": true},
	})
	g.AddEdge(&graph.Edge{
		Source:     tableName("order_items"),
		Target:     tableName("orders"),
		Kind:       models.ObjectRelationship,
		JoinColumn: "order_id",
		Roles:      map[string]bool{},
		Pruned:     true,
	})
	return g
}

func TestProjectDefaultExcludesPrunedEdges(t *testing.T) {
	g := fixtureGraph()
	gv := NewGraphView(testLogger())

	projected := gv.Project(g, Options{})

	require.Len(t, projected.Nodes, 3)
	require.Len(t, projected.Edges, 1)
	assert.Equal(t, "orders", projected.EdgeList()[0].Source.Name)

	withPruned := gv.Project(g, Options{IncludePruned: true})
	assert.Len(t, withPruned.Edges, 2)
}

func TestProjectRoleFilter(t *testing.T) {
	g := fixtureGraph()
	gv := NewGraphView(testLogger())

	projected := gv.Project(g, Options{Roles: []string{"admin"}, IncludePruned: true})

	// orders has no admin permission, so it and its incident edges drop out
	assert.Nil(t, projected.Node("public.orders"))
	assert.NotNil(t, projected.Node("public.users"))
	assert.NotNil(t, projected.Node("public.order_items"))
	assert.Len(t, projected.Edges, 0)

	// surviving node role sets are narrowed in the view only
	assert.Equal(t, []string{"admin"}, projected.Node("public.users").RoleList())
}

func TestProjectLabelFilter(t *testing.T) {
	g := fixtureGraph()
	gv := NewGraphView(testLogger())

	// substring match keeps orders and order_items
	projected := gv.Project(g, Options{Label: "order", IncludePruned: true})
	assert.Len(t, projected.Nodes, 2)
	// users is excluded, so the orders -> users edge drops with it
	assert.Len(t, projected.Edges, 1)
	assert.Equal(t, "order_items", projected.EdgeList()[0].Source.Name)

	// exact match keeps only orders
	projected = gv.Project(g, Options{Label: "orders", ExactLabel: true})
	require.Len(t, projected.Nodes, 1)
	assert.NotNil(t, projected.Node("public.orders"))
	assert.Len(t, projected.Edges, 0)
}

func TestProjectNeverMutatesSource(t *testing.T) {
	g := fixtureGraph()
	before := g.Clone()
	gv := NewGraphView(testLogger())

	gv.Project(g, Options{Roles: []string{"admin"}, Label: "order"})

	if diff := cmp.Diff(before.Export(), g.Export()); diff != "" {
		t.Errorf("Projection mutated the source graph (-before +after):\n%s", diff)
	}
	// underlying role sets and flags specifically
	assert.Equal(t, []string{"admin", "public"}, g.Node("public.users").RoleList())
	assert.True(t, g.Node("public.users").IsRoot)
	assert.True(t, g.Edges["public.order_items->public.orders#order_id"].Pruned)
}

func TestProjectPreservesAttributes(t *testing.T) {
	g := fixtureGraph()
	gv := NewGraphView(testLogger())

	projected := gv.Project(g, Options{Label: "users"})

	node := projected.Node("public.users")
	require.NotNil(t, node)
	assert.True(t, node.IsRoot)
	assert.Equal(t, graph.ColorRootPublic, node.Color)
	assert.Equal(t, []string{"admin", "public"}, node.RoleList())
}
