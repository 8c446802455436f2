package generator

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"sort"

	"github.com/jaswdr/faker"
	"github.com/sirupsen/logrus"

	"github.com/TechGC/hasura-permission-checker/pkg/models"
)

// MetadataGenerator produces synthetic-but-valid gateway metadata for
// fixtures and stress testing. Every generated relationship references a
// previously generated table, so the output never contains dangling
// relationships.
type MetadataGenerator struct {
	Faker  faker.Faker
	Rand   *rand.Rand
	Logger *logrus.Logger
}

// NewMetadataGenerator creates a seeded metadata generator. The same seed
// always yields the same descriptors.
func NewMetadataGenerator(seed int64, logger *logrus.Logger) *MetadataGenerator {
	return &MetadataGenerator{
		Faker:  faker.NewWithSeed(rand.NewSource(seed)),
		Rand:   rand.New(rand.NewSource(seed)),
		Logger: logger,
	}
}

// Generate produces numTables table descriptors using the given role names.
// The first table always carries an unrestricted rule for the first role, so
// every generated graph has at least one root node.
func (mg *MetadataGenerator) Generate(numTables int, roles []string) []models.TableDescriptor {
	if numTables <= 0 || len(roles) == 0 {
		return nil
	}

	descriptors := make([]models.TableDescriptor, 0, numTables)

	for i := 0; i < numTables; i++ {
		name := models.TableName{
			Schema: "public",
			Name:   fmt.Sprintf("%s_%02d", mg.Faker.Lorem().Word(), i),
		}

		columns := []string{"id"}
		for c := 0; c < mg.Rand.Intn(5)+2; c++ {
			columns = append(columns, fmt.Sprintf("%s_%d", mg.Faker.Lorem().Word(), c))
		}

		desc := models.TableDescriptor{Table: name, Columns: columns}

		// Reference only earlier tables to keep the output dangling-free
		numRels := 0
		if i > 0 {
			numRels = mg.Rand.Intn(3)
		}
		for r := 0; r < numRels; r++ {
			target := descriptors[mg.Rand.Intn(i)]
			joinColumn := fmt.Sprintf("%s_id", target.Table.Name)
			desc.Columns = append(desc.Columns, joinColumn)
			desc.Relationships = append(desc.Relationships, models.Relationship{
				Name:            target.Table.Name,
				Kind:            models.ObjectRelationship,
				JoinColumn:      joinColumn,
				ReferencedTable: target.Table,
				Nullable:        mg.Rand.Intn(2) == 0,
			})
		}

		for _, role := range roles {
			if mg.Rand.Intn(3) == 0 && i > 0 {
				// Some role/table pairs get no permission at all
				continue
			}
			desc.Permissions = append(desc.Permissions, mg.generateRule(role, desc.Columns))
		}

		if i == 0 {
			desc.Permissions = append([]models.PermissionRule{{
				Role:         roles[0],
				Unrestricted: true,
				TopLevel:     true,
			}}, desc.Permissions[1:]...)
		}

		descriptors = append(descriptors, desc)
	}

	mg.Logger.Infof("Generated %d synthetic table descriptors for roles %v", len(descriptors), roles)
	return descriptors
}

func (mg *MetadataGenerator) generateRule(role string, columns []string) models.PermissionRule {
	if mg.Rand.Intn(2) == 0 {
		return models.PermissionRule{Role: role, Unrestricted: true, TopLevel: true}
	}

	// Restricted rule: a random non-empty column subset, sometimes hidden
	// from the query root
	allowed := make(map[string]bool)
	for _, c := range columns {
		if mg.Rand.Intn(2) == 0 {
			allowed[c] = true
		}
	}
	if len(allowed) == 0 {
		allowed[columns[0]] = true
	}

	return models.PermissionRule{
		Role:              role,
		AllowedColumns:    allowed,
		FilterRootColumns: []string{columns[0]},
		TopLevel:          mg.Rand.Intn(2) == 0,
	}
}

// WriteMetadataFile serializes descriptors into the on-disk metadata format
// accepted by the loader and writes them to path
func (mg *MetadataGenerator) WriteMetadataFile(path string, descriptors []models.TableDescriptor) error {
	doc := map[string]interface{}{
		"version": 3,
		"sources": []interface{}{
			map[string]interface{}{
				"name":   "default",
				"tables": tablesDocument(descriptors),
			},
		},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata document: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing metadata file %s: %w", path, err)
	}

	mg.Logger.Infof("Wrote %d tables to %s", len(descriptors), path)
	return nil
}

func tablesDocument(descriptors []models.TableDescriptor) []interface{} {
	tables := make([]interface{}, 0, len(descriptors))
	for _, desc := range descriptors {
		entry := map[string]interface{}{
			"table": map[string]string{
				"schema": desc.Table.Schema,
				"name":   desc.Table.Name,
			},
			"columns": desc.Columns,
		}

		var objectRels, arrayRels []interface{}
		for _, rel := range desc.Relationships {
			relDoc := map[string]interface{}{
				"name":     rel.Name,
				"nullable": rel.Nullable,
				"using": map[string]interface{}{
					"foreign_key_constraint_on": map[string]interface{}{
						"column": rel.JoinColumn,
						"table": map[string]string{
							"schema": rel.ReferencedTable.Schema,
							"name":   rel.ReferencedTable.Name,
						},
					},
				},
			}
			if rel.Kind == models.ArrayRelationship {
				arrayRels = append(arrayRels, relDoc)
			} else {
				objectRels = append(objectRels, relDoc)
			}
		}
		if len(objectRels) > 0 {
			entry["object_relationships"] = objectRels
		}
		if len(arrayRels) > 0 {
			entry["array_relationships"] = arrayRels
		}

		var permissions []interface{}
		for _, rule := range desc.Permissions {
			permissions = append(permissions, permissionDocument(rule))
		}
		if len(permissions) > 0 {
			entry["select_permissions"] = permissions
		}

		tables = append(tables, entry)
	}
	return tables
}

func permissionDocument(rule models.PermissionRule) map[string]interface{} {
	permission := map[string]interface{}{}

	if rule.Unrestricted {
		permission["columns"] = "*"
	} else {
		columns := make([]string, 0, len(rule.AllowedColumns))
		for c := range rule.AllowedColumns {
			columns = append(columns, c)
		}
		sort.Strings(columns)
		permission["columns"] = columns

		filter := map[string]interface{}{}
		for _, c := range rule.FilterRootColumns {
			filter[c] = map[string]interface{}{"_eq": "X-Hasura-User-Id"}
		}
		if len(filter) > 0 {
			permission["filter"] = filter
		}
	}

	if !rule.TopLevel {
		permission["query_root_fields"] = []string{}
		permission["subscription_root_fields"] = []string{}
	}

	return map[string]interface{}{
		"role":       rule.Role,
		"permission": permission,
	}
}
