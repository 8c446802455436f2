package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/TechGC/hasura-permission-checker/pkg/models"
)

// SupportedVersion is the metadata export schema version this loader accepts.
// The on-disk format is a versioned external contract; anything else is
// rejected rather than guessed at.
const SupportedVersion = 3

// MetadataLoader reads an exported gateway metadata document and produces
// raw table descriptors. No graph semantics live here; the permission shape
// is normalized into models.PermissionRule exactly once, at this boundary.
type MetadataLoader struct {
	Logger *logrus.Logger
}

// NewMetadataLoader creates a new metadata loader
func NewMetadataLoader(logger *logrus.Logger) *MetadataLoader {
	return &MetadataLoader{Logger: logger}
}

// rawMetadata mirrors the top-level export document
type rawMetadata struct {
	Version *int        `json:"version"`
	Sources []rawSource `json:"sources"`
}

type rawSource struct {
	Name   string     `json:"name"`
	Tables []rawTable `json:"tables"`
}

type rawTable struct {
	Table               *rawTableName   `json:"table"`
	Columns             json.RawMessage `json:"columns"`
	ObjectRelationships []rawRel        `json:"object_relationships"`
	ArrayRelationships  []rawRel        `json:"array_relationships"`
	SelectPermissions   []rawPermission `json:"select_permissions"`
}

type rawTableName struct {
	Schema string `json:"schema"`
	Name   string `json:"name"`
}

type rawRel struct {
	Name     string    `json:"name"`
	Using    *rawUsing `json:"using"`
	Nullable bool      `json:"nullable"`
}

type rawUsing struct {
	ForeignKeyConstraintOn *rawConstraint `json:"foreign_key_constraint_on"`
}

type rawConstraint struct {
	Column string        `json:"column"`
	Table  *rawTableName `json:"table"`
}

type rawPermission struct {
	Role       string         `json:"role"`
	Permission *rawPermDetail `json:"permission"`
}

type rawPermDetail struct {
	Columns                json.RawMessage        `json:"columns"`
	Filter                 map[string]interface{} `json:"filter"`
	QueryRootFields        []string               `json:"query_root_fields"`
	SubscriptionRootFields []string               `json:"subscription_root_fields"`
}

// Load reads and parses the metadata document at the given path
func (ml *MetadataLoader) Load(path string) ([]models.TableDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata file %s: %w", path, err)
	}
	ml.Logger.Infof("Loaded metadata file %s (%d bytes)", path, len(data))
	return ml.Parse(data)
}

// Parse parses an already-read metadata document into raw table descriptors,
// preserving input order
func (ml *MetadataLoader) Parse(data []byte) ([]models.TableDescriptor, error) {
	var raw rawMetadata
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &models.MalformedMetadataError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	if raw.Version == nil {
		return nil, &models.MalformedMetadataError{Field: "version", Reason: "missing"}
	}
	if *raw.Version != SupportedVersion {
		return nil, &models.MalformedMetadataError{
			Field:  "version",
			Reason: fmt.Sprintf("unsupported metadata version %d (expected %d)", *raw.Version, SupportedVersion),
		}
	}
	if len(raw.Sources) == 0 {
		return nil, &models.MalformedMetadataError{Field: "sources", Reason: "no sources defined"}
	}

	// Only the first source is analyzed, matching the gateway export layout
	source := raw.Sources[0]
	descriptors := make([]models.TableDescriptor, 0, len(source.Tables))

	for _, t := range source.Tables {
		desc, err := ml.parseTable(t)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, desc)
	}

	ml.Logger.Infof("Parsed %d table descriptors from source %q", len(descriptors), source.Name)
	return descriptors, nil
}

func (ml *MetadataLoader) parseTable(t rawTable) (models.TableDescriptor, error) {
	if t.Table == nil || t.Table.Name == "" {
		return models.TableDescriptor{}, &models.MalformedMetadataError{Field: "table.name", Reason: "missing table name"}
	}

	name := models.TableName{Schema: t.Table.Schema, Name: t.Table.Name}
	if name.Schema == "" {
		name.Schema = "public"
	}

	columns, err := parseColumns(t.Columns, name, "columns")
	if err != nil {
		return models.TableDescriptor{}, err
	}

	desc := models.TableDescriptor{
		Table:   name,
		Columns: columns,
	}

	for _, r := range t.ObjectRelationships {
		rel, err := parseRelationship(name, r, models.ObjectRelationship)
		if err != nil {
			return models.TableDescriptor{}, err
		}
		desc.Relationships = append(desc.Relationships, rel)
	}
	for _, r := range t.ArrayRelationships {
		rel, err := parseRelationship(name, r, models.ArrayRelationship)
		if err != nil {
			return models.TableDescriptor{}, err
		}
		desc.Relationships = append(desc.Relationships, rel)
	}

	for _, p := range t.SelectPermissions {
		rule, err := parsePermission(name, p, columns)
		if err != nil {
			return models.TableDescriptor{}, err
		}
		desc.Permissions = append(desc.Permissions, rule)
	}

	return desc, nil
}

func parseRelationship(owner models.TableName, r rawRel, kind models.RelationshipKind) (models.Relationship, error) {
	if r.Name == "" {
		return models.Relationship{}, &models.MalformedMetadataError{
			Table: owner.String(), Field: "relationship.name", Reason: "missing relationship name",
		}
	}
	if r.Using == nil || r.Using.ForeignKeyConstraintOn == nil {
		return models.Relationship{}, &models.MalformedMetadataError{
			Table: owner.String(), Field: "using.foreign_key_constraint_on",
			Reason: fmt.Sprintf("relationship %q has no foreign key constraint", r.Name),
		}
	}

	fk := r.Using.ForeignKeyConstraintOn
	if fk.Table == nil || fk.Table.Name == "" {
		return models.Relationship{}, &models.MalformedMetadataError{
			Table: owner.String(), Field: "foreign_key_constraint_on.table",
			Reason: fmt.Sprintf("relationship %q is missing its referenced table", r.Name),
		}
	}
	if fk.Column == "" {
		return models.Relationship{}, &models.MalformedMetadataError{
			Table: owner.String(), Field: "foreign_key_constraint_on.column",
			Reason: fmt.Sprintf("relationship %q is missing its join column", r.Name),
		}
	}

	referenced := models.TableName{Schema: fk.Table.Schema, Name: fk.Table.Name}
	if referenced.Schema == "" {
		referenced.Schema = "public"
	}

	return models.Relationship{
		Name:            r.Name,
		Kind:            kind,
		JoinColumn:      fk.Column,
		ReferencedTable: referenced,
		Nullable:        r.Nullable,
	}, nil
}

func parsePermission(owner models.TableName, p rawPermission, tableColumns []string) (models.PermissionRule, error) {
	if p.Role == "" {
		return models.PermissionRule{}, &models.MalformedMetadataError{
			Table: owner.String(), Field: "select_permissions.role", Reason: "missing role name",
		}
	}
	if p.Permission == nil {
		return models.PermissionRule{}, &models.MalformedMetadataError{
			Table: owner.String(), Field: "select_permissions.permission",
			Reason: fmt.Sprintf("role %q has no permission body", p.Role),
		}
	}

	rule := models.PermissionRule{
		Role:              p.Role,
		FilterRootColumns: filterRootColumns(p.Permission.Filter),
		TopLevel:          topLevelSatisfiable(p.Permission),
	}

	// "*" with no row filter means unrestricted select. Anything else maps
	// to an explicit allowed-column set.
	allColumns, columns, err := parsePermissionColumns(p.Permission.Columns, owner, p.Role)
	if err != nil {
		return models.PermissionRule{}, err
	}

	if allColumns && len(p.Permission.Filter) == 0 {
		rule.Unrestricted = true
		return rule, nil
	}

	if allColumns {
		columns = tableColumns
	}
	rule.AllowedColumns = make(map[string]bool, len(columns))
	for _, c := range columns {
		rule.AllowedColumns[c] = true
	}
	return rule, nil
}

// parsePermissionColumns handles the two accepted shapes: the string "*" or
// an explicit list of column names
func parsePermissionColumns(raw json.RawMessage, owner models.TableName, role string) (bool, []string, error) {
	if len(raw) == 0 {
		// Absent columns means the rule exposes every column
		return true, nil, nil
	}

	var star string
	if err := json.Unmarshal(raw, &star); err == nil {
		if star == "*" {
			return true, nil, nil
		}
		return false, nil, &models.MalformedMetadataError{
			Table: owner.String(), Field: "permission.columns",
			Reason: fmt.Sprintf("role %q: unrecognized columns value %q", role, star),
		}
	}

	var columns []string
	if err := json.Unmarshal(raw, &columns); err != nil {
		return false, nil, &models.MalformedMetadataError{
			Table: owner.String(), Field: "permission.columns",
			Reason: fmt.Sprintf("role %q: columns must be \"*\" or a list of column names", role),
		}
	}
	return false, columns, nil
}

func parseColumns(raw json.RawMessage, owner models.TableName, field string) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var columns []string
	if err := json.Unmarshal(raw, &columns); err != nil {
		return nil, &models.MalformedMetadataError{
			Table: owner.String(), Field: field, Reason: "columns must be a list of column names",
		}
	}
	return columns, nil
}

// filterRootColumns extracts the top-level column names referenced by a row
// filter. Only structural presence is modeled; logical operators are skipped
// and nested predicate contents are never evaluated.
func filterRootColumns(filter map[string]interface{}) []string {
	if len(filter) == 0 {
		return nil
	}
	var columns []string
	for key := range filter {
		switch key {
		case "_and", "_or", "_not", "_exists":
			continue
		}
		columns = append(columns, key)
	}
	sort.Strings(columns)
	return columns
}

// topLevelSatisfiable reports whether the rule is exposed at the top level of
// the API. Absent root-field lists mean no restriction; an empty list removes
// the table from the query root entirely.
func topLevelSatisfiable(p *rawPermDetail) bool {
	if p.QueryRootFields == nil && p.SubscriptionRootFields == nil {
		return true
	}
	if len(p.QueryRootFields) > 0 {
		return true
	}
	if len(p.SubscriptionRootFields) > 0 {
		return true
	}
	return false
}
