package models

import "fmt"

// TableName identifies a table by its qualified name
type TableName struct {
	Schema string
	Name   string
}

// String returns the qualified "schema.name" form used as a stable node key
func (t TableName) String() string {
	return fmt.Sprintf("%s.%s", t.Schema, t.Name)
}

// RelationshipKind represents the kind of a foreign-key relationship
type RelationshipKind string

const (
	// ObjectRelationship is a many-to-one relationship (FK on the owning side)
	ObjectRelationship RelationshipKind = "object"
	// ArrayRelationship is a one-to-many relationship
	ArrayRelationship RelationshipKind = "array"
)

// PermissionRule represents a single role's select permission on a table.
// The raw metadata shape is mapped into this closed form once, at the loader
// boundary: a rule is either unrestricted or restricted to an explicit
// column set.
type PermissionRule struct {
	Role              string
	Unrestricted      bool
	AllowedColumns    map[string]bool
	FilterRootColumns []string
	TopLevel          bool
}

// AllowsColumn reports whether the rule permits selecting the given column
func (p PermissionRule) AllowsColumn(column string) bool {
	if p.Unrestricted {
		return true
	}
	return p.AllowedColumns[column]
}

// Relationship represents a foreign-key relationship between two tables
type Relationship struct {
	Name            string
	Kind            RelationshipKind
	JoinColumn      string
	ReferencedTable TableName
	Nullable        bool
}

// TableDescriptor represents one table entry from the loaded metadata
type TableDescriptor struct {
	Table         TableName
	Columns       []string
	Relationships []Relationship
	Permissions   []PermissionRule
}

// DiagnosticCode classifies a non-fatal finding produced during graph building
type DiagnosticCode string

const (
	// DuplicatePermission is recorded when the same role appears more than
	// once in a table's permission list (last entry wins)
	DuplicatePermission DiagnosticCode = "duplicate_permission"
	// DuplicateRelationship is recorded when two relationships collapse to
	// the same (source, target, join column) triple (last entry wins)
	DuplicateRelationship DiagnosticCode = "duplicate_relationship"
)

// Diagnostic represents a non-fatal warning attached to a build result
type Diagnostic struct {
	Code   DiagnosticCode
	Table  TableName
	Role   string
	Detail string
}

// String renders the diagnostic for logging
func (d Diagnostic) String() string {
	if d.Role != "" {
		return fmt.Sprintf("%s: table %s, role %s: %s", d.Code, d.Table, d.Role, d.Detail)
	}
	return fmt.Sprintf("%s: table %s: %s", d.Code, d.Table, d.Detail)
}
