package models

import "fmt"

// MalformedMetadataError is returned when the metadata document is missing a
// required structural field or uses an unrecognized schema version. There is
// no sensible partial result, so the pipeline aborts.
type MalformedMetadataError struct {
	Table  string
	Field  string
	Reason string
}

func (e *MalformedMetadataError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("malformed metadata: table %s: field %q: %s", e.Table, e.Field, e.Reason)
	}
	if e.Field != "" {
		return fmt.Sprintf("malformed metadata: field %q: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed metadata: %s", e.Reason)
}

// DanglingRelationshipError is returned when a relationship references a table
// absent from the loaded metadata. This indicates an upstream metadata bug and
// is reported with both table names rather than silently dropped.
type DanglingRelationshipError struct {
	Source       TableName
	Relationship string
	Missing      TableName
}

func (e *DanglingRelationshipError) Error() string {
	return fmt.Sprintf("dangling relationship %q: table %s references unknown table %s",
		e.Relationship, e.Source, e.Missing)
}
