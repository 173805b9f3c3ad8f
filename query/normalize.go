package query

import "strings"

// NormalizeField maps a schema field path to the identifier charset both
// backends accept. Dots become underscores, and a leading "metadata."
// segment is dropped since metadata fields are stored flattened. The same
// function runs at index creation, filter compilation, and result assembly;
// applying different normalizations in those places makes filters silently
// match nothing.
func NormalizeField(field string) string {
	field = strings.TrimPrefix(field, "metadata.")
	return strings.ReplaceAll(field, ".", "_")
}

// MetadataColumn is the storage name for a flattened metadata field.
func MetadataColumn(field string) string {
	return "metadata_" + NormalizeField(field)
}

// IsMetadataColumn reports whether a stored column name carries a flattened
// metadata field, returning the original field name.
func IsMetadataColumn(column string) (string, bool) {
	name, ok := strings.CutPrefix(column, "metadata_")
	return name, ok
}
