package domain

// FieldType declares how a schema field is indexed.
type FieldType string

const (
	// FieldTypeText supports free-text matching with optional weighting.
	FieldTypeText FieldType = "TEXT"
	// FieldTypeTag supports exact-match filters only.
	FieldTypeTag FieldType = "TAG"
	// FieldTypeNumeric supports range filters and sorting.
	FieldTypeNumeric FieldType = "NUMERIC"
)

// FieldSpec declares one schema field.
type FieldSpec struct {
	Type     FieldType
	Weight   float64
	Sortable bool
	// NoIndex stores the field without indexing it. Metadata fields not
	// declared in the schema at all are treated the same way.
	NoIndex bool
}

// SearchIndexConfig describes one index: its name, the storage key prefix
// its documents live under, and the per-field schema. Field names use the
// metadata names from document.go plus the top-level title/content/createdAt/
// updatedAt fields.
type SearchIndexConfig struct {
	IndexName string
	KeyPrefix string
	Schema    map[string]FieldSpec
}

// TextFields returns the names of free-text searchable fields.
func (c SearchIndexConfig) TextFields() []string {
	fields := make([]string, 0, len(c.Schema))
	for name, spec := range c.Schema {
		if spec.Type == FieldTypeText && !spec.NoIndex {
			fields = append(fields, name)
		}
	}
	return fields
}

// Field looks up a schema field declaration.
func (c SearchIndexConfig) Field(name string) (FieldSpec, bool) {
	spec, ok := c.Schema[name]
	return spec, ok
}

// Schemas are created once at service start if absent and never
// auto-migrated; changing one requires drop, recreate, reindex.

// CardIndexConfig is the schema for the cards index.
func CardIndexConfig() SearchIndexConfig {
	return SearchIndexConfig{
		IndexName: "cards",
		KeyPrefix: "doc:cards:",
		Schema: map[string]FieldSpec{
			"title":         {Type: FieldTypeText, Weight: 2.0, Sortable: true},
			"content":       {Type: FieldTypeText, Weight: 1.0},
			MetaCompanyName: {Type: FieldTypeText, Weight: 1.5},
			MetaJobTitle:    {Type: FieldTypeText, Weight: 1.2},
			MetaEmail:       {Type: FieldTypeText, Weight: 1.0},
			MetaTags:        {Type: FieldTypeTag},
			MetaUserID:      {Type: FieldTypeTag},
			MetaEnriched:    {Type: FieldTypeTag},
			"createdAt":     {Type: FieldTypeNumeric, Sortable: true},
			"updatedAt":     {Type: FieldTypeNumeric, Sortable: true},
		},
	}
}

// CompanyIndexConfig is the schema for the companies index.
func CompanyIndexConfig() SearchIndexConfig {
	return SearchIndexConfig{
		IndexName: "companies",
		KeyPrefix: "doc:companies:",
		Schema: map[string]FieldSpec{
			"title":      {Type: FieldTypeText, Weight: 2.0, Sortable: true},
			"content":    {Type: FieldTypeText, Weight: 1.0},
			MetaDomain:   {Type: FieldTypeText, Weight: 1.5},
			MetaIndustry: {Type: FieldTypeText, Weight: 1.2},
			MetaTags:     {Type: FieldTypeTag},
			MetaUserID:   {Type: FieldTypeTag},
			MetaEnriched: {Type: FieldTypeTag},
			"createdAt":  {Type: FieldTypeNumeric, Sortable: true},
			"updatedAt":  {Type: FieldTypeNumeric, Sortable: true},
		},
	}
}

// IndexConfigFor returns the index config for a document type.
func IndexConfigFor(t DocumentType) SearchIndexConfig {
	if t == DocumentTypeCompany {
		return CompanyIndexConfig()
	}
	return CardIndexConfig()
}
