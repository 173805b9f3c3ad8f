package driver

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"contact-indexer/domain"
	"contact-indexer/query"

	"github.com/meilisearch/meilisearch-go"
)

// taskTimeout bounds every wait on a Meilisearch task.
const taskTimeout = 15 * time.Second

// primaryKeyField holds the type-prefixed storage key; the raw document id
// stays in ColID. Meilisearch restricts primary keys to [a-zA-Z0-9_-], so
// StorageKey maps the prefix into that charset.
const primaryKeyField = "key"

// MeilisearchDriver is the inverted-index search backend.
type MeilisearchDriver struct {
	client meilisearch.ServiceManager
}

func NewMeilisearchClient(host string, apiKey string) meilisearch.ServiceManager {
	return meilisearch.New(host, meilisearch.WithAPIKey(apiKey))
}

func NewMeilisearchDriver(client meilisearch.ServiceManager) *MeilisearchDriver {
	return &MeilisearchDriver{client: client}
}

func (d *MeilisearchDriver) index(cfg domain.SearchIndexConfig) meilisearch.IndexManager {
	return d.client.Index(cfg.IndexName)
}

// EnsureIndex creates the index when absent and pushes the schema-derived
// attribute settings. Settings updates are idempotent.
func (d *MeilisearchDriver) EnsureIndex(ctx context.Context, cfg domain.SearchIndexConfig) error {
	idx := d.index(cfg)

	if _, err := idx.FetchInfo(); err != nil {
		task, err := d.client.CreateIndex(&meilisearch.IndexConfig{
			Uid:        cfg.IndexName,
			PrimaryKey: primaryKeyField,
		})
		if err != nil {
			return &DriverError{Op: "EnsureIndex", Err: "failed to create index: " + err.Error()}
		}
		if _, err := d.client.WaitForTask(task.TaskUID, taskTimeout); err != nil {
			return &DriverError{Op: "EnsureIndex", Err: "failed to wait for index creation: " + err.Error()}
		}
	}

	searchable := textColumnsByWeight(cfg)
	task, err := idx.UpdateSearchableAttributes(&searchable)
	if err != nil {
		return &DriverError{Op: "EnsureIndex", Err: "failed to set searchable attributes: " + err.Error()}
	}
	if _, err := idx.WaitForTask(task.TaskUID, taskTimeout); err != nil {
		return &DriverError{Op: "EnsureIndex", Err: "failed to wait for searchable attributes: " + err.Error()}
	}

	filterable := filterColumns(cfg)
	task, err = idx.UpdateFilterableAttributes(&filterable)
	if err != nil {
		return &DriverError{Op: "EnsureIndex", Err: "failed to set filterable attributes: " + err.Error()}
	}
	if _, err := idx.WaitForTask(task.TaskUID, taskTimeout); err != nil {
		return &DriverError{Op: "EnsureIndex", Err: "failed to wait for filterable attributes: " + err.Error()}
	}

	sortable := sortableColumns(cfg)
	task, err = idx.UpdateSortableAttributes(&sortable)
	if err != nil {
		return &DriverError{Op: "EnsureIndex", Err: "failed to set sortable attributes: " + err.Error()}
	}
	if _, err := idx.WaitForTask(task.TaskUID, taskTimeout); err != nil {
		return &DriverError{Op: "EnsureIndex", Err: "failed to wait for sortable attributes: " + err.Error()}
	}

	return nil
}

func (d *MeilisearchDriver) DropIndex(ctx context.Context, indexName string) error {
	task, err := d.client.DeleteIndex(indexName)
	if err != nil {
		return &DriverError{Op: "DropIndex", Err: err.Error()}
	}
	if _, err := d.client.WaitForTask(task.TaskUID, taskTimeout); err != nil {
		return &DriverError{Op: "DropIndex", Err: "failed to wait for index deletion: " + err.Error()}
	}
	return nil
}

// Upsert stores one document under its type-prefixed key. Same key
// overwrites, never duplicates.
func (d *MeilisearchDriver) Upsert(ctx context.Context, cfg domain.SearchIndexConfig, doc domain.IndexableDocument) error {
	task, err := d.index(cfg).AddDocuments([]map[string]interface{}{meiliDocument(cfg, doc)})
	if err != nil {
		return &DriverError{Op: "Upsert", Err: err.Error()}
	}
	if _, err := d.index(cfg).WaitForTask(task.TaskUID, taskTimeout); err != nil {
		return &DriverError{Op: "Upsert", Err: "failed to wait for indexing task: " + err.Error()}
	}
	return nil
}

// Delete is delete-if-exists: deleting an absent key succeeds.
func (d *MeilisearchDriver) Delete(ctx context.Context, cfg domain.SearchIndexConfig, id string) error {
	task, err := d.index(cfg).DeleteDocument(StorageKey(cfg, id))
	if err != nil {
		return &DriverError{Op: "Delete", Err: err.Error()}
	}
	if _, err := d.index(cfg).WaitForTask(task.TaskUID, taskTimeout); err != nil {
		return &DriverError{Op: "Delete", Err: "failed to wait for deletion task: " + err.Error()}
	}
	return nil
}

// Search executes one compiled query. Limit, offset, sort, and highlight
// options pass straight through to the engine.
func (d *MeilisearchDriver) Search(ctx context.Context, cfg domain.SearchIndexConfig, compiled query.Compiled) (*RawHits, error) {
	req := &meilisearch.SearchRequest{
		Limit:            int64(compiled.Limit),
		Offset:           int64(compiled.Offset),
		ShowRankingScore: true,
	}

	if filter := renderMeiliFilters(compiled.Filters); filter != "" {
		req.Filter = filter
	}
	if len(compiled.Fields) > 0 {
		req.AttributesToSearchOn = compiled.Fields
	}
	if compiled.Sort != nil {
		req.Sort = []string{compiled.Sort.Field + ":" + string(compiled.Sort.Direction)}
	} else {
		// Rank ties break on recency; the sort ranking rule runs after the
		// relevance rules, so this only orders equal-rank hits.
		req.Sort = []string{ColCreatedAt + ":desc"}
	}
	if compiled.Highlight != nil {
		req.AttributesToHighlight = compiled.Highlight.Fields
		req.HighlightPreTag = compiled.Highlight.PreTag
		req.HighlightPostTag = compiled.Highlight.PostTag
	}
	if compiled.MinRank > 0 {
		req.RankingScoreThreshold = compiled.MinRank
	}

	result, err := d.index(cfg).Search(renderMeiliQuery(compiled), req)
	if err != nil {
		return nil, &DriverError{Op: "Search", Err: err.Error()}
	}

	hits := make([]SearchHit, 0, len(result.Hits))
	for _, h := range result.Hits {
		m, ok := decodeHit(h)
		if !ok {
			continue
		}
		hits = append(hits, toSearchHit(m))
	}

	return &RawHits{Hits: hits, Total: result.EstimatedTotalHits}, nil
}

// SuggestValues runs a facet search: facet values matching the prefix with
// their occurrence counts.
func (d *MeilisearchDriver) SuggestValues(ctx context.Context, cfg domain.SearchIndexConfig, field, prefix, userID string, limit int) ([]domain.ValueCount, error) {
	req := &meilisearch.FacetSearchRequest{
		FacetName:  suggestSource(field),
		FacetQuery: prefix,
	}
	if userID != "" {
		req.Filter = userScopeFilter(userID)
	}

	raw, err := d.index(cfg).FacetSearch(req)
	if err != nil {
		return nil, &DriverError{Op: "SuggestValues", Err: err.Error()}
	}

	var resp struct {
		FacetHits []struct {
			Value string `json:"value"`
			Count int64  `json:"count"`
		} `json:"facetHits"`
	}
	body, err := json.Marshal(raw)
	if err != nil {
		return nil, &DriverError{Op: "SuggestValues", Err: err.Error()}
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &DriverError{Op: "SuggestValues", Err: err.Error()}
	}

	values := make([]domain.ValueCount, 0, len(resp.FacetHits))
	for _, h := range resp.FacetHits {
		if !strings.HasPrefix(strings.ToLower(h.Value), strings.ToLower(prefix)) {
			continue
		}
		values = append(values, domain.ValueCount{Value: h.Value, Count: h.Count})
		if len(values) >= limit {
			break
		}
	}
	return values, nil
}

func (d *MeilisearchDriver) Info(ctx context.Context, cfg domain.SearchIndexConfig) (*domain.IndexInfo, error) {
	stats, err := d.index(cfg).GetStats()
	if err != nil {
		return nil, &DriverError{Op: "Info", Err: err.Error()}
	}
	info, err := d.index(cfg).FetchInfo()
	if err != nil {
		return nil, &DriverError{Op: "Info", Err: err.Error()}
	}
	return &domain.IndexInfo{
		IndexName:     cfg.IndexName,
		DocumentCount: stats.NumberOfDocuments,
		LastUpdatedAt: info.UpdatedAt,
	}, nil
}

func (d *MeilisearchDriver) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if _, err := d.client.Health(); err != nil {
		return 0, &DriverError{Op: "Ping", Err: err.Error()}
	}
	return time.Since(start), nil
}

// renderMeiliQuery joins compiled terms into the engine's query string. The
// engine prefix-matches terms natively, so wildcard markers are dropped
// rather than stored as literals; raw and advanced tokens pass through.
func renderMeiliQuery(compiled query.Compiled) string {
	if compiled.MatchAll {
		return ""
	}
	if compiled.RawQuery != "" {
		return compiled.RawQuery
	}
	parts := make([]string, 0, len(compiled.Terms))
	for _, t := range compiled.Terms {
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}

// meiliDocument renders a document with native value types: the engine
// filters tag arrays element-wise and needs real numbers for ranges and
// sorting.
func meiliDocument(cfg domain.SearchIndexConfig, doc domain.IndexableDocument) map[string]interface{} {
	m := map[string]interface{}{
		primaryKeyField: StorageKey(cfg, doc.ID),
		ColID:           doc.ID,
		ColDocType:      string(doc.Type),
		ColTitle:        doc.Title,
		ColContent:      doc.Content,
		ColCreatedAt:    doc.CreatedAt.Unix(),
		ColUpdatedAt:    doc.UpdatedAt.Unix(),
	}
	for name, value := range doc.Metadata {
		col := query.MetadataColumn(name)
		switch value.Kind() {
		case domain.FieldValueTags:
			m[col] = value.TagsValue()
		case domain.FieldValueNumber:
			m[col] = value.NumberValue()
		default:
			m[col] = value.TextValue()
		}
	}
	return m
}

// decodeHit normalizes one raw hit into a plain map regardless of the
// SDK's concrete hit representation.
func decodeHit(hit interface{}) (map[string]interface{}, bool) {
	if m, ok := hit.(map[string]interface{}); ok {
		return m, true
	}
	body, err := json.Marshal(hit)
	if err != nil {
		return nil, false
	}
	var m map[string]interface{}
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, false
	}
	return m, true
}

// toSearchHit re-encodes native hit values into the flat string form the
// shared assembler decodes. Hits without a ranking score keep HasScore
// false so the caller substitutes a constant rank.
func toSearchHit(m map[string]interface{}) SearchHit {
	hit := SearchHit{Fields: make(map[string]string)}

	for k, v := range m {
		switch k {
		case primaryKeyField:
			continue
		case "_rankingScore":
			if score, ok := v.(float64); ok {
				hit.Score = score
				hit.HasScore = true
			}
		case "_formatted":
			hit.Highlights = formattedFragments(v)
		default:
			hit.Fields[k] = encodeHitValue(v)
		}
	}
	return hit
}

func encodeHitValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return domain.Number(val).Encode()
	case bool:
		return domain.Bool(val).Encode()
	case []interface{}:
		tags := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				tags = append(tags, s)
			}
		}
		return domain.EncodeTags(tags)
	default:
		return ""
	}
}

func formattedFragments(v interface{}) map[string][]string {
	formatted, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string][]string, len(formatted))
	for field, frag := range formatted {
		if s, ok := frag.(string); ok {
			out[field] = []string{s}
		}
	}
	return out
}

// textColumnsByWeight orders TEXT columns by descending schema weight, which
// is how the engine expresses per-field ranking priority.
func textColumnsByWeight(cfg domain.SearchIndexConfig) []string {
	type weighted struct {
		name   string
		weight float64
	}
	cols := make([]weighted, 0, len(cfg.Schema))
	for name, spec := range cfg.Schema {
		if spec.Type == domain.FieldTypeText && !spec.NoIndex {
			cols = append(cols, weighted{metaAwareColumn(cfg, name), spec.Weight})
		}
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i].weight != cols[j].weight {
			return cols[i].weight > cols[j].weight
		}
		return cols[i].name < cols[j].name
	})
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out
}

// filterColumns lists everything filters or facet suggestions may touch.
func filterColumns(cfg domain.SearchIndexConfig) []string {
	cols := make([]string, 0, len(cfg.Schema))
	for name, spec := range cfg.Schema {
		if spec.NoIndex {
			continue
		}
		switch spec.Type {
		case domain.FieldTypeTag, domain.FieldTypeNumeric:
			cols = append(cols, metaAwareColumn(cfg, name))
		}
	}
	// Suggestion sources are facet-searched, which requires filterable.
	for _, field := range []string{"name", "company", "title"} {
		cols = append(cols, suggestSource(field))
	}
	sort.Strings(cols)
	return dedupe(cols)
}

func sortableColumns(cfg domain.SearchIndexConfig) []string {
	cols := make([]string, 0, len(cfg.Schema))
	for name, spec := range cfg.Schema {
		if spec.Sortable && !spec.NoIndex {
			cols = append(cols, metaAwareColumn(cfg, name))
		}
	}
	sort.Strings(cols)
	return cols
}

// metaAwareColumn maps schema field names to stored column names: top-level
// document fields keep their name, metadata fields move under metadata_*.
func metaAwareColumn(cfg domain.SearchIndexConfig, name string) string {
	switch name {
	case ColTitle, ColContent, ColCreatedAt, ColUpdatedAt, ColID, ColDocType:
		return name
	default:
		return query.MetadataColumn(name)
	}
}

func dedupe(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || sorted[i-1] != s {
			out = append(out, s)
		}
	}
	return out
}
