package driver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"contact-indexer/domain"
	"contact-indexer/query"

	"github.com/jackc/pgx/v5/pgxpool"
)

// tsConfig is the text search configuration used for every vector and query.
const tsConfig = "english"

// headlineFragmentDelimiter separates ts_headline fragments so the driver
// can split them back into a list. The bare control byte survives the
// unquoted option syntax, where surrounding whitespace would not.
const headlineFragmentDelimiter = "\x1f"

// PostgresSearchDriver is the relational full-text search backend. Each
// index is one table with a weighted tsvector column maintained at upsert
// time; queries rank with ts_rank and run a paired count query for totals.
type PostgresSearchDriver struct {
	pool *pgxpool.Pool
}

func NewPostgresSearchDriver(pool *pgxpool.Pool) *PostgresSearchDriver {
	return &PostgresSearchDriver{pool: pool}
}

func tableForIndex(indexName string) string {
	return "search_" + sanitizeIdent(indexName)
}

// EnsureIndex creates the index table and its supporting indexes when
// absent. The DDL is idempotent; schema changes require drop and reindex.
func (d *PostgresSearchDriver) EnsureIndex(ctx context.Context, cfg domain.SearchIndexConfig) error {
	table := tableForIndex(cfg.IndexName)
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			id TEXT NOT NULL,
			doc_type TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at BIGINT NOT NULL DEFAULT 0,
			updated_at BIGINT NOT NULL DEFAULT 0,
			search_vector TSVECTOR NOT NULL DEFAULT ''::tsvector
		)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_vector_idx ON %s USING GIN (search_vector)`, table, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_created_idx ON %s (created_at DESC, key)`, table, table),
	}
	for _, stmt := range stmts {
		if _, err := d.pool.Exec(ctx, stmt); err != nil {
			return &DriverError{Op: "EnsureIndex", Err: err.Error()}
		}
	}
	return nil
}

func (d *PostgresSearchDriver) DropIndex(ctx context.Context, indexName string) error {
	if _, err := d.pool.Exec(ctx, "DROP TABLE IF EXISTS "+tableForIndex(indexName)); err != nil {
		return &DriverError{Op: "DropIndex", Err: err.Error()}
	}
	return nil
}

// Upsert writes one document, rebuilding its weighted vector: title at
// weight A, content at B, text metadata at C, mirroring the schema weights.
func (d *PostgresSearchDriver) Upsert(ctx context.Context, cfg domain.SearchIndexConfig, doc domain.IndexableDocument) error {
	metadata := make(map[string]string, len(doc.Metadata))
	extraText := make([]string, 0, len(doc.Metadata))
	for name, value := range doc.Metadata {
		col := query.NormalizeField(name)
		metadata[col] = value.Encode()
		if spec, ok := cfg.Field(col); ok && spec.Type == domain.FieldTypeText && !spec.NoIndex {
			extraText = append(extraText, value.TextValue())
		}
	}
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return &DriverError{Op: "Upsert", Err: err.Error()}
	}

	stmt := fmt.Sprintf(`INSERT INTO %s
		(key, id, doc_type, title, content, metadata, created_at, updated_at, search_vector)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8,
			setweight(to_tsvector('%s', $4), 'A') ||
			setweight(to_tsvector('%s', $5), 'B') ||
			setweight(to_tsvector('%s', $9), 'C'))
		ON CONFLICT (key) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			metadata = EXCLUDED.metadata,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			search_vector = EXCLUDED.search_vector`,
		tableForIndex(cfg.IndexName), tsConfig, tsConfig, tsConfig)

	_, err = d.pool.Exec(ctx, stmt,
		StorageKey(cfg, doc.ID),
		doc.ID,
		string(doc.Type),
		doc.Title,
		doc.Content,
		metaJSON,
		doc.CreatedAt.Unix(),
		doc.UpdatedAt.Unix(),
		strings.Join(extraText, " "),
	)
	if err != nil {
		return &DriverError{Op: "Upsert", Err: err.Error()}
	}
	return nil
}

func (d *PostgresSearchDriver) Delete(ctx context.Context, cfg domain.SearchIndexConfig, id string) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE key = $1", tableForIndex(cfg.IndexName))
	if _, err := d.pool.Exec(ctx, stmt, StorageKey(cfg, id)); err != nil {
		return &DriverError{Op: "Delete", Err: err.Error()}
	}
	return nil
}

// Search executes one compiled query plus the paired count query. With no
// free text it degrades to a plain filtered list ordered by creation time
// descending, skipping ranking entirely.
func (d *PostgresSearchDriver) Search(ctx context.Context, cfg domain.SearchIndexConfig, compiled query.Compiled) (*RawHits, error) {
	if compiled.MatchAll {
		return d.searchFiltered(ctx, cfg, compiled)
	}
	return d.searchRanked(ctx, cfg, compiled)
}

func (d *PostgresSearchDriver) searchRanked(ctx context.Context, cfg domain.SearchIndexConfig, compiled query.Compiled) (*RawHits, error) {
	table := tableForIndex(cfg.IndexName)

	b := &sqlBuilder{}
	tsq := fmt.Sprintf("%s('%s', %s)", tsQueryFunc(compiled.Mode), tsConfig, b.bind(tsQueryText(compiled)))

	if len(compiled.Fields) > 0 {
		// No persisted per-field vectors; restriction recomputes them at
		// query time across only the requested fields.
		clauses := make([]string, 0, len(compiled.Fields))
		for _, f := range compiled.Fields {
			clauses = append(clauses, fmt.Sprintf("to_tsvector('%s', COALESCE(%s, '')) @@ tsq", tsConfig, columnExpr(f)))
		}
		b.where("(" + strings.Join(clauses, " OR ") + ")")
	} else {
		b.where("search_vector @@ tsq")
	}
	for _, f := range compiled.Filters {
		b.addFilter(f)
	}
	if compiled.MinRank > 0 {
		b.where("ts_rank(search_vector, tsq) >= " + b.bind(compiled.MinRank))
	}

	// The count query reuses the WHERE clause but none of the bindings
	// added after this point (headline options, limit, offset).
	countArgCount := len(b.args)

	selectCols := "key, id, doc_type, title, content, metadata, created_at, updated_at, ts_rank(search_vector, tsq) AS rank"
	headlineCols := d.headlineColumns(b, compiled)
	if headlineCols != "" {
		selectCols += ", " + headlineCols
	}

	order := "rank DESC, created_at DESC"
	if compiled.Sort != nil {
		order = fmt.Sprintf("%s %s, created_at DESC", columnExpr(compiled.Sort.Field), sqlDirection(compiled.Sort.Direction))
	}

	where := b.whereClause()
	stmt := fmt.Sprintf("SELECT %s FROM %s, %s tsq%s ORDER BY %s LIMIT %s OFFSET %s",
		selectCols, table, tsq, where, order, b.bind(compiled.Limit), b.bind(compiled.Offset))
	countStmt := fmt.Sprintf("SELECT COUNT(*) FROM %s, %s tsq%s", table, tsq, where)

	return d.run(ctx, stmt, countStmt, b.args, b.args[:countArgCount], compiled, true)
}

func (d *PostgresSearchDriver) searchFiltered(ctx context.Context, cfg domain.SearchIndexConfig, compiled query.Compiled) (*RawHits, error) {
	table := tableForIndex(cfg.IndexName)

	b := &sqlBuilder{}
	for _, f := range compiled.Filters {
		b.addFilter(f)
	}

	order := "created_at DESC, key"
	if compiled.Sort != nil {
		order = fmt.Sprintf("%s %s, created_at DESC", columnExpr(compiled.Sort.Field), sqlDirection(compiled.Sort.Direction))
	}

	where := b.whereClause()
	countArgCount := len(b.args)
	stmt := fmt.Sprintf("SELECT key, id, doc_type, title, content, metadata, created_at, updated_at FROM %s%s ORDER BY %s LIMIT %s OFFSET %s",
		table, where, order, b.bind(compiled.Limit), b.bind(compiled.Offset))
	countStmt := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", table, where)

	return d.run(ctx, stmt, countStmt, b.args, b.args[:countArgCount], compiled, false)
}

// run executes the page and count queries and scans hits.
func (d *PostgresSearchDriver) run(ctx context.Context, stmt, countStmt string, args, countArgs []interface{}, compiled query.Compiled, ranked bool) (*RawHits, error) {
	var total int64
	if err := d.pool.QueryRow(ctx, countStmt, countArgs...).Scan(&total); err != nil {
		return nil, &DriverError{Op: "Search", Err: "count query: " + err.Error()}
	}

	rows, err := d.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, &DriverError{Op: "Search", Err: err.Error()}
	}
	defer rows.Close()

	hits := []SearchHit{}
	for rows.Next() {
		var (
			key, id, docType, title, content string
			metaJSON                         []byte
			createdAt, updatedAt             int64
			rank                             float64
			headlines                        []*string
		)
		dest := []interface{}{&key, &id, &docType, &title, &content, &metaJSON, &createdAt, &updatedAt}
		if ranked {
			dest = append(dest, &rank)
			if compiled.Highlight != nil {
				headlines = make([]*string, len(compiled.Highlight.Fields))
				for i := range headlines {
					dest = append(dest, &headlines[i])
				}
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &DriverError{Op: "Search", Err: err.Error()}
		}

		hit := SearchHit{
			Fields: map[string]string{
				ColID:        id,
				ColDocType:   docType,
				ColTitle:     title,
				ColContent:   content,
				ColCreatedAt: domain.Number(float64(createdAt)).Encode(),
				ColUpdatedAt: domain.Number(float64(updatedAt)).Encode(),
			},
			Score:    rank,
			HasScore: ranked,
		}

		var metadata map[string]string
		if err := json.Unmarshal(metaJSON, &metadata); err == nil {
			for name, value := range metadata {
				hit.Fields[query.MetadataColumn(name)] = value
			}
		}

		if ranked && compiled.Highlight != nil {
			hit.Highlights = make(map[string][]string, len(compiled.Highlight.Fields))
			for i, field := range compiled.Highlight.Fields {
				if headlines[i] == nil || *headlines[i] == "" {
					continue
				}
				hit.Highlights[field] = strings.Split(*headlines[i], headlineFragmentDelimiter)
			}
		}

		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, &DriverError{Op: "Search", Err: err.Error()}
	}

	return &RawHits{Hits: hits, Total: total}, nil
}

// headlineColumns appends one ts_headline column per highlight field.
func (d *PostgresSearchDriver) headlineColumns(b *sqlBuilder, compiled query.Compiled) string {
	if compiled.Highlight == nil {
		return ""
	}
	opts := fmt.Sprintf("StartSel=%s, StopSel=%s, MaxFragments=3, FragmentDelimiter=%s",
		compiled.Highlight.PreTag, compiled.Highlight.PostTag, headlineFragmentDelimiter)
	optArg := b.bind(opts)

	cols := make([]string, 0, len(compiled.Highlight.Fields))
	for i, field := range compiled.Highlight.Fields {
		cols = append(cols, fmt.Sprintf("ts_headline('%s', COALESCE(%s, ''), tsq, %s) AS hl_%d",
			tsConfig, columnExpr(field), optArg, i))
	}
	return strings.Join(cols, ", ")
}

// SuggestValues groups distinct starts-with values of the category's source
// column with their counts.
func (d *PostgresSearchDriver) SuggestValues(ctx context.Context, cfg domain.SearchIndexConfig, field, prefix, userID string, limit int) ([]domain.ValueCount, error) {
	expr := pgSuggestExpr(field)

	b := &sqlBuilder{}
	b.where(fmt.Sprintf("%s ILIKE %s", expr, b.bind(escapeLike(prefix)+"%")))
	b.where(expr + " <> ''")
	if userID != "" {
		b.where(fmt.Sprintf("metadata->>'%s' = %s", sanitizeIdent(query.NormalizeField(domain.MetaUserID)), b.bind(userID)))
	}

	stmt := fmt.Sprintf("SELECT %s AS value, COUNT(*) AS cnt FROM %s%s GROUP BY 1 ORDER BY cnt DESC, value ASC LIMIT %s",
		expr, tableForIndex(cfg.IndexName), b.whereClause(), b.bind(limit))

	rows, err := d.pool.Query(ctx, stmt, b.args...)
	if err != nil {
		return nil, &DriverError{Op: "SuggestValues", Err: err.Error()}
	}
	defer rows.Close()

	values := []domain.ValueCount{}
	for rows.Next() {
		var vc domain.ValueCount
		if err := rows.Scan(&vc.Value, &vc.Count); err != nil {
			return nil, &DriverError{Op: "SuggestValues", Err: err.Error()}
		}
		values = append(values, vc)
	}
	if err := rows.Err(); err != nil {
		return nil, &DriverError{Op: "SuggestValues", Err: err.Error()}
	}
	return values, nil
}

func (d *PostgresSearchDriver) Info(ctx context.Context, cfg domain.SearchIndexConfig) (*domain.IndexInfo, error) {
	stmt := fmt.Sprintf("SELECT COUNT(*), COALESCE(MAX(updated_at), 0) FROM %s", tableForIndex(cfg.IndexName))

	var count, lastUpdated int64
	if err := d.pool.QueryRow(ctx, stmt).Scan(&count, &lastUpdated); err != nil {
		return nil, &DriverError{Op: "Info", Err: err.Error()}
	}
	return &domain.IndexInfo{
		IndexName:     cfg.IndexName,
		DocumentCount: count,
		LastUpdatedAt: time.Unix(lastUpdated, 0).UTC(),
	}, nil
}

func (d *PostgresSearchDriver) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := d.pool.Ping(ctx); err != nil {
		return 0, &DriverError{Op: "Ping", Err: err.Error()}
	}
	return time.Since(start), nil
}

// tsQueryFunc picks the query parser per mode: simple text goes through
// plainto_tsquery (automatic AND, stop words dropped); prefix and advanced
// need to_tsquery's operator syntax.
func tsQueryFunc(mode domain.SearchMode) string {
	if mode == domain.ModeSimple {
		return "plainto_tsquery"
	}
	return "to_tsquery"
}

// tsQueryText renders the compiled terms for the chosen parser. Wildcard
// terms get the :* prefix marker; raw tokens are reduced to their lexeme so
// foreign syntax cannot break the tsquery parser.
func tsQueryText(compiled query.Compiled) string {
	if compiled.RawQuery != "" {
		return compiled.RawQuery
	}
	if compiled.Mode == domain.ModeSimple {
		parts := make([]string, 0, len(compiled.Terms))
		for _, t := range compiled.Terms {
			parts = append(parts, t.Text)
		}
		return strings.Join(parts, " ")
	}
	parts := make([]string, 0, len(compiled.Terms))
	for _, t := range compiled.Terms {
		lexeme := sanitizeLexeme(t.Text)
		if lexeme == "" {
			continue
		}
		if t.Wildcard {
			lexeme += ":*"
		}
		parts = append(parts, lexeme)
	}
	return strings.Join(parts, " & ")
}

// sanitizeLexeme keeps only characters that are safe inside a to_tsquery
// lexeme.
func sanitizeLexeme(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			sb.WriteRune(r)
		case r > 127:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func sqlDirection(dir domain.SortDirection) string {
	if dir == domain.SortAsc {
		return "ASC"
	}
	return "DESC"
}

// pgSuggestExpr maps a suggestion category to its source column expression.
func pgSuggestExpr(field string) string {
	switch field {
	case "name":
		return "title"
	case "company":
		return fmt.Sprintf("COALESCE(metadata->>'%s', '')", sanitizeIdent(query.NormalizeField(domain.MetaCompanyName)))
	case "title":
		return fmt.Sprintf("COALESCE(metadata->>'%s', '')", sanitizeIdent(query.NormalizeField(domain.MetaJobTitle)))
	default:
		return fmt.Sprintf("COALESCE(metadata->>'%s', '')", sanitizeIdent(query.NormalizeField(field)))
	}
}
