package metastore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chronolog/chronolog/internal/metrics"
)

// SearchResult is a single search/advanced_search hit.
type SearchResult struct {
	BlobDigest string
	FilePath   string
	Snippet    string
}

const snippetRadius = 50

// Search runs a plain substring LIKE search over the search index,
// optionally restricted to one file path, newest-version-first.
func (s *Store) Search(ctx context.Context, query, file string) ([]SearchResult, error) {
	metrics.SearchQueriesServed.Inc()

	sqlQuery := `
		SELECT si.blob_digest, si.file_path, si.content_text
		FROM search_index si
		JOIN versions v ON v.blob_digest = si.blob_digest AND v.file_path = si.file_path
		WHERE si.content_text LIKE ?`
	args := []any{"%" + query + "%"}

	if file != "" {
		sqlQuery += " AND si.file_path = ?"
		args = append(args, file)
	}
	sqlQuery += " ORDER BY v.timestamp DESC"

	return s.runSearchQuery(ctx, sqlQuery, args, query)
}

// AdvancedSearchFilter mirrors spec §4.4's advanced_search filter
// fields.
type AdvancedSearchFilter struct {
	Query        string
	Regex        bool
	CaseSensitive bool
	WholeWords   bool
	FilePaths    []string
	FileTypes    []string
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
}

// AdvancedSearch evaluates filter against the search index, using the
// registered `regexp` SQL function for Regex/WholeWords matching.
func (s *Store) AdvancedSearch(ctx context.Context, filter AdvancedSearchFilter) ([]SearchResult, error) {
	metrics.SearchQueriesServed.Inc()

	var clauses []string
	var args []any

	pattern := filter.Query
	if filter.WholeWords {
		pattern = `\b` + pattern + `\b`
	}

	switch {
	case filter.Regex || filter.WholeWords:
		flags := ""
		if !filter.CaseSensitive {
			flags = "(?i)"
		}
		clauses = append(clauses, "regexp(?, si.content_text)")
		args = append(args, flags+pattern)
	case filter.CaseSensitive:
		clauses = append(clauses, "si.content_text LIKE ?")
		args = append(args, "%"+filter.Query+"%")
	default:
		clauses = append(clauses, "LOWER(si.content_text) LIKE LOWER(?)")
		args = append(args, "%"+filter.Query+"%")
	}

	if len(filter.FilePaths) > 0 {
		placeholders := make([]string, len(filter.FilePaths))
		for i, p := range filter.FilePaths {
			placeholders[i] = "?"
			args = append(args, p)
		}
		clauses = append(clauses, fmt.Sprintf("si.file_path IN (%s)", strings.Join(placeholders, ", ")))
	}

	if len(filter.FileTypes) > 0 {
		typeClauses := make([]string, len(filter.FileTypes))
		for i, ext := range filter.FileTypes {
			typeClauses[i] = "si.file_path LIKE ?"
			args = append(args, "%"+ensureDot(ext))
		}
		clauses = append(clauses, "("+strings.Join(typeClauses, " OR ")+")")
	}

	if filter.DateFrom != nil {
		clauses = append(clauses, "v.timestamp >= ?")
		args = append(args, filter.DateFrom.UTC().Format(time.RFC3339))
	}
	if filter.DateTo != nil {
		clauses = append(clauses, "v.timestamp <= ?")
		args = append(args, filter.DateTo.UTC().Format(time.RFC3339))
	}

	sqlQuery := `
		SELECT si.blob_digest, si.file_path, si.content_text
		FROM search_index si
		JOIN versions v ON v.blob_digest = si.blob_digest AND v.file_path = si.file_path
		WHERE ` + strings.Join(clauses, " AND ") + `
		ORDER BY v.timestamp DESC`

	if filter.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	return s.runSearchQuery(ctx, sqlQuery, args, filter.Query)
}

func (s *Store) runSearchQuery(ctx context.Context, sqlQuery string, args []any, highlight string) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("run search query: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var digest, path, content string
		if err := rows.Scan(&digest, &path, &content); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		out = append(out, SearchResult{
			BlobDigest: digest,
			FilePath:   path,
			Snippet:    snippet(content, highlight),
		})
	}
	return out, rows.Err()
}

// snippet extracts up to snippetRadius characters on either side of the
// first case-insensitive match of highlight within content, marking the
// match with <mark> delimiters, per spec §4.4.
func snippet(content, highlight string) string {
	if highlight == "" {
		return truncate(content, 2*snippetRadius)
	}

	lowerContent := strings.ToLower(content)
	lowerHighlight := strings.ToLower(highlight)
	idx := strings.Index(lowerContent, lowerHighlight)
	if idx == -1 {
		return truncate(content, 2*snippetRadius)
	}

	start := idx - snippetRadius
	if start < 0 {
		start = 0
	}
	end := idx + len(highlight) + snippetRadius
	if end > len(content) {
		end = len(content)
	}

	before := content[start:idx]
	match := content[idx : idx+len(highlight)]
	after := content[idx+len(highlight) : end]

	return before + "<mark>" + match + "</mark>" + after
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func ensureDot(ext string) string {
	if strings.HasPrefix(ext, ".") {
		return ext
	}
	return "." + ext
}
