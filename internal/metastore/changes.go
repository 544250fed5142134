package metastore

import (
	"context"
	"fmt"
	"strings"
)

// ChangeMatch is one search_changes hit: a transition between two
// adjacent revisions of filePath where the watched text appeared or
// disappeared.
type ChangeMatch struct {
	FilePath  string
	OldDigest string
	NewDigest string
	Timestamp string
}

// SearchChanges walks, for every file, its revisions in chronological
// order and emits a ChangeMatch wherever `added` is present in the
// newer revision's text but absent from the older one, or `removed` is
// present in the older but absent from the newer. Either filter may be
// empty to skip that half of the check. Only revisions with indexed
// (UTF-8) text participate, matching search_index's own scope.
func (s *Store) SearchChanges(ctx context.Context, added, removed string) ([]ChangeMatch, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.file_path, v.blob_digest, v.timestamp, COALESCE(si.content_text, '')
		FROM versions v
		LEFT JOIN search_index si ON si.blob_digest = v.blob_digest AND si.file_path = v.file_path
		ORDER BY v.file_path, v.timestamp ASC, v.id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query revisions for search_changes: %w", err)
	}
	defer rows.Close()

	type rev struct {
		digest    string
		timestamp string
		text      string
		hasText   bool
	}
	byFile := make(map[string][]rev)
	var order []string

	for rows.Next() {
		var filePath, digest, timestamp, text string
		if err := rows.Scan(&filePath, &digest, &timestamp, &text); err != nil {
			return nil, fmt.Errorf("scan revision row: %w", err)
		}
		if _, seen := byFile[filePath]; !seen {
			order = append(order, filePath)
		}
		byFile[filePath] = append(byFile[filePath], rev{digest: digest, timestamp: timestamp, text: text, hasText: text != ""})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []ChangeMatch
	for _, filePath := range order {
		revs := byFile[filePath]
		for i := 1; i < len(revs); i++ {
			older, newer := revs[i-1], revs[i]
			if !older.hasText || !newer.hasText {
				continue
			}

			appeared := added != "" && !strings.Contains(older.text, added) && strings.Contains(newer.text, added)
			disappeared := removed != "" && strings.Contains(older.text, removed) && !strings.Contains(newer.text, removed)

			if appeared || disappeared {
				out = append(out, ChangeMatch{
					FilePath:  filePath,
					OldDigest: older.digest,
					NewDigest: newer.digest,
					Timestamp: newer.timestamp,
				})
			}
		}
	}

	return out, nil
}
