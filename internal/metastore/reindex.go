package metastore

import (
	"context"
	"fmt"
	"unicode/utf8"
)

// VersionRef identifies one (file_path, blob_digest) pair recorded in
// the versions table, the unit Reindex operates over.
type VersionRef struct {
	FilePath   string
	BlobDigest string
}

// AllVersionRefs returns every distinct (file_path, blob_digest) pair
// ever recorded, the full population Reindex walks.
func (s *Store) AllVersionRefs(ctx context.Context) ([]VersionRef, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT file_path, blob_digest FROM versions`)
	if err != nil {
		return nil, fmt.Errorf("query version refs: %w", err)
	}
	defer rows.Close()

	var out []VersionRef
	for rows.Next() {
		var ref VersionRef
		if err := rows.Scan(&ref.FilePath, &ref.BlobDigest); err != nil {
			return nil, fmt.Errorf("scan version ref: %w", err)
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

// ReindexOne upserts (or, for non-UTF-8 content, removes) the
// search_index row for one (filePath, digest, data) triple. Reindex
// (spec §6's "rebuild search index from all blobs") is idempotent
// because this is the same upsert RecordRevision performs, driven
// here by the full blob population instead of a single new write.
func (s *Store) ReindexOne(ctx context.Context, filePath, digest string, data []byte) error {
	return s.withWriteLock(ctx, func() error {
		if utf8.Valid(data) {
			_, err := s.db.ExecContext(ctx, `
				INSERT OR REPLACE INTO search_index (blob_digest, file_path, content_text)
				VALUES (?, ?, ?)
			`, digest, filePath, string(data))
			if err != nil {
				return fmt.Errorf("upsert search index: %w", err)
			}
			return nil
		}
		_, err := s.db.ExecContext(ctx, `
			DELETE FROM search_index WHERE blob_digest = ? AND file_path = ?
		`, digest, filePath)
		if err != nil {
			return fmt.Errorf("delete stale search index row: %w", err)
		}
		return nil
	})
}
