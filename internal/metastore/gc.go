package metastore

import (
	"context"
	"fmt"
)

// DistinctBlobDigests returns every blob digest referenced by at least
// one recorded revision, the authoritative "live" set a garbage
// collection pass compares the object store against.
func (s *Store) DistinctBlobDigests(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT blob_digest FROM versions`)
	if err != nil {
		return nil, fmt.Errorf("query distinct blob digests: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var digest string
		if err := rows.Scan(&digest); err != nil {
			return nil, fmt.Errorf("scan blob digest: %w", err)
		}
		out = append(out, digest)
	}
	return out, rows.Err()
}

// MarkOrphaned sets storage_metadata.is_orphaned for digest, inserting a
// row if the blob predates any storage_metadata tracking.
func (s *Store) MarkOrphaned(ctx context.Context, digest string, orphaned bool) error {
	return s.withWriteLock(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO storage_metadata (digest, size, access_count, last_accessed, is_orphaned)
			VALUES (?, 0, 0, CURRENT_TIMESTAMP, ?)
			ON CONFLICT(digest) DO UPDATE SET is_orphaned = excluded.is_orphaned
		`, digest, boolToInt(orphaned))
		if err != nil {
			return fmt.Errorf("mark orphaned %s: %w", digest, err)
		}
		return nil
	})
}

// DeleteStorageMetadata removes digest's storage_metadata row, once its
// blob has actually been removed from the object store by GC.
func (s *Store) DeleteStorageMetadata(ctx context.Context, digest string) error {
	return s.withWriteLock(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM storage_metadata WHERE digest = ?`, digest)
		if err != nil {
			return fmt.Errorf("delete storage metadata %s: %w", digest, err)
		}
		return nil
	})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
