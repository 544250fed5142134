package metastore

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/chronolog/chronolog/internal/chronoerr"
	"github.com/chronolog/chronolog/internal/metrics"
)

// Version is a single recorded revision row.
type Version struct {
	ID           int64
	FilePath     string
	BlobDigest   string
	Timestamp    time.Time
	ParentDigest string
	Annotation   string
	ByteSize     int64
}

// RecordRevisionResult reports what RecordRevision actually did, so
// callers (the watcher, checkout) can tell a genuine new revision from
// the spec's "same exact content never recorded twice in succession"
// no-op case.
type RecordRevisionResult struct {
	Digest  string
	Created bool
}

// RecordRevision inserts a versions row for (filePath, digest) unless
// that exact pair is already present, in which case it is a no-op that
// still returns the digest. On insert it also updates the branch head
// for branchName and, if data decodes as UTF-8, upserts a search_index
// row. The blob itself must already be written to the object store by
// the caller (internal/repo owns that ordering).
func (s *Store) RecordRevision(ctx context.Context, filePath, digest string, data []byte, annotation, branchName string) (RecordRevisionResult, error) {
	return s.recordRevision(ctx, filePath, digest, data, annotation, branchName, nil)
}

// RecordRevisionWithParent is RecordRevision but with parent_digest
// forced to parentDigest rather than derived from the branch's current
// head. Checkout's "after checkout" revision uses this: spec.md §4.4
// requires parent = the checked-out digest even though the branch head
// at that point is the "before checkout" backup revision just written.
func (s *Store) RecordRevisionWithParent(ctx context.Context, filePath, digest string, data []byte, annotation, branchName, parentDigest string) (RecordRevisionResult, error) {
	return s.recordRevision(ctx, filePath, digest, data, annotation, branchName, &parentDigest)
}

func (s *Store) recordRevision(ctx context.Context, filePath, digest string, data []byte, annotation, branchName string, parentOverride *string) (RecordRevisionResult, error) {
	var result RecordRevisionResult
	result.Digest = digest

	err := s.withWriteLock(ctx, func() error {
		var existing int
		err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM versions WHERE file_path = ? AND blob_digest = ?`,
			filePath, digest).Scan(&existing)
		if err != nil {
			return fmt.Errorf("check existing revision: %w", err)
		}
		if existing > 0 {
			return nil
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		var parentArg any
		if parentOverride != nil {
			if *parentOverride != "" {
				parentArg = *parentOverride
			}
		} else {
			var parentDigest sql.NullString
			if err := tx.QueryRowContext(ctx,
				`SELECT head_digest FROM branches WHERE name = ?`, branchName).Scan(&parentDigest); err != nil && err != sql.ErrNoRows {
				return fmt.Errorf("lookup branch head: %w", err)
			}
			if parentDigest.Valid && parentDigest.String != "" {
				parentArg = parentDigest.String
			}
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO versions (file_path, blob_digest, timestamp, parent_digest, annotation, byte_size)
			VALUES (?, ?, CURRENT_TIMESTAMP, ?, ?, ?)
		`, filePath, digest, parentArg, nullIfEmpty(annotation), len(data)); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}

		if utf8.Valid(data) {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR REPLACE INTO search_index (blob_digest, file_path, content_text)
				VALUES (?, ?, ?)
			`, digest, filePath, string(data)); err != nil {
				return fmt.Errorf("upsert search index: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE branches SET head_digest = ? WHERE name = ?
		`, digest, branchName); err != nil {
			return fmt.Errorf("update branch head: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO storage_metadata (digest, size, access_count, last_accessed, is_orphaned)
			VALUES (?, ?, 0, CURRENT_TIMESTAMP, 0)
			ON CONFLICT(digest) DO UPDATE SET last_accessed = CURRENT_TIMESTAMP
		`, digest, len(data)); err != nil {
			return fmt.Errorf("upsert storage metadata: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit revision: %w", err)
		}

		result.Created = true
		metrics.RevisionsRecorded.Inc()
		metrics.BytesStored.Add(float64(len(data)))
		return nil
	})

	return result, err
}

// History returns every revision recorded for filePath, newest first.
func (s *Store) History(ctx context.Context, filePath string) ([]Version, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, file_path, blob_digest, timestamp, COALESCE(parent_digest, ''), COALESCE(annotation, ''), byte_size
		FROM versions
		WHERE file_path = ?
		ORDER BY timestamp DESC, id DESC
	`, filePath)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Version
	for rows.Next() {
		var v Version
		if err := rows.Scan(&v.ID, &v.FilePath, &v.BlobDigest, &v.Timestamp, &v.ParentDigest, &v.Annotation, &v.ByteSize); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// LatestRevisionDigest returns the digest of the most recently recorded
// revision across the whole repository, used by tag(name, digest=nil).
func (s *Store) LatestRevisionDigest(ctx context.Context) (string, error) {
	var digest string
	err := s.db.QueryRowContext(ctx, `
		SELECT blob_digest FROM versions ORDER BY timestamp DESC, id DESC LIMIT 1
	`).Scan(&digest)
	if err == sql.ErrNoRows {
		return "", chronoerr.New(chronoerr.KindRevisionNotFound, "repository has no revisions")
	}
	if err != nil {
		return "", fmt.Errorf("query latest revision: %w", err)
	}
	return digest, nil
}

// ResolveDigest expands a digest prefix against recorded revisions via
// a single SQL LIKE, per spec §4.2's short-digest resolution algorithm.
// An exact 64-char match is returned immediately without a query.
func (s *Store) ResolveDigest(ctx context.Context, prefix string) (string, error) {
	if len(prefix) == 64 {
		return prefix, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT blob_digest FROM versions WHERE blob_digest LIKE ? LIMIT 2
	`, prefix+"%")
	if err != nil {
		return "", fmt.Errorf("resolve digest prefix: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var digest string
		if err := rows.Scan(&digest); err != nil {
			return "", fmt.Errorf("scan digest match: %w", err)
		}
		matches = append(matches, digest)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(matches) {
	case 0:
		return "", chronoerr.New(chronoerr.KindRevisionNotFound, "no revision matches digest prefix %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", chronoerr.New(chronoerr.KindAmbiguousDigest, "digest prefix %q matches multiple revisions", prefix)
	}
}

// PathForDigest returns the file path most recently recorded against
// digest, used by diff's current=true mode to find the on-disk file a
// historical digest belongs to.
func (s *Store) PathForDigest(ctx context.Context, digest string) (string, error) {
	var path string
	err := s.db.QueryRowContext(ctx, `
		SELECT file_path FROM versions WHERE blob_digest = ? ORDER BY timestamp DESC LIMIT 1
	`, digest).Scan(&path)
	if err == sql.ErrNoRows {
		return "", chronoerr.New(chronoerr.KindRevisionNotFound, "no revision recorded for digest %s", digest)
	}
	if err != nil {
		return "", fmt.Errorf("query path for digest: %w", err)
	}
	return path, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
