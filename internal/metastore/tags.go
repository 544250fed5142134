package metastore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chronolog/chronolog/internal/chronoerr"
)

// Tag is an immutable named pointer to a specific blob digest.
type Tag struct {
	Name        string
	BlobDigest  string
	Timestamp   string
	Description string
}

// CreateTag inserts a new tag. If digest is empty, it resolves to the
// most recent revision's digest across the whole repository. Fails if
// name already exists or (digest == "" and the repository has no
// revisions).
func (s *Store) CreateTag(ctx context.Context, name, digest, description string) (Tag, error) {
	var created Tag

	err := s.withWriteLock(ctx, func() error {
		var count int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags WHERE name = ?`, name).Scan(&count); err != nil {
			return fmt.Errorf("check tag existence: %w", err)
		}
		if count > 0 {
			return chronoerr.New(chronoerr.KindTagExists, "tag %q already exists", name)
		}

		resolved := digest
		if resolved == "" {
			latest, err := s.LatestRevisionDigest(ctx)
			if err != nil {
				return err
			}
			resolved = latest
		}

		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO tags (name, blob_digest, description) VALUES (?, ?, ?)
		`, name, resolved, nullIfEmpty(description)); err != nil {
			return fmt.Errorf("insert tag: %w", err)
		}

		created = Tag{Name: name, BlobDigest: resolved, Description: description}
		return nil
	})

	return created, err
}

// GetTag returns the tag named name.
func (s *Store) GetTag(ctx context.Context, name string) (Tag, error) {
	var t Tag
	err := s.db.QueryRowContext(ctx, `
		SELECT name, blob_digest, timestamp, COALESCE(description, '') FROM tags WHERE name = ?
	`, name).Scan(&t.Name, &t.BlobDigest, &t.Timestamp, &t.Description)
	if err == sql.ErrNoRows {
		return Tag{}, chronoerr.New(chronoerr.KindTagNotFound, "tag %q does not exist", name)
	}
	if err != nil {
		return Tag{}, fmt.Errorf("query tag: %w", err)
	}
	return t, nil
}

// ListTags returns every tag, ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, blob_digest, timestamp, COALESCE(description, '') FROM tags ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.Name, &t.BlobDigest, &t.Timestamp, &t.Description); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTag removes a tag. Fails if it does not exist.
func (s *Store) DeleteTag(ctx context.Context, name string) error {
	return s.withWriteLock(ctx, func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE name = ?`, name)
		if err != nil {
			return fmt.Errorf("delete tag: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("check delete result: %w", err)
		}
		if affected == 0 {
			return chronoerr.New(chronoerr.KindTagNotFound, "tag %q does not exist", name)
		}
		return nil
	})
}
