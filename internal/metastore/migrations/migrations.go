// Package migrations holds ChronoLog's ordered schema evolutions. Each
// migration is idempotent (safe to run against a database that already
// has it applied) so the migration list can simply be replayed in full
// on every open, mirroring the ordered-list idiom of a larger CLI tool
// this project borrows its storage layout from.
package migrations

import (
	"database/sql"
	"fmt"
)

// MigrateOrphanedIndex adds an index on storage_metadata.is_orphaned so
// the garbage-collection pass (spec §4.1's "deletion only by an
// explicit garbage collection pass") doesn't table-scan to find
// candidates once a repository accumulates history.
func MigrateOrphanedIndex(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_storage_metadata_orphaned ON storage_metadata(is_orphaned)`)
	if err != nil {
		return fmt.Errorf("create is_orphaned index: %w", err)
	}
	return nil
}

// MigrateVersionsParentIndex adds an index on versions.parent_digest so
// lookups by parent digest don't scan the whole table.
func MigrateVersionsParentIndex(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_versions_parent_digest ON versions(parent_digest)`)
	if err != nil {
		return fmt.Errorf("create parent_digest index: %w", err)
	}
	return nil
}
