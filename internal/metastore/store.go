// Package metastore implements ChronoLog's metadata store (C2): the
// SQLite-backed record of versions, branches, tags, and the search
// index that sits alongside the content-addressed object store.
package metastore

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/ncruces/go-sqlite3"
	"github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/chronolog/chronolog/internal/chronoerr"
	"github.com/chronolog/chronolog/internal/metastore/migrations"
	"github.com/chronolog/chronolog/internal/metrics"
)

// migrationsList runs in order against every opened database. All
// migrations are idempotent, so re-running an already-applied one is a
// no-op.
var migrationsList = []func(*sql.DB) error{
	migrations.MigrateOrphanedIndex,
	migrations.MigrateVersionsParentIndex,
}

const (
	lockRetryAttempts = 8
	lockBaseDelay     = 20 * time.Millisecond
)

// driverOnce registers ChronoLog's sqlite3 driver (with the regexp UDF
// wired in on every new connection) exactly once per process.
var driverOnce sync.Once

func registerDriver() {
	driverOnce.Do(func() {
		sql.Register("chronolog-sqlite3", &driver.SQLite{
			ConnectHook: func(c *sqlite3.Conn) error {
				return c.CreateFunction("regexp", 2, sqlite3.DETERMINISTIC, regexpUDF)
			},
		})
	})
}

// Store is a single repository's metadata store. One Store wraps one
// *sql.DB; writers are serialized by writeMu in-process and by an
// advisory flock across processes (spec §5: the API and the daemon may
// both hold the store open concurrently).
type Store struct {
	db      *sql.DB
	path    string
	writeMu sync.Mutex
	lock    *flock.Flock
}

// Open opens (creating if necessary) the metadata database at path,
// applies the schema and any pending migrations, and returns a ready
// Store. The companion lock file sits next to the database.
func Open(path string) (*Store, error) {
	registerDriver()

	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("chronolog-sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	for _, m := range migrationsList {
		if err := m(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply migration: %w", err)
		}
	}

	return &Store{
		db:   db,
		path: path,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path, for daemon/validation use.
func (s *Store) Path() string { return s.path }

// UnderlyingDB exposes the raw connection pool for ad-hoc queries that
// don't warrant a dedicated Store method. Bypasses the Store's write
// serialization.
func (s *Store) UnderlyingDB() *sql.DB { return s.db }

// withWriteLock serializes fn against every other writer in this
// process (writeMu) and every writer in every other process sharing
// this repository (flock), retrying lock acquisition with jittered
// backoff before surfacing chronoerr.LockContention (spec §7).
func (s *Store) withWriteLock(ctx context.Context, fn func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	locked, err := s.acquireFileLock(ctx)
	if err != nil {
		return err
	}
	if !locked {
		metrics.LockContentionRetries.Inc()
		return chronoerr.New(chronoerr.KindLockContention, "metadata store is locked by another process")
	}
	defer s.lock.Unlock()

	return fn()
}

func (s *Store) acquireFileLock(ctx context.Context) (bool, error) {
	delay := lockBaseDelay
	for attempt := 0; attempt < lockRetryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return false, fmt.Errorf("acquire store lock: %w", err)
		}
		locked, err := s.lock.TryLock()
		if err != nil {
			return false, fmt.Errorf("acquire store lock: %w", err)
		}
		if locked {
			return true, nil
		}
		metrics.LockContentionRetries.Inc()
		jitter := time.Duration(rand.Int63n(int64(delay)))
		time.Sleep(delay + jitter)
		delay *= 2
	}
	return false, nil
}
