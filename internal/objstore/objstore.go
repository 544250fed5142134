// Package objstore implements ChronoLog's content-addressed blob store.
//
// Blobs live under <root>/objects/<aa>/<62 hex remaining chars>, named by
// the SHA-256 digest of their own bytes. Writes are idempotent and never
// touch an existing file; a blob file is immutable once it lands on disk.
package objstore

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chronolog/chronolog/internal/chronoerr"
)

const digestLen = 64

// Store is a content-addressed blob store rooted at a directory.
type Store struct {
	root string
}

// New returns a Store rooted at dir/objects, creating the root directory
// if it does not already exist.
func New(dir string) (*Store, error) {
	root := filepath.Join(dir, "objects")
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, chronoerr.Wrap(chronoerr.KindIOError, err, "create object store root")
	}
	return &Store{root: root}, nil
}

func isHex(s string) bool {
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')) {
			return false
		}
	}
	return true
}

// ValidDigest reports whether d is a well-formed 64-hex-char SHA-256 digest.
func ValidDigest(d string) bool {
	return len(d) == digestLen && isHex(d)
}

func (s *Store) pathFor(digest string) string {
	return filepath.Join(s.root, digest[:2], digest[2:])
}

// Put writes bytes to the store and returns their digest. If a blob with
// that digest already exists, the existing file is left untouched.
func (s *Store) Put(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	path := s.pathFor(digest)
	if _, err := os.Stat(path); err == nil {
		return digest, nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", chronoerr.Wrap(chronoerr.KindIOError, err, "create object shard directory")
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", chronoerr.Wrap(chronoerr.KindIOError, err, "create temp object file")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", chronoerr.Wrap(chronoerr.KindIOError, err, "write temp object file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", chronoerr.Wrap(chronoerr.KindIOError, err, "close temp object file")
	}

	// Atomic rename into place. If another writer raced us to the same
	// digest, the content is identical by construction, so it's fine for
	// either rename to "win".
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		if _, statErr := os.Stat(path); statErr == nil {
			return digest, nil
		}
		return "", chronoerr.Wrap(chronoerr.KindIOError, err, "finalize object file")
	}
	return digest, nil
}

// Get reads the bytes stored under digest. It reports chronoerr.RevisionNotFound
// if no blob exists for that digest.
func (s *Store) Get(digest string) ([]byte, error) {
	if !ValidDigest(digest) {
		return nil, chronoerr.New(chronoerr.KindRevisionNotFound, "malformed digest %q", digest)
	}
	data, err := os.ReadFile(s.pathFor(digest))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, chronoerr.New(chronoerr.KindRevisionNotFound, "no blob for digest %s", digest)
		}
		return nil, chronoerr.Wrap(chronoerr.KindIOError, err, "read object %s", digest)
	}
	return data, nil
}

// Exists reports whether a blob is stored under digest, without reading it.
func (s *Store) Exists(digest string) bool {
	if !ValidDigest(digest) {
		return false
	}
	_, err := os.Stat(s.pathFor(digest))
	return err == nil
}

// Resolve expands a digest prefix (length >= 1) to the unique full digest
// stored in the object store. It returns chronoerr.AmbiguousDigest if more
// than one blob matches, or chronoerr.RevisionNotFound if none do.
func (s *Store) Resolve(prefix string) (string, error) {
	if len(prefix) == 0 {
		return "", chronoerr.New(chronoerr.KindRevisionNotFound, "empty digest prefix")
	}
	if len(prefix) >= digestLen {
		if ValidDigest(prefix) && s.Exists(prefix) {
			return prefix, nil
		}
		return "", chronoerr.New(chronoerr.KindRevisionNotFound, "no blob for digest %s", prefix)
	}
	if !isHex(prefix) {
		return "", chronoerr.New(chronoerr.KindRevisionNotFound, "malformed digest prefix %q", prefix)
	}

	shardPrefix := prefix
	if len(shardPrefix) > 2 {
		shardPrefix = shardPrefix[:2]
	}
	rest := ""
	if len(prefix) > 2 {
		rest = prefix[2:]
	}

	var matches []string
	shards, err := os.ReadDir(s.root)
	if err != nil {
		return "", chronoerr.Wrap(chronoerr.KindIOError, err, "list object shards")
	}
	for _, shard := range shards {
		if !shard.IsDir() {
			continue
		}
		if len(prefix) >= 2 && shard.Name() != shardPrefix {
			continue
		}
		if len(prefix) < 2 && !strings.HasPrefix(shard.Name(), prefix) {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.root, shard.Name()))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			full := shard.Name() + e.Name()
			if len(prefix) < 2 {
				if strings.HasPrefix(full, prefix) {
					matches = append(matches, full)
				}
				continue
			}
			if strings.HasPrefix(e.Name(), rest) {
				matches = append(matches, full)
			}
		}
	}

	switch len(matches) {
	case 0:
		return "", chronoerr.New(chronoerr.KindRevisionNotFound, "no blob matches prefix %s", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", chronoerr.New(chronoerr.KindAmbiguousDigest, "prefix %s matches %d blobs", prefix, len(matches))
	}
}

// Reader opens a streaming reader for the blob at digest, avoiding a full
// read into memory for large blobs.
func (s *Store) Reader(digest string) (io.ReadCloser, error) {
	if !ValidDigest(digest) {
		return nil, chronoerr.New(chronoerr.KindRevisionNotFound, "malformed digest %q", digest)
	}
	f, err := os.Open(s.pathFor(digest))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, chronoerr.New(chronoerr.KindRevisionNotFound, "no blob for digest %s", digest)
		}
		return nil, chronoerr.Wrap(chronoerr.KindIOError, err, "open object %s", digest)
	}
	return f, nil
}

// Remove deletes the blob file for digest. Used only by garbage collection.
func (s *Store) Remove(digest string) error {
	if !ValidDigest(digest) {
		return fmt.Errorf("malformed digest %q", digest)
	}
	if err := os.Remove(s.pathFor(digest)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return chronoerr.Wrap(chronoerr.KindIOError, err, "remove object %s", digest)
	}
	return nil
}

// Walk invokes fn for every blob digest currently on disk (used by garbage
// collection and integrity checks).
func (s *Store) Walk(fn func(digest string) error) error {
	shards, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return chronoerr.Wrap(chronoerr.KindIOError, err, "list object shards")
	}
	for _, shard := range shards {
		if !shard.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.root, shard.Name()))
		if err != nil {
			return chronoerr.Wrap(chronoerr.KindIOError, err, "list shard %s", shard.Name())
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if err := fn(shard.Name() + e.Name()); err != nil {
				return err
			}
		}
	}
	return nil
}
