package objstore

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/chronolog/chronolog/internal/chronoerr"
	"github.com/stretchr/testify/require"
)

func TestPutGetRoundTrip(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	data := []byte("hello\n")
	digest, err := store.Put(data)
	require.NoError(t, err)

	sum := sha256.Sum256(data)
	require.Equal(t, hex.EncodeToString(sum[:]), digest)

	got, err := store.Get(digest)
	require.NoError(t, err)
	require.Equal(t, data, got)
	require.True(t, store.Exists(digest))
}

func TestPutIsIdempotent(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	d1, err := store.Put([]byte("same content"))
	require.NoError(t, err)
	d2, err := store.Put([]byte("same content"))
	require.NoError(t, err)
	require.Equal(t, d1, d2)
}

func TestEmptyFileDigest(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	digest, err := store.Put(nil)
	require.NoError(t, err)
	sum := sha256.Sum256(nil)
	require.Equal(t, hex.EncodeToString(sum[:]), digest)
	require.Len(t, digest, 64)
}

func TestGetAbsent(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get("5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be0")
	require.Error(t, err)
	require.Equal(t, chronoerr.KindRevisionNotFound, chronoerr.Of(err))
}

func TestResolvePrefix(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	digest, err := store.Put([]byte("hello\n"))
	require.NoError(t, err)

	resolved, err := store.Resolve(digest[:8])
	require.NoError(t, err)
	require.Equal(t, digest, resolved)

	resolved, err = store.Resolve(digest[:1])
	require.NoError(t, err)
	require.Equal(t, digest, resolved)
}

func TestResolveNonHexPrefixNotFound(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put([]byte("a"))
	require.NoError(t, err)
	_, err = store.Put([]byte("b"))
	require.NoError(t, err)

	// "a" and "b" hash to digests with different first characters, so no
	// ambiguous prefix exists here; this only checks that a prefix that is
	// not hex reports not-found.
	_, err = store.Resolve("zz")
	require.Error(t, err)
	require.Equal(t, chronoerr.KindRevisionNotFound, chronoerr.Of(err))
}

func TestRejectsMalformedDigest(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.False(t, store.Exists("not-hex"))
	_, err = store.Get("too-short")
	require.Error(t, err)
}

func TestRemoveDeletesBlob(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	digest, err := store.Put([]byte("gone soon"))
	require.NoError(t, err)
	require.True(t, store.Exists(digest))

	require.NoError(t, store.Remove(digest))
	require.False(t, store.Exists(digest))

	// Removing an already-absent digest is not an error.
	require.NoError(t, store.Remove(digest))
}

func TestRemoveRejectsMalformedDigest(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	require.Error(t, store.Remove("not-hex"))
}

func TestWalkVisitsEveryBlob(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	d1, err := store.Put([]byte("one"))
	require.NoError(t, err)
	d2, err := store.Put([]byte("two"))
	require.NoError(t, err)

	seen := map[string]bool{}
	require.NoError(t, store.Walk(func(digest string) error {
		seen[digest] = true
		return nil
	}))
	require.True(t, seen[d1])
	require.True(t, seen[d2])
	require.Len(t, seen, 2)
}

func TestWalkOnEmptyStoreIsNoop(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	calls := 0
	require.NoError(t, store.Walk(func(digest string) error {
		calls++
		return nil
	}))
	require.Zero(t, calls)
}
