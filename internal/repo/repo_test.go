package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chronolog/chronolog/internal/chronoerr"
	"github.com/chronolog/chronolog/internal/diff"
)

func initTestRepo(t *testing.T) *Repository {
	t.Helper()
	dir := t.TempDir()
	r, err := Init(dir)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestInitFailsWhenAlreadyInitialized(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	require.NoError(t, err)
	r.Close()

	_, err = Init(dir)
	require.Error(t, err)
	require.Equal(t, chronoerr.KindRepositoryExists, chronoerr.Of(err))
}

func TestOpenFailsOutsideRepository(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(dir)
	require.Error(t, err)
	require.Equal(t, chronoerr.KindNotARepository, chronoerr.Of(err))
}

func TestOpenSearchesAncestorDirectories(t *testing.T) {
	dir := t.TempDir()
	r, err := Init(dir)
	require.NoError(t, err)
	r.Close()

	nested := filepath.Join(dir, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	opened, err := Open(nested)
	require.NoError(t, err)
	defer opened.Close()
	require.Equal(t, dir, opened.Root())
}

func TestCommitFileAndLog(t *testing.T) {
	r := initTestRepo(t)

	require.NoError(t, r.CommitFile("a.txt", []byte("hello")))
	require.NoError(t, r.CommitFile("a.txt", []byte("hello world")))

	history, err := r.Log("a.txt")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "hello world", showString(t, r, history[0].BlobDigest))
}

func showString(t *testing.T, r *Repository, digest string) string {
	t.Helper()
	data, err := r.Show(digest)
	require.NoError(t, err)
	return string(data)
}

func TestShowResolvesShortPrefix(t *testing.T) {
	r := initTestRepo(t)
	require.NoError(t, r.CommitFile("a.txt", []byte("hello")))

	history, err := r.Log("a.txt")
	require.NoError(t, err)
	digest := history[0].BlobDigest

	data, err := r.Show(digest[:8])
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestCheckoutRestoresPriorContentAndRecordsBeforeAfter(t *testing.T) {
	r := initTestRepo(t)

	require.NoError(t, r.CommitFile("a.txt", []byte("v1")))
	history, err := r.Log("a.txt")
	require.NoError(t, err)
	v1Digest := history[0].BlobDigest

	require.NoError(t, os.WriteFile(filepath.Join(r.Root(), "a.txt"), []byte("v2 on disk"), 0o644))
	require.NoError(t, r.Checkout(v1Digest, "a.txt"))

	data, err := os.ReadFile(filepath.Join(r.Root(), "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "v1", string(data))

	history, err = r.Log("a.txt")
	require.NoError(t, err)
	require.Len(t, history, 3) // v1, before-checkout backup, after-checkout restore
	require.Contains(t, history[0].Annotation, "Checked out from")
	require.Equal(t, v1Digest, history[0].ParentDigest)
}

func TestDiffLineKindBetweenTwoRevisions(t *testing.T) {
	r := initTestRepo(t)

	require.NoError(t, r.CommitFile("a.txt", []byte("line one\nline two\n")))
	require.NoError(t, r.CommitFile("a.txt", []byte("line one\nline TWO\n")))

	history, err := r.Log("a.txt")
	require.NoError(t, err)
	require.Len(t, history, 2)

	result, err := r.Diff(history[1].BlobDigest, history[0].BlobDigest, false, diff.Line)
	require.NoError(t, err)
	require.Equal(t, diff.Line, result.Kind)
	require.NotNil(t, result.Line)
}

func TestBranchLifecycle(t *testing.T) {
	r := initTestRepo(t)

	info, err := r.Branch()
	require.NoError(t, err)
	require.Equal(t, "main", info.Current)
	require.Len(t, info.Branches, 1)

	_, err = r.CreateBranch("feature", "")
	require.NoError(t, err)

	require.NoError(t, r.SwitchBranch("feature"))
	info, err = r.Branch()
	require.NoError(t, err)
	require.Equal(t, "feature", info.Current)

	err = r.DeleteBranch("feature")
	require.Error(t, err) // current branch cannot be deleted

	require.NoError(t, r.SwitchBranch("main"))
	require.NoError(t, r.DeleteBranch("feature"))
}

func TestTagLifecycle(t *testing.T) {
	r := initTestRepo(t)
	require.NoError(t, r.CommitFile("a.txt", []byte("hello")))

	tag, err := r.Tag("v1", "", "first")
	require.NoError(t, err)
	require.NotEmpty(t, tag.BlobDigest)

	tags, err := r.ListTags()
	require.NoError(t, err)
	require.Len(t, tags, 1)

	require.NoError(t, r.DeleteTag("v1"))
}

func TestSearchFindsCommittedContent(t *testing.T) {
	r := initTestRepo(t)
	require.NoError(t, r.CommitFile("a.txt", []byte("the quick brown fox")))

	results, err := r.Search("quick", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestReindexIsIdempotentAndReportsProgress(t *testing.T) {
	r := initTestRepo(t)
	require.NoError(t, r.CommitFile("a.txt", []byte("hello")))
	require.NoError(t, r.CommitFile("b.txt", []byte("world")))

	var calls []int
	require.NoError(t, r.Reindex(func(done, total int) {
		calls = append(calls, done)
		require.Equal(t, 2, total)
	}))
	require.Equal(t, []int{1, 2}, calls)

	results, err := r.Search("hello", "")
	require.NoError(t, err)
	require.Len(t, results, 1)

	require.NoError(t, r.Reindex(nil))
	results, err = r.Search("hello", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestMergeNonConflictingSides(t *testing.T) {
	r := initTestRepo(t)
	require.NoError(t, r.CommitFile("a.txt", []byte("line1\nline2\nline3\n")))
	baseHistory, err := r.Log("a.txt")
	require.NoError(t, err)
	base := baseHistory[0].BlobDigest

	require.NoError(t, r.CommitFile("ours.txt", []byte("line1 CHANGED\nline2\nline3\n")))
	oursHistory, err := r.Log("ours.txt")
	require.NoError(t, err)
	ours := oursHistory[0].BlobDigest

	require.NoError(t, r.CommitFile("theirs.txt", []byte("line1\nline2\nline3 CHANGED\n")))
	theirsHistory, err := r.Log("theirs.txt")
	require.NoError(t, err)
	theirs := theirsHistory[0].BlobDigest

	result, err := r.Merge(base, ours, theirs)
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Empty(t, result.Conflicts)
}

func TestGCRemovesOnlyUnreferencedBlobs(t *testing.T) {
	r := initTestRepo(t)
	require.NoError(t, r.CommitFile("a.txt", []byte("kept")))
	history, err := r.Log("a.txt")
	require.NoError(t, err)
	kept := history[0].BlobDigest

	// A blob with no referencing version row, as could only arise from a
	// bug elsewhere (Put and the version insert are otherwise always
	// written together); simulated here directly against the object
	// store to exercise GC's orphan detection.
	orphan, err := r.objects.Put([]byte("never committed"))
	require.NoError(t, err)

	result, err := r.GC(false)
	require.NoError(t, err)
	require.Equal(t, 1, result.Orphaned)
	require.Equal(t, []string{orphan}, result.Removed)

	require.True(t, r.objects.Exists(kept))
	require.False(t, r.objects.Exists(orphan))
}

func TestGCDryRunLeavesBlobsInPlace(t *testing.T) {
	r := initTestRepo(t)
	orphan, err := r.objects.Put([]byte("never committed"))
	require.NoError(t, err)

	result, err := r.GC(true)
	require.NoError(t, err)
	require.Equal(t, 1, result.Orphaned)
	require.Empty(t, result.Removed)
	require.True(t, r.objects.Exists(orphan))
}
