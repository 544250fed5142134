package ignore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultPatternsIgnoreMetaDir(t *testing.T) {
	m := New(nil)
	require.True(t, m.ShouldIgnore(".chronolog", true))
	require.True(t, m.ShouldIgnore(".chronolog/history.db", false))
	require.True(t, m.ShouldIgnore(".git", true))
}

func TestGlobWildcards(t *testing.T) {
	m := New([]string{"*.log", "build/", "src/**/*.test.js"})
	require.True(t, m.ShouldIgnore("debug.log", false))
	require.True(t, m.ShouldIgnore("nested/dir/debug.log", false))
	require.True(t, m.ShouldIgnore("build", true))
	require.True(t, m.ShouldIgnore("build/output.bin", false))
	require.True(t, m.ShouldIgnore("src/a/b/foo.test.js", false))
	require.False(t, m.ShouldIgnore("src/a/b/foo.js", false))
}

func TestAnchoredVsFloating(t *testing.T) {
	m := New([]string{"/only-root.txt", "anywhere.txt"})
	require.True(t, m.ShouldIgnore("only-root.txt", false))
	require.False(t, m.ShouldIgnore("nested/only-root.txt", false))
	require.True(t, m.ShouldIgnore("anywhere.txt", false))
	require.True(t, m.ShouldIgnore("nested/anywhere.txt", false))
}

func TestCommentsAndBlankLinesSkipped(t *testing.T) {
	m := New([]string{"# a comment", "", "   ", "*.tmp"})
	require.True(t, m.ShouldIgnore("a.tmp", false))
	require.False(t, m.ShouldIgnore("a.txt", false))
}

func TestLooksBinary(t *testing.T) {
	require.False(t, LooksBinary([]byte("hello\n")))
	require.True(t, LooksBinary([]byte("abc\x00def")))
	require.False(t, LooksBinary(nil))
}

func TestLoadUsesDefaultsWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(dir + "/.chronologignore")
	require.NoError(t, err)
	require.True(t, m.ShouldIgnore(".chronolog", true))
}
