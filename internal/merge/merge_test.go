package merge

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeNonOverlappingEditsSucceeds(t *testing.T) {
	base := []byte("one\ntwo\nthree\nfour\nfive\n")
	ours := []byte("ONE\ntwo\nthree\nfour\nfive\n")
	theirs := []byte("one\ntwo\nthree\nfour\nFIVE\n")

	result := Merge(base, ours, theirs)

	require.True(t, result.Success)
	require.Empty(t, result.Conflicts)
	require.Equal(t, "ONE\ntwo\nthree\nfour\nFIVE\n", result.Content)
}

func TestMergeOverlappingEditsConflict(t *testing.T) {
	base := []byte("one\ntwo\nthree\n")
	ours := []byte("one\nTWO-OURS\nthree\n")
	theirs := []byte("one\nTWO-THEIRS\nthree\n")

	result := Merge(base, ours, theirs)

	require.False(t, result.Success)
	require.Len(t, result.Conflicts, 1)
	require.Equal(t, "TWO-OURS\n", result.Conflicts[0].Ours)
	require.Equal(t, "TWO-THEIRS\n", result.Conflicts[0].Theirs)
	require.Contains(t, result.Content, oursMarker)
	require.Contains(t, result.Content, theirsMarker)
}

func TestMergeIdenticalEditsNoConflict(t *testing.T) {
	base := []byte("one\ntwo\nthree\n")
	ours := []byte("one\nTWO\nthree\n")
	theirs := []byte("one\nTWO\nthree\n")

	result := Merge(base, ours, theirs)

	require.True(t, result.Success)
	require.Equal(t, "one\nTWO\nthree\n", result.Content)
}

func TestMergeBinaryPathOnNulByte(t *testing.T) {
	base := []byte("abc\x00def")
	ours := []byte("abc\x00def")
	theirs := []byte("changed\x00bytes")

	result := Merge(base, ours, theirs)

	require.Equal(t, KindBinary, result.Kind)
	require.True(t, result.Success)
	require.Equal(t, string(theirs), result.Content)
}

func TestMergeBinaryConflictWhenBothSidesDiffer(t *testing.T) {
	base := []byte("base\x00")
	ours := []byte("ours\x00")
	theirs := []byte("theirs\x00")

	result := Merge(base, ours, theirs)

	require.Equal(t, KindBinary, result.Kind)
	require.False(t, result.Success)
	require.Len(t, result.Conflicts, 1)
}

func TestResolvePolicies(t *testing.T) {
	c := Conflict{Ours: "A\n", Theirs: "B\n"}
	require.Equal(t, "A\n", Resolve(c, Ours, ""))
	require.Equal(t, "B\n", Resolve(c, Theirs, ""))
	require.Equal(t, "A\nB\n", Resolve(c, Both, ""))
	require.Equal(t, "", Resolve(c, None, ""))
	require.Equal(t, "manual\n", Resolve(c, Manual, "manual\n"))
}

func TestAutoResolveUnchangedSideWins(t *testing.T) {
	c := Conflict{Base: "x\n", Ours: "x\n", Theirs: "y\n"}
	resolved, ok := AutoResolve(c)
	require.True(t, ok)
	require.Equal(t, "y\n", resolved)
}

func TestAutoResolveIdenticalSides(t *testing.T) {
	c := Conflict{Base: "x\n", Ours: "y\n", Theirs: "y\n"}
	resolved, ok := AutoResolve(c)
	require.True(t, ok)
	require.Equal(t, "y\n", resolved)
}

func TestAutoResolveNoRuleApplies(t *testing.T) {
	c := Conflict{Base: "x\n", Ours: "y\n", Theirs: "z\n"}
	_, ok := AutoResolve(c)
	require.False(t, ok)
}
