package diff

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineDiffSingleLineChange(t *testing.T) {
	old := Side{Path: "a.txt", Digest: "deadbeefcafebabe"}
	new := Side{Path: "a.txt", Digest: "0011223344556677"}
	ld := lineDiff(old, new, []byte("one\ntwo\nthree\n"), []byte("one\nTWO\nthree\n"))

	require.Len(t, ld.Hunks, 1)
	hunk := ld.Hunks[0]
	require.Equal(t, HunkHeader, hunk.Lines[0].Kind)

	var kinds []LineKind
	for _, l := range hunk.Lines[1:] {
		kinds = append(kinds, l.Kind)
	}
	require.Contains(t, kinds, Deletion)
	require.Contains(t, kinds, Addition)
}

func TestLineDiffNoChangeProducesNoHunks(t *testing.T) {
	old := Side{Path: "a.txt", Digest: "deadbeef"}
	new := Side{Path: "a.txt", Digest: "deadbeef"}
	ld := lineDiff(old, new, []byte("same\n"), []byte("same\n"))
	require.Empty(t, ld.Hunks)
}

func TestLineDiffContextWindowTrimsLongUnchangedRuns(t *testing.T) {
	old := Side{Path: "a.txt"}
	new := Side{Path: "a.txt"}

	var oldLines, newLines string
	for i := 0; i < 50; i++ {
		oldLines += "line\n"
		newLines += "line\n"
	}
	oldLines += "changed-old\n"
	newLines += "changed-new\n"
	for i := 0; i < 50; i++ {
		oldLines += "line\n"
		newLines += "line\n"
	}

	ld := lineDiff(old, new, []byte(oldLines), []byte(newLines))
	require.Len(t, ld.Hunks, 1)
	// at most defaultContext lines of leading/trailing context plus the
	// changed delete+add pair plus the header.
	require.LessOrEqual(t, len(ld.Hunks[0].Lines), 1+defaultContext*2+2)
}

func TestShortDigestTruncates(t *testing.T) {
	require.Equal(t, "deadbeef", shortDigest("deadbeefcafebabe0011223344556677"))
	require.Equal(t, "ab", shortDigest("ab"))
}
