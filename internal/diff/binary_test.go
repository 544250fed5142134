package diff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBinaryDiffIdentical(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0x03}
	bd := binaryDiff(Side{}, Side{}, data, bytes.Clone(data))
	require.True(t, bd.Identical)
	require.Equal(t, 1.0, bd.Similarity)
	require.Empty(t, bd.Chunks)
}

func TestBinaryDiffReportsChunks(t *testing.T) {
	old := bytes.Repeat([]byte{0x00}, 32)
	new := bytes.Clone(old)
	new[20] = 0xff

	bd := binaryDiff(Side{}, Side{}, old, new)

	require.False(t, bd.Identical)
	require.Len(t, bd.Chunks, 1)
	require.Equal(t, int64(16), bd.Chunks[0].Offset)
}

func TestBinaryDiffTruncatesLargeFiles(t *testing.T) {
	old := bytes.Repeat([]byte{0x00}, maxWalkSize+1)
	new := bytes.Repeat([]byte{0x01}, maxWalkSize+1)

	bd := binaryDiff(Side{}, Side{}, old, new)

	require.True(t, bd.Truncated)
	require.Empty(t, bd.Chunks)
}

func TestBinaryDiffSimilarityScaledBySize(t *testing.T) {
	old := bytes.Repeat([]byte{0x41}, 100)
	new := bytes.Repeat([]byte{0x41}, 50)

	bd := binaryDiff(Side{}, Side{}, old, new)

	require.False(t, bd.Identical)
	require.InDelta(t, 0.5, bd.Similarity, 0.01)
}

func TestBinaryDiffEmptyFiles(t *testing.T) {
	bd := binaryDiff(Side{}, Side{}, nil, nil)
	require.True(t, bd.Identical)
	require.Equal(t, 1.0, bd.Similarity)
}
