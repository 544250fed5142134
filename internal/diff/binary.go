package diff

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
)

// chunkSize is the alignment used for walking small binary files looking
// for differing regions, per spec.md §4.5.
const chunkSize = 16

// maxWalkSize is the largest file size, per side, that binaryDiff will
// walk chunk-by-chunk. Larger files only get the whole-file comparison.
const maxWalkSize = 10 * 1024

// maxChunks bounds how many differing chunks are reported.
const maxChunks = 20

// similarityWindow is how many leading bytes are compared byte-by-byte
// to compute Similarity.
const similarityWindow = 1024

// ByteChunk is one differing 16-byte-aligned region between two binary
// revisions.
type ByteChunk struct {
	Offset  int64
	OldHex  string
	NewHex  string
}

// BinaryDiff is the outcome of comparing two revisions that are not
// diffable as text, per spec.md §4.5.
type BinaryDiff struct {
	Old        Side
	New        Side
	OldSize    int64
	NewSize    int64
	Identical  bool
	Chunks     []ByteChunk
	Truncated  bool
	Similarity float64
}

// binaryDiff compares lengths and whole-file SHA-256 first. If both sides
// are small enough it then walks 16-byte-aligned chunks and reports the
// first maxChunks that differ, and computes a byte-by-byte similarity
// score over the first similarityWindow bytes of each side scaled by the
// ratio of the sizes, per spec.md §4.5.
func binaryDiff(old, new Side, oldData, newData []byte) *BinaryDiff {
	result := &BinaryDiff{
		Old:     old,
		New:     new,
		OldSize: int64(len(oldData)),
		NewSize: int64(len(newData)),
	}

	oldSum := sha256.Sum256(oldData)
	newSum := sha256.Sum256(newData)
	if len(oldData) == len(newData) && oldSum == newSum {
		result.Identical = true
		result.Similarity = 1.0
		return result
	}

	result.Similarity = byteSimilarity(oldData, newData)

	if int64(len(oldData)) > maxWalkSize || int64(len(newData)) > maxWalkSize {
		result.Truncated = true
		return result
	}

	maxLen := len(oldData)
	if len(newData) > maxLen {
		maxLen = len(newData)
	}

	for offset := 0; offset < maxLen; offset += chunkSize {
		oldChunk := sliceChunk(oldData, offset, chunkSize)
		newChunk := sliceChunk(newData, offset, chunkSize)
		if bytes.Equal(oldChunk, newChunk) {
			continue
		}
		result.Chunks = append(result.Chunks, ByteChunk{
			Offset: int64(offset),
			OldHex: hex.EncodeToString(oldChunk),
			NewHex: hex.EncodeToString(newChunk),
		})
		if len(result.Chunks) >= maxChunks {
			result.Truncated = true
			break
		}
	}

	return result
}

func sliceChunk(data []byte, offset, size int) []byte {
	if offset >= len(data) {
		return nil
	}
	end := offset + size
	if end > len(data) {
		end = len(data)
	}
	return data[offset:end]
}

// byteSimilarity compares the first similarityWindow bytes of each side
// position-by-position, then scales the match ratio by how close the two
// sizes are to each other, so a truncated/appended file does not score as
// identical just because its head matches.
func byteSimilarity(oldData, newData []byte) float64 {
	n := similarityWindow
	if len(oldData) < n {
		n = len(oldData)
	}
	if len(newData) < n {
		n = len(newData)
	}

	if n == 0 {
		if len(oldData) == 0 && len(newData) == 0 {
			return 1.0
		}
		return 0.0
	}

	matches := 0
	for i := 0; i < n; i++ {
		if oldData[i] == newData[i] {
			matches++
		}
	}
	headScore := float64(matches) / float64(n)

	maxSize := len(oldData)
	if len(newData) > maxSize {
		maxSize = len(newData)
	}
	minSize := len(oldData)
	if len(newData) < minSize {
		minSize = len(newData)
	}
	sizeRatio := 1.0
	if maxSize > 0 {
		sizeRatio = float64(minSize) / float64(maxSize)
	}

	return headScore * sizeRatio
}
