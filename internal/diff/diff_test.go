package diff

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseKindDefaultsToLine(t *testing.T) {
	require.Equal(t, Line, ParseKind("bogus"))
	require.Equal(t, Word, ParseKind("word"))
	require.Equal(t, Semantic, ParseKind("semantic"))
	require.Equal(t, Binary, ParseKind("binary"))
}

func TestDiffLineKind(t *testing.T) {
	old := Side{Path: "a.txt", Digest: "deadbeef"}
	new := Side{Path: "a.txt", Digest: "cafebabe"}
	result := Diff(Line, old, new, []byte("one\ntwo\n"), []byte("one\nthree\n"))
	require.Equal(t, Line, result.Kind)
	require.NotNil(t, result.Line)
}

func TestDiffFallsBackToBinaryOnInvalidUTF8(t *testing.T) {
	old := Side{Path: "a.bin"}
	new := Side{Path: "a.bin"}
	result := Diff(Line, old, new, []byte{0xff, 0xfe, 0x00}, []byte{0xff, 0xfe, 0x01})
	require.Equal(t, Binary, result.Kind)
	require.NotNil(t, result.Binary)
}

func TestDiffSemanticFallsBackToLineForUnknownLanguage(t *testing.T) {
	old := Side{Path: "README.txt"}
	new := Side{Path: "README.txt"}
	result := Diff(Semantic, old, new, []byte("hello\n"), []byte("goodbye\n"))
	require.Equal(t, Line, result.Kind)
	require.NotNil(t, result.Line)
}

func TestDiffSemanticPython(t *testing.T) {
	old := Side{Path: "mod.py"}
	new := Side{Path: "mod.py"}
	result := Diff(Semantic, old, new, []byte("def foo():\n    pass\n"), []byte("def foo():\n    return 1\n"))
	require.Equal(t, Semantic, result.Kind)
	require.NotNil(t, result.Semantic)
	require.Equal(t, "python", result.Semantic.Language)
}
