// Package merge implements ChronoLog's three-way merge engine (C6). It
// shares the go-difflib opcode machinery with the line differ (internal/diff)
// rather than re-implementing edit detection: two edits conflict iff their
// affected base line ranges overlap.
package merge

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Kind classifies how a merge concluded.
type Kind int

const (
	KindText Kind = iota
	KindBinary
)

func (k Kind) String() string {
	if k == KindBinary {
		return "binary"
	}
	return "text"
}

// binarySniffWindow is how many leading bytes are checked for a NUL byte
// to decide whether to take the binary merge path.
const binarySniffWindow = 8 * 1024

// Conflict is one region where ours and theirs both touched the same base
// line range in incompatible ways.
type Conflict struct {
	StartLine int
	EndLine   int
	Base      string
	Ours      string
	Theirs    string
}

// Result is the outcome of Merge.
type Result struct {
	Success   bool
	Content   string
	Conflicts []Conflict
	Kind      Kind
}

const (
	oursMarker   = "<<<<<<< OURS"
	separator    = "======="
	theirsMarker = ">>>>>>> THEIRS"
)

// Merge performs a three-way merge of base/ours/theirs byte sequences, per
// spec.md §4.6. If any side contains a NUL byte in its first 8 KiB it takes
// the binary merge path; otherwise edits are computed with the same
// SequenceMatcher opcode machinery the line differ uses, and conflicts are
// emitted only where ours and theirs touch overlapping base line ranges.
func Merge(base, ours, theirs []byte) *Result {
	if looksBinary(base) || looksBinary(ours) || looksBinary(theirs) {
		return binaryMerge(base, ours, theirs)
	}

	baseLines := splitLines(base)
	ourLines := splitLines(ours)
	theirLines := splitLines(theirs)

	ourOps := difflib.NewMatcher(baseLines, ourLines).GetOpCodes()
	theirOps := difflib.NewMatcher(baseLines, theirLines).GetOpCodes()

	content, conflicts := mergeWithConflicts(baseLines, ourLines, theirLines, ourOps, theirOps)
	return &Result{Success: len(conflicts) == 0, Content: content, Conflicts: conflicts, Kind: KindText}
}

func splitLines(data []byte) []string {
	s := string(data)
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func looksBinary(data []byte) bool {
	n := len(data)
	if n > binarySniffWindow {
		n = binarySniffWindow
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}

// editSpan is one non-equal opcode's base-line range, tagged by which side
// produced it.
type editSpan struct {
	start, end int
	fromOurs   bool
}

// mergeWithConflicts groups ours' and theirs' non-equal opcodes into
// maximal runs of overlapping base line ranges (a conflict's base range
// may be touched by several opcodes on either side once they bridge
// across each other). A run touched by only one side is a clean edit; a
// run touched by both is a conflict unless both sides produce identical
// replacement text, per spec.md §4.6's "two edits conflict iff their
// affected base line ranges overlap".
func mergeWithConflicts(base, ours, theirs []string, ourOps, theirOps []difflib.OpCode) (string, []Conflict) {
	var spans []editSpan
	for _, op := range ourOps {
		if op.Tag != 'e' {
			spans = append(spans, editSpan{op.I1, op.I2, true})
		}
	}
	for _, op := range theirOps {
		if op.Tag != 'e' {
			spans = append(spans, editSpan{op.I1, op.I2, false})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var out strings.Builder
	var conflicts []Conflict

	pos := 0
	i := 0
	for i < len(spans) {
		compStart, compEnd := spans[i].start, spans[i].end
		sawOurs, sawTheirs := spans[i].fromOurs, !spans[i].fromOurs
		j := i + 1
		for j < len(spans) && spanTouches(spans[j], compEnd) {
			if spans[j].end > compEnd {
				compEnd = spans[j].end
			}
			if spans[j].fromOurs {
				sawOurs = true
			} else {
				sawTheirs = true
			}
			j++
		}

		if pos < compStart {
			out.WriteString(joinLines(base[pos:compStart]))
		}

		ourText := replay(ourOps, compStart, compEnd, ours, base)
		theirText := replay(theirOps, compStart, compEnd, theirs, base)

		switch {
		case sawOurs && sawTheirs:
			if ourText == theirText {
				out.WriteString(ourText)
			} else {
				conflicts = append(conflicts, Conflict{
					StartLine: compStart + 1,
					EndLine:   compEnd,
					Base:      joinLines(base[compStart:compEnd]),
					Ours:      ourText,
					Theirs:    theirText,
				})
				out.WriteString(oursMarker + "\n")
				out.WriteString(ourText)
				out.WriteString(separator + "\n")
				out.WriteString(theirText)
				out.WriteString(theirsMarker + "\n")
			}
		case sawOurs:
			out.WriteString(ourText)
		default:
			out.WriteString(theirText)
		}

		pos = compEnd
		i = j
	}
	if pos < len(base) {
		out.WriteString(joinLines(base[pos:]))
	}

	return out.String(), conflicts
}

// spanTouches reports whether s continues the component currently ending
// at compEnd. Spans are visited in start order, so only growing compEnd
// forward needs checking. Zero-length spans (pure insertions) touch the
// component when their insertion point falls anywhere within it.
func spanTouches(s editSpan, compEnd int) bool {
	if s.start == s.end {
		return s.start <= compEnd
	}
	return s.start < compEnd
}

// replay reconstructs the text a side (ours or theirs) contributes over
// base range [start, end), substituting that side's opcodes and passing
// unedited (equal-tag) base content straight through.
func replay(ops []difflib.OpCode, start, end int, newLines, baseLines []string) string {
	var b strings.Builder
	for _, op := range ops {
		if op.I1 == op.I2 {
			if op.I1 < start || op.I1 > end {
				continue
			}
		} else if op.I2 <= start || op.I1 >= end {
			continue
		}

		if op.Tag == 'e' {
			lo, hi := op.I1, op.I2
			if lo < start {
				lo = start
			}
			if hi > end {
				hi = end
			}
			if lo < hi {
				b.WriteString(joinLines(baseLines[lo:hi]))
			}
			continue
		}
		b.WriteString(joinLines(newLines[op.J1:op.J2]))
	}
	return b.String()
}

func joinLines(lines []string) string {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
	}
	return b.String()
}

// binaryMerge handles base/ours/theirs when any side looks binary. Success
// only when both sides equal each other, or exactly one side differs from
// base, per spec.md §4.6.
func binaryMerge(base, ours, theirs []byte) *Result {
	if bytes.Equal(ours, theirs) {
		return &Result{Success: true, Content: string(ours), Kind: KindBinary}
	}
	if bytes.Equal(base, ours) {
		return &Result{Success: true, Content: string(theirs), Kind: KindBinary}
	}
	if bytes.Equal(base, theirs) {
		return &Result{Success: true, Content: string(ours), Kind: KindBinary}
	}
	return &Result{
		Success: false,
		Kind:    KindBinary,
		Conflicts: []Conflict{{
			Base:   fmt.Sprintf("<%d bytes>", len(base)),
			Ours:   fmt.Sprintf("<%d bytes>", len(ours)),
			Theirs: fmt.Sprintf("<%d bytes>", len(theirs)),
		}},
	}
}

// ResolutionPolicy is how a higher layer tells Resolve to settle a single
// Conflict, per spec.md §4.6.
type ResolutionPolicy int

const (
	Ours ResolutionPolicy = iota
	Theirs
	Both
	None
	Manual
)

// Resolve applies a resolution policy to one conflict, returning the text
// that should replace its marker block. Manual ignores ours/theirs and uses
// manualText verbatim.
func Resolve(c Conflict, policy ResolutionPolicy, manualText string) string {
	switch policy {
	case Ours:
		return c.Ours
	case Theirs:
		return c.Theirs
	case Both:
		return c.Ours + c.Theirs
	case None:
		return ""
	case Manual:
		return manualText
	default:
		return c.Ours
	}
}

// AutoResolve applies the obvious automatic rules from spec.md §4.6: one
// side unchanged relative to base resolves to the changed side; identical
// sides resolve to either; a pure-whitespace difference resolves to
// whichever side has the more consistent (uniform) indentation. Returns ""
// and false when none of the rules apply and the conflict needs a human.
func AutoResolve(c Conflict) (string, bool) {
	if c.Ours == c.Theirs {
		return c.Ours, true
	}
	if c.Ours == c.Base {
		return c.Theirs, true
	}
	if c.Theirs == c.Base {
		return c.Ours, true
	}
	if isWhitespaceOnlyDiff(c.Ours, c.Theirs) {
		if indentConsistency(c.Ours) >= indentConsistency(c.Theirs) {
			return c.Ours, true
		}
		return c.Theirs, true
	}
	return "", false
}

func isWhitespaceOnlyDiff(a, b string) bool {
	return stripWhitespace(a) == stripWhitespace(b)
}

func stripWhitespace(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// indentConsistency scores a block of text by how uniformly its non-blank
// lines use a single leading-whitespace style (all-tabs or all-spaces),
// higher is more consistent.
func indentConsistency(text string) int {
	lines := strings.Split(text, "\n")
	tabCount, spaceCount, mixedCount := 0, 0, 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		leading := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		hasTab := strings.Contains(leading, "\t")
		hasSpace := strings.Contains(leading, " ")
		switch {
		case hasTab && hasSpace:
			mixedCount++
		case hasTab:
			tabCount++
		case hasSpace:
			spaceCount++
		}
	}
	score := tabCount
	if spaceCount > score {
		score = spaceCount
	}
	return score - mixedCount
}
