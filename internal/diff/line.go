package diff

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// LineKind classifies one emitted line of a unified diff, so front-ends
// can color it without re-parsing diff text.
type LineKind int

const (
	Context LineKind = iota
	Addition
	Deletion
	HunkHeader
)

// DiffLine is one line of LineDiff.Hunks, tagged with its kind and its
// 1-based position in each side (zero when not applicable, e.g. for
// Addition lines the OldLineNo is zero).
type DiffLine struct {
	Kind      LineKind
	Text      string
	OldLineNo int
	NewLineNo int
}

// Hunk is a contiguous run of DiffLines headed by a HunkHeader.
type Hunk struct {
	Lines []DiffLine
}

// LineDiff is a unified-diff style comparison with 3 lines of context by
// default, per spec.md §4.5.
type LineDiff struct {
	OldHeader string
	NewHeader string
	Hunks     []Hunk
}

const defaultContext = 3

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

func shortDigest(d string) string {
	if len(d) > 8 {
		return d[:8]
	}
	return d
}

func lineDiff(old, new Side, oldData, newData []byte) *LineDiff {
	oldLines := splitLines(oldData)
	newLines := splitLines(newData)

	sm := difflib.NewMatcher(oldLines, newLines)
	opcodes := sm.GetOpCodes()

	groups := groupOpcodes(opcodes, defaultContext)

	result := &LineDiff{
		OldHeader: fmt.Sprintf("--- %s (%s)", old.Path, shortDigest(old.Digest)),
		NewHeader: fmt.Sprintf("+++ %s (%s)", new.Path, shortDigest(new.Digest)),
	}

	for _, group := range groups {
		hunk := Hunk{}
		firstOldLine, firstNewLine := -1, -1
		lastOldLine, lastNewLine := -1, -1

		for _, op := range group {
			switch op.Tag {
			case 'e':
				for k := op.I1; k < op.I2; k++ {
					line := DiffLine{Kind: Context, Text: oldLines[k], OldLineNo: k + 1, NewLineNo: op.J1 + (k - op.I1) + 1}
					hunk.Lines = append(hunk.Lines, line)
					track(&firstOldLine, &lastOldLine, line.OldLineNo)
					track(&firstNewLine, &lastNewLine, line.NewLineNo)
				}
			case 'd':
				for k := op.I1; k < op.I2; k++ {
					line := DiffLine{Kind: Deletion, Text: oldLines[k], OldLineNo: k + 1}
					hunk.Lines = append(hunk.Lines, line)
					track(&firstOldLine, &lastOldLine, line.OldLineNo)
				}
			case 'i':
				for k := op.J1; k < op.J2; k++ {
					line := DiffLine{Kind: Addition, Text: newLines[k], NewLineNo: k + 1}
					hunk.Lines = append(hunk.Lines, line)
					track(&firstNewLine, &lastNewLine, line.NewLineNo)
				}
			case 'r':
				for k := op.I1; k < op.I2; k++ {
					line := DiffLine{Kind: Deletion, Text: oldLines[k], OldLineNo: k + 1}
					hunk.Lines = append(hunk.Lines, line)
					track(&firstOldLine, &lastOldLine, line.OldLineNo)
				}
				for k := op.J1; k < op.J2; k++ {
					line := DiffLine{Kind: Addition, Text: newLines[k], NewLineNo: k + 1}
					hunk.Lines = append(hunk.Lines, line)
					track(&firstNewLine, &lastNewLine, line.NewLineNo)
				}
			}
		}

		oldCount := 0
		if firstOldLine >= 0 {
			oldCount = lastOldLine - firstOldLine + 1
		}
		newCount := 0
		if firstNewLine >= 0 {
			newCount = lastNewLine - firstNewLine + 1
		}
		header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", max0(firstOldLine), oldCount, max0(firstNewLine), newCount)
		hunk.Lines = append([]DiffLine{{Kind: HunkHeader, Text: header}}, hunk.Lines...)
		result.Hunks = append(result.Hunks, hunk)
	}

	return result
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func track(first, last *int, n int) {
	if *first < 0 {
		*first = n
	}
	*last = n
}

// groupOpcodes clusters opcodes into hunks, expanding context lines by n on
// each side of a change and merging hunks whose context windows overlap —
// the same windowing difflib.GetGroupedOpCodes performs, reimplemented here
// so DiffLine classification stays under our control.
func groupOpcodes(opcodes []difflib.OpCode, n int) [][]difflib.OpCode {
	if len(opcodes) == 0 {
		return nil
	}

	// Trim leading/trailing pure-equal opcodes down to n lines of context.
	codes := make([]difflib.OpCode, len(opcodes))
	copy(codes, opcodes)

	if codes[0].Tag == 'e' {
		c := codes[0]
		codes[0] = difflib.OpCode{Tag: 'e', I1: max(c.I1, c.I2-n), I2: c.I2, J1: max(c.J1, c.J2-n), J2: c.J2}
	}
	last := len(codes) - 1
	if codes[last].Tag == 'e' {
		c := codes[last]
		codes[last] = difflib.OpCode{Tag: 'e', I1: c.I1, I2: min(c.I2, c.I1+n), J1: c.J1, J2: min(c.J2, c.J1+n)}
	}

	var groups [][]difflib.OpCode
	var group []difflib.OpCode

	for _, c := range codes {
		if c.Tag == 'e' && (c.I2-c.I1) > n*2 {
			// Long equal run: close current group with n lines of
			// trailing context, then start the next group with n lines
			// of leading context.
			group = append(group, difflib.OpCode{Tag: 'e', I1: c.I1, I2: min(c.I2, c.I1+n), J1: c.J1, J2: min(c.J2, c.J1+n)})
			groups = append(groups, group)
			group = nil
			group = append(group, difflib.OpCode{Tag: 'e', I1: max(c.I1, c.I2-n), I2: c.I2, J1: max(c.J1, c.J2-n), J2: c.J2})
			continue
		}
		group = append(group, c)
	}
	if len(group) > 0 {
		groups = append(groups, group)
	}

	// Drop any group that, after trimming, contains no actual change.
	var result [][]difflib.OpCode
	for _, g := range groups {
		hasChange := false
		for _, c := range g {
			if c.Tag != 'e' {
				hasChange = true
				break
			}
		}
		if hasChange {
			result = append(result, g)
		}
	}
	return result
}

