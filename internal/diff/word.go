package diff

import (
	"regexp"

	"github.com/pmezard/go-difflib/difflib"
)

// WordOpKind classifies one token run in a WordDiff.
type WordOpKind int

const (
	Equal WordOpKind = iota
	Insert
	DeleteOp
)

// WordOp is one (kind, text) run, per spec.md §4.5.
type WordOp struct {
	Kind WordOpKind
	Text string
}

// WordDiff is the token-level diff of two file revisions.
type WordDiff struct {
	Ops []WordOp
}

// tokenRe splits on whitespace and word/non-word boundaries, keeping both
// the whitespace and the tokens so re-joining Ops reproduces the input.
var tokenRe = regexp.MustCompile(`[A-Za-z0-9_]+|[^\sA-Za-z0-9_]|\s+`)

func tokenize(data []byte) []string {
	return tokenRe.FindAllString(string(data), -1)
}

func wordDiff(oldData, newData []byte) *WordDiff {
	oldLines := splitLines(oldData)
	newLines := splitLines(newData)

	// Align lines first with an opcode-producing sequence matcher, then
	// run token LCS within each non-equal opcode, per spec.md §4.5.
	lineMatcher := difflib.NewMatcher(oldLines, newLines)
	lineOps := lineMatcher.GetOpCodes()

	result := &WordDiff{}
	for _, op := range lineOps {
		switch op.Tag {
		case 'e':
			for k := op.I1; k < op.I2; k++ {
				result.Ops = append(result.Ops, WordOp{Kind: Equal, Text: oldLines[k]})
			}
		case 'd':
			for k := op.I1; k < op.I2; k++ {
				result.Ops = append(result.Ops, WordOp{Kind: DeleteOp, Text: oldLines[k]})
			}
		case 'i':
			for k := op.J1; k < op.J2; k++ {
				result.Ops = append(result.Ops, WordOp{Kind: Insert, Text: newLines[k]})
			}
		case 'r':
			oldTokens := tokenize([]byte(joinLines(oldLines[op.I1:op.I2])))
			newTokens := tokenize([]byte(joinLines(newLines[op.J1:op.J2])))
			result.Ops = append(result.Ops, tokenLCS(oldTokens, newTokens)...)
		}
	}
	return result
}

func joinLines(lines []string) string {
	out := ""
	for _, l := range lines {
		out += l
	}
	return out
}

// tokenLCS runs a classic O(n*m) longest-common-subsequence dynamic
// program over two token arrays, filling the DP table back to front, then
// walks it front to back to emit a minimal (EQUAL | INSERT | DELETE, text)
// run sequence.
func tokenLCS(a, b []string) []WordOp {
	n, m := len(a), len(b)
	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if a[i] == b[j] {
				dp[i][j] = dp[i+1][j+1] + 1
			} else if dp[i+1][j] >= dp[i][j+1] {
				dp[i][j] = dp[i+1][j]
			} else {
				dp[i][j] = dp[i][j+1]
			}
		}
	}

	var ops []WordOp
	i, j := 0, 0
	for i < n && j < m {
		switch {
		case a[i] == b[j]:
			ops = append(ops, WordOp{Kind: Equal, Text: a[i]})
			i++
			j++
		case dp[i+1][j] >= dp[i][j+1]:
			ops = append(ops, WordOp{Kind: DeleteOp, Text: a[i]})
			i++
		default:
			ops = append(ops, WordOp{Kind: Insert, Text: b[j]})
			j++
		}
	}
	for ; i < n; i++ {
		ops = append(ops, WordOp{Kind: DeleteOp, Text: a[i]})
	}
	for ; j < m; j++ {
		ops = append(ops, WordOp{Kind: Insert, Text: b[j]})
	}
	return coalesce(ops)
}

// coalesce merges adjacent runs of the same kind into single Ops so
// front-ends don't have to re-merge single-token entries themselves.
func coalesce(ops []WordOp) []WordOp {
	if len(ops) == 0 {
		return ops
	}
	var out []WordOp
	cur := ops[0]
	for _, op := range ops[1:] {
		if op.Kind == cur.Kind {
			cur.Text += op.Text
			continue
		}
		out = append(out, cur)
		cur = op
	}
	out = append(out, cur)
	return out
}
