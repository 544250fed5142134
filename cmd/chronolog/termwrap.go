package main

import (
	"os"
	"strings"

	"golang.org/x/term"
)

const fallbackWidth = 80

// wrapToTerminalWidth wraps text on word boundaries to the current
// terminal width (falling back to 80 columns when stdout isn't a
// terminal, e.g. when piped), for long annotation/snippet lines in
// log and search output.
func wrapToTerminalWidth(text string) string {
	width := fallbackWidth
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}
	if len(text) <= width {
		return text
	}

	var b strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		if i > 0 {
			if lineLen+1+len(word) > width {
				b.WriteByte('\n')
				lineLen = 0
			} else {
				b.WriteByte(' ')
				lineLen++
			}
		}
		b.WriteString(word)
		lineLen += len(word)
	}
	return b.String()
}
