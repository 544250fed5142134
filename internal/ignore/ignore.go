// Package ignore implements ChronoLog's gitignore-style path filter (C3).
//
// Patterns are matched against repository-relative, forward-slash
// normalized paths. The pattern algebra (anchored vs. floating patterns,
// directory-only suffix, '*'/'?'/'**' wildcards) follows the semantics
// gitignore itself defines; leading '!' negation is not supported, per
// spec.md §4.3.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/chronolog/chronolog/internal/chronoerr"
)

// MetaDir is the repository metadata directory name, always ignored.
const MetaDir = ".chronolog"

// IgnoreFileName is the working-tree ignore file ChronoLog loads.
const IgnoreFileName = ".chronologignore"

// DefaultPatterns are always merged in ahead of the user's own patterns.
var DefaultPatterns = []string{
	MetaDir + "/",
	".git/",
	".hg/",
	".svn/",
	"__pycache__/",
	"node_modules/",
	"*.pyc",
	"*.pyo",
	"*.swp",
	"*.swo",
	"*~",
	".DS_Store",
}

// pattern is one compiled gitignore-style rule.
type pattern struct {
	raw       string
	regex     *regexp.Regexp
	dirOnly   bool
	anchored  bool // pattern contains a '/' before the last character, so it
	// only matches relative to the root, not at any depth.
}

// Matcher holds an ordered set of compiled patterns.
type Matcher struct {
	patterns []pattern
}

func compilePattern(raw string) pattern {
	p := pattern{raw: raw}

	pat := raw
	if strings.HasSuffix(pat, "/") {
		p.dirOnly = true
		pat = strings.TrimSuffix(pat, "/")
	}
	if strings.HasPrefix(pat, "/") {
		p.anchored = true
		pat = strings.TrimPrefix(pat, "/")
	} else if strings.Contains(pat, "/") {
		p.anchored = true
	}

	p.regex = regexp.MustCompile("^" + globToRegex(pat) + "$")
	return p
}

// globToRegex translates a gitignore glob (with '*', '?', and '**') into an
// anchored regex fragment operating on forward-slash path segments.
func globToRegex(glob string) string {
	var b strings.Builder
	runes := []rune(glob)
	for i := 0; i < len(runes); i++ {
		switch c := runes[i]; c {
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				// '**' matches across path segments, including none.
				b.WriteString("(?:.*)?")
				i++
				// Swallow an immediately following '/' so "**/" doesn't
				// require a literal empty segment.
				if i+1 < len(runes) && runes[i+1] == '/' {
					i++
				}
			} else {
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '.', '+', '(', ')', '|', '^', '$', '{', '}', '[', ']', '\\':
			b.WriteString("\\")
			b.WriteRune(c)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// New compiles a Matcher from raw pattern lines (comments starting with '#'
// are skipped; blank lines are skipped).
func New(lines []string) *Matcher {
	m := &Matcher{}
	for _, line := range lines {
		line = strings.TrimRight(line, "\r\n")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		m.patterns = append(m.patterns, compilePattern(trimmed))
	}
	return m
}

// Load reads a .chronologignore file at path (if present) and merges it
// with DefaultPatterns, default patterns first so user patterns can't
// accidentally un-ignore the metadata directory (negation isn't supported,
// so ordering only affects nothing semantically — this is simply the
// deterministic merge order).
func Load(path string) (*Matcher, error) {
	lines := append([]string{}, DefaultPatterns...)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(lines), nil
		}
		return nil, chronoerr.Wrap(chronoerr.KindIOError, err, "read ignore file %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, chronoerr.Wrap(chronoerr.KindIOError, err, "scan ignore file %s", path)
	}
	return New(lines), nil
}

// WriteDefault writes a fresh, commented default ignore file to path.
func WriteDefault(path string) error {
	var b strings.Builder
	b.WriteString("# ChronoLog ignore patterns (gitignore syntax; '!' negation unsupported)\n")
	b.WriteString("*.log\n")
	b.WriteString("*.tmp\n")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return chronoerr.Wrap(chronoerr.KindIOError, err, "write default ignore file %s", path)
	}
	return nil
}

// ShouldIgnore reports whether relPath (forward-slash, repo-relative)
// matches any pattern in m. isDir indicates whether relPath names a
// directory, since directory-only patterns only apply to directories.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = filepath.ToSlash(relPath)
	relPath = strings.TrimPrefix(relPath, "./")

	segments := strings.Split(relPath, "/")
	for _, p := range m.patterns {
		if p.dirOnly && !isDir {
			// A directory-only pattern can still match an ancestor
			// directory of a file path; check every prefix segment.
			if matchesAnyAncestor(p, segments) {
				return true
			}
			continue
		}
		if p.anchored {
			if p.regex.MatchString(relPath) {
				return true
			}
			continue
		}
		// Floating pattern: matches at any depth against the basename
		// or any suffix of the path.
		for i := range segments {
			candidate := strings.Join(segments[i:], "/")
			if p.regex.MatchString(candidate) || p.regex.MatchString(segments[len(segments)-1]) {
				return true
			}
		}
	}
	return false
}

// matchesAnyAncestor checks whether a directory-only or anchored pattern
// matches one of relPath's ancestor directories (so that e.g. ".chronolog/"
// also hides every file beneath it).
func matchesAnyAncestor(p pattern, segments []string) bool {
	if !p.anchored {
		// Floating directory patterns match a directory at any depth.
		for _, seg := range segments {
			if p.regex.MatchString(seg) {
				return true
			}
		}
	}
	for i := 1; i <= len(segments); i++ {
		candidate := strings.Join(segments[:i], "/")
		if p.regex.MatchString(candidate) {
			return true
		}
	}
	return false
}

// LooksBinary sniffs up to the first 1 KiB of data for a NUL byte, the coarse binary
// filter spec.md §4.3 requires so the search indexer never sees non-text
// blobs. Both the watcher (C7) and reindex use this exact test.
func LooksBinary(data []byte) bool {
	limit := len(data)
	if limit > 1024 {
		limit = 1024
	}
	for i := 0; i < limit; i++ {
		if data[i] == 0 {
			return true
		}
	}
	return false
}
