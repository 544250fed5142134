package diff

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// ElementKind classifies a top-level code element extracted for semantic
// diffing, per spec.md §4.5.
type ElementKind int

const (
	Function ElementKind = iota
	Class
	Import
)

func (k ElementKind) String() string {
	switch k {
	case Function:
		return "function"
	case Class:
		return "class"
	case Import:
		return "import"
	default:
		return "unknown"
	}
}

// Element is one extracted top-level code element.
type Element struct {
	Kind      ElementKind
	Name      string
	StartLine int
	EndLine   int
	Signature string
}

// ChangeKind classifies how a semantic element changed between revisions.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Modified
	Renamed
)

func (c ChangeKind) String() string {
	switch c {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	case Renamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// ElementChange is one reported difference between the old and new
// element sets.
type ElementChange struct {
	Kind    ChangeKind
	Element Element    // new-side element for Added/Modified/Renamed
	Old     *Element   // old-side element for Removed/Modified/Renamed
}

// SemanticDiff is the outcome of a language-aware structural comparison.
type SemanticDiff struct {
	Language string
	Changes  []ElementChange
}

var suffixLanguage = map[string]string{
	".py":   "python",
	".js":   "javascript",
	".jsx":  "javascript",
	".ts":   "javascript",
	".tsx":  "javascript",
	".java": "java",
	".go":   "go",
}

func detectLanguage(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if lang, ok := suffixLanguage[strings.ToLower(filepath.Ext(p))]; ok {
			return lang
		}
	}
	return ""
}

func semanticDiff(lang string, oldData, newData []byte) *SemanticDiff {
	var oldElems, newElems []Element
	if lang == "python" {
		oldElems = extractPython(oldData)
		newElems = extractPython(newData)
	} else {
		oldElems = extractByRegex(lang, oldData)
		newElems = extractByRegex(lang, newData)
	}
	return &SemanticDiff{Language: lang, Changes: compareElements(oldElems, newElems)}
}

// extractPython parses Python source with tree-sitter and collects
// function defs, class defs, and imports, per spec.md §4.5.
func extractPython(data []byte) []Element {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(context.Background(), nil, data)
	if err != nil || tree == nil {
		return nil
	}
	root := tree.RootNode()

	var elems []Element
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_definition":
			nameNode := n.ChildByFieldName("name")
			name := ""
			if nameNode != nil {
				name = nameNode.Content(data)
			}
			elems = append(elems, Element{
				Kind:      Function,
				Name:      name,
				StartLine: int(n.StartPoint().Row) + 1,
				EndLine:   int(n.EndPoint().Row) + 1,
				Signature: bodySignature(data, n, nameNode),
			})
		case "class_definition":
			nameNode := n.ChildByFieldName("name")
			name := ""
			if nameNode != nil {
				name = nameNode.Content(data)
			}
			elems = append(elems, Element{
				Kind:      Class,
				Name:      name,
				StartLine: int(n.StartPoint().Row) + 1,
				EndLine:   int(n.EndPoint().Row) + 1,
				Signature: bodySignature(data, n, nameNode),
			})
		case "import_statement", "import_from_statement":
			elems = append(elems, Element{
				Kind:      Import,
				Name:      strings.TrimSpace(n.Content(data)),
				StartLine: int(n.StartPoint().Row) + 1,
				EndLine:   int(n.EndPoint().Row) + 1,
				Signature: strings.TrimSpace(n.Content(data)),
			})
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	return elems
}

// bodySignature is the element's source text with its own name blanked
// out, so a pure rename (same parameters and body, different identifier)
// still compares equal for rename detection.
func bodySignature(data []byte, n, nameNode *sitter.Node) string {
	text := n.Content(data)
	if nameNode != nil {
		name := nameNode.Content(data)
		text = strings.Replace(text, name, "_", 1)
	}
	return strings.Join(strings.Fields(text), " ")
}

// regexHeuristics are the per-language patterns used for every language
// other than Python, per spec.md §4.5's explicit fallback to regex
// heuristics for non-Python languages.
var regexHeuristics = map[string][]struct {
	kind ElementKind
	re   *regexp.Regexp
}{
	"javascript": {
		{Function, regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:async\s+)?function\s+([A-Za-z_$][\w$]*)\s*\(`)},
		{Function, regexp.MustCompile(`(?m)^\s*(?:export\s+)?const\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s*)?\(.*?\)\s*=>`)},
		{Class, regexp.MustCompile(`(?m)^\s*(?:export\s+)?class\s+([A-Za-z_$][\w$]*)`)},
		{Import, regexp.MustCompile(`(?m)^\s*import\s+.*from\s+['"].*['"]`)},
	},
	"java": {
		{Class, regexp.MustCompile(`(?m)^\s*(?:public|private|protected)?\s*(?:final\s+)?class\s+([A-Za-z_$][\w$]*)`)},
		{Function, regexp.MustCompile(`(?m)^\s*(?:public|private|protected)\s+(?:static\s+)?[\w<>\[\]]+\s+([A-Za-z_$][\w$]*)\s*\([^;{]*\)\s*\{`)},
		{Import, regexp.MustCompile(`(?m)^\s*import\s+[\w.]+;`)},
	},
	"go": {
		{Function, regexp.MustCompile(`(?m)^func\s+(?:\([^)]*\)\s*)?([A-Za-z_]\w*)\s*\(`)},
		{Class, regexp.MustCompile(`(?m)^type\s+([A-Za-z_]\w*)\s+struct\s*\{`)},
		{Import, regexp.MustCompile(`(?m)^\s*"[\w./-]+"`)},
	},
}

func extractByRegex(lang string, data []byte) []Element {
	rules, ok := regexHeuristics[lang]
	if !ok {
		return nil
	}
	text := string(data)
	var elems []Element
	for _, rule := range rules {
		for _, loc := range rule.re.FindAllStringSubmatchIndex(text, -1) {
			name := ""
			if len(loc) >= 4 && loc[2] >= 0 {
				name = text[loc[2]:loc[3]]
			}
			line := strings.Count(text[:loc[0]], "\n") + 1
			decl := strings.TrimSpace(firstLine(text[loc[0]:]))
			if name != "" {
				decl = strings.Replace(decl, name, "_", 1)
			}
			elems = append(elems, Element{
				Kind:      rule.kind,
				Name:      name,
				StartLine: line,
				EndLine:   line,
				Signature: decl,
			})
		}
	}
	return elems
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

type elemKey struct {
	kind ElementKind
	name string
}

// compareElements keys old/new element sets by (kind, name), per spec.md
// §4.5, and emits ADDED/REMOVED/MODIFIED/RENAMED. Rename detection: an
// added and a removed element of the same kind with the same signature.
func compareElements(oldElems, newElems []Element) []ElementChange {
	oldByKey := map[elemKey]Element{}
	for _, e := range oldElems {
		oldByKey[elemKey{e.Kind, e.Name}] = e
	}
	newByKey := map[elemKey]Element{}
	for _, e := range newElems {
		newByKey[elemKey{e.Kind, e.Name}] = e
	}

	var added, removed []Element
	var changes []ElementChange

	for key, ne := range newByKey {
		if oe, ok := oldByKey[key]; ok {
			if oe.Signature != ne.Signature {
				oeCopy := oe
				changes = append(changes, ElementChange{Kind: Modified, Element: ne, Old: &oeCopy})
			}
			continue
		}
		added = append(added, ne)
	}
	for key, oe := range oldByKey {
		if _, ok := newByKey[key]; !ok {
			removed = append(removed, oe)
		}
	}

	usedAdded := map[int]bool{}
	usedRemoved := map[int]bool{}
	for ai, a := range added {
		for ri, r := range removed {
			if usedRemoved[ri] {
				continue
			}
			if a.Kind == r.Kind && a.Signature == r.Signature {
				rCopy := r
				changes = append(changes, ElementChange{Kind: Renamed, Element: a, Old: &rCopy})
				usedAdded[ai] = true
				usedRemoved[ri] = true
				break
			}
		}
	}
	for i, a := range added {
		if !usedAdded[i] {
			changes = append(changes, ElementChange{Kind: Added, Element: a})
		}
	}
	for i, r := range removed {
		if !usedRemoved[i] {
			rCopy := r
			changes = append(changes, ElementChange{Kind: Removed, Element: r, Old: &rCopy})
		}
	}
	return changes
}
