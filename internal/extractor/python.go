package extractor

import (
	"strings"

	"github.com/raglab/codeassist-mcp/pkg/types"
)

// pyUnit tracks an in-progress definition while scanning Python source
type pyUnit struct {
	name      string
	startLine int // 1-based
	indent    int
	lines     []string
	method    bool
}

// extractPython splits Python source at def boundaries using indentation.
// A definition spans from its def line to the line before the next statement
// at or below the definition's indent level, or end-of-file. Defs nested
// inside a class are classified as methods.
func (e *Extractor) extractPython(filePath string, source []byte, result *types.ExtractionResult) {
	lines := strings.Split(string(source), "\n")

	var current *pyUnit
	// Indent levels of enclosing class blocks, innermost last
	var classIndents []int

	flush := func() {
		if current == nil {
			return
		}
		// Drop trailing blank lines so EndLine matches the content
		body := current.lines
		for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
			body = body[:len(body)-1]
		}
		if len(body) > 0 {
			kind := types.SnippetFunction
			if current.method {
				kind = types.SnippetMethod
			}
			result.Snippets = append(result.Snippets, types.Snippet{
				FilePath:  filePath,
				Name:      current.name,
				Kind:      kind,
				StartLine: current.startLine,
				EndLine:   current.startLine + len(body) - 1,
				Content:   strings.Join(body, "\n"),
			})
		}
		current = nil
	}

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		indent := indentOf(line)

		// Pop class scopes the line has dedented out of
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			for len(classIndents) > 0 && indent <= classIndents[len(classIndents)-1] {
				classIndents = classIndents[:len(classIndents)-1]
			}
		}

		if name, ok := defName(trimmed); ok {
			flush()
			current = &pyUnit{
				name:      name,
				startLine: i + 1,
				indent:    indent,
				lines:     []string{line},
				method:    len(classIndents) > 0,
			}
			continue
		}

		if strings.HasPrefix(trimmed, "class ") && strings.Contains(trimmed, ":") {
			flush()
			classIndents = append(classIndents, indent)
			continue
		}

		if current != nil {
			// A non-blank, non-comment line at or below the def's indent
			// closes the unit
			if trimmed != "" && indent <= current.indent && !strings.HasPrefix(trimmed, "#") {
				flush()
				continue
			}
			current.lines = append(current.lines, line)
		}
	}
	flush()

	if len(result.Snippets) == 0 {
		if block := moduleBlockSnippet(filePath, lines); block != nil {
			result.Snippets = append(result.Snippets, *block)
		}
	}
}

// defName parses the function name out of a def statement
func defName(trimmed string) (string, bool) {
	rest := ""
	switch {
	case strings.HasPrefix(trimmed, "def "):
		rest = trimmed[len("def "):]
	case strings.HasPrefix(trimmed, "async def "):
		rest = trimmed[len("async def "):]
	default:
		return "", false
	}

	paren := strings.Index(rest, "(")
	if paren <= 0 || !strings.Contains(trimmed, ":") {
		return "", false
	}

	name := strings.TrimSpace(rest[:paren])
	if name == "" {
		return "", false
	}
	return name, true
}

// indentOf counts leading whitespace columns, tabs counting as one column
func indentOf(line string) int {
	n := 0
	for _, r := range line {
		if r == ' ' || r == '\t' {
			n++
			continue
		}
		break
	}
	return n
}
