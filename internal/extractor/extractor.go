package extractor

import (
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"github.com/raglab/codeassist-mcp/pkg/types"
)

// MinBlockLines is the minimum number of non-blank lines a file needs before
// a module-level block snippet is produced for it.
const MinBlockLines = 3

// Extractor splits source files into retrievable snippets at function and
// method boundaries
type Extractor struct {
	fset *token.FileSet
}

// New creates a new Extractor instance
func New() *Extractor {
	return &Extractor{
		fset: token.NewFileSet(),
	}
}

// DetectLanguage identifies the source language from the file extension
func DetectLanguage(filePath string) types.Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".go":
		return types.LangGo
	case ".py":
		return types.LangPython
	default:
		return types.LangUnknown
	}
}

// Extract splits source text into snippets. Files in unsupported languages
// and files with no extractable units yield zero snippets, which is not an
// error. A file that cannot be parsed is recorded as a warning on the result
// and never aborts extraction of other files.
func (e *Extractor) Extract(filePath string, source []byte) *types.ExtractionResult {
	result := &types.ExtractionResult{
		Language: DetectLanguage(filePath),
	}

	switch result.Language {
	case types.LangGo:
		e.extractGo(filePath, source, result)
	case types.LangPython:
		e.extractPython(filePath, source, result)
	default:
		// Unsupported language: zero snippets
	}

	finalize(result)
	return result
}

// ExtractFile reads a file from disk and extracts its snippets. The path
// argument is used verbatim as snippet provenance, so callers pass paths
// relative to the indexed root.
func (e *Extractor) ExtractFile(root, relPath string) (*types.ExtractionResult, error) {
	source, err := os.ReadFile(filepath.Join(root, relPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return e.Extract(relPath, source), nil
}

// finalize computes hashes and IDs for every extracted snippet. Hash first,
// then ID: the ID derivation consumes the content hash.
func finalize(result *types.ExtractionResult) {
	for i := range result.Snippets {
		s := &result.Snippets[i]
		s.Language = result.Language
		s.ComputeContentHash()
		s.ComputeID()
	}
}

// sliceLines extracts the inclusive 1-based line range [start, end] from the
// split source
func sliceLines(lines []string, start, end int) string {
	if start <= 0 || start > len(lines) {
		return ""
	}
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[start-1:end], "\n")
}

// countNonBlank returns the number of lines with non-whitespace content
func countNonBlank(lines []string) int {
	n := 0
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}

// moduleBlockSnippet wraps a whole file into a single module-level block.
// Used when a file parses but contains no function or method units, so its
// declarations are still retrievable.
func moduleBlockSnippet(filePath string, lines []string) *types.Snippet {
	if countNonBlank(lines) < MinBlockLines {
		return nil
	}

	return &types.Snippet{
		FilePath:  filePath,
		Kind:      types.SnippetBlock,
		StartLine: 1,
		EndLine:   len(lines),
		Content:   strings.Join(lines, "\n"),
	}
}
