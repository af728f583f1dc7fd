// Package extractor splits source files into retrievable code snippets.
//
// Extraction works at function and method boundaries: each top-level callable
// unit becomes one snippet spanning its definition through its closing line.
// Go files are parsed with the standard AST (go/parser, go/ast); Python files
// are scanned with an indentation-aware def detector. Files in other
// languages yield zero snippets.
//
// # Basic Usage
//
//	ex := extractor.New()
//	result := ex.Extract("pkg/math/ops.go", source)
//
//	for _, s := range result.Snippets {
//	    fmt.Printf("%s %s lines %d-%d\n", s.Kind, s.Name, s.StartLine, s.EndLine)
//	}
//
// # Determinism
//
// Extraction is deterministic: re-running on unchanged text yields snippets
// with identical content hashes and identical IDs. This is what makes
// incremental re-indexing possible - unchanged snippets are recognized by
// hash and their embeddings reused.
//
// # Error Handling
//
// A file that cannot be parsed is skipped with a recorded warning:
//
//	result := ex.Extract("broken.go", source)
//	if result.HasErrors() {
//	    // warnings recorded, other files unaffected
//	}
//
// Partial results are still returned when the parser can recover, and a
// failed file never aborts extraction of the rest of the corpus.
package extractor
