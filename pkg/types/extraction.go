package types

import "fmt"

// ExtractionResult represents the output of extracting snippets from a
// single source file
type ExtractionResult struct {
	// Extracted data
	Snippets []Snippet
	Language Language

	// Per-file problems encountered during extraction. A populated Errors
	// slice does not invalidate Snippets: extraction is best-effort and may
	// return partial results alongside warnings.
	Errors []ExtractionError
}

// ExtractionError represents a non-fatal problem extracting one file.
// Indexing records it and moves on to the next file.
type ExtractionError struct {
	File    string
	Line    int
	Message string
}

// Error implements the error interface
func (ee *ExtractionError) Error() string {
	if ee.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", ee.File, ee.Line, ee.Message)
	}
	return fmt.Sprintf("%s: %s", ee.File, ee.Message)
}

// HasErrors returns true if any extraction errors occurred
func (er *ExtractionResult) HasErrors() bool {
	return len(er.Errors) > 0
}

// AddError adds an extraction error to the result
func (er *ExtractionResult) AddError(file string, line int, msg string) {
	er.Errors = append(er.Errors, ExtractionError{
		File:    file,
		Line:    line,
		Message: msg,
	})
}
