package types

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors shared across components
var (
	// Retrieval result validation errors
	ErrInvalidRank  = errors.New("rank must be >= 1")
	ErrInvalidScore = errors.New("score must be between -1 and 1")

	// ErrIndexCorruption signals that the persisted index cannot be read or
	// parsed. The index manager responds with a full reindex, never a
	// startup failure.
	ErrIndexCorruption = errors.New("persisted index is corrupt or unreadable")

	// ErrRetrievalUnavailable signals that query-time embedding or index
	// lookup failed. Retrieval is best-effort: callers proceed without
	// context.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrEnhancementUnavailable signals that the enhancement model cannot be
	// reached. Tasks with a stage one degrade to their base output; tasks
	// without one surface this error to the caller.
	ErrEnhancementUnavailable = errors.New("enhancement service unavailable")

	// ErrNotIndexed signals that no codebase has been indexed yet
	ErrNotIndexed = errors.New("no codebase indexed")
)

// EmbeddingBatchError reports a batch of snippets that failed to embed after
// the retry. The snippets are excluded from the generation under
// construction; the rebuild continues for the rest of the corpus.
type EmbeddingBatchError struct {
	Provider   string
	SnippetIDs []string
	Err        error
}

// Error implements the error interface
func (e *EmbeddingBatchError) Error() string {
	return fmt.Sprintf("embedding batch of %d snippets failed (provider %s): %v",
		len(e.SnippetIDs), e.Provider, e.Err)
}

// Unwrap returns the underlying provider error
func (e *EmbeddingBatchError) Unwrap() error {
	return e.Err
}

// Excluded returns a compact listing of the excluded snippet IDs for logs
func (e *EmbeddingBatchError) Excluded() string {
	return strings.Join(e.SnippetIDs, ", ")
}
