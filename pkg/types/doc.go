// Package types provides shared type definitions for the CodeAssist MCP server.
//
// This package defines domain types used across multiple components of
// CodeAssist, including snippets, extraction results, retrieval results, and
// the generation task model.
//
// # Core Types
//
// Snippet represents an extracted, independently retrievable unit of source
// code with stable identity:
//
//	snippet := &types.Snippet{
//	    FilePath:  "pkg/math/ops.go",
//	    Name:      "Add",
//	    Kind:      types.SnippetFunction,
//	    Language:  types.LangGo,
//	    StartLine: 12,
//	    EndLine:   15,
//	    Content:   source,
//	}
//	snippet.ComputeContentHash()
//	snippet.ComputeID()
//
// Snippet IDs are derived from (file path, start line, content hash), so
// re-extracting unchanged source always reproduces the same IDs. When a file
// changes, its old snippets are superseded, never mutated.
//
// # Task Kinds
//
// TaskKind is a closed enumeration of the five generation tasks:
//
//	kind, err := types.ParseTaskKind("explain")
//	if kind.HasStageOne() {
//	    // explain and document run the base model first
//	}
//
// # Retrieval Results
//
// RetrievedSnippet pairs a snippet with its rank and similarity score:
//
//	hit := types.RetrievedSnippet{
//	    Rank:    1,
//	    Score:   0.92,
//	    Snippet: snippet,
//	}
//
// Scores are cosine similarities in [-1, 1]; results are ordered descending
// with ties broken by snippet ID for determinism.
//
// # Error Taxonomy
//
// Failure handling follows a fixed taxonomy:
//
//   - ExtractionError: one file failed to parse; it is skipped with a
//     warning and indexing continues.
//   - EmbeddingBatchError: a batch failed to embed after retry; its snippets
//     are excluded from the new generation and the rebuild continues.
//   - ErrIndexCorruption: the persisted index is unreadable; the manager
//     falls back to a full reindex instead of failing to start.
//   - ErrRetrievalUnavailable: query-time retrieval failed; generation
//     proceeds without context.
//   - ErrEnhancementUnavailable: the enhancement model is unreachable;
//     explain/document degrade to their base output, fix/optimize/test
//     surface the error.
package types
