package types

import "time"

// RetrievedSnippet is a single ranked retrieval hit
type RetrievedSnippet struct {
	// Identification
	Rank int // Position in result set (1-based)

	// Scoring
	Score float64 // Cosine similarity in [-1, 1]; higher is more relevant

	// Payload
	Snippet Snippet
}

// Validate checks if the retrieved snippet is valid
func (rs *RetrievedSnippet) Validate() error {
	if rs.Rank < 1 {
		return ErrInvalidRank
	}

	if rs.Score < -1 || rs.Score > 1 {
		return ErrInvalidScore
	}

	return rs.Snippet.Validate()
}

// RetrievalResult is the ordered output of one retrieval query. Results are
// sorted by descending score, ties broken by snippet ID. All results come
// from a single index generation.
type RetrievalResult struct {
	Query        string
	GenerationID string
	Results      []RetrievedSnippet
}

// Empty reports whether the retrieval produced no hits. An empty result is
// a normal outcome, not an error.
func (rr *RetrievalResult) Empty() bool {
	return len(rr.Results) == 0
}

// IndexStats summarizes the active index generation
type IndexStats struct {
	Indexed       bool   `json:"indexed"`
	TotalFiles    int    `json:"total_files"`
	TotalSnippets int    `json:"total_snippets"`
	GenerationID  string `json:"generation_id"`
}

// RebuildReport summarizes one indexing run
type RebuildReport struct {
	FilesIndexed     int           `json:"files_indexed"`
	FilesSkipped     int           `json:"files_skipped"`
	FilesFailed      int           `json:"files_failed"`
	SnippetsIndexed  int           `json:"snippets_indexed"`
	SnippetsExcluded int           `json:"snippets_excluded"`
	GenerationID     string        `json:"generation_id"`
	Duration         time.Duration `json:"duration_ns"`
	Errors           []string      `json:"errors,omitempty"`
}

// ProcessResult is the merged outcome of one generation task
type ProcessResult struct {
	Task TaskKind `json:"task"`

	// BaseOutput is the stage-one output; empty for tasks with no stage one
	BaseOutput string `json:"base_output,omitempty"`

	// EnhancedOutput is the full stage-two text; empty on degraded results
	EnhancedOutput string `json:"enhanced_output,omitempty"`

	// Code carries the task-shaped payload parsed out of the enhanced
	// output: replacement code for fix/optimize, generated tests for test.
	Code string `json:"code,omitempty"`

	// Explanation carries the rationale paired with Code when the enhanced
	// output followed the structured marker format.
	Explanation string `json:"explanation,omitempty"`

	// Hints are advisory static-analysis findings attached to fix and
	// optimize results.
	Hints []string `json:"hints,omitempty"`

	UsedContext bool `json:"used_context"`
	Degraded    bool `json:"degraded"`
}
