package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/raglab/codeassist-mcp/internal/indexer"
	"github.com/raglab/codeassist-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams          = -32602 // Invalid method parameters
	ErrorCodeInternalError          = -32603 // Internal JSON-RPC error
	ErrorCodeIndexingInProgress     = -32002 // Another indexing operation is already running
	ErrorCodeNotIndexed             = -32003 // No codebase indexed yet
	ErrorCodeEmptyQuery             = -32004 // Query parameter is empty
	ErrorCodeEnhancementUnavailable = -32005 // Task needs the enhancement service and it is unavailable
)

// Result limits for the search_code tool
const (
	DefaultSearchLimit = 3
	MaxSearchLimit     = 20
)

// handleIndexCodebase handles the index_codebase tool invocation
func (s *Server) handleIndexCodebase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	rootPath, ok := args["root_path"].(string)
	if !ok || rootPath == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "root_path parameter is required", map[string]interface{}{
			"param":  "root_path",
			"reason": "missing or empty",
		})
	}

	if err := validatePath(rootPath); err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid root_path", map[string]interface{}{
			"param":  "root_path",
			"reason": err.Error(),
		})
	}

	forceReindex := getBoolDefault(args, "force_reindex", false)

	rebuild := s.index.Rebuild
	if forceReindex {
		rebuild = s.index.FullReindex
	}

	report, err := rebuild(ctx, rootPath)
	if errors.Is(err, indexer.ErrRebuildInProgress) {
		return nil, newMCPError(ErrorCodeIndexingInProgress, "an indexing run is already in progress", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "indexing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Format response
	response := map[string]interface{}{
		"indexed":           true,
		"files_indexed":     report.FilesIndexed,
		"files_skipped":     report.FilesSkipped,
		"files_failed":      report.FilesFailed,
		"snippets_indexed":  report.SnippetsIndexed,
		"snippets_excluded": report.SnippetsExcluded,
		"generation_id":     report.GenerationID,
		"duration_ms":       report.Duration.Milliseconds(),
	}

	if len(report.Errors) > 0 {
		// Include first few errors
		if len(report.Errors) > 5 {
			response["errors"] = report.Errors[:5]
			response["error_count"] = len(report.Errors)
		} else {
			response["errors"] = report.Errors
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetIndexStats handles the get_index_stats tool invocation. The tool
// takes no arguments: it reports on whatever generation is active.
func (s *Server) handleGetIndexStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats := s.index.Stats()

	response := map[string]interface{}{
		"indexed":        stats.Indexed,
		"total_files":    stats.TotalFiles,
		"total_snippets": stats.TotalSnippets,
		"generation_id":  stats.GenerationID,
	}
	if root := s.index.Root(); root != "" {
		response["root_path"] = root
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleSearchCode handles the search_code tool invocation
func (s *Server) handleSearchCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", DefaultSearchLimit)
	if limit < 1 || limit > MaxSearchLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", MaxSearchLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	minScore := getFloatDefault(args, "min_score", 0)
	if minScore < -1 || minScore > 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "min_score must be between -1 and 1", map[string]interface{}{
			"param": "min_score",
			"value": minScore,
		})
	}

	result, err := s.retriever.Retrieve(ctx, query, limit, minScore)
	if errors.Is(err, types.ErrNotIndexed) {
		return nil, newMCPError(ErrorCodeNotIndexed, "no codebase indexed; run index_codebase first", nil)
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Format response
	results := make([]map[string]interface{}, len(result.Results))
	for i, hit := range result.Results {
		results[i] = map[string]interface{}{
			"rank":       hit.Rank,
			"score":      hit.Score,
			"file":       hit.Snippet.FilePath,
			"name":       hit.Snippet.Name,
			"kind":       string(hit.Snippet.Kind),
			"language":   string(hit.Snippet.Language),
			"start_line": hit.Snippet.StartLine,
			"end_line":   hit.Snippet.EndLine,
			"content":    hit.Snippet.Content,
		}
	}

	response := map[string]interface{}{
		"query":         result.Query,
		"generation_id": result.GenerationID,
		"results":       results,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleProcessCode handles the process_code tool invocation
func (s *Server) handleProcessCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	// Extract and validate parameters
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	taskArg, ok := args["task"].(string)
	if !ok || taskArg == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "task parameter is required", map[string]interface{}{
			"param":  "task",
			"reason": "missing or empty",
		})
	}
	kind, err := types.ParseTaskKind(taskArg)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, err.Error(), map[string]interface{}{
			"param": "task",
			"value": taskArg,
		})
	}

	code, ok := args["code"].(string)
	if !ok || strings.TrimSpace(code) == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "code parameter is required", map[string]interface{}{
			"param":  "code",
			"reason": "missing or empty",
		})
	}

	result, err := s.pipeline.Process(ctx, kind, code)
	if errors.Is(err, types.ErrEnhancementUnavailable) {
		return nil, newMCPError(ErrorCodeEnhancementUnavailable,
			fmt.Sprintf("task %q needs the enhancement service and it is unavailable; configure CODEASSIST_ENHANCER or use explain/document, which fall back to the base model", kind),
			map[string]interface{}{
				"task":  string(kind),
				"error": err.Error(),
			})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "processing failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatJSON(result)), nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validatePath checks if a path exists and is a readable directory
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	// Check if path is absolute
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	// Check if path exists
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	// Check if it's a directory
	if !info.IsDir() {
		return ErrNotDirectory
	}

	// Check if directory is readable
	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a response as indented JSON
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getFloatDefault extracts a numeric parameter with a default value
func getFloatDefault(args map[string]interface{}, key string, defaultValue float64) float64 {
	if val, ok := args[key].(float64); ok {
		return val
	}
	if val, ok := args[key].(int); ok {
		return float64(val)
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("root_path is required")
	ErrPathNotAbsolute = errors.New("root_path must be absolute")
	ErrPathNotFound    = errors.New("root_path does not exist")
	ErrPathNotReadable = errors.New("root_path is not readable")
	ErrNotDirectory    = errors.New("root_path is not a directory")
)
