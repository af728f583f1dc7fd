package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// indexCodebaseTool returns the tool definition for index_codebase
func indexCodebaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_codebase",
		Description: "Index a codebase so its functions are searchable and usable as generation context",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"root_path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the codebase root",
				},
				"force_reindex": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, discard the manifest and re-embed everything instead of reindexing incrementally",
					"default":     false,
				},
			},
			Required: []string{"root_path"},
		},
	}
}

// getIndexStatsTool returns the tool definition for get_index_stats
func getIndexStatsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_index_stats",
		Description: "Report whether a codebase is indexed and the size of the active index generation",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// searchCodeTool returns the tool definition for search_code
func searchCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_code",
		Description: "Search the indexed codebase with a natural language query and get ranked snippets back",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or code)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-20)",
					"default":     DefaultSearchLimit,
					"minimum":     1,
					"maximum":     MaxSearchLimit,
				},
				"min_score": map[string]interface{}{
					"type":        "number",
					"description": "Minimum cosine similarity for a result to be included (-1.0 to 1.0)",
					"default":     0.0,
					"minimum":     -1.0,
					"maximum":     1.0,
				},
			},
			Required: []string{"query"},
		},
	}
}

// processCodeTool returns the tool definition for process_code
func processCodeTool() mcp.Tool {
	return mcp.Tool{
		Name:        "process_code",
		Description: "Run a code task through the two-stage pipeline: explain, document, fix, optimize, or test",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"task": map[string]interface{}{
					"type":        "string",
					"description": "Task to perform on the code",
					"enum":        []string{"explain", "document", "fix", "optimize", "test"},
				},
				"code": map[string]interface{}{
					"type":        "string",
					"description": "Source code to operate on",
				},
			},
			Required: []string{"task", "code"},
		},
	}
}
