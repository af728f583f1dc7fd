// Package mcp implements the Model Context Protocol (MCP) server for CodeAssist.
//
// The MCP server exposes four tools to AI coding assistants:
//   - index_codebase: Index a source tree for semantic retrieval
//   - get_index_stats: Check what is indexed and which generation is active
//   - search_code: Search indexed code with natural language queries
//   - process_code: Run a code task through the two-stage generation pipeline
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server communicates with MCP clients via standard input/output.
// stdout carries protocol messages only; all logging goes to stderr.
//
// # Basic Usage
//
// The server is started via the codeassist binary:
//
//	codeassist
//
// It then listens on stdin for MCP protocol messages and writes responses
// to stdout.
//
// # Tool: index_codebase
//
// Index a codebase to make it searchable:
//
//	Request:
//	{
//	  "name": "index_codebase",
//	  "arguments": {
//	    "root_path": "/path/to/project",
//	    "force_reindex": false
//	  }
//	}
//
//	Response:
//	{
//	  "indexed": true,
//	  "files_indexed": 42,
//	  "files_skipped": 205,
//	  "snippets_indexed": 388,
//	  "generation_id": "7d9f2c4e-...",
//	  "duration_ms": 3512
//	}
//
// Indexing is incremental by default: files whose content hash matches the
// active manifest are skipped and their vectors reused. force_reindex
// discards the manifest and re-embeds everything.
//
// # Tool: get_index_stats
//
// Check the active index generation (no arguments):
//
//	Response:
//	{
//	  "indexed": true,
//	  "total_files": 42,
//	  "total_snippets": 388,
//	  "generation_id": "7d9f2c4e-...",
//	  "root_path": "/path/to/project"
//	}
//
// # Tool: search_code
//
// Search indexed code semantically:
//
//	Request:
//	{
//	  "name": "search_code",
//	  "arguments": {
//	    "query": "parse configuration from environment",
//	    "limit": 3,
//	    "min_score": 0.3
//	  }
//	}
//
//	Response:
//	{
//	  "query": "parse configuration from environment",
//	  "generation_id": "7d9f2c4e-...",
//	  "results": [
//	    {
//	      "rank": 1,
//	      "score": 0.87,
//	      "file": "internal/config/config.go",
//	      "name": "FromEnv",
//	      "kind": "function",
//	      "language": "go",
//	      "start_line": 18,
//	      "end_line": 54,
//	      "content": "func FromEnv() (*Config, error) { ... }"
//	    }
//	  ]
//	}
//
// # Tool: process_code
//
// Run a generation task over a piece of code:
//
//	Request:
//	{
//	  "name": "process_code",
//	  "arguments": {
//	    "task": "fix",
//	    "code": "def check(x):\n    if x = 1:\n        return True"
//	  }
//	}
//
//	Response:
//	{
//	  "task": "fix",
//	  "enhanced_output": "FIXED_CODE: ...",
//	  "code": "def check(x):\n    if x == 1:\n        return True",
//	  "explanation": "Replaced assignment with comparison.",
//	  "hints": ["possible assignment instead of comparison in a conditional"],
//	  "used_context": true,
//	  "degraded": false
//	}
//
// Tasks explain and document run a fast base-model stage first and degrade
// to that draft (degraded: true) when the enhancement service is down.
// Tasks fix, optimize, and test need the enhancement service; without it
// they fail with a dedicated error code rather than returning partial output.
//
// # MCP Client Configuration
//
// Configure in Claude Code's MCP settings:
//
//	{
//	  "mcpServers": {
//	    "codeassist": {
//	      "command": "/usr/local/bin/codeassist",
//	      "env": {
//	        "OPENAI_API_KEY": "your-api-key",
//	        "ANTHROPIC_API_KEY": "your-api-key"
//	      }
//	    }
//	  }
//	}
//
// # Error Handling
//
// The MCP server returns standard JSON-RPC error responses:
//
//	{
//	  "error": {
//	    "code": -32602,
//	    "message": "Invalid params",
//	    "data": {
//	      "param": "root_path",
//	      "reason": "root_path does not exist"
//	    }
//	  }
//	}
//
// Error codes:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error (indexing, search, or processing failure)
//   - -32002: Indexing already in progress
//   - -32003: No codebase indexed yet
//   - -32004: Empty search query
//   - -32005: Task needs the enhancement service and it is unavailable
//
// # Implementation Details
//
// The package uses github.com/mark3labs/mcp-go for protocol handling. Each
// tool is a schema (schemas.go) plus a handler (tools.go); handlers validate
// arguments, call into the index manager, retriever, or orchestrator, and
// marshal the result as indented JSON text content.
//
// # Logging
//
// The MCP server logs to stderr (stdout is reserved for MCP protocol):
//
//	log.SetOutput(os.Stderr)
//	log.Printf("codeassist-mcp started")
//
// # Testing
//
// Handlers are plain methods, so tests call them in-process:
//
//	result, err := srv.handleSearchCode(ctx, request)
//
//	require.NoError(t, err)
package mcp
