package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/server"

	"github.com/raglab/codeassist-mcp/internal/embedder"
	"github.com/raglab/codeassist-mcp/internal/indexer"
	"github.com/raglab/codeassist-mcp/internal/llm"
	"github.com/raglab/codeassist-mcp/internal/orchestrator"
	"github.com/raglab/codeassist-mcp/internal/retriever"
	"github.com/raglab/codeassist-mcp/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "codeassist-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultDBPath is the default location for the index database
	DefaultDBPath = "~/.codeassist"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp       *server.MCPServer
	store     storage.Store
	index     *indexer.Manager
	retriever *retriever.Retriever
	pipeline  *orchestrator.Orchestrator
}

// NewServer creates a new MCP server instance. The embedding and model
// providers are configured from the environment; pipelineCfg carries the
// retrieval overrides parsed in main (nil keeps the per-task defaults).
func NewServer(dbPath string, pipelineCfg *orchestrator.Config) (*Server, error) {
	dbPath, err := expandPath(dbPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	dbFile := filepath.Join(dbPath, "index.db")

	store, err := storage.NewSQLiteStore(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// One embedder serves both the indexer and the retriever, so query
	// vectors come from the same provider and cache as the indexed ones
	emb, err := embedder.NewFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	index := indexer.New(store, emb, nil)
	ret := retriever.New(index, emb, nil)

	enhancer, err := llm.NewEnhancerFromEnv()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize enhancer: %w", err)
	}
	pipeline := orchestrator.New(llm.NewBaseModelFromEnv(), enhancer, ret, pipelineCfg)

	s := &Server{
		mcp:       server.NewMCPServer(ServerName, ServerVersion),
		store:     store,
		index:     index,
		retriever: ret,
		pipeline:  pipeline,
	}
	s.registerTools()

	return s, nil
}

// Load restores the persisted generation so searches and watch mode work
// before the first index_codebase call. A missing index is not an error.
func (s *Server) Load(ctx context.Context) error {
	return s.index.Load(ctx)
}

// Index exposes the index manager for callers that wire watch mode
func (s *Server) Index() *indexer.Manager {
	return s.index
}

// Serve runs the MCP server on stdio and blocks until the client disconnects
func (s *Server) Serve() error {
	defer func() { _ = s.store.Close() }()
	return server.ServeStdio(s.mcp)
}

// Close releases the underlying store. Serve closes it on return; Close
// covers shutdown paths that never reach Serve.
func (s *Server) Close() error {
	return s.store.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(indexCodebaseTool(), s.handleIndexCodebase)
	s.mcp.AddTool(getIndexStatsTool(), s.handleGetIndexStats)
	s.mcp.AddTool(searchCodeTool(), s.handleSearchCode)
	s.mcp.AddTool(processCodeTool(), s.handleProcessCode)
}

// expandPath resolves the default and a leading ~/ against the home directory
func expandPath(path string) (string, error) {
	if path == "" {
		path = DefaultDBPath
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path, nil
}
